package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/photomirror/photomirror/pkg/asset"
	"github.com/photomirror/photomirror/pkg/download"
	"github.com/photomirror/photomirror/pkg/engine/mocks"
	"github.com/photomirror/photomirror/pkg/errors"
	"github.com/photomirror/photomirror/pkg/metadata"
)

var testDate = time.Date(2021, 5, 3, 10, 0, 0, 0, time.UTC)

func makeAsset(id, filename string, kinds ...asset.SizeKind) asset.Asset {
	variants := make(map[asset.SizeKind]asset.Variant, len(kinds))
	for _, k := range kinds {
		variants[k] = asset.Variant{
			Kind:     k,
			Filename: filename,
			Type:     "public.jpeg",
			Size:     100,
			Checksum: "chk-" + id + "-" + k.String(),
			URL:      "https://cdn.example.com/" + id + "/" + k.String(),
		}
	}
	return asset.Asset{ID: id, Created: testDate, Variants: variants}
}

func expectListing(l *mocks.MockLister, assets ...asset.Asset) {
	l.EXPECT().CountAssets(gomock.Any(), gomock.Any()).Return(len(assets)).AnyTimes()
	l.EXPECT().ListAssets(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, fn func(asset.Asset) error) error {
			for _, a := range assets {
				if err := fn(a); err != nil {
					return err
				}
			}
			return nil
		}).AnyTimes()
}

func testOptions(dir string) Options {
	return Options{
		LibraryDir:  dir,
		Requested:   []asset.SizeKind{asset.SizeOriginal},
		Concurrency: 2,
	}
}

func TestSync_DownloadsMissingRenditions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)
	expectListing(lister, makeAsset("A1", "IMG_0001.JPG", asset.SizeOriginal),
		makeAsset("A2", "IMG_0002.JPG", asset.SizeOriginal))

	dir := t.TempDir()
	wantTargets := map[string]bool{
		filepath.Join(dir, "2021", "05", "03", "IMG_0001.JPG"): true,
		filepath.Join(dir, "2021", "05", "03", "IMG_0002.JPG"): true,
	}

	index.EXPECT().Exists(gomock.Any(), gomock.Any(), false).Return(false).Times(2)
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req download.Request) error {
			assert.True(t, wantTargets[req.TargetPath], "unexpected target %s", req.TargetPath)
			assert.NotEmpty(t, req.URL)
			assert.NotEmpty(t, req.Checksum)
			return nil
		}).Times(2)
	index.EXPECT().Add(gomock.Any(), gomock.Any(), int64(100)).Return(nil).Times(2)
	index.EXPECT().SetLastSync(gomock.Any()).Return(nil)

	e := New(lister, dl, index)
	report, err := e.Sync(context.Background(), testOptions(dir))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Listed)
	assert.Equal(t, 2, report.Downloaded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, int64(200), report.Bytes)
}

func TestSync_SkipsCachedRenditions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)
	expectListing(lister, makeAsset("A1", "IMG_0001.JPG", asset.SizeOriginal))

	index.EXPECT().Exists(gomock.Any(), gomock.Any(), false).Return(true)
	index.EXPECT().SetLastSync(gomock.Any()).Return(nil)
	// No Fetch expectation: a cached rendition is never downloaded.

	e := New(lister, dl, index)
	report, err := e.Sync(context.Background(), testOptions(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, 1, report.SkippedCached)
	assert.Equal(t, 0, report.Downloaded)
}

func TestSync_FiltersBeforeCacheConsult(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	favorite := makeAsset("FAV", "IMG_0001.JPG", asset.SizeOriginal)
	favorite.Favorite = true
	hidden := makeAsset("HID", "IMG_0002.JPG", asset.SizeOriginal)
	hidden.Hidden = true
	hidden.Favorite = true
	plain := makeAsset("PLAIN", "IMG_0003.JPG", asset.SizeOriginal)

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)
	expectListing(lister, favorite, hidden, plain)

	// Only the favorite, non-hidden asset ever reaches the index.
	index.EXPECT().Exists(gomock.Any(), gomock.Any(), false).Return(false).Times(1)
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	index.EXPECT().Add(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)
	index.EXPECT().SetLastSync(gomock.Any()).Return(nil)

	opts := testOptions(t.TempDir())
	opts.FavoritesOnly = true
	opts.SkipHidden = true

	e := New(lister, dl, index)
	report, err := e.Sync(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 2, report.SkippedFiltered)
	assert.Equal(t, 1, report.Downloaded)
}

func TestSync_DateWindowFilters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tooOld := makeAsset("OLD", "IMG_0001.JPG", asset.SizeOriginal)
	tooOld.Created = testDate.AddDate(-1, 0, 0)
	inside := makeAsset("IN", "IMG_0002.JPG", asset.SizeOriginal)
	tooNew := makeAsset("NEW", "IMG_0003.JPG", asset.SizeOriginal)
	tooNew.Created = testDate.AddDate(1, 0, 0)

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)
	expectListing(lister, tooOld, inside, tooNew)

	// Only the asset inside the window reaches the index or the network.
	index.EXPECT().Exists(gomock.Any(), gomock.Any(), false).Return(false).Times(1)
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req download.Request) error {
			assert.Contains(t, req.TargetPath, "IMG_0002.JPG")
			return nil
		}).Times(1)
	index.EXPECT().Add(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)
	index.EXPECT().SetLastSync(gomock.Any()).Return(nil)

	opts := testOptions(t.TempDir())
	opts.CreatedAfter = testDate.AddDate(0, -1, 0)
	opts.CreatedBefore = testDate.AddDate(0, 1, 0)

	e := New(lister, dl, index)
	report, err := e.Sync(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Listed)
	assert.Equal(t, 2, report.SkippedFiltered)
	assert.Equal(t, 1, report.Downloaded)
}

func TestSync_TransientFailureRetriesThenSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)
	expectListing(lister, makeAsset("A1", "IMG_0001.JPG", asset.SizeOriginal))

	index.EXPECT().Exists(gomock.Any(), gomock.Any(), false).Return(false)
	transient := errors.Wrap(errors.ErrTransient, "connection reset")
	gomock.InOrder(
		dl.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(transient),
		dl.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(transient),
		dl.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil),
	)
	index.EXPECT().Add(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	index.EXPECT().SetLastSync(gomock.Any()).Return(nil)

	opts := testOptions(t.TempDir())
	opts.MaxRetries = 3

	e := New(lister, dl, index)
	report, err := e.Sync(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Downloaded)
	assert.Equal(t, 0, report.Failed)
}

func TestSync_TerminalFailureDoesNotBlockOtherAssets(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bad := makeAsset("BAD", "IMG_0001.JPG", asset.SizeOriginal)
	good := makeAsset("GOOD", "IMG_0002.JPG", asset.SizeOriginal)

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)
	expectListing(lister, bad, good)

	index.EXPECT().Exists(gomock.Any(), gomock.Any(), false).Return(false).Times(2)
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req download.Request) error {
			if filepath.Base(req.TargetPath) == "IMG_0001.JPG" {
				return errors.Wrap(errors.ErrPermanent, "status 404")
			}
			return nil
		}).Times(2)
	index.EXPECT().Add(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)
	index.EXPECT().SetLastSync(gomock.Any()).Return(nil)

	opts := testOptions(t.TempDir())
	opts.MaxRetries = 5 // permanent failures must not be retried

	e := New(lister, dl, index)
	report, err := e.Sync(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Downloaded)
	assert.Equal(t, 1, report.Failed)
}

func TestSync_TransientExhaustionCountsFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)
	expectListing(lister, makeAsset("A1", "IMG_0001.JPG", asset.SizeOriginal))

	index.EXPECT().Exists(gomock.Any(), gomock.Any(), false).Return(false)
	transient := errors.Wrap(errors.ErrTransient, "timeout")
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(transient).Times(3)
	index.EXPECT().SetLastSync(gomock.Any()).Return(nil)

	opts := testOptions(t.TempDir())
	opts.MaxRetries = 2

	e := New(lister, dl, index)
	report, err := e.Sync(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Downloaded)
}

func TestSync_RecentLimitStopsListing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)
	expectListing(lister,
		makeAsset("A1", "IMG_0001.JPG", asset.SizeOriginal),
		makeAsset("A2", "IMG_0002.JPG", asset.SizeOriginal),
		makeAsset("A3", "IMG_0003.JPG", asset.SizeOriginal))

	index.EXPECT().Exists(gomock.Any(), gomock.Any(), false).Return(false).Times(2)
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	index.EXPECT().Add(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	index.EXPECT().SetLastSync(gomock.Any()).Return(nil)

	opts := testOptions(t.TempDir())
	opts.RecentLimit = 2

	e := New(lister, dl, index)
	report, err := e.Sync(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Listed)
}

func TestSync_UntilFoundStopsAfterConsecutiveLocalAssets(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)
	expectListing(lister,
		makeAsset("A1", "IMG_0001.JPG", asset.SizeOriginal),
		makeAsset("A2", "IMG_0002.JPG", asset.SizeOriginal),
		makeAsset("A3", "IMG_0003.JPG", asset.SizeOriginal))

	// Everything is already local; after two consecutive hits the pass stops.
	index.EXPECT().Exists(gomock.Any(), gomock.Any(), false).Return(true).Times(2)
	index.EXPECT().SetLastSync(gomock.Any()).Return(nil)

	opts := testOptions(t.TempDir())
	opts.UntilFound = 2

	e := New(lister, dl, index)
	report, err := e.Sync(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Listed)
	assert.Equal(t, 2, report.SkippedCached)
}

func TestSync_DryRunDownloadsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)
	expectListing(lister, makeAsset("A1", "IMG_0001.JPG", asset.SizeOriginal))

	index.EXPECT().Exists(gomock.Any(), gomock.Any(), false).Return(false)
	// No Fetch, Add or SetLastSync in a dry run.

	opts := testOptions(t.TempDir())
	opts.DryRun = true

	e := New(lister, dl, index)
	report, err := e.Sync(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Downloaded, "dry run reports would-be downloads")
	assert.Equal(t, int64(0), report.Bytes)
}

func TestSync_NameCollisionIsTerminalForAsset(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// The adjusted rendition is forced to IMG_1-adjusted.JPG, which collides
	// with the alternative rendition's bare name.
	colliding := asset.Asset{
		ID:      "COLLIDE",
		Created: testDate,
		Variants: map[asset.SizeKind]asset.Variant{
			asset.SizeAdjusted: {
				Kind: asset.SizeAdjusted, Filename: "IMG_1.JPG",
				Type: "public.jpeg", Checksum: "a", URL: "https://cdn.example.com/a",
			},
			asset.SizeAlternative: {
				Kind: asset.SizeAlternative, Filename: "IMG_1-adjusted.JPG",
				Type: "public.jpeg", Checksum: "b", URL: "https://cdn.example.com/b",
			},
		},
	}

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)
	expectListing(lister, colliding)
	index.EXPECT().SetLastSync(gomock.Any()).Return(nil)

	opts := testOptions(t.TempDir())
	opts.Requested = []asset.SizeKind{asset.SizeAlternative, asset.SizeAdjusted}

	e := New(lister, dl, index)
	report, err := e.Sync(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Downloaded)
}

func TestSync_WritesSidecars(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	a := makeAsset("A1", "IMG_0001.JPG", asset.SizeOriginal)
	a.Caption = "holiday"

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)
	sidecars := mocks.NewMockSidecarWriter(ctrl)
	expectListing(lister, a)

	index.EXPECT().Exists(gomock.Any(), gomock.Any(), false).Return(false)
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil)
	index.EXPECT().Add(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	sidecars.EXPECT().WriteSidecar(gomock.Any(), gomock.Any(), true, false).Return(nil)
	index.EXPECT().SetLastSync(gomock.Any()).Return(nil)

	opts := testOptions(t.TempDir())
	opts.WriteSidecars = true
	opts.SidecarOverwrite = true

	e := New(lister, dl, index)
	e.Sidecars = sidecars
	_, err := e.Sync(context.Background(), opts)
	require.NoError(t, err)
}

func TestSync_AutoDeleteRemovesLocalFiles(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deleted := makeAsset("GONE", "IMG_0009.JPG", asset.SizeOriginal)

	dir := t.TempDir()
	target := filepath.Join(dir, "2021", "05", "03", "IMG_0009.JPG")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("jpeg"), 0o644))
	require.NoError(t, os.WriteFile(metadata.SidecarPath(target), []byte("<x/>"), 0o644))

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)
	expectListing(lister)
	lister.EXPECT().ListRecentlyDeleted(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, fn func(asset.Asset) error) error {
			return fn(deleted)
		})
	index.EXPECT().Remove(gomock.Any(), target).Return(nil)
	index.EXPECT().SetLastSync(gomock.Any()).Return(nil)

	opts := testOptions(dir)
	opts.AutoDelete = true

	e := New(lister, dl, index)
	report, err := e.Sync(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Deleted)
	assert.NoFileExists(t, target)
	assert.NoFileExists(t, metadata.SidecarPath(target))
}

func TestSync_ListingFailureSkipsLastSyncMarker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)

	lister.EXPECT().CountAssets(gomock.Any(), gomock.Any()).Return(0)
	lister.EXPECT().ListAssets(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.ErrListingIncomplete)
	// No SetLastSync: an aborted listing must not advance the marker.

	e := New(lister, dl, index)
	_, err := e.Sync(context.Background(), testOptions(t.TempDir()))
	require.ErrorIs(t, err, errors.ErrListingIncomplete)
}

func TestWatch_StopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := mocks.NewMockLister(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	index := mocks.NewMockIndex(ctrl)
	expectListing(lister)
	index.EXPECT().SetLastSync(gomock.Any()).Return(nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	e := New(lister, dl, index)
	e.Progress = NewProgress()
	e.Hooks = Hooks{OnEvent: func(ev Event) {
		if ev.Phase == "done" {
			cancel()
		}
	}}

	err := e.Watch(ctx, time.Minute, testOptions(t.TempDir()))
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, e.Progress.Snapshot().Watching)
}

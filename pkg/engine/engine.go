// Package engine drives sync passes: it lists the remote library, plans
// local filenames, consults the file index and fans downloads out over a
// worker pool. Terminal failures on one rendition never block other assets.
package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/pkg/asset"
	"github.com/photomirror/photomirror/pkg/download"
	"github.com/photomirror/photomirror/pkg/errors"
	"github.com/photomirror/photomirror/pkg/fsutil"
	"github.com/photomirror/photomirror/pkg/hooks"
	"github.com/photomirror/photomirror/pkg/metadata"
	"github.com/photomirror/photomirror/pkg/naming"
)

// errStopListing aborts the listing early once a pass limit is reached.
var errStopListing = fmt.Errorf("listing limit reached")

// job is one rendition to download.
type job struct {
	a       asset.Asset
	variant asset.Variant
	target  string
}

// New constructs an Engine from existing collaborators. Helper for wiring;
// Scripts, Sidecars, Progress and Hooks may be left zero.
func New(lister Lister, dl Downloader, index Index) *Engine {
	return &Engine{
		Lister:   lister,
		DL:       dl,
		Index:    index,
		Sidecars: MetadataSidecars{},
	}
}

// Sync runs one pass over the library. The returned error covers the listing
// only; individual download failures are counted in the report and logged.
func (e *Engine) Sync(ctx context.Context, opts Options) (Report, error) {
	if e.Lister == nil || e.DL == nil || e.Index == nil {
		return Report{}, fmt.Errorf("engine collaborators are not configured")
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if len(opts.Requested) == 0 {
		opts.Requested = []asset.SizeKind{asset.SizeOriginal}
	}

	p := e.Progress
	if p == nil {
		p = NewProgress()
	}
	p.BeginPass(e.Lister.CountAssets(ctx, opts.Album))
	emit(e.Hooks, Event{Phase: "listing", Msg: "starting pass"})

	jobs := make(chan job)
	var wg sync.WaitGroup
	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				e.process(ctx, opts, j, p)
			}
		}()
	}

	listErr := e.list(ctx, opts, p, jobs)
	close(jobs)
	wg.Wait()

	if opts.AutoDelete && listErr == nil {
		e.autoDelete(ctx, opts, p)
	}

	if listErr == nil && !opts.DryRun {
		if err := e.Index.SetLastSync(time.Now()); err != nil {
			logger.Warn("failed to record sync time", logger.Fields{"error": err.Error()})
		}
	}

	p.EndPass(listErr)
	s := p.Snapshot()
	report := Report{
		Listed:          s.Listed,
		SkippedFiltered: s.SkippedFiltered,
		SkippedCached:   s.SkippedCached,
		Downloaded:      s.Downloaded,
		Failed:          s.Failed,
		Deleted:         s.Deleted,
		Bytes:           s.Bytes,
	}
	if listErr != nil {
		emit(e.Hooks, Event{Phase: "error", Msg: listErr.Error()})
		return report, listErr
	}
	e.runScript(hooks.PostSync, hooks.Context{
		Event:      hooks.PostSync,
		LibraryDir: opts.LibraryDir,
	})
	emit(e.Hooks, Event{Phase: "done"})
	return report, nil
}

// list walks the remote library and feeds download jobs to the pool. The
// plan for an asset is computed exactly once, here.
func (e *Engine) list(ctx context.Context, opts Options, p *Progress, jobs chan<- job) error {
	listed := 0
	consecutiveCached := 0

	err := e.Lister.ListAssets(ctx, opts.Album, func(a asset.Asset) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.Listed()
		listed++

		switch {
		case e.filtered(a, opts):
			p.SkippedFiltered()
			emit(e.Hooks, Event{Phase: "skipped", ID: a.ID, Msg: "filtered"})
		case !a.HasDate():
			p.SkippedFiltered()
			logger.Warn("asset has no creation date, skipping", logger.Fields{"asset": a.ID})
		default:
			cached, err := e.enqueue(ctx, opts, a, p, jobs)
			if err != nil {
				return err
			}
			if cached {
				consecutiveCached++
				if opts.UntilFound > 0 && consecutiveCached >= opts.UntilFound {
					logger.Info("reached already-local assets, stopping listing", logger.Fields{
						"consecutive": consecutiveCached,
					})
					return errStopListing
				}
			} else {
				consecutiveCached = 0
			}
		}

		if opts.RecentLimit > 0 && listed >= opts.RecentLimit {
			return errStopListing
		}
		return nil
	})
	if stderrors.Is(err, errStopListing) {
		return nil
	}
	return err
}

// enqueue plans the asset and queues every rendition not already local. It
// reports whether the whole asset was served from the index.
func (e *Engine) enqueue(ctx context.Context, opts Options, a asset.Asset, p *Progress, jobs chan<- job) (bool, error) {
	plan, err := naming.Plan(a.Variants, opts.Requested, opts.Naming)
	if err != nil {
		p.PlanFailed()
		emit(e.Hooks, Event{Phase: "failed", ID: a.ID, Msg: err.Error()})
		logger.Error("cannot plan filenames for asset", logger.Fields{
			"asset": a.ID, "error": err.Error(),
		})
		return false, nil
	}

	folder := a.FolderPath(opts.LibraryDir)
	allCached := true
	for kind, name := range plan {
		target := filepath.Join(folder, name)
		if e.Index.Exists(ctx, target, opts.VerifyDisk) {
			p.SkippedCached()
			emit(e.Hooks, Event{Phase: "skipped", ID: a.ID, Msg: name})
			continue
		}
		allCached = false
		j := job{a: a, variant: a.Variants[kind], target: target}
		select {
		case jobs <- j:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return allCached, nil
}

func (e *Engine) filtered(a asset.Asset, opts Options) bool {
	if opts.FavoritesOnly && !a.Favorite {
		return true
	}
	if opts.SkipHidden && a.Hidden {
		return true
	}
	if opts.SkipVideos && a.IsVideo() {
		return true
	}
	if !opts.CreatedAfter.IsZero() && a.Created.Before(opts.CreatedAfter) {
		return true
	}
	if !opts.CreatedBefore.IsZero() && a.Created.After(opts.CreatedBefore) {
		return true
	}
	return false
}

// process downloads one rendition, retrying transient failures with a fixed
// delay. A terminal failure marks just this rendition failed.
func (e *Engine) process(ctx context.Context, opts Options, j job, p *Progress) {
	p.DownloadStarted()
	emit(e.Hooks, Event{Phase: "downloading", ID: j.a.ID, Msg: filepath.Base(j.target)})

	if opts.DryRun {
		logger.Info("would download", logger.Fields{"target": j.target})
		p.DownloadFinished(0)
		return
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = e.DL.Fetch(ctx, download.Request{
			URL:        j.variant.URL,
			TargetPath: j.target,
			Checksum:   j.variant.Checksum,
			TypeTag:    j.variant.Type,
		})
		if err == nil || !download.IsTransient(err) || attempt >= opts.MaxRetries {
			break
		}
		logger.Warn("transient download failure, retrying", logger.Fields{
			"target": j.target, "attempt": attempt + 1, "error": err.Error(),
		})
		select {
		case <-ctx.Done():
			p.DownloadFailed()
			return
		case <-time.After(opts.RetryDelay):
		}
	}
	if err != nil {
		p.DownloadFailed()
		emit(e.Hooks, Event{Phase: "failed", ID: j.a.ID, Msg: err.Error()})
		logger.Error("download failed", logger.Fields{"target": j.target, "error": err.Error()})
		return
	}

	if err := e.Index.Add(ctx, j.target, j.variant.Size); err != nil {
		logger.Warn("failed to index downloaded file", logger.Fields{
			"target": j.target, "error": err.Error(),
		})
	}

	if opts.WriteSidecars && e.Sidecars != nil {
		if err := e.Sidecars.WriteSidecar(j.target, j.a, opts.SidecarOverwrite, false); err != nil {
			logger.Warn("failed to write sidecar", logger.Fields{
				"target": j.target, "error": err.Error(),
			})
		}
	}

	e.runScript(hooks.PostDownload, hooks.Context{
		Event:      hooks.PostDownload,
		AssetID:    j.a.ID,
		Filename:   filepath.Base(j.target),
		Path:       j.target,
		LibraryDir: opts.LibraryDir,
	})

	p.DownloadFinished(j.variant.Size)
	emit(e.Hooks, Event{Phase: "written", ID: j.a.ID, Msg: filepath.Base(j.target)})
}

// autoDelete removes local files whose assets moved to the remote
// recently-deleted collection.
func (e *Engine) autoDelete(ctx context.Context, opts Options, p *Progress) {
	err := e.Lister.ListRecentlyDeleted(ctx, func(a asset.Asset) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		plan, err := naming.Plan(a.Variants, opts.Requested, opts.Naming)
		if err != nil {
			return nil
		}
		folder := a.FolderPath(opts.LibraryDir)
		for _, name := range plan {
			target := filepath.Join(folder, name)
			if !fsutil.FileExists(target) {
				continue
			}
			emit(e.Hooks, Event{Phase: "deleting", ID: a.ID, Msg: name})
			e.runScript(hooks.PreDelete, hooks.Context{
				Event:      hooks.PreDelete,
				AssetID:    a.ID,
				Filename:   name,
				Path:       target,
				LibraryDir: opts.LibraryDir,
			})
			if opts.DryRun {
				logger.Info("would delete", logger.Fields{"target": target})
			} else {
				if err := os.Remove(target); err != nil {
					logger.Warn("failed to delete file", logger.Fields{
						"target": target, "error": err.Error(),
					})
					continue
				}
				_ = os.Remove(metadata.SidecarPath(target))
				if err := e.Index.Remove(ctx, target); err != nil {
					logger.Warn("failed to remove index entry", logger.Fields{
						"target": target, "error": err.Error(),
					})
				}
			}
			p.FileDeleted()
		}
		return nil
	})
	if err != nil && !stderrors.Is(err, context.Canceled) {
		logger.Warn("recently-deleted listing failed", logger.Fields{"error": err.Error()})
	}
}

// Watch runs sync passes until the context is cancelled, pausing interval
// between passes.
func (e *Engine) Watch(ctx context.Context, interval time.Duration, opts Options) error {
	p := e.Progress
	if p != nil {
		p.SetWatching(true)
		defer p.SetWatching(false)
		defer p.SetWaitingUntil(time.Time{})
	}

	for {
		if _, err := e.Sync(ctx, opts); err != nil {
			if stderrors.Is(err, context.Canceled) {
				return err
			}
			if stderrors.Is(err, errors.ErrAuthFailed) {
				e.runScript(hooks.AuthNeeded, hooks.Context{Event: hooks.AuthNeeded})
			}
			logger.Error("sync pass failed", logger.Fields{"error": err.Error()})
		}

		if p != nil {
			p.SetWaitingUntil(time.Now().Add(interval))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
		if p != nil {
			p.SetWaitingUntil(time.Time{})
		}
	}
}

func (e *Engine) runScript(event hooks.Event, hctx hooks.Context) {
	if e.Scripts == nil {
		return
	}
	if err := e.Scripts.Execute(event, hctx); err != nil {
		logger.Warn("hook failed", logger.Fields{
			"event": string(event), "error": err.Error(),
		})
	}
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

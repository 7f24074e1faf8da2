//go:generate mockgen -destination=./mocks/engine.go . Lister,Downloader,Index,SidecarWriter

package engine

import (
	"context"
	"time"

	"github.com/photomirror/photomirror/pkg/asset"
	"github.com/photomirror/photomirror/pkg/download"
	"github.com/photomirror/photomirror/pkg/hooks"
	"github.com/photomirror/photomirror/pkg/naming"
)

// Lister is the subset of the remote client used by the engine.
type Lister interface {
	ListAssets(ctx context.Context, album string, fn func(asset.Asset) error) error
	ListRecentlyDeleted(ctx context.Context, fn func(asset.Asset) error) error
	CountAssets(ctx context.Context, album string) int
}

// Downloader fetches one rendition to its final path.
type Downloader interface {
	Fetch(ctx context.Context, req download.Request) error
}

// Index is the subset of the local file index used by the engine.
type Index interface {
	Exists(ctx context.Context, path string, verifyDisk bool) bool
	Add(ctx context.Context, path string, size int64) error
	Remove(ctx context.Context, path string) error
	SetLastSync(t time.Time) error
}

// SidecarWriter writes metadata sidecars next to downloaded files.
type SidecarWriter interface {
	WriteSidecar(mediaPath string, a asset.Asset, overwrite, dryRun bool) error
}

// Engine ties the remote listing, the download manager and the local file
// index together for sync passes.
type Engine struct {
	Lister   Lister
	DL       Downloader
	Index    Index
	Sidecars SidecarWriter
	Scripts  hooks.Manager // optional lifecycle hook scripts
	Progress *Progress     // optional, shared with the status server
	Hooks    Hooks         // callbacks for progress events
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // listing|planning|downloading|written|skipped|failed|deleting|done|error
	ID    string // asset ID
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Options control one sync pass.
type Options struct {
	LibraryDir string
	Requested  []asset.SizeKind
	Naming     naming.Options
	Album      string

	FavoritesOnly bool
	SkipHidden    bool
	SkipVideos    bool

	// CreatedAfter and CreatedBefore bound the pass to assets created
	// inside the window. A zero time leaves that side unbounded.
	CreatedAfter  time.Time
	CreatedBefore time.Time

	// RecentLimit stops the pass after this many listed assets, 0 means
	// the whole library. UntilFound stops after this many consecutive
	// fully-local assets, 0 disables the shortcut.
	RecentLimit int
	UntilFound  int

	AutoDelete bool
	DryRun     bool

	// VerifyDisk makes cache consults stat the file instead of trusting
	// the index row.
	VerifyDisk bool

	WriteSidecars    bool
	SidecarOverwrite bool

	MaxRetries  int
	RetryDelay  time.Duration
	Concurrency int
}

// Report summarizes one sync pass.
type Report struct {
	Listed          int
	SkippedFiltered int
	SkippedCached   int
	Downloaded      int
	Failed          int
	Deleted         int
	Bytes           int64
}

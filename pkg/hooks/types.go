// Package hooks runs user-provided Tengo scripts at sync lifecycle points.
// Scripts live in a hooks directory, one file per event, and receive the
// current asset and paths as script variables.
package hooks

// Event identifies a sync lifecycle point scripts can attach to.
type Event string

// Supported hook events.
const (
	PostDownload Event = "post-download"
	PostSync     Event = "post-sync"
	AuthNeeded   Event = "auth-needed"
	PreDelete    Event = "pre-delete"
)

// Context contains the values passed to hook scripts. Fields that do not
// apply to an event are left empty.
type Context struct {
	Event      Event
	AssetID    string
	Filename   string
	Path       string
	LibraryDir string
	Vars       map[string]interface{}
}

// Hook is one script bound to an event.
type Hook struct {
	Event   Event
	Name    string
	Content string
}

// Manager runs hook scripts for lifecycle events.
type Manager interface {
	// Execute runs every script registered for the event. A failing script
	// is logged and does not stop the remaining scripts.
	Execute(event Event, ctx Context) error

	// AddHook registers a script for its event.
	AddHook(hook Hook) error

	// HasHooks reports whether any script is registered for the event.
	HasHooks(event Event) bool
}

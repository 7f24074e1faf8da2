package fsutil

// File and directory permission constants.
// These follow standard Unix permission conventions and are used consistently
// throughout the application so mirrored media and state files end up with
// predictable modes.
const (
	// Default file modes.
	FileModeDefault = 0o644 // -rw-r--r--: Default for regular files
	FileModeSecure  = 0o600 // -rw-------: For session/cookie state

	// Directory modes.
	DirModeDefault = 0o755 // drwxr-xr-x: Default for library directories
	DirModePrivate = 0o700 // drwx------: For config and session directories
)

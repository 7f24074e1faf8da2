package errors

import "fmt"

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")

	// Naming errors.
	ErrNameCollision = fmt.Errorf("filename collision after disambiguation")
	ErrUnknownSize   = fmt.Errorf("unknown size kind")

	// Index errors.
	ErrIndexClosed    = fmt.Errorf("file index is closed")
	ErrIndexDirectory = fmt.Errorf("index directory cannot be empty")

	// Download errors.
	ErrTransient        = fmt.Errorf("transient network failure")
	ErrPermanent        = fmt.Errorf("permanent download failure")
	ErrFileHashMismatch = fmt.Errorf("file hash mismatch")
	ErrInvalidPath      = fmt.Errorf("invalid path")

	// Session errors.
	ErrAuthFailed        = fmt.Errorf("authentication failed")
	ErrSessionState      = fmt.Errorf("unexpected session state")
	ErrTwoFactorNeeded   = fmt.Errorf("two-factor verification required")
	ErrListingFailed     = fmt.Errorf("asset listing failed")
	ErrListingIncomplete = fmt.Errorf("asset listing aborted mid-stream")

	// Update check errors.
	ErrUpdateCheckFailed = fmt.Errorf("update check failed")

	// Hook errors.
	ErrHookEventEmpty = fmt.Errorf("hook event cannot be empty")
	ErrHookExecution  = fmt.Errorf("error executing hook")
	ErrHookScript     = fmt.Errorf("hook script error")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

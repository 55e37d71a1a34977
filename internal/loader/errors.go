package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput is returned for invalid caller input. Such calls
	// never reach the loading state machine.
	ErrMalformedInput = errors.New("malformed input")
	// ErrRetryExhausted is returned when the clean-extraction retries for a
	// failing load exceed the configured maximum.
	ErrRetryExhausted = errors.New("library loading retries exceeded the maximum")
	// ErrNotFound is returned by SearchPath lookups for absent entries.
	ErrNotFound = errors.New("no such search path entry")
	// ErrLinkerUnavailable is returned on platforms without a load primitive.
	ErrLinkerUnavailable = errors.New("dynamic library loading is not available on this platform")
	// ErrImminentFailure is returned by TieredLoader when every fallback
	// has been tried.
	ErrImminentFailure = errors.New("native library could not be loaded by any fallback")
)

// UnsupportedSystemError is returned when no registered candidate matches
// the host.
type UnsupportedSystemError struct {
	OS   string
	Arch string
}

func (e *UnsupportedSystemError) Error() string {
	return fmt.Sprintf("unsupported system: no native library registered for %s/%s", e.OS, e.Arch)
}

// LoadError is returned when the load primitive rejects a library file.
type LoadError struct {
	Path      string
	Criterion Criterion
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s (%s): %v", e.Path, e.Criterion, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

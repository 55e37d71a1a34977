package extract

import (
	"errors"
	"fmt"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/archive"
)

var (
	// ErrEntryNotFound is returned when the archive has no such entry.
	ErrEntryNotFound = archive.ErrEntryNotFound
	// ErrDestinationUnwritable is returned when the destination file or one
	// of its parent directories cannot be created.
	ErrDestinationUnwritable = errors.New("extraction destination is not writable")
	// ErrVerificationFailed is returned when an extracted file fails its
	// signature or checksum check.
	ErrVerificationFailed = errors.New("extracted file failed verification")
)

// ScavengingError reports a failure to release extraction resources. When
// it accompanies a streaming or localization failure both are joined into
// the returned error, so neither masks the other.
type ScavengingError struct {
	Err error
}

func (e *ScavengingError) Error() string {
	return fmt.Sprintf("release extraction resources: %v", e.Err)
}

func (e *ScavengingError) Unwrap() error {
	return e.Err
}

// scavenge wraps a non-nil close error as a ScavengingError.
func scavenge(err error) error {
	if err == nil {
		return nil
	}
	return &ScavengingError{Err: err}
}

package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/archive"
)

// Extractor streams a located archive entry to a destination file.
type Extractor struct {
	locator  *Locator
	dest     string
	listener Listener
	verifier *Verifier
	closed   bool
	closeErr error
}

// NewExtractor returns an extractor writing the locator's entry to dest.
func NewExtractor(locator *Locator, dest string) *Extractor {
	return &Extractor{locator: locator, dest: dest}
}

// SetListener registers the extraction listener. A nil listener disables
// notifications.
func (e *Extractor) SetListener(listener Listener) {
	e.listener = listener
}

// SetVerifier makes every extraction check the written bytes before they
// are moved into place.
func (e *Extractor) SetVerifier(v *Verifier) {
	e.verifier = v
}

// Destination returns the destination path.
func (e *Extractor) Destination() string {
	return e.dest
}

// Locator returns the locator feeding this extractor.
func (e *Extractor) Locator() *Locator {
	return e.locator
}

// Extract runs one extraction attempt. The entry is located first if that
// has not happened yet. Resources are released before Extract returns,
// and a failure to release them is joined to the result.
func (e *Extractor) Extract() error {
	return e.ExtractContext(context.Background())
}

// ExtractContext is Extract with a context bounding the wait for the
// destination lock.
func (e *Extractor) ExtractContext(ctx context.Context) error {
	err := e.run(ctx)
	if err != nil {
		if e.listener != nil {
			e.listener.OnExtractionFailure(e, err)
		}
	} else if e.listener != nil {
		e.listener.OnExtractionCompleted(e)
	}

	if e.listener != nil {
		e.listener.OnExtractionFinalization(e, e.locator)
	}

	return errors.Join(err, e.Close())
}

func (e *Extractor) run(ctx context.Context) error {
	if e.closed {
		return fmt.Errorf("extract %s: extractor is closed", e.locator.Name())
	}

	if !e.locator.Located() {
		if err := e.locator.Locate(); err != nil {
			return err
		}
	}

	lock, err := AcquireLock(ctx, e.dest)
	if err != nil {
		if errors.Is(err, ErrLockExists) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("extract %s: %w", e.locator.Name(), err)
		}
		return fmt.Errorf("%w: %s: %v", ErrDestinationUnwritable, e.dest, err)
	}
	defer lock.Release()

	tmpPath := e.dest + ".tmp"
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDestinationUnwritable, e.dest, err)
	}

	if err := e.stream(out, tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, e.dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename into place: %v", ErrDestinationUnwritable, err)
	}

	return nil
}

func (e *Extractor) stream(out *os.File, tmpPath string) error {
	if _, err := io.Copy(out, e.locator.entry); err != nil {
		out.Close()
		return fmt.Errorf("stream %s: %w", e.locator.Name(), err)
	}

	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0755); err != nil {
			return fmt.Errorf("set permissions: %w", err)
		}
	}

	if e.verifier != nil {
		if _, err := e.verifier.Verify(tmpPath, e.locator.Name(), e.locator.Archive()); err != nil {
			return err
		}
	}

	return nil
}

// Close releases the entry stream and the archive. Calling Close more than
// once is safe. A release failure is returned as a *ScavengingError, and
// later calls return the same error.
func (e *Extractor) Close() error {
	if e.closed {
		return e.closeErr
	}
	e.closed = true
	e.closeErr = scavenge(e.locator.Close())
	return e.closeErr
}

// ExtractEntry copies the named entry of a to dest and closes a.
func ExtractEntry(a archive.Reader, name, dest string) error {
	return NewExtractor(NewLocator(a, name), dest).Extract()
}

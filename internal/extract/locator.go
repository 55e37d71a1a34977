package extract

import (
	"errors"
	"fmt"
	"io"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/archive"
)

// Locator finds one entry inside an archive and holds it open for an
// Extractor.
type Locator struct {
	archive  archive.Reader
	name     string
	listener LocalizingListener
	entry    io.ReadCloser
	closed   bool
	closeErr error
}

// NewLocator returns a locator for the named entry of a.
func NewLocator(a archive.Reader, name string) *Locator {
	return &Locator{archive: a, name: name}
}

// SetListener registers the localization listener. A nil listener disables
// notifications.
func (l *Locator) SetListener(listener LocalizingListener) {
	l.listener = listener
}

// Name returns the entry name.
func (l *Locator) Name() string {
	return l.name
}

// Archive returns the archive the entry is read from.
func (l *Locator) Archive() archive.Reader {
	return l.archive
}

// Located reports whether the entry is open.
func (l *Locator) Located() bool {
	return l.entry != nil
}

// Locate opens the entry. On failure the archive is closed before the
// listener is told, and any close error is joined to the returned error.
func (l *Locator) Locate() error {
	if l.closed {
		return fmt.Errorf("locate %s: locator is closed", l.name)
	}
	if l.entry != nil {
		return nil
	}

	entry, err := l.archive.Open(l.name)
	if err != nil {
		err = fmt.Errorf("locate %s: %w", l.name, err)
		err = errors.Join(err, scavenge(l.Close()))
		if l.listener != nil {
			l.listener.OnLocalizationFailure(l, err)
		}
		return err
	}

	l.entry = entry
	if l.listener != nil {
		l.listener.OnLocalizationSuccess(l)
	}
	return nil
}

// Close closes the entry stream and the archive. Calling Close more than
// once is safe; later calls return the first call's error.
func (l *Locator) Close() error {
	if l.closed {
		return l.closeErr
	}
	l.closed = true

	var errs []error
	if l.entry != nil {
		errs = append(errs, l.entry.Close())
		l.entry = nil
	}
	errs = append(errs, l.archive.Close())
	l.closeErr = errors.Join(errs...)
	return l.closeErr
}

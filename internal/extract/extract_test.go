package extract

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/archive"
)

// recorder captures listener events in dispatch order.
type recorder struct {
	events []string
	errs   []error
}

func (r *recorder) OnExtractionCompleted(e *Extractor) {
	r.events = append(r.events, "completed")
}

func (r *recorder) OnExtractionFailure(e *Extractor, err error) {
	r.events = append(r.events, "failure")
	r.errs = append(r.errs, err)
}

func (r *recorder) OnExtractionFinalization(e *Extractor, l *Locator) {
	r.events = append(r.events, "finalization")
	// Closing from the finalization handler must be harmless.
	if err := e.Close(); err != nil {
		r.errs = append(r.errs, err)
	}
}

func (r *recorder) OnLocalizationSuccess(l *Locator) {
	r.events = append(r.events, "localized")
}

func (r *recorder) OnLocalizationFailure(l *Locator, err error) {
	r.events = append(r.events, "localization-failure")
}

// closeCounter wraps a Reader and counts Close calls.
type closeCounter struct {
	archive.Reader
	closes   int
	closeErr error
}

func (c *closeCounter) Close() error {
	c.closes++
	return c.closeErr
}

func testArchive(files map[string]string) *closeCounter {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return &closeCounter{Reader: archive.FromFS(fsys)}
}

func newTestExtractor(a archive.Reader, entry, dest string, rec *recorder) *Extractor {
	locator := NewLocator(a, entry)
	locator.SetListener(rec)
	extractor := NewExtractor(locator, dest)
	extractor.SetListener(rec)
	return extractor
}

func TestExtractor_Extract(t *testing.T) {
	payload := strings.Repeat("\x7fELF-native-bytes", 4096)
	a := testArchive(map[string]string{"lib/linux-x86-64/libfoo.so": payload})
	dest := filepath.Join(t.TempDir(), "nested", "dir", "libfoo.so")

	rec := &recorder{}
	extractor := newTestExtractor(a, "lib/linux-x86-64/libfoo.so", dest, rec)

	if err := extractor.Extract(); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read destination: %v", err)
	}
	if string(got) != payload {
		t.Errorf("destination holds %d bytes, want %d identical bytes", len(got), len(payload))
	}

	want := []string{"localized", "completed", "finalization"}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if len(rec.errs) != 0 {
		t.Errorf("unexpected listener errors: %v", rec.errs)
	}
	if a.closes != 1 {
		t.Errorf("archive closed %d times, want 1", a.closes)
	}

	for _, leftover := range []string{dest + ".tmp", dest + ".lock"} {
		if _, err := os.Stat(leftover); !os.IsNotExist(err) {
			t.Errorf("%s left behind", filepath.Base(leftover))
		}
	}
}

func TestExtractor_OverwritesExistingFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "libfoo.so")
	if err := os.WriteFile(dest, []byte("stale-and-much-longer-content"), 0644); err != nil {
		t.Fatalf("failed to seed destination: %v", err)
	}

	a := testArchive(map[string]string{"libfoo.so": "fresh"})
	if err := ExtractEntry(a, "libfoo.so", dest); err != nil {
		t.Fatalf("ExtractEntry() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read destination: %v", err)
	}
	if string(got) != "fresh" {
		t.Errorf("destination = %q, want %q", got, "fresh")
	}
}

func TestExtractor_EntryNotFound(t *testing.T) {
	a := testArchive(map[string]string{"lib/libfoo.so": "bytes"})
	dest := filepath.Join(t.TempDir(), "libbar.so")

	rec := &recorder{}
	extractor := newTestExtractor(a, "lib/libbar.so", dest, rec)

	err := extractor.Extract()
	if !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("Extract() error = %v, want ErrEntryNotFound", err)
	}

	want := []string{"localization-failure", "failure", "finalization"}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if a.closes != 1 {
		t.Errorf("archive closed %d times, want 1", a.closes)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("destination should not exist after a localization failure")
	}
}

func TestExtractor_DestinationUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("a file, not a directory"), 0644); err != nil {
		t.Fatalf("failed to create blocker: %v", err)
	}

	a := testArchive(map[string]string{"libfoo.so": "bytes"})
	rec := &recorder{}
	extractor := newTestExtractor(a, "libfoo.so", filepath.Join(blocker, "libfoo.so"), rec)

	err := extractor.Extract()
	if !errors.Is(err, ErrDestinationUnwritable) {
		t.Fatalf("Extract() error = %v, want ErrDestinationUnwritable", err)
	}

	want := []string{"localized", "failure", "finalization"}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

// failingEntry errors partway through a read.
type failingEntry struct{}

func (failingEntry) Read(p []byte) (int, error) { return 0, errors.New("corrupt deflate stream") }
func (failingEntry) Close() error               { return nil }

type failingArchive struct{ closeErr error }

func (failingArchive) Open(name string) (io.ReadCloser, error) { return failingEntry{}, nil }
func (a failingArchive) Close() error                          { return a.closeErr }

func TestExtractor_StreamFailure(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "libfoo.so")
	rec := &recorder{}
	extractor := newTestExtractor(failingArchive{}, "libfoo.so", dest, rec)

	err := extractor.Extract()
	if err == nil || !strings.Contains(err.Error(), "corrupt deflate stream") {
		t.Fatalf("Extract() error = %v, want stream error", err)
	}

	want := []string{"localized", "failure", "finalization"}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind after stream failure")
	}
}

func TestExtractor_ScavengingErrorDoesNotMaskCause(t *testing.T) {
	closeErr := errors.New("close: bad file descriptor")
	extractor := NewExtractor(NewLocator(failingArchive{closeErr: closeErr}, "libfoo.so"),
		filepath.Join(t.TempDir(), "libfoo.so"))

	err := extractor.Extract()
	if err == nil {
		t.Fatal("expected error")
	}

	var scavenging *ScavengingError
	if !errors.As(err, &scavenging) {
		t.Errorf("error %v does not carry a ScavengingError", err)
	}
	if !errors.Is(err, closeErr) {
		t.Errorf("error %v does not wrap the close error", err)
	}
	if !strings.Contains(err.Error(), "corrupt deflate stream") {
		t.Errorf("error %v lost the stream failure", err)
	}
}

func TestExtractor_ScavengingErrorSurvivesEarlyClose(t *testing.T) {
	closeErr := errors.New("close: bad file descriptor")

	tests := []struct {
		name  string
		close func(*Extractor, *Locator) error
	}{
		{name: "extractor closed by listener", close: func(e *Extractor, _ *Locator) error { return e.Close() }},
		{name: "locator closed by listener", close: func(_ *Extractor, l *Locator) error { return l.Close() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var early error
			locator := NewLocator(failingArchive{closeErr: closeErr}, "libfoo.so")
			extractor := NewExtractor(locator, filepath.Join(t.TempDir(), "libfoo.so"))
			extractor.SetListener(ListenerFuncs{
				Finalization: func(e *Extractor, l *Locator) { early = tt.close(e, l) },
			})

			err := extractor.Extract()
			if !errors.Is(early, closeErr) {
				t.Errorf("close from listener = %v, want the close error", early)
			}

			var scavenging *ScavengingError
			if !errors.As(err, &scavenging) {
				t.Fatalf("Extract() error = %v, want a ScavengingError", err)
			}
			if !errors.Is(err, closeErr) {
				t.Errorf("error %v does not wrap the close error", err)
			}
			if !strings.Contains(err.Error(), "corrupt deflate stream") {
				t.Errorf("error %v lost the stream failure", err)
			}

			if again := extractor.Close(); !errors.As(again, &scavenging) {
				t.Errorf("later Close() = %v, want the cached ScavengingError", again)
			}
		})
	}
}

func TestExtractor_CloseIsIdempotent(t *testing.T) {
	a := testArchive(map[string]string{"libfoo.so": "bytes"})
	extractor := NewExtractor(NewLocator(a, "libfoo.so"), filepath.Join(t.TempDir(), "libfoo.so"))

	for i := 0; i < 3; i++ {
		if err := extractor.Close(); err != nil {
			t.Fatalf("Close() #%d error = %v", i+1, err)
		}
	}
	if a.closes != 1 {
		t.Errorf("archive closed %d times, want 1", a.closes)
	}

	if err := extractor.Extract(); err == nil {
		t.Error("Extract() after Close() should fail")
	}
}

func TestLocator_Locate(t *testing.T) {
	a := testArchive(map[string]string{"libfoo.so": "bytes"})
	rec := &recorder{}

	locator := NewLocator(a, "libfoo.so")
	locator.SetListener(rec)

	if err := locator.Locate(); err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if !locator.Located() {
		t.Error("Located() = false after successful Locate()")
	}
	// A second Locate is a no-op.
	if err := locator.Locate(); err != nil {
		t.Fatalf("second Locate() error = %v", err)
	}
	if diff := cmp.Diff([]string{"localized"}, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if err := locator.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

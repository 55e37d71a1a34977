package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"sync"
)

// ZipReader reads entries from zip-compatible containers (zip, jar, aar).
type ZipReader struct {
	rc        *zip.ReadCloser
	closeOnce sync.Once
	closeErr  error
}

// OpenZip opens a zip-compatible container.
func OpenZip(path string) (*ZipReader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip archive: %w", err)
	}
	return &ZipReader{rc: rc}, nil
}

// Open returns a stream over the named entry.
func (z *ZipReader) Open(name string) (io.ReadCloser, error) {
	return openFS(&z.rc.Reader, name)
}

// Close closes the underlying file.
func (z *ZipReader) Close() error {
	z.closeOnce.Do(func() {
		z.closeErr = z.rc.Close()
	})
	return z.closeErr
}

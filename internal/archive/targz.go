package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
)

// TarGzReader reads entries from a .tar.gz archive. Tar streams are
// sequential, so every Open rescans the archive from the start.
type TarGzReader struct {
	path string
}

// OpenTarGz validates that path is readable and returns a reader for it.
func OpenTarGz(path string) (*TarGzReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	f.Close()
	return &TarGzReader{path: path}, nil
}

// Open scans the archive for a regular file named name.
func (r *TarGzReader) Open(name string) (io.ReadCloser, error) {
	cleaned, err := CleanName(name)
	if err != nil {
		return nil, err
	}

	archiveFile, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		archiveFile.Close()
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			gzipReader.Close()
			archiveFile.Close()
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, cleaned)
		}
		if err != nil {
			gzipReader.Close()
			archiveFile.Close()
			return nil, fmt.Errorf("read tar header: %w", err)
		}

		headerName, err := CleanName(header.Name)
		if err != nil {
			// Skip entries that would escape the archive root.
			continue
		}

		if header.Typeflag == tar.TypeReg && headerName == cleaned {
			return &tarEntry{Reader: tarReader, gzip: gzipReader, file: archiveFile}, nil
		}
	}
}

// Close is a no-op; each entry owns its file handle.
func (r *TarGzReader) Close() error {
	return nil
}

type tarEntry struct {
	io.Reader
	gzip   *gzip.Reader
	file   *os.File
	closed bool
}

func (e *tarEntry) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return errors.Join(e.gzip.Close(), e.file.Close())
}

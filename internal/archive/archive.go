// Package archive reads single entries out of compressed containers that
// carry packaged native libraries: zip and jar files, gzip-compressed
// tarballs, and any fs.FS such as an embed.FS compiled into the program.
//
// Entry names always use forward slashes, whatever the host OS.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
)

var (
	// ErrEntryNotFound is returned when the requested entry is absent.
	ErrEntryNotFound = errors.New("entry not found in archive")
	// ErrIllegalEntryName is returned for names escaping the archive root.
	ErrIllegalEntryName = errors.New("illegal archive entry name")
	// ErrUnsupportedFormat is returned by Open for unknown container types.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
)

// Reader locates entries inside a container and streams their bytes.
type Reader interface {
	// Open returns a stream over the named entry. It fails with
	// ErrEntryNotFound when the entry does not exist.
	Open(name string) (io.ReadCloser, error)
	// Close releases the container. Calling Close twice is safe.
	Close() error
}

// Open opens the container at path, choosing the format by file extension.
func Open(path string) (Reader, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"), strings.HasSuffix(lower, ".jar"), strings.HasSuffix(lower, ".aar"):
		return OpenZip(path)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return OpenTarGz(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// CleanName normalizes an entry name and rejects names that escape the
// archive root.
func CleanName(name string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("%w: %q", ErrIllegalEntryName, name)
	}
	for _, part := range strings.Split(strings.ReplaceAll(name, "\\", "/"), "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q", ErrIllegalEntryName, name)
		}
	}
	return cleaned, nil
}

// fsReader adapts an fs.FS to Reader.
type fsReader struct {
	fsys fs.FS
}

// FromFS returns a Reader over fsys. Closing it is a no-op.
func FromFS(fsys fs.FS) Reader {
	return &fsReader{fsys: fsys}
}

func (r *fsReader) Open(name string) (io.ReadCloser, error) {
	return openFS(r.fsys, name)
}

func (r *fsReader) Close() error {
	return nil
}

func openFS(fsys fs.FS, name string) (io.ReadCloser, error) {
	cleaned, err := CleanName(name)
	if err != nil {
		return nil, err
	}

	f, err := fsys.Open(cleaned)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, cleaned)
		}
		return nil, fmt.Errorf("open entry %s: %w", cleaned, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat entry %s: %w", cleaned, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrEntryNotFound, cleaned)
	}

	return f, nil
}

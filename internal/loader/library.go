package loader

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/platform"
)

// LibraryInfo describes where a native library is packaged and where it
// is extracted to. It is shared read-only by every candidate.
type LibraryInfo struct {
	// CompressedDir is the archive directory used by candidates that have
	// no storage path of their own. Always uses forward slashes.
	CompressedDir string
	// BaseName is the library name without prefix or extension ("foo" for
	// libfoo.so, libfoo.dylib and foo.dll).
	BaseName string
	// ExtractionDir is the base directory extracted files are written under.
	ExtractionDir string
	// ArchivePath optionally names a zip, jar or tar.gz file holding the
	// libraries. When empty the loader reads Config.Resources.
	ArchivePath string
}

// LibraryFileName returns the platform file name for a library base name.
func LibraryFileName(goos, baseName string) string {
	switch goos {
	case "windows":
		return baseName + ".dll"
	case "darwin", "ios":
		return "lib" + baseName + ".dylib"
	default:
		return "lib" + baseName + ".so"
	}
}

// Candidate pairs one packaged library variant with the predicate deciding
// whether it applies to the host.
type Candidate struct {
	// StoragePath is the variant's directory inside the archive, relative
	// to the archive root. It also subdivides the extraction directory.
	StoragePath string
	// Predicate decides whether this variant applies.
	Predicate platform.Predicate

	info LibraryInfo
	goos string
}

// NewCandidate returns a candidate for the variant stored under storagePath.
func NewCandidate(storagePath string, predicate platform.Predicate) *Candidate {
	return &Candidate{StoragePath: storagePath, Predicate: predicate}
}

// bind attaches the library description and host OS used for naming.
func (c *Candidate) bind(info LibraryInfo, goos string) {
	c.info = info
	c.goos = goos
}

// LibraryInfo returns the bound library description.
func (c *Candidate) LibraryInfo() LibraryInfo {
	return c.info
}

// LibraryFile returns the platform file name, e.g. libfoo.so.
func (c *Candidate) LibraryFile() string {
	return LibraryFileName(c.goos, c.info.BaseName)
}

// CompressedPath returns the entry name inside the archive.
func (c *Candidate) CompressedPath() string {
	dir := c.StoragePath
	if dir == "" {
		dir = c.info.CompressedDir
	}
	return strings.TrimPrefix(path.Join(filepath.ToSlash(dir), c.LibraryFile()), "/")
}

// ExtractedPath returns the destination of the extracted file.
func (c *Candidate) ExtractedPath() string {
	return filepath.Join(c.info.ExtractionDir, filepath.FromSlash(c.StoragePath), c.LibraryFile())
}

// IsExtracted reports whether a regular file exists at ExtractedPath. It
// reflects the filesystem, not whether extraction was attempted.
func (c *Candidate) IsExtracted() bool {
	info, err := os.Stat(c.ExtractedPath())
	return err == nil && info.Mode().IsRegular()
}

// Select returns the first candidate whose predicate holds. The scan is
// linear and stops at the first match, so more specific variants must be
// listed before the general ones they refine.
func Select(candidates []*Candidate) (*Candidate, bool) {
	for _, c := range candidates {
		if c != nil && c.Predicate.Evaluate() {
			return c, true
		}
	}
	return nil, false
}

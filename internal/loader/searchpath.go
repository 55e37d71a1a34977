package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// SearchPathEnv is the environment variable holding the directories
// SystemLoad scans on desktop systems.
const SearchPathEnv = "NATIVELOAD_LIBRARY_PATH"

// SearchPath edits a delimited directory list stored in an environment
// variable. Entries are separated by os.PathListSeparator.
type SearchPath struct {
	key  string
	goos string
	mu   sync.Mutex
}

// NewSearchPath returns a controller for the variable key.
func NewSearchPath(key string) *SearchPath {
	return &SearchPath{key: key, goos: runtime.GOOS}
}

var defaultSearchPath = NewSearchPath(SearchPathEnv)

// DefaultSearchPath returns the process-wide controller for SearchPathEnv.
func DefaultSearchPath() *SearchPath {
	return defaultSearchPath
}

// Key returns the environment variable name.
func (s *SearchPath) Key() string {
	return s.key
}

// loaderVariable names the variable the OS dynamic linker searches.
func loaderVariable(goos string) string {
	switch goos {
	case "windows":
		return "PATH"
	case "darwin":
		return "DYLD_LIBRARY_PATH"
	default:
		return "LD_LIBRARY_PATH"
	}
}

// Initialize seeds the variable from the OS linker's search variable when
// it is unset. An already set value is left alone.
func (s *SearchPath) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := os.LookupEnv(s.key); ok {
		return nil
	}
	if err := os.Setenv(s.key, os.Getenv(loaderVariable(s.goos))); err != nil {
		return fmt.Errorf("initialize %s: %w", s.key, err)
	}
	return nil
}

// Deinitialize unsets the variable.
func (s *SearchPath) Deinitialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Unsetenv(s.key); err != nil {
		return fmt.Errorf("deinitialize %s: %w", s.key, err)
	}
	return nil
}

// List returns the directories in order, skipping empty entries.
func (s *SearchPath) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

func (s *SearchPath) listLocked() []string {
	var dirs []string
	for _, dir := range filepath.SplitList(os.Getenv(s.key)) {
		if strings.TrimSpace(dir) != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func (s *SearchPath) storeLocked(dirs []string) error {
	if err := os.Setenv(s.key, strings.Join(dirs, string(os.PathListSeparator))); err != nil {
		return fmt.Errorf("update %s: %w", s.key, err)
	}
	return nil
}

// Iterate calls fn for each directory until fn returns false. fn runs on a
// snapshot, so it may modify the search path.
func (s *SearchPath) Iterate(fn func(dir string) bool) {
	for _, dir := range s.List() {
		if !fn(dir) {
			return
		}
	}
}

// Add appends dir.
func (s *SearchPath) Add(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: empty search path entry", ErrMalformedInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeLocked(append(s.listLocked(), dir))
}

// Get returns the directory at index i.
func (s *SearchPath) Get(i int) (string, error) {
	dirs := s.List()
	if i < 0 || i >= len(dirs) {
		return "", fmt.Errorf("%w: index %d of %d in %s", ErrNotFound, i, len(dirs), s.key)
	}
	return dirs[i], nil
}

// Remove deletes every occurrence of dir. It fails with ErrNotFound when
// dir is absent.
func (s *SearchPath) Remove(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirs := s.listLocked()
	kept := dirs[:0]
	for _, d := range dirs {
		if d != dir {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(dirs) {
		return fmt.Errorf("%w: %s in %s", ErrNotFound, dir, s.key)
	}
	return s.storeLocked(kept)
}

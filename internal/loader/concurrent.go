package loader

import (
	"sync"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/extract"
)

// ConcurrentLoader serializes platform selection, loading and extraction
// of one Loader behind a single mutex. Distinct ConcurrentLoaders do not
// block each other.
//
// Listeners receive the inner *Loader and must call back through it, not
// through the ConcurrentLoader, whose mutex is held for the whole call.
type ConcurrentLoader struct {
	mu     sync.Mutex
	loader *Loader
}

// NewConcurrent creates a loader safe for concurrent use.
func NewConcurrent(config Config) (*ConcurrentLoader, error) {
	l, err := New(config)
	if err != nil {
		return nil, err
	}
	return &ConcurrentLoader{loader: l}, nil
}

// Loader returns the wrapped loader. Calls made through it bypass the
// mutex.
func (c *ConcurrentLoader) Loader() *Loader {
	return c.loader
}

// RegisterNativeLibraries replaces the candidate list.
func (c *ConcurrentLoader) RegisterNativeLibraries(candidates ...*Candidate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loader.RegisterNativeLibraries(candidates...)
}

// InitPlatformLibrary selects the platform library.
func (c *ConcurrentLoader) InitPlatformLibrary() (*Candidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loader.InitPlatformLibrary()
}

// LoadLibrary loads the selected library. Concurrent calls run one at a
// time.
func (c *ConcurrentLoader) LoadLibrary(criterion Criterion) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loader.LoadLibrary(criterion)
}

// NativeLibrary returns the selected candidate.
func (c *ConcurrentLoader) NativeLibrary() *Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loader.NativeLibrary()
}

// LoadedPath returns the path the last successful load opened.
func (c *ConcurrentLoader) LoadedPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loader.LoadedPath()
}

// Loaded reports whether a load has succeeded.
func (c *ConcurrentLoader) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loader.Loaded()
}

// Symbol resolves name in the loaded library.
func (c *ConcurrentLoader) Symbol(name string) (uintptr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loader.Symbol(name)
}

// Close releases the loaded library handle.
func (c *ConcurrentLoader) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loader.Close()
}

// SetLoggingEnabled turns diagnostics on or off.
func (c *ConcurrentLoader) SetLoggingEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loader.SetLoggingEnabled(enabled)
}

// SetRetryWithCleanExtraction enables re-extraction after a load failure.
func (c *ConcurrentLoader) SetRetryWithCleanExtraction(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loader.SetRetryWithCleanExtraction(enabled)
}

// SetMaxLoadingFailures bounds the clean-extraction retries.
func (c *ConcurrentLoader) SetMaxLoadingFailures(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loader.SetMaxLoadingFailures(n)
}

// SetLoadingListener registers the lifecycle listener.
func (c *ConcurrentLoader) SetLoadingListener(listener LoadingListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loader.SetLoadingListener(listener)
}

// SetSystemDetectionListener registers the platform selection listener.
func (c *ConcurrentLoader) SetSystemDetectionListener(listener SystemDetectionListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loader.SetSystemDetectionListener(listener)
}

// SetExtractionListener registers the user extraction listener.
func (c *ConcurrentLoader) SetExtractionListener(listener extract.Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loader.SetExtractionListener(listener)
}

// SetLocalizingListener registers the user localization listener.
func (c *ConcurrentLoader) SetLocalizingListener(listener extract.LocalizingListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loader.SetLocalizingListener(listener)
}

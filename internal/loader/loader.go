package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/archive"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/diag"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/extract"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/platform"
)

// DefaultMaxLoadingFailures is the default bound on clean-extraction retries.
const DefaultMaxLoadingFailures = 2

// Config holds configuration for a Loader.
type Config struct {
	// Library describes the packaged library. BaseName is required.
	Library LibraryInfo
	// Host is the platform identity used for naming and Android detection
	// (default: platform.Current()).
	Host *platform.Host
	// Linker is the load primitive (default: SystemLinker()).
	Linker Linker
	// Logger receives diagnostics while logging is enabled
	// (default: diag.Default()).
	Logger diag.Logger
	// Resources is read when Library.ArchivePath is empty, typically an
	// embed.FS compiled into the program.
	Resources fs.FS
	// SearchPath lists the directories SystemLoad scans
	// (default: DefaultSearchPath()).
	SearchPath *SearchPath
	// Verifier, when set, checks every extracted file before it is loaded.
	Verifier *extract.Verifier
}

// Loader drives selection, extraction and loading of one native library.
// A Loader is not safe for concurrent use; see ConcurrentLoader.
type Loader struct {
	info       LibraryInfo
	host       *platform.Host
	linker     Linker
	logger     diag.Logger
	resources  fs.FS
	searchPath *SearchPath
	verifier   *extract.Verifier

	registered []*Candidate
	selected   *Candidate

	loadingListener    LoadingListener
	detectionListener  SystemDetectionListener
	extractionListener extract.Listener
	localizingListener extract.LocalizingListener

	loggingEnabled           bool
	retryWithCleanExtraction bool
	maxLoadingFailures       int
	loadingFailures          int

	// successes counts success dispatches so a failure path can tell
	// whether a listener loaded the library while handling it.
	successes int
	loaded    bool
	handle    Handle
	criterion Criterion
	path      string
}

// New creates a loader. The search path is initialized as a side effect.
func New(config Config) (*Loader, error) {
	if config.Library.BaseName == "" {
		return nil, fmt.Errorf("%w: library base name is required", ErrMalformedInput)
	}

	info := config.Library
	if info.ExtractionDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve extraction directory: %w", err)
		}
		info.ExtractionDir = wd
	}
	if config.Host == nil {
		config.Host = platform.Current()
	}
	if config.Linker == nil {
		config.Linker = SystemLinker()
	}
	if config.Logger == nil {
		config.Logger = diag.Default()
	}
	if config.SearchPath == nil {
		config.SearchPath = DefaultSearchPath()
	}
	if err := config.SearchPath.Initialize(); err != nil {
		return nil, err
	}

	return &Loader{
		info:               info,
		host:               config.Host,
		linker:             config.Linker,
		logger:             config.Logger,
		resources:          config.Resources,
		searchPath:         config.SearchPath,
		verifier:           config.Verifier,
		maxLoadingFailures: DefaultMaxLoadingFailures,
	}, nil
}

// LibraryInfo returns the library description.
func (l *Loader) LibraryInfo() LibraryInfo {
	return l.info
}

// Host returns the host the loader evaluates against.
func (l *Loader) Host() *platform.Host {
	return l.host
}

// SearchPath returns the search path controller used by SystemLoad.
func (l *Loader) SearchPath() *SearchPath {
	return l.searchPath
}

// SetLoggingEnabled turns diagnostics on or off. Logging is off by default.
func (l *Loader) SetLoggingEnabled(enabled bool) {
	l.loggingEnabled = enabled
}

// LoggingEnabled reports whether diagnostics are emitted.
func (l *Loader) LoggingEnabled() bool {
	return l.loggingEnabled
}

// SetRetryWithCleanExtraction enables re-extraction after a load failure.
// It is off by default.
func (l *Loader) SetRetryWithCleanExtraction(enabled bool) {
	l.retryWithCleanExtraction = enabled
}

// RetryWithCleanExtraction reports whether retries are enabled.
func (l *Loader) RetryWithCleanExtraction() bool {
	return l.retryWithCleanExtraction
}

// SetMaxLoadingFailures bounds the clean-extraction retries. Negative
// values are normalized to their absolute value.
func (l *Loader) SetMaxLoadingFailures(n int) {
	if n < 0 {
		n = -n
	}
	l.maxLoadingFailures = n
}

// MaxLoadingFailures returns the retry bound.
func (l *Loader) MaxLoadingFailures() int {
	return l.maxLoadingFailures
}

// SetLoadingListener registers the lifecycle listener.
func (l *Loader) SetLoadingListener(listener LoadingListener) {
	l.loadingListener = listener
}

// SetSystemDetectionListener registers the platform selection listener.
func (l *Loader) SetSystemDetectionListener(listener SystemDetectionListener) {
	l.detectionListener = listener
}

// SetExtractionListener registers a listener that receives extraction
// events after the loader has handled them.
func (l *Loader) SetExtractionListener(listener extract.Listener) {
	l.extractionListener = listener
}

// SetLocalizingListener registers a listener that receives archive
// localization events after the loader has handled them.
func (l *Loader) SetLocalizingListener(listener extract.LocalizingListener) {
	l.localizingListener = listener
}

// RegisterNativeLibraries replaces the candidate list. Order matters: the
// first matching candidate wins.
func (l *Loader) RegisterNativeLibraries(candidates ...*Candidate) error {
	if len(candidates) == 0 {
		return fmt.Errorf("%w: no native libraries to register", ErrMalformedInput)
	}
	for i, c := range candidates {
		if c == nil {
			return fmt.Errorf("%w: native library %d is nil", ErrMalformedInput, i)
		}
	}

	l.registered = append([]*Candidate(nil), candidates...)
	l.selected = nil
	return nil
}

// RegisteredLibraries returns the registered candidates in order.
func (l *Loader) RegisteredLibraries() []*Candidate {
	return append([]*Candidate(nil), l.registered...)
}

// InitPlatformLibrary selects the first registered candidate whose
// predicate holds. When none does it returns *UnsupportedSystemError.
func (l *Loader) InitPlatformLibrary() (*Candidate, error) {
	if len(l.registered) == 0 {
		return nil, fmt.Errorf("%w: no native libraries registered", ErrMalformedInput)
	}

	hostInfo := l.host.Info()
	for _, c := range l.registered {
		c.bind(l.info, hostInfo.OS)
	}

	selected, ok := Select(l.registered)
	if !ok {
		l.selected = nil
		l.log().Error("no native library matches the host", "os", hostInfo.OS, "arch", hostInfo.ArchRaw)
		if l.detectionListener != nil {
			l.detectionListener.OnSystemNotFound(l)
		}
		return nil, &UnsupportedSystemError{OS: hostInfo.OS, Arch: hostInfo.ArchRaw}
	}

	l.selected = selected
	l.log().Debug("selected native library", "storage_path", selected.StoragePath, "file", selected.LibraryFile())
	if l.detectionListener != nil {
		l.detectionListener.OnSystemFound(l, selected)
	}
	return selected, nil
}

// NativeLibrary returns the selected candidate, or nil before a
// successful InitPlatformLibrary.
func (l *Loader) NativeLibrary() *Candidate {
	return l.selected
}

// Loaded reports whether a load has succeeded.
func (l *Loader) Loaded() bool {
	return l.loaded
}

// LoadedCriterion returns the criterion of the last successful load.
func (l *Loader) LoadedCriterion() Criterion {
	return l.criterion
}

// LoadedPath returns what the last successful load opened: the extracted
// file, a file found on the search path, or a bare file name resolved by
// the OS linker.
func (l *Loader) LoadedPath() string {
	return l.path
}

// Handle returns the handle of the last successful load.
func (l *Loader) Handle() (Handle, bool) {
	return l.handle, l.loaded
}

// Symbol resolves name in the loaded library.
func (l *Loader) Symbol(name string) (uintptr, error) {
	if !l.loaded {
		return 0, fmt.Errorf("resolve %s: library is not loaded", name)
	}
	return l.linker.Symbol(l.handle, name)
}

// Close releases the loaded library handle.
func (l *Loader) Close() error {
	if !l.loaded {
		return nil
	}
	l.loaded = false
	h := l.handle
	l.handle = 0
	l.path = ""
	return l.linker.Close(h)
}

// LoadLibrary loads the selected candidate according to criterion. It
// returns nil when the library ended up loaded, including when a listener
// recovered from a failure; otherwise it returns the terminal error.
func (l *Loader) LoadLibrary(criterion Criterion) error {
	if !criterion.Valid() {
		return fmt.Errorf("%w: invalid loading criterion %v", ErrMalformedInput, criterion)
	}
	if l.selected == nil {
		return fmt.Errorf("%w: platform library is not initialized", ErrMalformedInput)
	}

	if l.host.Info().IsAndroid() {
		return l.loadSystemBinary(l.selected)
	}

	switch criterion {
	case SystemLoad:
		return l.loadSystemBinary(l.selected)
	case IncrementalLoading:
		if l.selected.IsExtracted() {
			return l.loadBinary(l.selected, IncrementalLoading)
		}
		return l.cleanExtractBinary(l.selected)
	case CleanExtraction:
		return l.cleanExtractBinary(l.selected)
	default:
		return fmt.Errorf("%w: invalid loading criterion %v", ErrMalformedInput, criterion)
	}
}

// loadSystemBinary loads through the search path on desktop systems and
// through the OS linker by file name otherwise or when no directory holds
// the library.
func (l *Loader) loadSystemBinary(c *Candidate) error {
	target := c.LibraryFile()

	if l.host.Info().IsDesktop() {
		dirs := l.searchPath.List()
		l.log().Info("loading library from the system", "search_path", dirs)
		for _, dir := range dirs {
			candidate := filepath.Join(dir, c.LibraryFile())
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				target = candidate
				break
			}
		}
	}

	h, err := l.linker.Open(target)
	if err != nil {
		loadErr := &LoadError{Path: target, Criterion: SystemLoad, Err: err}
		l.log().Error("cannot load the library from the system", "library", target, "error", err)
		if l.dispatchFailure(SystemLoad, loadErr) {
			return nil
		}
		return loadErr
	}

	l.markLoaded(h, SystemLoad, target)
	return nil
}

// loadBinary loads the extracted file, re-extracting on failure while
// retries are enabled and the retry bound allows it.
func (l *Loader) loadBinary(c *Candidate, criterion Criterion) error {
	for {
		target := c.ExtractedPath()
		h, err := l.linker.Open(target)
		if err == nil {
			l.markLoaded(h, criterion, target)
			return nil
		}

		loadErr := &LoadError{Path: target, Criterion: criterion, Err: err}
		l.log().Error("cannot load the library", "library", target, "criterion", criterion, "error", err)
		if l.dispatchFailure(criterion, loadErr) {
			return nil
		}

		if !l.retryWithCleanExtraction {
			return loadErr
		}

		l.dispatchRetry(criterion, loadErr)
		if l.loadingFailures >= l.maxLoadingFailures {
			l.loadingFailures = 0
			l.log().Error("library loading retries exhausted", "library", target, "max", l.maxLoadingFailures)
			return fmt.Errorf("%w: %w", ErrRetryExhausted, loadErr)
		}
		l.loadingFailures++
		l.log().Info("retrying with clean extraction", "attempt", l.loadingFailures, "max", l.maxLoadingFailures)

		// Retries always start from a fresh copy.
		criterion = CleanExtraction
		extracted, err := l.extractBinary(c)
		if err != nil {
			return err
		}
		if !extracted {
			return nil
		}
	}
}

// cleanExtractBinary extracts a fresh copy and loads it.
func (l *Loader) cleanExtractBinary(c *Candidate) error {
	extracted, err := l.extractBinary(c)
	if err != nil {
		return err
	}
	if !extracted {
		return nil
	}
	return l.loadBinary(c, CleanExtraction)
}

// extractBinary runs one extraction. It reports false with a nil error
// when extraction failed but a listener loaded the library meanwhile.
func (l *Loader) extractBinary(c *Candidate) (bool, error) {
	reader, err := l.openArchive()
	if err != nil {
		l.log().Error("cannot open the native library archive", "error", err)
		if l.dispatchFailure(CleanExtraction, err) {
			return false, nil
		}
		return false, err
	}

	var localizationErr error
	locator := extract.NewLocator(reader, c.CompressedPath())
	locator.SetListener(extract.LocalizingListenerFuncs{
		Success: func(loc *extract.Locator) {
			l.log().Debug("located native library", "entry", loc.Name())
			if l.localizingListener != nil {
				l.localizingListener.OnLocalizationSuccess(loc)
			}
		},
		Failure: func(loc *extract.Locator, err error) {
			localizationErr = err
			l.log().Error("cannot locate native library", "entry", loc.Name(), "error", err)
			if l.localizingListener != nil {
				l.localizingListener.OnLocalizationFailure(loc, err)
			}
		},
	})

	extractor := extract.NewExtractor(locator, c.ExtractedPath())
	extractor.SetVerifier(l.verifier)
	extractor.SetListener(extract.ListenerFuncs{
		Completed: func(e *extract.Extractor) {
			l.log().Info("extracted native library", "destination", e.Destination())
			if l.extractionListener != nil {
				l.extractionListener.OnExtractionCompleted(e)
			}
		},
		Failure: func(e *extract.Extractor, err error) {
			l.log().Error("cannot extract native library", "destination", e.Destination(), "error", err)
			if l.extractionListener != nil {
				l.extractionListener.OnExtractionFailure(e, err)
			}
		},
		Finalization: func(e *extract.Extractor, loc *extract.Locator) {
			if l.extractionListener != nil {
				l.extractionListener.OnExtractionFinalization(e, loc)
			}
		},
	})

	if err := extractor.Extract(); err != nil {
		var scavengingErr *extract.ScavengingError
		if errors.As(err, &scavengingErr) {
			l.log().Error("cannot release extraction resources", "error", scavengingErr.Err)
		}
		if localizationErr != nil {
			if l.dispatchFailure(CleanExtraction, err) {
				return false, nil
			}
		}
		return false, err
	}
	return true, nil
}

func (l *Loader) openArchive() (archive.Reader, error) {
	if l.info.ArchivePath != "" {
		return archive.Open(l.info.ArchivePath)
	}
	if l.resources != nil {
		return archive.FromFS(l.resources), nil
	}
	return nil, fmt.Errorf("%w: no archive path or resources configured", ErrMalformedInput)
}

func (l *Loader) markLoaded(h Handle, criterion Criterion, target string) {
	l.handle = h
	l.loaded = true
	l.criterion = criterion
	l.path = target
	l.successes++
	l.log().Info("loaded native library", "library", target, "criterion", criterion)
	if l.loadingListener != nil {
		l.loadingListener.OnLoadingSuccess(l, newMetadata(criterion, nil))
	}
}

// dispatchFailure notifies the listener and reports whether the listener
// loaded the library while handling the failure.
func (l *Loader) dispatchFailure(criterion Criterion, cause error) bool {
	if l.loadingListener == nil {
		return false
	}
	mark := l.successes
	l.loadingListener.OnLoadingFailure(l, newMetadata(criterion, cause))
	return l.successes != mark
}

func (l *Loader) dispatchRetry(criterion Criterion, cause error) {
	if l.loadingListener != nil {
		l.loadingListener.OnRetryCriterionExecution(l, newMetadata(criterion, cause))
	}
}

func (l *Loader) log() diag.Logger {
	if !l.loggingEnabled {
		return diag.Nop()
	}
	return l.logger
}

// Package loader selects, extracts and loads the native library variant
// that fits the running host.
//
// # Selection
//
// Callers register an ordered list of candidates, each pairing an archive
// directory with a platform.Predicate. InitPlatformLibrary binds the first
// candidate whose predicate holds. Order is the only tie-break: register
// "linux x86-64 with avx2" before plain "linux x86-64".
//
// # Loading
//
// LoadLibrary takes an explicit Criterion:
//
//   - SystemLoad (always used on Android) resolves the library through the
//     directories of a SearchPath, then through the OS linker by file name.
//   - IncrementalLoading loads a previously extracted file when present.
//   - CleanExtraction, and IncrementalLoading without a previous file,
//     extract a fresh copy and load it.
//
// When the load primitive rejects an extracted file and retries are
// enabled, the loader re-extracts and loads again, up to the configured
// maximum. Past it the counter resets and ErrRetryExhausted is returned.
//
// # Listeners
//
// Outcomes are reported to a LoadingListener on the calling goroutine.
// Listeners may call back into the Loader they are given; when one loads
// the library while handling a failure, LoadLibrary returns nil.
//
// # Usage
//
//	l, err := loader.New(loader.Config{
//	    Library: loader.LibraryInfo{
//	        BaseName:      "foo",
//	        ExtractionDir: cacheDir,
//	        ArchivePath:   "natives.jar",
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//
//	host := platform.Current()
//	err = l.RegisterNativeLibraries(
//	    loader.NewCandidate("linux/x86-64-avx2", host.Require(host.Target(platform.LinuxX86_64), "avx2")),
//	    loader.NewCandidate("linux/x86-64", host.Target(platform.LinuxX86_64)),
//	)
//	if _, err := l.InitPlatformLibrary(); err != nil {
//	    return err
//	}
//	return l.LoadLibrary(loader.IncrementalLoading)
package loader

package loader

// Handle identifies a library mapped into the process.
type Handle uintptr

// Linker is the opaque load primitive. Open receives either an absolute
// file path or a bare library file name, which the OS resolves through
// its own search rules.
type Linker interface {
	Open(path string) (Handle, error)
	Symbol(h Handle, name string) (uintptr, error)
	Close(h Handle) error
}

// SystemLinker returns the host's dynamic linker: dlopen on Unix systems
// and LoadLibrary on Windows.
func SystemLinker() Linker {
	return systemLinker{}
}

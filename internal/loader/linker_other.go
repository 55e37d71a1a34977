//go:build !darwin && !freebsd && !linux && !windows

package loader

type systemLinker struct{}

func (systemLinker) Open(path string) (Handle, error) {
	return 0, ErrLinkerUnavailable
}

func (systemLinker) Symbol(h Handle, name string) (uintptr, error) {
	return 0, ErrLinkerUnavailable
}

func (systemLinker) Close(h Handle) error {
	return ErrLinkerUnavailable
}

//go:build darwin || freebsd || linux

package loader

import (
	"fmt"

	"github.com/ebitengine/purego"
)

type systemLinker struct{}

func (systemLinker) Open(path string) (Handle, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, fmt.Errorf("dlopen: %w", err)
	}
	if h == 0 {
		return 0, fmt.Errorf("dlopen %s: null handle", path)
	}
	return Handle(h), nil
}

func (systemLinker) Symbol(h Handle, name string) (uintptr, error) {
	sym, err := purego.Dlsym(uintptr(h), name)
	if err != nil {
		return 0, fmt.Errorf("dlsym %s: %w", name, err)
	}
	return sym, nil
}

func (systemLinker) Close(h Handle) error {
	if h == 0 {
		return nil
	}
	if err := purego.Dlclose(uintptr(h)); err != nil {
		return fmt.Errorf("dlclose: %w", err)
	}
	return nil
}

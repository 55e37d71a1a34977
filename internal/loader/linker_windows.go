//go:build windows

package loader

import (
	"fmt"

	"golang.org/x/sys/windows"
)

type systemLinker struct{}

func (systemLinker) Open(path string) (Handle, error) {
	h, err := windows.LoadLibrary(path)
	if err != nil {
		return 0, fmt.Errorf("LoadLibrary: %w", err)
	}
	return Handle(h), nil
}

func (systemLinker) Symbol(h Handle, name string) (uintptr, error) {
	proc, err := windows.GetProcAddress(windows.Handle(h), name)
	if err != nil {
		return 0, fmt.Errorf("GetProcAddress %s: %w", name, err)
	}
	return proc, nil
}

func (systemLinker) Close(h Handle) error {
	if h == 0 {
		return nil
	}
	if err := windows.FreeLibrary(windows.Handle(h)); err != nil {
		return fmt.Errorf("FreeLibrary: %w", err)
	}
	return nil
}

package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testSearchKey = "NATIVELOAD_SEARCH_PATH_TEST"

func joinList(dirs ...string) string {
	return strings.Join(dirs, string(os.PathListSeparator))
}

func TestSearchPath_Initialize(t *testing.T) {
	loaderVar := loaderVariable(NewSearchPath(testSearchKey).goos)

	t.Run("seeds from the OS linker variable", func(t *testing.T) {
		t.Setenv(loaderVar, joinList("/opt/lib", "/usr/local/lib"))
		t.Setenv(testSearchKey, "")
		os.Unsetenv(testSearchKey)

		sp := NewSearchPath(testSearchKey)
		if err := sp.Initialize(); err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
		if diff := cmp.Diff([]string{"/opt/lib", "/usr/local/lib"}, sp.List()); diff != "" {
			t.Errorf("List() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("keeps an existing value", func(t *testing.T) {
		t.Setenv(loaderVar, "/opt/lib")
		t.Setenv(testSearchKey, "/custom")

		sp := NewSearchPath(testSearchKey)
		if err := sp.Initialize(); err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
		if diff := cmp.Diff([]string{"/custom"}, sp.List()); diff != "" {
			t.Errorf("List() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestSearchPath_Edit(t *testing.T) {
	t.Setenv(testSearchKey, joinList("/a", "", "/b"))
	sp := NewSearchPath(testSearchKey)

	if diff := cmp.Diff([]string{"/a", "/b"}, sp.List()); diff != "" {
		t.Errorf("List() skips empty entries (-want +got):\n%s", diff)
	}

	if err := sp.Add("/c"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := sp.Add(""); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Add(\"\") error = %v, want ErrMalformedInput", err)
	}

	got, err := sp.Get(2)
	if err != nil || got != "/c" {
		t.Errorf("Get(2) = %q, %v; want /c", got, err)
	}
	for _, i := range []int{-1, 3} {
		if _, err := sp.Get(i); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%d) error = %v, want ErrNotFound", i, err)
		}
	}

	if err := sp.Remove("/a"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := sp.Remove("/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(missing) error = %v, want ErrNotFound", err)
	}
	if diff := cmp.Diff([]string{"/b", "/c"}, sp.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
	if got := os.Getenv(testSearchKey); got != joinList("/b", "/c") {
		t.Errorf("environment = %q", got)
	}

	var visited []string
	sp.Iterate(func(dir string) bool {
		visited = append(visited, dir)
		return false
	})
	if diff := cmp.Diff([]string{"/b"}, visited); diff != "" {
		t.Errorf("Iterate() should stop when fn returns false (-want +got):\n%s", diff)
	}

	if err := sp.Deinitialize(); err != nil {
		t.Fatalf("Deinitialize() error = %v", err)
	}
	if _, ok := os.LookupEnv(testSearchKey); ok {
		t.Error("variable still set after Deinitialize()")
	}
}

func TestSearchPath_IterateAllowsEdits(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(testSearchKey, joinList(dir, filepath.Join(dir, "sub")))
	sp := NewSearchPath(testSearchKey)

	sp.Iterate(func(d string) bool {
		if err := sp.Remove(d); err != nil {
			t.Errorf("Remove(%s) during Iterate error = %v", d, err)
		}
		return true
	})
	if got := sp.List(); len(got) != 0 {
		t.Errorf("List() = %v, want empty", got)
	}
}

func TestLoaderVariable(t *testing.T) {
	tests := map[string]string{
		"linux":   "LD_LIBRARY_PATH",
		"freebsd": "LD_LIBRARY_PATH",
		"darwin":  "DYLD_LIBRARY_PATH",
		"windows": "PATH",
	}
	for goos, want := range tests {
		if got := loaderVariable(goos); got != want {
			t.Errorf("loaderVariable(%q) = %q, want %q", goos, got, want)
		}
	}
}

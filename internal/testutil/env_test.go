package testutil_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/archive"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/testutil"
)

func TestSetupTestEnv(t *testing.T) {
	t.Setenv("NATIVELOAD_LIBRARY_PATH", "/should/be/cleared")

	dir := testutil.SetupTestEnv(t)

	for _, key := range []string{"NATIVELOAD_LIBRARY_PATH", "LD_LIBRARY_PATH", "DYLD_LIBRARY_PATH"} {
		if v := os.Getenv(key); v != "" {
			t.Errorf("%s = %q, want empty", key, v)
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("extraction directory missing: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", dir)
	}
}

func TestArchiveWriters(t *testing.T) {
	files := map[string]string{"linux/x64/libfoo.so": "payload"}

	for _, name := range []string{"natives.zip", "natives.tar.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if filepath.Ext(name) == ".zip" {
				testutil.WriteZip(t, path, files)
			} else {
				testutil.WriteTarGz(t, path, files)
			}

			r, err := archive.Open(path)
			if err != nil {
				t.Fatalf("archive.Open() error = %v", err)
			}
			defer r.Close()

			rc, err := r.Open("linux/x64/libfoo.so")
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer rc.Close()

			data, _ := io.ReadAll(rc)
			if string(data) != "payload" {
				t.Errorf("content = %q, want payload", data)
			}
		})
	}
}

package loader

import (
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/platform"
)

type tieredFixture struct {
	tiered *TieredLoader
	linker *fakeLinker
	dir    string
}

func newTieredFixture(t *testing.T, host *platform.Host, resources fstest.MapFS) *tieredFixture {
	t.Helper()
	t.Setenv("NATIVELOAD_TEST_PATH", "")

	dir := t.TempDir()
	linker := &fakeLinker{}
	x64 := host.Target(platform.LinuxX86_64)

	tiered, err := NewTiered(Config{
		Library:    LibraryInfo{BaseName: "foo", ExtractionDir: dir},
		Host:       host,
		Linker:     linker,
		Resources:  resources,
		SearchPath: NewSearchPath("NATIVELOAD_TEST_PATH"),
	},
		[]*Candidate{NewCandidate("linux/x64-fma", host.Require(x64, "avx", "avx2", "fma"))},
		[]*Candidate{NewCandidate("linux/x64", x64)},
	)
	if err != nil {
		t.Fatalf("NewTiered() error = %v", err)
	}
	return &tieredFixture{tiered: tiered, linker: linker, dir: dir}
}

func tieredResources() fstest.MapFS {
	return fstest.MapFS{
		"linux/x64-fma/libfoo.so": {Data: []byte("fma-build")},
		"linux/x64/libfoo.so":     {Data: []byte("base-build")},
	}
}

func TestNewTiered_EmptyGroups(t *testing.T) {
	_, err := NewTiered(Config{Library: LibraryInfo{BaseName: "foo"}}, nil, []*Candidate{NewCandidate("a", platform.NewPredicate(true))})
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("NewTiered() error = %v, want ErrMalformedInput", err)
	}
}

func TestTieredLoader(t *testing.T) {
	tests := []struct {
		name      string
		features  []string
		resources fstest.MapFS
		fail      func(dir string) func(path string, attempt int) error
		retry     bool
		wantTier  Tier
		wantOpens func(dir string) []string
		wantErr   error
	}{
		{
			name:      "enhanced tier loads",
			features:  []string{"avx", "avx2", "fma"},
			resources: tieredResources(),
			wantTier:  TierEnhanced,
			wantOpens: func(dir string) []string {
				return []string{filepath.Join(dir, "linux", "x64-fma", "libfoo.so")}
			},
		},
		{
			name:      "no enhanced variant falls back to base",
			features:  []string{"sse4_2"},
			resources: tieredResources(),
			wantTier:  TierBase,
			wantOpens: func(dir string) []string {
				return []string{filepath.Join(dir, "linux", "x64", "libfoo.so")}
			},
		},
		{
			name:      "link failure on enhanced falls back to base",
			features:  []string{"avx", "avx2", "fma"},
			resources: tieredResources(),
			fail: func(dir string) func(string, int) error {
				bad := filepath.Join(dir, "linux", "x64-fma", "libfoo.so")
				return func(path string, _ int) error {
					if path == bad {
						return errLink
					}
					return nil
				}
			},
			wantTier: TierBase,
			wantOpens: func(dir string) []string {
				return []string{
					filepath.Join(dir, "linux", "x64-fma", "libfoo.so"),
					filepath.Join(dir, "linux", "x64", "libfoo.so"),
				}
			},
		},
		{
			name:      "retry exhaustion falls back to system load",
			features:  []string{"avx", "avx2", "fma"},
			resources: tieredResources(),
			retry:     true,
			fail: func(dir string) func(string, int) error {
				bad := filepath.Join(dir, "linux", "x64-fma", "libfoo.so")
				return func(path string, _ int) error {
					if path == bad {
						return errLink
					}
					return nil
				}
			},
			wantTier: TierEnhanced,
			wantOpens: func(dir string) []string {
				bad := filepath.Join(dir, "linux", "x64-fma", "libfoo.so")
				return []string{bad, bad, bad, "libfoo.so"}
			},
		},
		{
			name:      "localization failure falls back to system load",
			features:  []string{"avx", "avx2", "fma"},
			resources: fstest.MapFS{},
			wantTier:  TierEnhanced,
			wantOpens: func(string) []string { return []string{"libfoo.so"} },
		},
		{
			name:      "every fallback fails",
			features:  []string{"avx", "avx2", "fma"},
			resources: tieredResources(),
			fail: func(string) func(string, int) error {
				return func(string, int) error { return errLink }
			},
			wantErr: ErrImminentFailure,
			wantOpens: func(dir string) []string {
				return []string{
					filepath.Join(dir, "linux", "x64-fma", "libfoo.so"),
					filepath.Join(dir, "linux", "x64", "libfoo.so"),
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTieredFixture(t, linuxHost(tt.features...), tt.resources)
			if tt.fail != nil {
				f.linker.fail = tt.fail(f.dir)
			}
			f.tiered.Loader().SetRetryWithCleanExtraction(tt.retry)

			tier, err := f.tiered.Load(IncrementalLoading)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("Load() error = %v", err)
				}
				if tier != tt.wantTier {
					t.Errorf("Load() tier = %v, want %v", tier, tt.wantTier)
				}
			}

			if diff := cmp.Diff(tt.wantOpens(f.dir), f.linker.Opens()); diff != "" {
				t.Errorf("linker opens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTieredLoader_LoadBase(t *testing.T) {
	t.Run("skips the enhanced tier", func(t *testing.T) {
		f := newTieredFixture(t, linuxHost("avx", "avx2", "fma"), tieredResources())

		tier, err := f.tiered.LoadBase(IncrementalLoading)
		if err != nil {
			t.Fatalf("LoadBase() error = %v", err)
		}
		if tier != TierBase {
			t.Errorf("LoadBase() tier = %v, want %v", tier, TierBase)
		}
		base := filepath.Join(f.dir, "linux", "x64", "libfoo.so")
		if diff := cmp.Diff([]string{base}, f.linker.Opens()); diff != "" {
			t.Errorf("linker opens mismatch (-want +got):\n%s", diff)
		}
		if got := f.tiered.Loader().LoadedPath(); got != base {
			t.Errorf("LoadedPath() = %q, want %q", got, base)
		}
	})

	t.Run("link failure on the base tier is final", func(t *testing.T) {
		f := newTieredFixture(t, linuxHost("avx", "avx2", "fma"), tieredResources())
		f.linker.fail = func(string, int) error { return errLink }

		if _, err := f.tiered.LoadBase(IncrementalLoading); !errors.Is(err, ErrImminentFailure) {
			t.Fatalf("LoadBase() error = %v, want ErrImminentFailure", err)
		}
		want := []string{filepath.Join(f.dir, "linux", "x64", "libfoo.so")}
		if diff := cmp.Diff(want, f.linker.Opens()); diff != "" {
			t.Errorf("linker opens mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestTieredLoader_UnsupportedEverywhere(t *testing.T) {
	f := newTieredFixture(t, simulatedHost("windows", "amd64"), tieredResources())

	_, err := f.tiered.Load(IncrementalLoading)
	if !errors.Is(err, ErrImminentFailure) {
		t.Fatalf("Load() error = %v, want ErrImminentFailure", err)
	}
	var unsupported *UnsupportedSystemError
	if !errors.As(err, &unsupported) {
		t.Errorf("error %v should carry *UnsupportedSystemError", err)
	}
	if len(f.linker.Opens()) != 0 {
		t.Error("nothing should be loaded on an unsupported system")
	}
}

func TestTieredLoader_EscalationIsBounded(t *testing.T) {
	f := newTieredFixture(t, linuxHost("avx", "avx2", "fma"), fstest.MapFS{})
	f.linker.fail = func(string, int) error { return errLink }
	f.tiered.SetMaxEscalations(1)

	if _, err := f.tiered.Load(IncrementalLoading); !errors.Is(err, ErrImminentFailure) {
		t.Fatalf("Load() error = %v, want ErrImminentFailure", err)
	}
	// Enhanced extraction fails to localize, enhanced system load fails,
	// and the bound stops the base-tier step.
	if diff := cmp.Diff([]string{"libfoo.so"}, f.linker.Opens()); diff != "" {
		t.Errorf("linker opens mismatch (-want +got):\n%s", diff)
	}
}

func TestTier_String(t *testing.T) {
	if TierEnhanced.String() != "cpu-enhanced" || TierBase.String() != "base" || Tier(9).String() != "Tier(9)" {
		t.Error("unexpected tier names")
	}
}

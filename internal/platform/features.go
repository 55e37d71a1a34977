package platform

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/cpu"
)

// FeatureSource reports the raw CPU feature flags of the host.
type FeatureSource func(ctx context.Context) ([]string, error)

// featureToken extracts feature names from raw flag strings such as
// "PF_AVX2_INSTRUCTIONS_AVAILABLE" or "sse4_1 sse4_2".
var featureToken = regexp.MustCompile(`[a-z][a-z0-9_]*`)

// Features is a lazily populated, never invalidated set of lower-cased
// instruction-set extension names.
type Features struct {
	source FeatureSource

	mu      sync.Mutex
	loaded  bool
	present map[string]struct{}
	err     error
}

// NewFeatures creates a feature set backed by source. Detection runs on
// the first query, at most once.
func NewFeatures(source FeatureSource) *Features {
	if source == nil {
		source = DefaultFeatureSource
	}
	return &Features{source: source}
}

// StaticFeatures returns an already populated feature set. It is used for
// simulated hosts.
func StaticFeatures(names ...string) *Features {
	f := &Features{loaded: true}
	f.present = tokenizeFeatures(names)
	return f
}

// Has reports whether every named extension is present (case-insensitive).
// An empty list is vacuously true. Windows-style
// "pf_<name>_instructions_available" and "pf_arm_<name>_instructions_available"
// flags count as the bare name.
func (f *Features) Has(names ...string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadLocked()

	for _, name := range names {
		lc := strings.ToLower(name)
		if _, ok := f.present[lc]; ok {
			continue
		}
		if _, ok := f.present["pf_"+lc+"_instructions_available"]; ok {
			continue
		}
		if _, ok := f.present["pf_arm_"+lc+"_instructions_available"]; ok {
			continue
		}
		return false
	}
	return true
}

// List returns the detected extension names in sorted order.
func (f *Features) List() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadLocked()

	names := make([]string, 0, len(f.present))
	for name := range f.present {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Err returns the detection error, if detection failed. A failed
// detection leaves the set empty.
func (f *Features) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadLocked()
	return f.err
}

func (f *Features) loadLocked() {
	if f.loaded {
		return
	}
	f.loaded = true

	raw, err := f.source(context.Background())
	if err != nil {
		f.err = err
		f.present = map[string]struct{}{}
		return
	}
	f.present = tokenizeFeatures(raw)
}

func tokenizeFeatures(raw []string) map[string]struct{} {
	present := make(map[string]struct{}, len(raw))
	for _, flag := range raw {
		for _, name := range featureToken.FindAllString(strings.ToLower(flag), -1) {
			present[name] = struct{}{}
		}
	}
	return present
}

// DefaultFeatureSource reads CPU flags through gopsutil and falls back to
// golang.org/x/sys/cpu when gopsutil reports none (macOS, Windows and most
// arm64 hosts do not expose a flag list).
func DefaultFeatureSource(ctx context.Context) ([]string, error) {
	flags, err := GopsutilFeatureSource(ctx)
	if err == nil && len(flags) > 0 {
		return flags, nil
	}
	if fallback := runtimeFeatures(); len(fallback) > 0 {
		return fallback, nil
	}
	return flags, err
}

// GopsutilFeatureSource returns the union of the flags reported for every
// logical CPU.
func GopsutilFeatureSource(ctx context.Context) ([]string, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return nil, err
	}
	var flags []string
	for _, info := range infos {
		flags = append(flags, info.Flags...)
	}
	return flags, nil
}

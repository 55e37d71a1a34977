package platform

import (
	"context"
	"runtime"
	"sync"
)

// Host couples the detected platform identity with the CPU feature cache.
// A Host is the one place process-wide detection results live; pass it by
// reference to everything that evaluates predicates.
type Host struct {
	info     *Info
	features *Features
}

// NewHost creates a host from already detected information. A nil
// features value uses DefaultFeatureSource.
func NewHost(info *Info, features *Features) *Host {
	if features == nil {
		features = NewFeatures(nil)
	}
	return &Host{info: info, features: features}
}

// DetectHost runs detector and attaches a lazily populated feature set.
func DetectHost(ctx context.Context, detector Detector, source FeatureSource) (*Host, error) {
	info, err := detector.Detect(ctx)
	if err != nil {
		return nil, err
	}
	return NewHost(info, NewFeatures(source)), nil
}

var (
	currentHost *Host
	currentOnce sync.Once
)

// Current returns the process-wide host, detecting it on first use.
// Detection problems degrade to GOOS/GOARCH identity.
func Current() *Host {
	currentOnce.Do(func() {
		h, err := DetectHost(context.Background(), NewDetector(), DefaultFeatureSource)
		if err != nil {
			h = NewHost(&Info{
				OS:      runtime.GOOS,
				Arch:    normalizeArch(runtime.GOARCH),
				ArchRaw: runtime.GOARCH,
			}, nil)
		}
		currentHost = h
	})
	return currentHost
}

// Info returns the platform identity of the host.
func (h *Host) Info() *Info {
	return h.info
}

// Features returns the host's extension cache.
func (h *Host) Features() *Features {
	return h.features
}

// HasExtensions reports whether every named extension is supported.
func (h *Host) HasExtensions(names ...string) bool {
	return h.features.Has(names...)
}

// Target evaluates one of the standard target predicates on this host.
func (h *Host) Target(t Target) Predicate {
	return NewPredicate(t.matches(h.info))
}

// Require extends base with required instruction-set extensions.
func (h *Host) Require(base Predicate, extensions ...string) Predicate {
	return Extend(base, h, extensions...)
}

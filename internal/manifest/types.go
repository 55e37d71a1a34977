package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/extract"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/loader"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/platform"
)

// Manifest is a parsed native library description.
type Manifest struct {
	Library loader.LibraryInfo
	Options Options
	// Candidates is the ordered candidate list (the base tier when
	// Enhanced is set).
	Candidates []CandidateSpec
	// Enhanced optionally lists CPU-enhanced variants tried before
	// Candidates.
	Enhanced []CandidateSpec
}

// Options mirrors the loader's configuration surface.
type Options struct {
	Logging                  bool
	RetryWithCleanExtraction bool
	// MaxLoadingFailures is nil when the manifest leaves the default.
	MaxLoadingFailures *int
	// Criterion defaults to IncrementalLoading.
	Criterion loader.Criterion
	// Keyring is an OpenPGP keyring used to verify extracted files.
	Keyring string
	// Checksums is a sha256sum-style file used to verify extracted files.
	Checksums string
}

// CandidateSpec declares one packaged variant.
type CandidateSpec struct {
	Path string
	// Target is a standard target name; empty means no target constraint.
	Target string
	// When is the Lua-evaluated condition; nil means no condition.
	When       *bool
	Extensions []string
}

// Predicate evaluates the declaration on host.
func (s CandidateSpec) Predicate(host *platform.Host) (platform.Predicate, error) {
	base := platform.NewPredicate(true)
	if s.Target != "" {
		target, err := platform.ParseTarget(s.Target)
		if err != nil {
			return platform.Predicate{}, err
		}
		base = host.Target(target)
	}
	if s.When != nil && !*s.When {
		base = platform.NewPredicate(false)
	}
	return host.Require(base, s.Extensions...), nil
}

func buildCandidates(host *platform.Host, specs []CandidateSpec) ([]*loader.Candidate, error) {
	candidates := make([]*loader.Candidate, 0, len(specs))
	for i, spec := range specs {
		predicate, err := spec.Predicate(host)
		if err != nil {
			return nil, fmt.Errorf("candidate %d (%s): %w", i+1, spec.Path, err)
		}
		candidates = append(candidates, loader.NewCandidate(spec.Path, predicate))
	}
	return candidates, nil
}

// BuildCandidates evaluates the candidate list on host, preserving order.
func (m *Manifest) BuildCandidates(host *platform.Host) ([]*loader.Candidate, error) {
	return buildCandidates(host, m.Candidates)
}

// BuildEnhanced evaluates the CPU-enhanced list on host.
func (m *Manifest) BuildEnhanced(host *platform.Host) ([]*loader.Candidate, error) {
	return buildCandidates(host, m.Enhanced)
}

// Criterion returns the configured loading criterion.
func (m *Manifest) Criterion() loader.Criterion {
	if m.Options.Criterion.Valid() {
		return m.Options.Criterion
	}
	return loader.IncrementalLoading
}

// Verifier builds the extraction verifier, or returns nil when the
// manifest configures neither a keyring nor checksums.
func (m *Manifest) Verifier() (*extract.Verifier, error) {
	if m.Options.Keyring == "" && m.Options.Checksums == "" {
		return nil, nil
	}

	v := extract.NewVerifier()
	if m.Options.Keyring != "" {
		keyring, err := extract.LoadKeyringFile(m.Options.Keyring)
		if err != nil {
			return nil, err
		}
		v.WithKeyring(keyring)
	}
	if m.Options.Checksums != "" {
		f, err := os.Open(m.Options.Checksums)
		if err != nil {
			return nil, fmt.Errorf("open checksum file: %w", err)
		}
		defer f.Close()
		sums, err := extract.ParseChecksums(f)
		if err != nil {
			return nil, err
		}
		v.WithChecksums(sums)
	}
	return v, nil
}

// LoaderConfig returns a loader configuration for host.
func (m *Manifest) LoaderConfig(host *platform.Host) (loader.Config, error) {
	verifier, err := m.Verifier()
	if err != nil {
		return loader.Config{}, err
	}
	return loader.Config{Library: m.Library, Host: host, Verifier: verifier}, nil
}

// Configure applies the manifest options to l.
func (m *Manifest) Configure(l *loader.Loader) {
	l.SetLoggingEnabled(m.Options.Logging)
	l.SetRetryWithCleanExtraction(m.Options.RetryWithCleanExtraction)
	if m.Options.MaxLoadingFailures != nil {
		l.SetMaxLoadingFailures(*m.Options.MaxLoadingFailures)
	}
}

// Validate checks that the manifest can drive a loader.
func (m *Manifest) Validate() error {
	if m.Library.BaseName == "" {
		return fmt.Errorf("library.base_name is required")
	}
	if len(m.Candidates) == 0 {
		return fmt.Errorf("at least one candidate is required")
	}
	for _, group := range [][]CandidateSpec{m.Enhanced, m.Candidates} {
		for i, spec := range group {
			if spec.Path == "" && m.Library.CompressedDir == "" {
				return fmt.Errorf("candidate %d: path is required when library.compressed_dir is unset", i+1)
			}
			if spec.Target == "" && spec.When == nil {
				return fmt.Errorf("candidate %d (%s): one of target or when is required", i+1, spec.Path)
			}
			if spec.Target != "" {
				if _, err := platform.ParseTarget(spec.Target); err != nil {
					return fmt.Errorf("candidate %d (%s): %w", i+1, spec.Path, err)
				}
			}
		}
	}
	return nil
}

// resolvePaths makes relative filesystem paths relative to dir.
func (m *Manifest) resolvePaths(dir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	m.Library.ArchivePath = resolve(m.Library.ArchivePath)
	m.Library.ExtractionDir = resolve(m.Library.ExtractionDir)
	m.Options.Keyring = resolve(m.Options.Keyring)
	m.Options.Checksums = resolve(m.Options.Checksums)
}

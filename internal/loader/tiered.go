package loader

import (
	"errors"
	"fmt"
	"sync"
)

// Tier names one of the two candidate groups of a TieredLoader.
type Tier int

const (
	// TierEnhanced holds variants built for optional CPU extensions.
	TierEnhanced Tier = iota + 1
	// TierBase holds variants that run on any CPU of their architecture.
	TierBase
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierEnhanced:
		return "cpu-enhanced"
	case TierBase:
		return "base"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// DefaultMaxEscalations bounds how many fallback steps Load takes after
// the first attempt.
const DefaultMaxEscalations = 4

// TieredLoader tries CPU-enhanced variants first and falls back to base
// variants and to the system search path:
//
//   - no enhanced variant matches the host: base tier, IncrementalLoading
//   - retries exhausted: same tier, SystemLoad
//   - load primitive failure on the enhanced tier: base tier, IncrementalLoading
//   - archive or localization failure: enhanced tier, SystemLoad
//   - any failure on the base tier that has no rule above: ErrImminentFailure
//
// Every (tier, criterion) step runs at most once per call.
type TieredLoader struct {
	mu             sync.Mutex
	loader         *ConcurrentLoader
	enhanced       []*Candidate
	base           []*Candidate
	maxEscalations int
}

// NewTiered creates a tiered loader over the two candidate groups.
func NewTiered(config Config, enhanced, base []*Candidate) (*TieredLoader, error) {
	if len(enhanced) == 0 || len(base) == 0 {
		return nil, fmt.Errorf("%w: library groups cannot be empty", ErrMalformedInput)
	}

	l, err := NewConcurrent(config)
	if err != nil {
		return nil, err
	}

	return &TieredLoader{
		loader:         l,
		enhanced:       append([]*Candidate(nil), enhanced...),
		base:           append([]*Candidate(nil), base...),
		maxEscalations: DefaultMaxEscalations,
	}, nil
}

// Loader returns the underlying loader, for listeners and options.
func (t *TieredLoader) Loader() *ConcurrentLoader {
	return t.loader
}

// SetMaxEscalations bounds the fallback steps. Negative values are
// normalized to their absolute value.
func (t *TieredLoader) SetMaxEscalations(n int) {
	if n < 0 {
		n = -n
	}
	t.mu.Lock()
	t.maxEscalations = n
	t.mu.Unlock()
}

type tierStep struct {
	tier      Tier
	criterion Criterion
}

// Load starts from the enhanced tier and returns the tier that loaded.
func (t *TieredLoader) Load(criterion Criterion) (Tier, error) {
	return t.run(tierStep{tier: TierEnhanced, criterion: criterion})
}

// LoadBase starts from the base tier.
func (t *TieredLoader) LoadBase(criterion Criterion) (Tier, error) {
	return t.run(tierStep{tier: TierBase, criterion: criterion})
}

func (t *TieredLoader) run(step tierStep) (Tier, error) {
	if !step.criterion.Valid() {
		return 0, fmt.Errorf("%w: invalid loading criterion %v", ErrMalformedInput, step.criterion)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	visited := map[tierStep]bool{}
	var causes []error
	for i := 0; i <= t.maxEscalations && !visited[step]; i++ {
		visited[step] = true

		err := t.attempt(step)
		if err == nil {
			return step.tier, nil
		}
		causes = append(causes, fmt.Errorf("%s tier, %s: %w", step.tier, step.criterion, err))

		next, ok := escalate(step, err)
		if !ok {
			break
		}
		step = next
	}

	return 0, fmt.Errorf("%w: %w", ErrImminentFailure, errors.Join(causes...))
}

func (t *TieredLoader) attempt(step tierStep) error {
	group := t.enhanced
	if step.tier == TierBase {
		group = t.base
	}

	if err := t.loader.RegisterNativeLibraries(group...); err != nil {
		return err
	}
	if _, err := t.loader.InitPlatformLibrary(); err != nil {
		return err
	}
	return t.loader.LoadLibrary(step.criterion)
}

// escalate picks the next step after err, or reports false when the
// failure is final.
func escalate(step tierStep, err error) (tierStep, bool) {
	var unsupported *UnsupportedSystemError
	var loadErr *LoadError

	switch {
	case errors.Is(err, ErrMalformedInput):
		return tierStep{}, false
	case errors.As(err, &unsupported):
		if step.tier == TierEnhanced {
			return tierStep{tier: TierBase, criterion: IncrementalLoading}, true
		}
		return tierStep{}, false
	case errors.Is(err, ErrRetryExhausted):
		return tierStep{tier: step.tier, criterion: SystemLoad}, true
	case errors.As(err, &loadErr):
		if step.tier == TierEnhanced {
			return tierStep{tier: TierBase, criterion: IncrementalLoading}, true
		}
		return tierStep{}, false
	default:
		return tierStep{tier: TierEnhanced, criterion: SystemLoad}, true
	}
}

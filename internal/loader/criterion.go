package loader

import (
	"fmt"
	"strings"
)

// Criterion selects how LoadLibrary materializes the platform library.
// The zero value is not a valid criterion.
type Criterion int

const (
	// CleanExtraction always extracts a fresh copy, overwriting any
	// previous artifact, then loads it.
	CleanExtraction Criterion = iota + 1
	// IncrementalLoading loads a previously extracted artifact when one is
	// present and extracts otherwise.
	IncrementalLoading
	// SystemLoad skips extraction and resolves the library through the
	// system search path.
	SystemLoad
)

// String returns the criterion name.
func (c Criterion) String() string {
	switch c {
	case CleanExtraction:
		return "CLEAN_EXTRACTION"
	case IncrementalLoading:
		return "INCREMENTAL_LOADING"
	case SystemLoad:
		return "SYSTEM_LOAD"
	default:
		return fmt.Sprintf("Criterion(%d)", int(c))
	}
}

// Valid reports whether c is one of the defined criteria.
func (c Criterion) Valid() bool {
	switch c {
	case CleanExtraction, IncrementalLoading, SystemLoad:
		return true
	default:
		return false
	}
}

// ParseCriterion accepts the criterion names in any case, with '-' or '_'
// separators, plus the short forms "clean", "incremental" and "system".
func ParseCriterion(s string) (Criterion, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "clean_extraction", "clean":
		return CleanExtraction, nil
	case "incremental_loading", "incremental":
		return IncrementalLoading, nil
	case "system_load", "system":
		return SystemLoad, nil
	default:
		return 0, fmt.Errorf("%w: unknown loading criterion %q", ErrMalformedInput, s)
	}
}

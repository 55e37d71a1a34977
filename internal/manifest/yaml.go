package manifest

import (
	"bytes"
	"errors"
	"io"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/loader"
	"gopkg.in/yaml.v3"
)

type yamlManifest struct {
	Library    yamlLibrary     `yaml:"library"`
	Options    yamlOptions     `yaml:"options"`
	Candidates []yamlCandidate `yaml:"candidates"`
	Enhanced   []yamlCandidate `yaml:"enhanced"`
}

type yamlLibrary struct {
	BaseName      string `yaml:"base_name"`
	CompressedDir string `yaml:"compressed_dir"`
	ExtractionDir string `yaml:"extraction_dir"`
	Archive       string `yaml:"archive"`
}

type yamlOptions struct {
	Logging                  bool   `yaml:"logging"`
	RetryWithCleanExtraction bool   `yaml:"retry_with_clean_extraction"`
	MaxLoadingFailures       *int   `yaml:"max_loading_failures"`
	Criterion                string `yaml:"criterion"`
	Keyring                  string `yaml:"keyring"`
	Checksums                string `yaml:"checksums"`
}

type yamlCandidate struct {
	Path       string   `yaml:"path"`
	Target     string   `yaml:"target"`
	When       *bool    `yaml:"when"`
	Extensions []string `yaml:"extensions"`
}

// ParseYAML parses a YAML manifest. Unknown keys are rejected.
func ParseYAML(data []byte) (*Manifest, error) {
	var raw yamlManifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ParseError{Message: "YAML syntax error", Detail: err.Error()}
	}

	m := &Manifest{
		Library: loader.LibraryInfo{
			BaseName:      raw.Library.BaseName,
			CompressedDir: raw.Library.CompressedDir,
			ExtractionDir: raw.Library.ExtractionDir,
			ArchivePath:   raw.Library.Archive,
		},
		Options: Options{
			Logging:                  raw.Options.Logging,
			RetryWithCleanExtraction: raw.Options.RetryWithCleanExtraction,
			MaxLoadingFailures:       raw.Options.MaxLoadingFailures,
			Keyring:                  raw.Options.Keyring,
			Checksums:                raw.Options.Checksums,
		},
		Candidates: convertCandidates(raw.Candidates),
		Enhanced:   convertCandidates(raw.Enhanced),
	}

	if raw.Options.Criterion != "" {
		criterion, err := loader.ParseCriterion(raw.Options.Criterion)
		if err != nil {
			return nil, &ParseError{Message: "invalid options.criterion", Detail: err.Error()}
		}
		m.Options.Criterion = criterion
	}

	if err := m.Validate(); err != nil {
		return nil, &ParseError{Message: "manifest validation failed", Detail: err.Error()}
	}
	return m, nil
}

func convertCandidates(in []yamlCandidate) []CandidateSpec {
	if len(in) == 0 {
		return nil
	}
	out := make([]CandidateSpec, len(in))
	for i, c := range in {
		out[i] = CandidateSpec(c)
	}
	return out
}

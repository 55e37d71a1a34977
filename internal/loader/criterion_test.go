package loader

import (
	"errors"
	"testing"
)

func TestParseCriterion(t *testing.T) {
	tests := []struct {
		input   string
		want    Criterion
		wantErr bool
	}{
		{input: "CLEAN_EXTRACTION", want: CleanExtraction},
		{input: "clean-extraction", want: CleanExtraction},
		{input: "clean", want: CleanExtraction},
		{input: "INCREMENTAL_LOADING", want: IncrementalLoading},
		{input: " incremental ", want: IncrementalLoading},
		{input: "system_load", want: SystemLoad},
		{input: "System", want: SystemLoad},
		{input: "", wantErr: true},
		{input: "download", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCriterion(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedInput) {
					t.Errorf("ParseCriterion(%q) error = %v, want ErrMalformedInput", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCriterion(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCriterion(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCriterion_String(t *testing.T) {
	for _, c := range []Criterion{CleanExtraction, IncrementalLoading, SystemLoad} {
		if !c.Valid() {
			t.Errorf("%v.Valid() = false", c)
		}
		parsed, err := ParseCriterion(c.String())
		if err != nil || parsed != c {
			t.Errorf("ParseCriterion(%q) = %v, %v", c.String(), parsed, err)
		}
	}
	if Criterion(0).Valid() {
		t.Error("zero criterion must be invalid")
	}
	if got := Criterion(7).String(); got != "Criterion(7)" {
		t.Errorf("String() = %q", got)
	}
}

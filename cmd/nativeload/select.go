package main

import (
	"fmt"
	"io"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/loader"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/manifest"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/platform"
	"github.com/spf13/cobra"
)

func newSelectCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "select",
		Short: "Show which manifest variant this host selects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()

			host := platform.Current()
			m, err := opts.readManifest(ctx, host)
			if err != nil {
				return err
			}
			return runSelect(cmd.OutOrStdout(), m, host)
		},
	}
}

func runSelect(w io.Writer, m *manifest.Manifest, host *platform.Host) error {
	groups := []struct {
		name  string
		specs []manifest.CandidateSpec
	}{
		{name: loader.TierEnhanced.String(), specs: m.Enhanced},
		{name: loader.TierBase.String(), specs: m.Candidates},
	}

	found := false
	for _, group := range groups {
		if len(group.specs) == 0 {
			continue
		}

		fmt.Fprintf(w, "%s variants:\n", group.name)
		selected := -1
		for i, spec := range group.specs {
			predicate, err := spec.Predicate(host)
			if err != nil {
				return err
			}
			if selected < 0 && predicate.Evaluate() {
				selected = i
			}
		}

		for i, spec := range group.specs {
			marker := " "
			if i == selected {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %s%s\n", marker, displayPath(spec.Path, m.Library), formatConstraints(spec))
		}

		if selected >= 0 {
			found = true
			file := loader.LibraryFileName(host.Info().OS, m.Library.BaseName)
			fmt.Fprintf(w, "  selected: %s\n", joinEntry(displayPath(group.specs[selected].Path, m.Library), file))
		}
	}

	if !found {
		info := host.Info()
		return &loader.UnsupportedSystemError{OS: info.OS, Arch: info.ArchRaw}
	}
	return nil
}

func displayPath(storagePath string, info loader.LibraryInfo) string {
	if storagePath != "" {
		return storagePath
	}
	return info.CompressedDir
}

func joinEntry(dir, file string) string {
	if dir == "" {
		return file
	}
	return dir + "/" + file
}

// formatConstraints renders a variant's target, condition and extensions.
func formatConstraints(spec manifest.CandidateSpec) string {
	var opts []string

	if spec.Target != "" {
		opts = append(opts, spec.Target)
	}
	if spec.When != nil {
		opts = append(opts, fmt.Sprintf("when=%t", *spec.When))
	}
	for _, ext := range spec.Extensions {
		opts = append(opts, "+"+ext)
	}

	if len(opts) == 0 {
		return ""
	}

	result := " ("
	for i, opt := range opts {
		if i > 0 {
			result += ", "
		}
		result += opt
	}
	result += ")"

	return result
}

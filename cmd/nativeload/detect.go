package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/platform"
	"github.com/spf13/cobra"
)

func newDetectCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Show the detected platform, CPU extensions and matching targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()

			host, err := platform.DetectHost(ctx, platform.NewDetector(), platform.DefaultFeatureSource)
			if err != nil {
				return fmt.Errorf("detect platform: %w", err)
			}
			printHost(cmd.OutOrStdout(), host)
			if err := host.Features().Err(); err != nil {
				opts.logger.Sugar().Warnw("CPU feature detection failed", "error", err)
			}
			return nil
		},
	}
}

func printHost(w io.Writer, host *platform.Host) {
	info := host.Info()
	fmt.Fprintf(w, "OS:           %s\n", info.OS)
	fmt.Fprintf(w, "Architecture: %s (%s)\n", info.Arch, info.ArchRaw)
	if distro := info.GetDistro(); distro != nil {
		fmt.Fprintf(w, "Distribution: %s %s (%s)\n", distro.ID, distro.Version, distro.Family)
	}

	targets := matchingTargets(host)
	if len(targets) == 0 {
		fmt.Fprintln(w, "Targets:      none")
	} else {
		fmt.Fprintf(w, "Targets:      %s\n", strings.Join(targets, ", "))
	}

	features := host.Features().List()
	if len(features) == 0 {
		fmt.Fprintln(w, "Extensions:   unknown")
	} else {
		fmt.Fprintf(w, "Extensions:   %s\n", strings.Join(features, " "))
	}
}

// matchingTargets lists the standard targets whose predicate holds.
func matchingTargets(host *platform.Host) []string {
	var names []string
	for _, t := range platform.Targets() {
		if host.Target(t).Evaluate() {
			names = append(names, t.String())
		}
	}
	return names
}

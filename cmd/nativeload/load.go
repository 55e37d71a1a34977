package main

import (
	"fmt"
	"io"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/diag"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/loader"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/manifest"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/platform"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newLoadCmd(opts *globalOptions) *cobra.Command {
	var (
		criterion string
		symbols   []string
		baseOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the selected variant and optionally resolve symbols",
		Long: `Load the variant this host selects. When the manifest declares CPU-enhanced
variants they are tried first, falling back to the base variants and finally
to the system search path. --base skips the CPU-enhanced variants.

Criteria:
  clean        always extract a fresh copy
  incremental  reuse an already extracted copy (default)
  system       load from the search path or the OS linker`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()

			host := platform.Current()
			m, err := opts.readManifest(ctx, host)
			if err != nil {
				return err
			}

			c := m.Criterion()
			if criterion != "" {
				if c, err = loader.ParseCriterion(criterion); err != nil {
					return err
				}
			}
			return runLoad(cmd.OutOrStdout(), opts.logger, m, host, c, baseOnly, symbols)
		},
	}

	cmd.Flags().StringVarP(&criterion, "criterion", "c", "", "Loading criterion (clean, incremental, system)")
	cmd.Flags().BoolVar(&baseOnly, "base", false, "Start from the base variants")
	cmd.Flags().StringSliceVarP(&symbols, "symbol", "s", nil, "Symbol to resolve after loading (repeatable)")
	return cmd
}

func runLoad(w io.Writer, logger *zap.Logger, m *manifest.Manifest, host *platform.Host, criterion loader.Criterion, baseOnly bool, symbols []string) (err error) {
	config, err := m.LoaderConfig(host)
	if err != nil {
		return err
	}
	config.Logger = diag.NewZap(logger)

	base, err := m.BuildCandidates(host)
	if err != nil {
		return err
	}
	enhanced, err := m.BuildEnhanced(host)
	if err != nil {
		return err
	}

	var (
		l    *loader.ConcurrentLoader
		tier = loader.TierBase
	)
	if len(enhanced) > 0 {
		tiered, err := loader.NewTiered(config, enhanced, base)
		if err != nil {
			return err
		}
		l = tiered.Loader()
		configureLoader(l, m, logger)
		load := tiered.Load
		if baseOnly {
			load = tiered.LoadBase
		}
		if tier, err = load(criterion); err != nil {
			return err
		}
	} else {
		if l, err = loader.NewConcurrent(config); err != nil {
			return err
		}
		configureLoader(l, m, logger)
		if err := l.RegisterNativeLibraries(base...); err != nil {
			return err
		}
		if _, err := l.InitPlatformLibrary(); err != nil {
			return err
		}
		if err := l.LoadLibrary(criterion); err != nil {
			return err
		}
	}
	defer func() {
		if cerr := l.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("unload library: %w", cerr)
		}
	}()

	fmt.Fprintf(w, "Loaded %s (%s tier, %s)\n", l.LoadedPath(), tier, l.Loader().LoadedCriterion())

	for _, name := range symbols {
		addr, err := l.Symbol(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s = %#x\n", name, addr)
	}
	return nil
}

func configureLoader(l *loader.ConcurrentLoader, m *manifest.Manifest, logger *zap.Logger) {
	m.Configure(l.Loader())
	l.SetLoadingListener(loader.LoadingListenerFuncs{
		Failure: func(_ *loader.Loader, md loader.CallingStackMetadata) {
			logger.Warn("Loading failed",
				zap.Stringer("criterion", md.Criterion),
				zap.String("at", md.Frame.Function),
				zap.Error(md.Cause))
		},
		Retry: func(_ *loader.Loader, md loader.CallingStackMetadata) {
			logger.Info("Retrying with clean extraction", zap.Error(md.Cause))
		},
	})
	l.SetSystemDetectionListener(loader.SystemDetectionListenerFuncs{
		Found: func(_ *loader.Loader, c *loader.Candidate) {
			logger.Debug("Variant selected", zap.String("entry", c.CompressedPath()))
		},
		NotFound: func(_ *loader.Loader) {
			logger.Debug("No variant matches this host")
		},
	})
}

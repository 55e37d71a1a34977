package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/diag"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/manifest"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/platform"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version will be set at build time via -ldflags
var Version = "v0.0.1-alpha"

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	verbose      bool
	manifestPath string
	timeout      time.Duration

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "nativeload",
		Short: "Select, extract and load packaged native libraries",
		Long: `nativeload inspects and drives the native library loader.

A manifest (.lua or .yaml) declares the packaged library and its
platform-specific variants. The loader selects the first variant whose
platform predicate holds on this host, extracts it from the archive and
loads it with the operating system's dynamic linker.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			config.Encoding = "console"
			config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if opts.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			diag.SetDefault(diag.NewZap(logger))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.logger.Sync()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&opts.manifestPath, "manifest", "m", "nativeload.lua", "Library manifest (.lua, .yaml or .yml)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Operation timeout")

	rootCmd.AddCommand(
		newDetectCmd(opts),
		newSelectCmd(opts),
		newExtractCmd(opts),
		newLoadCmd(opts),
		newPathCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "nativeload %s\n", Version)
			return nil
		},
	}
}

// readManifest parses the manifest named by --manifest for host.
func (o *globalOptions) readManifest(ctx context.Context, host *platform.Host) (*manifest.Manifest, error) {
	m, err := manifest.NewParser(host).ParseFile(ctx, o.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("%s", manifest.FormatError(err, o.verbose))
	}
	o.logger.Debug("Manifest parsed",
		zap.String("path", o.manifestPath),
		zap.String("library", m.Library.BaseName),
		zap.Int("candidates", len(m.Candidates)),
		zap.Int("enhanced", len(m.Enhanced)))
	return m, nil
}

func (o *globalOptions) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.timeout)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

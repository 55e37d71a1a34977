package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/archive"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/extract"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/loader"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/manifest"
	"github.com/ZebulonRouseFrantzich/nativeload/internal/platform"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExtractCmd(opts *globalOptions) *cobra.Command {
	var clean bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the selected variant without loading it",
		Long: `Extract the variant this host selects into the manifest's extraction
directory. An existing extracted file is kept unless --clean is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()

			host := platform.Current()
			m, err := opts.readManifest(ctx, host)
			if err != nil {
				return err
			}
			return runExtract(ctx, cmd.OutOrStdout(), opts.logger, m, host, clean)
		},
	}

	cmd.Flags().BoolVar(&clean, "clean", false, "Overwrite an existing extracted file")
	return cmd
}

func runExtract(ctx context.Context, w io.Writer, logger *zap.Logger, m *manifest.Manifest, host *platform.Host, clean bool) error {
	if m.Library.ArchivePath == "" {
		return fmt.Errorf("%w: manifest declares no library.archive", loader.ErrMalformedInput)
	}

	c, verifier, err := selectVariant(m, host)
	if err != nil {
		return err
	}

	dest := c.ExtractedPath()
	if !clean && c.IsExtracted() {
		fmt.Fprintf(w, "Already extracted: %s\n", dest)
		return nil
	}

	reader, err := archive.Open(m.Library.ArchivePath)
	if err != nil {
		return err
	}

	extractor := extract.NewExtractor(extract.NewLocator(reader, c.CompressedPath()), dest)
	extractor.SetVerifier(verifier)
	extractor.SetListener(extract.ListenerFuncs{
		Completed: func(e *extract.Extractor) {
			logger.Info("Extracted native library",
				zap.String("entry", e.Locator().Name()),
				zap.String("destination", e.Destination()))
		},
		Failure: func(e *extract.Extractor, err error) {
			logger.Error("Extraction failed",
				zap.String("entry", e.Locator().Name()),
				zap.Error(err))
		},
	})

	if err := extractor.ExtractContext(ctx); err != nil {
		return err
	}

	fmt.Fprintf(w, "Extracted %s -> %s\n", c.CompressedPath(), dest)
	return nil
}

// selectVariant binds the manifest candidates, enhanced variants first,
// and returns the one selected for host.
func selectVariant(m *manifest.Manifest, host *platform.Host) (*loader.Candidate, *extract.Verifier, error) {
	config, err := m.LoaderConfig(host)
	if err != nil {
		return nil, nil, err
	}
	l, err := loader.New(config)
	if err != nil {
		return nil, nil, err
	}

	enhanced, err := m.BuildEnhanced(host)
	if err != nil {
		return nil, nil, err
	}
	base, err := m.BuildCandidates(host)
	if err != nil {
		return nil, nil, err
	}
	if err := l.RegisterNativeLibraries(append(enhanced, base...)...); err != nil {
		return nil, nil, err
	}

	c, err := l.InitPlatformLibrary()
	if err != nil {
		return nil, nil, err
	}
	return c, config.Verifier, nil
}

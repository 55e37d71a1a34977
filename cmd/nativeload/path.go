package main

import (
	"fmt"
	"io"

	"github.com/ZebulonRouseFrantzich/nativeload/internal/loader"
	"github.com/spf13/cobra"
)

func newPathCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Inspect and edit the library search path",
		Long: fmt.Sprintf(`Inspect and edit the directories searched by the system criterion.

The search path lives in %s and is seeded from the OS linker
variable when unset. Changes affect this process and the commands it runs.`, loader.SearchPathEnv),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List search path directories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPathList(cmd.OutOrStdout(), loader.DefaultSearchPath())
			},
		},
		&cobra.Command{
			Use:   "add <dir>...",
			Short: "Append directories to the search path",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sp := loader.DefaultSearchPath()
				if err := sp.Initialize(); err != nil {
					return err
				}
				for _, dir := range args {
					if err := sp.Add(dir); err != nil {
						return err
					}
					opts.logger.Sugar().Debugw("Search path entry added", "dir", dir)
				}
				return runPathList(cmd.OutOrStdout(), sp)
			},
		},
		&cobra.Command{
			Use:   "remove <dir>...",
			Short: "Remove directories from the search path",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sp := loader.DefaultSearchPath()
				if err := sp.Initialize(); err != nil {
					return err
				}
				for _, dir := range args {
					if err := sp.Remove(dir); err != nil {
						return err
					}
				}
				return runPathList(cmd.OutOrStdout(), sp)
			},
		},
	)

	return cmd
}

func runPathList(w io.Writer, sp *loader.SearchPath) error {
	if err := sp.Initialize(); err != nil {
		return err
	}

	dirs := sp.List()
	if len(dirs) == 0 {
		fmt.Fprintf(w, "%s is empty.\n", sp.Key())
		return nil
	}

	fmt.Fprintf(w, "%s:\n", sp.Key())
	for i, dir := range dirs {
		fmt.Fprintf(w, "  %d. %s\n", i+1, dir)
	}
	return nil
}

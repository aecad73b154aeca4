package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"romshelf/internal/identify"
	"romshelf/internal/scanner"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var fullRescan bool
	var nonInteractive bool

	cmd := &cobra.Command{
		Use:     "import <dir>",
		Aliases: []string{"i"},
		Short:   "Scan a directory and add ROMs to the collection",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var prompter identify.Prompter = identify.NopPrompter{}
			if !nonInteractive {
				prompter = newConsolePrompter()
			}
			ident := identify.New(cfg, store, prompter, logger)
			scan := scanner.New(cfg, store, ident, logger)

			stats, err := scan.Scan(cmd.Context(), args[0], fullRescan)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned %d candidates: %d identified, %d unidentified, %d skipped, %d failed\n",
				stats.Candidates, stats.Identified, stats.Unidentified, stats.Skipped, stats.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fullRescan, "full-rescan", false, "Re-identify files already in the database")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt; ambiguous files stay unidentified")
	return cmd
}

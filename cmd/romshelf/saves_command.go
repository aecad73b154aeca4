package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"romshelf/internal/saves"
)

func newSavesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "saves [dir]",
		Aliases: []string{"bs"},
		Short:   "Back up save files found next to ROMs on the flashcart",
		Args:    cobra.MaximumNArgs(1),
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

			root := cfg.Paths.Flashcart
			if len(args) > 0 {
				root = args[0]
			}
			if root == "" {
				return fmt.Errorf("no directory given and no flashcart configured")
			}

			mgr := saves.New(cfg, store, logger)
			stats, err := mgr.Backup(cmd.Context(), root)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Found %d saves: %d backed up, %d already stored, %d without an owner\n",
				stats.Found, stats.Backed, stats.Existing, stats.Unowned)
			return nil
		},
	}
}

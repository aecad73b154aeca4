package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"romshelf/internal/advanscene"
)

func newUpdateDBCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "updatedb",
		Aliases: []string{"udb"},
		Short:   "Download and import the reference catalog",
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

			client := advanscene.New(cfg.Catalog.FeedURL,
				time.Duration(cfg.Catalog.DownloadTimeout)*time.Second, logger)
			updated, err := client.RefreshIfStale(cmd.Context(), store, force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if updated {
				fmt.Fprintln(out, "Catalog updated")
			} else {
				fmt.Fprintln(out, "Already up to date")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Re-import even when the feed is not newer")
	return cmd
}

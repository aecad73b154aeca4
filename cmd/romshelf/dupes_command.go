package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"romshelf/internal/dupes"
)

func newDupesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "dupes",
		Aliases: []string{"rd"},
		Short:   "Find and remove duplicate ROMs",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			resolver := dupes.New(store, newConsolePrompter(), logger)
			stats, err := resolver.Resolve(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if stats.Groups == 0 {
				fmt.Fprintln(out, "No duplicates found.")
				return nil
			}
			fmt.Fprintf(out, "%d duplicate groups, %d files removed\n", stats.Groups, stats.Removed)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"romshelf/internal/archive"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "clean",
		Aliases: []string{"cdb"},
		Short:   "Drop database rows whose backing file is gone",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			paths, err := store.ListLocalPaths(cmd.Context())
			if err != nil {
				return err
			}

			removed := 0
			seen := make(map[string]bool)
			for _, path := range paths {
				base := path
				if archivePath, _, ok := archive.SplitComposite(path); ok {
					base = archivePath
				}
				if seen[base] {
					continue
				}
				seen[base] = true

				if _, err := os.Stat(base); err == nil {
					continue
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("stat %s: %w", base, err)
				}
				if err := store.RemoveLocalByPathPrefix(cmd.Context(), base); err != nil {
					return err
				}
				removed++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale entries\n", removed)
			return nil
		},
	}
}

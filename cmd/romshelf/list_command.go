package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"romshelf/internal/archive"
	"romshelf/internal/catalog"
	"romshelf/internal/region"
	"romshelf/internal/romname"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var knownOnly bool

	cmd := &cobra.Command{
		Use:     "list [term...]",
		Aliases: []string{"ls"},
		Short:   "List ROMs in the collection, optionally filtered by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			term := romname.Normalize(strings.Join(args, " "))
			out := cmd.OutOrStdout()

			if knownOnly {
				releases, err := store.FindKnownByNameAndRegion(cmd.Context(), term, nil)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(releases))
				for _, release := range releases {
					entry, err := store.GetKnownTitle(cmd.Context(), release)
					if err != nil {
						return err
					}
					if entry == nil {
						continue
					}
					rows = append(rows, []string{
						fmt.Sprintf("%04d", entry.ReleaseNumber),
						entry.Title,
						region.Name(entry.Region),
						entry.ReleaseGroup,
					})
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "No catalog entries match.")
					return nil
				}
				fmt.Fprintln(out, renderTable([]column{
					{header: "Release", right: true},
					{header: "Title"},
					{header: "Region"},
					{header: "Group"},
				}, rows))
				return nil
			}

			files, err := store.SearchLocalByName(cmd.Context(), term)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(out, "No local files match.")
				return nil
			}
			rows := make([][]string, 0, len(files))
			for _, file := range files {
				rows = append(rows, []string{
					releaseCell(file),
					file.NormalizedName,
					sizeCell(file),
					pathCell(file),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "Release", right: true},
				{header: "Name"},
				{header: "Size", right: true},
				{header: "Path"},
			}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&knownOnly, "known", false, "Search the reference catalog instead of local files")
	return cmd
}

func releaseCell(file catalog.LocalFile) string {
	if file.ReleaseNumber == nil {
		return "-"
	}
	return fmt.Sprintf("%04d", *file.ReleaseNumber)
}

func sizeCell(file catalog.LocalFile) string {
	if file.Size == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f MB", float64(*file.Size)/(1<<20))
}

func pathCell(file catalog.LocalFile) string {
	if _, inner, ok := archive.SplitComposite(file.Path); ok {
		return inner + " [archived]"
	}
	return file.Path
}

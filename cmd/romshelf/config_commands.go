package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"romshelf/internal/config"
	"romshelf/internal/deps"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand())
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load("")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults shown")
			}
			rows := [][]string{
				{"paths.data_dir", cfg.Paths.DataDir},
				{"paths.scratch_dir", cfg.Paths.ScratchDir},
				{"paths.saves_dir", cfg.Paths.SavesDir},
				{"paths.flashcart", cfg.Paths.Flashcart},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"catalog.feed_url", cfg.Catalog.FeedURL},
				{"catalog.download_timeout", fmt.Sprintf("%ds", cfg.Catalog.DownloadTimeout)},
				{"scanner.extensions", strings.Join(cfg.Scanner.Extensions, ", ")},
				{"scanner.sevenzip_binary", cfg.Scanner.SevenZipBinary},
				{"scanner.unrar_binary", cfg.Scanner.UnrarBinary},
				{"saves.extension", cfg.Saves.Extension},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(out, renderTable([]column{{header: "Key"}, {header: "Value"}}, rows))

			if tools := deps.CheckBinaries(deps.ArchiveTools(cfg)); len(tools) > 0 {
				toolRows := make([][]string, 0, len(tools))
				for _, tool := range tools {
					state := "available"
					if !tool.Available {
						state = tool.Detail
					}
					toolRows = append(toolRows, []string{tool.Name, tool.Command, state})
				}
				fmt.Fprintln(out, renderTable([]column{
					{header: "Archive tool"},
					{header: "Command"},
					{header: "Status"},
				}, toolRows))
			}
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}

			if err := config.WriteSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"romshelf/internal/archive"
	"romshelf/internal/catalog"
	"romshelf/internal/config"
	"romshelf/internal/fileutil"
	"romshelf/internal/romname"
	"romshelf/internal/saves"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "upload <name> [dest]",
		Aliases: []string{"up"},
		Short:   "Copy a ROM (and optionally a save) to the flashcart",
		Args:    cobra.RangeArgs(1, 2),
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

			dest := cfg.Paths.Flashcart
			if len(args) > 1 {
				dest = args[1]
			}
			if dest == "" {
				return fmt.Errorf("no destination given and no flashcart configured")
			}
			if info, err := os.Stat(dest); err != nil {
				return fmt.Errorf("destination: %w", err)
			} else if !info.IsDir() {
				return fmt.Errorf("destination %s is not a directory", dest)
			}

			files, err := store.SearchLocalByName(cmd.Context(), romname.Normalize(args[0]))
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no local ROM matches %q", args[0])
			}

			prompter := newConsolePrompter()
			index := 0
			if len(files) > 1 {
				var ok bool
				index, ok, err = prompter.ChooseLocal("Matching ROMs", files)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			file := files[index]

			if file.Size != nil {
				if err := checkFreeSpace(dest, uint64(*file.Size)); err != nil {
					return err
				}
			}

			name, err := uploadName(cmd, store, file)
			if err != nil {
				return err
			}
			if err := placeROM(cmd, cfg, file, dest, name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s\n", name)

			mgr := saves.New(cfg, store, logger)
			list, err := mgr.For(file)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return nil
			}
			saveIndex, ok, err := prompter.ChooseSave(list)
			if err != nil || !ok {
				return err
			}
			remote := mgr.RemoteName(name)
			if err := mgr.Push(list[saveIndex], dest, remote); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded save %s\n", remote)
			return nil
		},
	}
}

// uploadName returns the on-device file name: the canonical catalog name for
// identified ROMs, the original base name otherwise.
func uploadName(cmd *cobra.Command, store *catalog.Store, file catalog.LocalFile) (string, error) {
	if file.ReleaseNumber != nil {
		entry, err := store.GetKnownTitle(cmd.Context(), *file.ReleaseNumber)
		if err != nil {
			return "", err
		}
		if entry != nil {
			return entry.CanonicalFileName(), nil
		}
	}
	name := file.Path
	if _, inner, ok := archive.SplitComposite(name); ok {
		name = inner
	}
	return filepath.Base(name), nil
}

func placeROM(cmd *cobra.Command, cfg *config.Config, file catalog.LocalFile, dest, name string) error {
	target := filepath.Join(dest, name)

	archivePath, inner, ok := archive.SplitComposite(file.Path)
	if !ok {
		return fileutil.CopyFileVerified(file.Path, target)
	}

	walker, err := archive.New(archivePath, archive.Options{
		SevenZipBinary: cfg.Scanner.SevenZipBinary,
		UnrarBinary:    cfg.Scanner.UnrarBinary,
	})
	if err != nil {
		return err
	}
	extracted, err := walker.Extract(cmd.Context(), inner, dest)
	if err != nil {
		return err
	}
	if extracted != target {
		if err := os.Rename(extracted, target); err != nil {
			return fmt.Errorf("rename extracted rom: %w", err)
		}
	}
	return nil
}

// checkFreeSpace refuses an upload that would not fit on the target
// filesystem.
func checkFreeSpace(dest string, need uint64) error {
	var stat unix.Statfs_t
	if err := unix.Statfs(dest, &stat); err != nil {
		return fmt.Errorf("statfs %s: %w", dest, err)
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < need {
		return fmt.Errorf("not enough space on %s: need %d bytes, %d free", dest, need, free)
	}
	return nil
}

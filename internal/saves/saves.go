// Package saves backs up cartridge save files found next to ROM images on a
// flashcart and pushes them back out on demand.
//
// Stored saves are named "<release>_<localID>_<mtime>.<ext>" so a save stays
// attached to its game even when the backing local row is re-scanned.
package saves

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"romshelf/internal/catalog"
	"romshelf/internal/config"
	"romshelf/internal/fileutil"
	"romshelf/internal/logging"
	"romshelf/internal/romname"
)

var storedName = regexp.MustCompile(`^(\d+)_(\d+)_(\d+)\.([A-Za-z0-9]+)$`)

// SaveFile is one stored backup. ReleaseNumber is 0 when the owning file was
// never identified; LocalID then carries the association.
type SaveFile struct {
	ReleaseNumber int
	LocalID       int64
	ModTime       time.Time
	Path          string
}

// Describe renders the save's timestamp the way it is shown in prompts.
func (s SaveFile) Describe() string {
	return s.ModTime.Format("2006-01-02 15:04:05")
}

// BackupStats summarizes one backup pass.
type BackupStats struct {
	Found    int
	Backed   int
	Existing int
	Unowned  int
}

// Manager locates, stores, and restores save files.
type Manager struct {
	cfg    *config.Config
	store  *catalog.Store
	logger *slog.Logger
}

func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "saves"),
	}
}

// Backup walks root (typically the flashcart mount) for ROM images with a
// save sibling and copies each new save into the saves directory. Saves whose
// owning ROM cannot be matched to the local index are counted but left alone.
func (m *Manager) Backup(ctx context.Context, root string) (BackupStats, error) {
	var stats BackupStats

	if err := os.MkdirAll(m.cfg.Paths.SavesDir, 0o755); err != nil {
		return stats, fmt.Errorf("prepare saves dir: %w", err)
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".nds") {
			return nil
		}

		savePath := m.findSibling(path)
		if savePath == "" {
			return nil
		}
		stats.Found++

		owner, err := m.identifyOwner(ctx, path)
		if err != nil {
			return err
		}
		if owner == nil {
			m.logger.Warn("save has no indexed owner", logging.String("save", savePath))
			stats.Unowned++
			return nil
		}

		info, err := os.Stat(savePath)
		if err != nil {
			return err
		}
		release := 0
		if owner.ReleaseNumber != nil {
			release = *owner.ReleaseNumber
		}
		stored := filepath.Join(m.cfg.Paths.SavesDir,
			fmt.Sprintf("%d_%d_%d.%s", release, owner.ID, info.ModTime().Unix(), m.cfg.Saves.Extension))
		if _, err := os.Stat(stored); err == nil {
			stats.Existing++
			return nil
		}

		if err := fileutil.CopyFile(savePath, stored); err != nil {
			return fmt.Errorf("back up %s: %w", savePath, err)
		}
		m.logger.Info("save backed up",
			logging.String("from", savePath), logging.String("to", stored))
		stats.Backed++
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("backup saves under %s: %w", root, err)
	}
	return stats, nil
}

// For lists stored saves belonging to a local file, matched by release
// number or by local row id, newest first.
func (m *Manager) For(file catalog.LocalFile) ([]SaveFile, error) {
	entries, err := os.ReadDir(m.cfg.Paths.SavesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read saves dir: %w", err)
	}

	var out []SaveFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := storedName.FindStringSubmatch(entry.Name())
		if match == nil || !strings.EqualFold(match[4], m.cfg.Saves.Extension) {
			continue
		}
		release, _ := strconv.Atoi(match[1])
		localID, _ := strconv.ParseInt(match[2], 10, 64)
		mtime, _ := strconv.ParseInt(match[3], 10, 64)

		sameRelease := file.ReleaseNumber != nil && release != 0 && release == *file.ReleaseNumber
		if !sameRelease && localID != file.ID {
			continue
		}
		out = append(out, SaveFile{
			ReleaseNumber: release,
			LocalID:       localID,
			ModTime:       time.Unix(mtime, 0),
			Path:          filepath.Join(m.cfg.Paths.SavesDir, entry.Name()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}

// Push copies a stored save into destDir under remoteName, which should be
// the save sibling name of the uploaded ROM.
func (m *Manager) Push(save SaveFile, destDir, remoteName string) error {
	if err := fileutil.CopyFile(save.Path, filepath.Join(destDir, remoteName)); err != nil {
		return fmt.Errorf("push save: %w", err)
	}
	return nil
}

// RemoteName derives the on-device save name for a ROM file name.
func (m *Manager) RemoteName(romName string) string {
	return strings.TrimSuffix(romName, filepath.Ext(romName)) + "." + m.cfg.Saves.Extension
}

// findSibling returns the save file sitting next to a ROM, or "".
func (m *Manager) findSibling(romPath string) string {
	dir, name := filepath.Split(romPath)
	base := strings.TrimSuffix(name, filepath.Ext(name))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	ext := "." + strings.ToLower(m.cfg.Saves.Extension)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) != ext {
			continue
		}
		if strings.Contains(entry.Name(), base) {
			return filepath.Join(dir, entry.Name())
		}
	}
	return ""
}

// identifyOwner matches a flashcart ROM against the local index using
// progressively stronger evidence: filename release number, then unique
// size, then checksum. Returns nil when nothing matches.
func (m *Manager) identifyOwner(ctx context.Context, romPath string) (*catalog.LocalFile, error) {
	guess := romname.Parse(romPath)
	if guess.ReleaseNumber != nil {
		rows, err := m.store.FindLocalBy(ctx, catalog.LocalFieldRelease, *guess.ReleaseNumber)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return &rows[0], nil
		}
	}

	info, err := os.Stat(romPath)
	if err != nil {
		return nil, err
	}
	rows, err := m.store.FindLocalBy(ctx, catalog.LocalFieldSize, info.Size())
	if err != nil {
		return nil, err
	}
	if len(rows) == 1 {
		return &rows[0], nil
	}

	sum, err := checksumFile(romPath)
	if err != nil {
		return nil, err
	}
	rows, err = m.store.FindLocalBy(ctx, catalog.LocalFieldChecksum, sum)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}
	return nil, nil
}

func checksumFile(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	sum := crc32.NewIEEE()
	if _, err := io.Copy(sum, f); err != nil {
		return 0, err
	}
	return sum.Sum32(), nil
}

// Package scanner walks directory trees for candidate ROM files, runs each
// one through identification, and records the outcome in the local index.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"romshelf/internal/archive"
	"romshelf/internal/catalog"
	"romshelf/internal/config"
	"romshelf/internal/identify"
	"romshelf/internal/logging"
)

// ErrScanInProgress indicates another process holds the scan lock.
var ErrScanInProgress = errors.New("another scan is already running")

// Identifier resolves one candidate path to a catalog identity.
type Identifier interface {
	Identify(ctx context.Context, path string) (identify.Result, error)
}

// Stats summarizes one scan pass.
type Stats struct {
	Candidates   int
	Identified   int
	Unidentified int
	Skipped      int
	Failed       int
}

// Scanner discovers candidates under a root and persists identification
// results. A file lock serializes scans across processes so two imports
// never race on the same index.
type Scanner struct {
	cfg    *config.Config
	store  *catalog.Store
	ident  Identifier
	logger *slog.Logger
}

func New(cfg *config.Config, store *catalog.Store, ident Identifier, logger *slog.Logger) *Scanner {
	return &Scanner{
		cfg:    cfg,
		store:  store,
		ident:  ident,
		logger: logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan walks root, identifies every candidate, and upserts the results.
// With fullRescan false, paths already present in the index are skipped;
// with it true everything is re-identified. Per-file failures are logged
// and counted, never fatal.
func (s *Scanner) Scan(ctx context.Context, root string, fullRescan bool) (Stats, error) {
	var stats Stats

	info, err := os.Stat(root)
	if err != nil {
		return stats, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return stats, fmt.Errorf("scan root %q is not a directory", root)
	}

	lockPath := s.cfg.LockPath()
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return stats, fmt.Errorf("prepare lock dir: %w", err)
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return stats, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !ok {
		return stats, ErrScanInProgress
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release scan lock", logging.Error(err))
		}
	}()

	candidates, err := s.collect(ctx, root, &stats)
	if err != nil {
		return stats, err
	}
	stats.Candidates = len(candidates)

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if !fullRescan {
			// Unidentified rows do not count as known, so they get another
			// chance after every catalog refresh.
			known, err := s.store.IsPathKnown(ctx, candidate, false)
			if err != nil {
				return stats, err
			}
			if known {
				stats.Skipped++
				continue
			}
		}

		res, err := s.ident.Identify(ctx, candidate)
		if err != nil {
			s.logger.Warn("identification failed",
				logging.String("path", candidate), logging.Error(err))
			stats.Failed++
			continue
		}

		file := catalog.LocalFile{
			ReleaseNumber:  res.ReleaseNumber,
			Path:           candidate,
			NormalizedName: res.NormalizedName,
			Size:           res.Size,
			Checksum:       res.Checksum,
		}
		if err := s.store.UpsertLocalFile(ctx, file); err != nil {
			return stats, err
		}
		if res.Identified() {
			stats.Identified++
		} else {
			stats.Unidentified++
		}
	}

	s.logger.Info("scan complete",
		logging.String("root", root),
		logging.Int("candidates", stats.Candidates),
		logging.Int("identified", stats.Identified),
		logging.Int("unidentified", stats.Unidentified),
		logging.Int("skipped", stats.Skipped),
		logging.Int("failed", stats.Failed))
	return stats, nil
}

// collect walks the tree and expands archives into composite candidate
// paths. Unreadable archives count as failures but do not stop the walk.
func (s *Scanner) collect(ctx context.Context, root string, stats *Stats) ([]string, error) {
	allowed := make(map[string]struct{}, len(s.cfg.Scanner.Extensions))
	for _, ext := range s.cfg.Scanner.Extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	opts := archive.Options{
		SevenZipBinary: s.cfg.Scanner.SevenZipBinary,
		UnrarBinary:    s.cfg.Scanner.UnrarBinary,
	}

	var candidates []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unattended scans cover large trees; an unreadable
			// subdirectory must not take the whole pass down.
			s.logger.Warn("cannot read path", logging.String("path", path), logging.Error(err))
			stats.Failed++
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(d.Name()), "."))
		if _, ok := allowed[ext]; !ok {
			return nil
		}

		if !archive.IsArchivePath(path) {
			candidates = append(candidates, path)
			return nil
		}

		walker, err := archive.New(path, opts)
		if err != nil {
			s.logger.Warn("unsupported archive", logging.String("path", path), logging.Error(err))
			stats.Failed++
			return nil
		}
		entries, err := walker.Scan(ctx, "nds")
		if err != nil {
			s.logger.Warn("failed to list archive",
				logging.String("path", path), logging.Error(err))
			stats.Failed++
			return nil
		}
		for _, entry := range entries {
			candidates = append(candidates, archive.CompositePath(path, entry))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return candidates, nil
}

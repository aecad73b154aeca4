// Package dupes finds local files sharing a checksum and removes the copies
// the user does not want to keep.
package dupes

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"romshelf/internal/archive"
	"romshelf/internal/catalog"
	"romshelf/internal/logging"
)

// Chooser picks which copy of a duplicate group survives. ok=false leaves
// the whole group untouched.
type Chooser interface {
	ChooseKeeper(group []catalog.LocalFile) (index int, ok bool, err error)
}

// Stats summarizes one resolution pass.
type Stats struct {
	Groups  int
	Removed int
}

// Resolver walks duplicate-checksum groups and deletes losers from disk and
// from the index.
type Resolver struct {
	store   *catalog.Store
	chooser Chooser
	logger  *slog.Logger
}

func New(store *catalog.Store, chooser Chooser, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:   store,
		chooser: chooser,
		logger:  logging.NewComponentLogger(logger, "dupes"),
	}
}

// Resolve presents every duplicate group to the chooser. For archived
// entries the whole archive is deleted, so its other rows go with it.
func (r *Resolver) Resolve(ctx context.Context) (Stats, error) {
	var stats Stats

	groups, err := r.store.FindDuplicateChecksums(ctx)
	if err != nil {
		return stats, err
	}
	stats.Groups = len(groups)

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		files, err := r.store.FindLocalBy(ctx, catalog.LocalFieldChecksum, group.Checksum)
		if err != nil {
			return stats, err
		}
		if len(files) < 2 {
			continue
		}

		index, ok, err := r.chooser.ChooseKeeper(files)
		if err != nil {
			return stats, err
		}
		if !ok || index < 0 || index >= len(files) {
			continue
		}

		for i, file := range files {
			if i == index {
				continue
			}
			if err := r.remove(ctx, file); err != nil {
				return stats, err
			}
			stats.Removed++
		}
	}
	return stats, nil
}

func (r *Resolver) remove(ctx context.Context, file catalog.LocalFile) error {
	path := file.Path
	if base, _, ok := archive.SplitComposite(path); ok {
		path = base
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	if err := r.store.RemoveLocalByPathPrefix(ctx, path); err != nil {
		return err
	}
	r.logger.Info("duplicate removed", logging.String("path", file.Path))
	return nil
}

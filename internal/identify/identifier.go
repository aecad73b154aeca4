package identify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"romshelf/internal/archive"
	"romshelf/internal/catalog"
	"romshelf/internal/config"
	"romshelf/internal/logging"
	"romshelf/internal/romfile"
	"romshelf/internal/romname"
)

// Result is the outcome of identifying one candidate file. A nil
// ReleaseNumber means unidentified; HeaderValid distinguishes "no catalog
// match" from "not a ROM image at all".
type Result struct {
	ReleaseNumber  *int
	Checksum       *uint32
	Size           *int64
	NormalizedName string
	HeaderValid    bool
}

// Identified reports whether the candidate resolved to a catalog entry.
func (r Result) Identified() bool { return r.ReleaseNumber != nil }

// Identifier runs the identification pipeline for single files and
// archive entries.
type Identifier struct {
	store       *catalog.Store
	prompter    Prompter
	scratchDir  string
	archiveOpts archive.Options
	logger      *slog.Logger
}

// New constructs an identifier. A nil prompter declines all questions.
func New(cfg *config.Config, store *catalog.Store, prompter Prompter, logger *slog.Logger) *Identifier {
	if prompter == nil {
		prompter = NopPrompter{}
	}
	return &Identifier{
		store:      store,
		prompter:   prompter,
		scratchDir: cfg.Paths.ScratchDir,
		archiveOpts: archive.Options{
			SevenZipBinary: cfg.Scanner.SevenZipBinary,
			UnrarBinary:    cfg.Scanner.UnrarBinary,
		},
		logger: logging.NewComponentLogger(logger, "identify"),
	}
}

// Identify resolves a candidate path, which may be plain or composite
// ("archivePath:inner"). I/O failures while acquiring or reading the file
// are returned to the caller; everything else resolves to a Result, even
// if that result is "unidentified".
func (i *Identifier) Identify(ctx context.Context, path string) (Result, error) {
	guess := romname.Parse(path)
	res := Result{NormalizedName: guess.NormalizedName}

	localPath, cleanup, err := i.acquire(ctx, path)
	if err != nil {
		return res, err
	}
	defer cleanup()

	hdr, err := romfile.Parse(localPath, i.logger)
	if err != nil {
		return res, err
	}
	res.Checksum = &hdr.Checksum
	res.Size = &hdr.Size

	if !hdr.Valid() {
		// Wrong capacity means the file is not a ROM image no matter what
		// its name claims; filename fallback would only invent matches.
		i.logger.Debug("header capacity out of range",
			logging.String("path", path),
			logging.Uint64("capacity_mb", uint64(hdr.CapacityMB())))
		return res, nil
	}
	res.HeaderValid = true

	release, err := i.resolve(ctx, path, hdr.Checksum, guess)
	if err != nil {
		return res, err
	}
	if release != nil {
		res.ReleaseNumber = release
		if entry, err := i.store.GetKnownTitle(ctx, *release); err == nil && entry != nil {
			res.NormalizedName = entry.NormalizedName
		}
	}
	return res, nil
}

// acquire materializes the candidate's bytes. Composite paths extract the
// inner entry into a per-candidate scratch directory that the returned
// cleanup removes on every exit path.
func (i *Identifier) acquire(ctx context.Context, path string) (string, func(), error) {
	archivePath, inner, ok := archive.SplitComposite(path)
	if !ok {
		return path, func() {}, nil
	}

	walker, err := archive.New(archivePath, i.archiveOpts)
	if err != nil {
		return "", nil, err
	}

	scratch := filepath.Join(i.scratchDir, uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return "", nil, fmt.Errorf("create scratch dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(scratch) }

	extracted, err := walker.Extract(ctx, inner, scratch)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return extracted, cleanup, nil
}

// resolve runs the layered reconciliation: checksum first, then the
// name-and-release fallback.
func (i *Identifier) resolve(ctx context.Context, path string, checksum uint32, guess romname.Guess) (*int, error) {
	matches, err := i.store.FindKnownByChecksum(ctx, checksum)
	if err != nil {
		return nil, err
	}

	if len(matches) > 0 {
		// Checksum plus an independently derived release number is the
		// strongest agreement available; no confirmation needed.
		if guess.ReleaseNumber != nil && containsRelease(matches, *guess.ReleaseNumber) {
			i.logger.Info("identified by checksum and filename agreement",
				logging.String("path", path),
				logging.Int("release", *guess.ReleaseNumber))
			return guess.ReleaseNumber, nil
		}

		release, err := i.confirmAmong(ctx, path, matches)
		if err != nil {
			return nil, err
		}
		if release != nil {
			i.logger.Info("identified by confirmed checksum match",
				logging.String("path", path),
				logging.Int("release", *release))
			return release, nil
		}
		// User rejected every checksum candidate; the catalog row for this
		// content is evidently wrong or missing, so fall through to names.
	}

	return i.resolveByName(ctx, path, guess)
}

// resolveByName applies the weak-signal decision table and the manual
// search loop.
func (i *Identifier) resolveByName(ctx context.Context, path string, guess romname.Guess) (*int, error) {
	list, err := i.searchNames(ctx, guess.NormalizedName, guess.Region)
	if err != nil {
		return nil, err
	}

	if guess.ReleaseNumber != nil {
		// Two independent weak signals agreeing is treated as strong.
		if containsRelease(list, *guess.ReleaseNumber) {
			i.logger.Info("identified by release number and name agreement",
				logging.String("path", path),
				logging.Int("release", *guess.ReleaseNumber))
			return guess.ReleaseNumber, nil
		}

		exists, err := i.store.KnownReleaseExists(ctx, *guess.ReleaseNumber)
		if err != nil {
			return nil, err
		}
		if exists {
			accepted, err := i.confirmSingle(ctx, path, *guess.ReleaseNumber)
			if err != nil {
				return nil, err
			}
			if accepted {
				return guess.ReleaseNumber, nil
			}
		}
	}

	// Disambiguation loop. Each pass either resolves, or asks for a fresh
	// search term; the loop ends when the user stops supplying terms.
	for {
		if len(list) > 0 {
			release, err := i.confirmAmong(ctx, path, list)
			if err != nil {
				return nil, err
			}
			if release != nil {
				i.logger.Info("identified by confirmed name match",
					logging.String("path", path),
					logging.Int("release", *release))
				return release, nil
			}
		}

		term, ok, err := i.prompter.SearchTerm(path)
		if err != nil {
			i.logger.Warn("search prompt failed", logging.Error(err))
			return nil, nil
		}
		if !ok || strings.TrimSpace(term) == "" {
			return nil, nil
		}
		list, err = i.searchNames(ctx, romname.Normalize(term), nil)
		if err != nil {
			return nil, err
		}
	}
}

// searchNames wraps the catalog name search, refusing to match the whole
// catalog on an empty query.
func (i *Identifier) searchNames(ctx context.Context, normalized string, regionCode *int) ([]int, error) {
	if strings.TrimSpace(normalized) == "" {
		return nil, nil
	}
	return i.store.FindKnownByNameAndRegion(ctx, normalized, regionCode)
}

// confirmAmong runs the shared confirmation sub-routine: yes/no for a
// single candidate, an enumerated choice with a "none" escape otherwise.
func (i *Identifier) confirmAmong(ctx context.Context, path string, releases []int) (*int, error) {
	if len(releases) == 1 {
		accepted, err := i.confirmSingle(ctx, path, releases[0])
		if err != nil || !accepted {
			return nil, err
		}
		release := releases[0]
		return &release, nil
	}

	candidates := make([]*catalog.KnownTitle, 0, len(releases))
	kept := make([]int, 0, len(releases))
	for _, release := range releases {
		entry, err := i.store.GetKnownTitle(ctx, release)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			candidates = append(candidates, entry)
			kept = append(kept, release)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	index, ok, err := i.prompter.ChooseCandidate(path, candidates)
	if err != nil {
		i.logger.Warn("choice prompt failed", logging.Error(err))
		return nil, nil
	}
	if !ok || index < 0 || index >= len(kept) {
		return nil, nil
	}
	release := kept[index]
	return &release, nil
}

func (i *Identifier) confirmSingle(ctx context.Context, path string, release int) (bool, error) {
	entry, err := i.store.GetKnownTitle(ctx, release)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	accepted, err := i.prompter.ConfirmCandidate(path, entry)
	if err != nil {
		i.logger.Warn("confirm prompt failed", logging.Error(err))
		return false, nil
	}
	return accepted, nil
}

func containsRelease(list []int, release int) bool {
	for _, n := range list {
		if n == release {
			return true
		}
	}
	return false
}

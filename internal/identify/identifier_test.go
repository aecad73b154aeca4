package identify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"romshelf/internal/archive"
	"romshelf/internal/catalog"
	"romshelf/internal/config"
	"romshelf/internal/logging"
	"romshelf/internal/romname"
	"romshelf/internal/testsupport"
)

// scriptPrompter replays canned answers and records what it was asked.
type scriptPrompter struct {
	confirmAnswers []bool
	chooseAnswers  []int // -1 means "none of these"
	searchTerms    []string

	confirmed int
	chosen    int
	searched  int
}

func (p *scriptPrompter) ConfirmCandidate(path string, candidate *catalog.KnownTitle) (bool, error) {
	if p.confirmed >= len(p.confirmAnswers) {
		return false, nil
	}
	answer := p.confirmAnswers[p.confirmed]
	p.confirmed++
	return answer, nil
}

func (p *scriptPrompter) ChooseCandidate(path string, candidates []*catalog.KnownTitle) (int, bool, error) {
	if p.chosen >= len(p.chooseAnswers) {
		return 0, false, nil
	}
	answer := p.chooseAnswers[p.chosen]
	p.chosen++
	if answer < 0 {
		return 0, false, nil
	}
	return answer, true, nil
}

func (p *scriptPrompter) SearchTerm(path string) (string, bool, error) {
	if p.searched >= len(p.searchTerms) {
		return "", false, nil
	}
	term := p.searchTerms[p.searched]
	p.searched++
	return term, true, nil
}

func newTestIdentifier(t *testing.T, cfg *config.Config, store *catalog.Store, prompter Prompter) *Identifier {
	t.Helper()
	return New(cfg, store, prompter, logging.NewNop())
}

func seedKnown(t *testing.T, store *catalog.Store, entries ...catalog.KnownTitle) {
	t.Helper()
	for i := range entries {
		if entries[i].NormalizedName == "" {
			entries[i].NormalizedName = romname.Normalize(entries[i].Title)
		}
	}
	if err := store.UpsertKnownTitles(context.Background(), entries); err != nil {
		t.Fatalf("seed known titles: %v", err)
	}
}

func TestIdentifyChecksumAndFilenameAgreement(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	path := filepath.Join(t.TempDir(), "0028 - Kirby - Canvas Curse (EUR).nds")
	checksum := testsupport.WriteROM(t, path, "KIRBY", 0x11)
	seedKnown(t, store, catalog.KnownTitle{
		ReleaseNumber: 28,
		Title:         "Kirby - Canvas Curse",
		Checksum:      checksum,
		Region:        0,
	})

	// No prompter answers scripted: agreement must not ask anything.
	ident := newTestIdentifier(t, cfg, store, &scriptPrompter{})
	res, err := ident.Identify(context.Background(), path)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if !res.Identified() || *res.ReleaseNumber != 28 {
		t.Fatalf("release = %v, want 28", res.ReleaseNumber)
	}
	if !res.HeaderValid {
		t.Fatal("expected a valid header")
	}
	if res.Checksum == nil || *res.Checksum != checksum {
		t.Fatalf("checksum = %v, want %08x", res.Checksum, checksum)
	}
	if res.NormalizedName != "kirby canvas curse" {
		t.Fatalf("normalized name = %q", res.NormalizedName)
	}
}

func TestIdentifyChecksumMatchNeedsConfirmation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	// The filename carries no release number, so the single checksum match
	// must be confirmed interactively.
	path := filepath.Join(t.TempDir(), "mystery dump.nds")
	checksum := testsupport.WriteROM(t, path, "ZOO KEEPER", 0x22)
	seedKnown(t, store, catalog.KnownTitle{
		ReleaseNumber: 7,
		Title:         "Zoo Keeper",
		Checksum:      checksum,
		Region:        1,
	})

	prompter := &scriptPrompter{confirmAnswers: []bool{true}}
	ident := newTestIdentifier(t, cfg, store, prompter)
	res, err := ident.Identify(context.Background(), path)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if !res.Identified() || *res.ReleaseNumber != 7 {
		t.Fatalf("release = %v, want 7", res.ReleaseNumber)
	}
	if prompter.confirmed != 1 {
		t.Fatalf("confirm prompts = %d, want 1", prompter.confirmed)
	}
	if res.NormalizedName != "zoo keeper" {
		t.Fatalf("normalized name = %q, want catalog name", res.NormalizedName)
	}
}

func TestIdentifyDeclinedChecksumFallsBackToName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	path := filepath.Join(t.TempDir(), "Zoo Keeper (USA).nds")
	checksum := testsupport.WriteROM(t, path, "ZOO KEEPER", 0x23)
	seedKnown(t, store,
		catalog.KnownTitle{ReleaseNumber: 5, Title: "Something Else", Checksum: checksum, Region: 0},
		catalog.KnownTitle{ReleaseNumber: 7, Title: "Zoo Keeper", Checksum: 0xDEADBEEF, Region: 1},
	)

	// Decline the (wrong) checksum candidate, accept the name candidate.
	prompter := &scriptPrompter{confirmAnswers: []bool{false, true}}
	ident := newTestIdentifier(t, cfg, store, prompter)
	res, err := ident.Identify(context.Background(), path)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if !res.Identified() || *res.ReleaseNumber != 7 {
		t.Fatalf("release = %v, want 7", res.ReleaseNumber)
	}
}

func TestIdentifyReleaseAndNameAgreement(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	// The dump's checksum is unknown to the catalog, but the filename's
	// release number and name point at the same entry.
	path := filepath.Join(t.TempDir(), "0042 - Meteos (USA).nds")
	testsupport.WriteROM(t, path, "METEOS", 0x33)
	seedKnown(t, store, catalog.KnownTitle{
		ReleaseNumber: 42,
		Title:         "Meteos",
		Checksum:      0x01020304,
		Region:        1,
	})

	ident := newTestIdentifier(t, cfg, store, &scriptPrompter{})
	res, err := ident.Identify(context.Background(), path)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if !res.Identified() || *res.ReleaseNumber != 42 {
		t.Fatalf("release = %v, want 42", res.ReleaseNumber)
	}
}

func TestIdentifyInvalidCapacityIsNotIdentified(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	// Capacity raw 16 decodes to 8192 MB, past the largest cartridge.
	img := testsupport.ROMImage("NOT A ROM", 0x44)
	img[20] = 16
	path := filepath.Join(t.TempDir(), "0042 - Meteos (USA).nds")
	if err := os.WriteFile(path, img, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	seedKnown(t, store, catalog.KnownTitle{
		ReleaseNumber: 42,
		Title:         "Meteos",
		Checksum:      0x01020304,
		Region:        1,
	})

	ident := newTestIdentifier(t, cfg, store, &scriptPrompter{})
	res, err := ident.Identify(context.Background(), path)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if res.Identified() {
		t.Fatalf("release = %d, want unidentified", *res.ReleaseNumber)
	}
	if res.HeaderValid {
		t.Fatal("expected an invalid header")
	}
	if res.Checksum == nil || res.Size == nil {
		t.Fatal("checksum and size should still be recorded")
	}
}

func TestIdentifyManualSearchLoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	path := filepath.Join(t.TempDir(), "unlabeled.nds")
	testsupport.WriteROM(t, path, "ANIMAL XING", 0x55)
	seedKnown(t, store,
		catalog.KnownTitle{ReleaseNumber: 101, Title: "Animal Crossing - Wild World", Checksum: 0x0A0B0C0D, Region: 0},
		catalog.KnownTitle{ReleaseNumber: 102, Title: "Animal Crossing - Wild World", Checksum: 0x0A0B0C0E, Region: 1},
	)

	// Nothing matches "unlabeled"; the user searches and picks the second hit.
	prompter := &scriptPrompter{
		searchTerms:   []string{"Animal Crossing"},
		chooseAnswers: []int{1},
	}
	ident := newTestIdentifier(t, cfg, store, prompter)
	res, err := ident.Identify(context.Background(), path)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if !res.Identified() || *res.ReleaseNumber != 102 {
		t.Fatalf("release = %v, want 102", res.ReleaseNumber)
	}
	if prompter.searched != 1 {
		t.Fatalf("search prompts = %d, want 1", prompter.searched)
	}
}

func TestIdentifyGivesUpWhenUserDoes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	path := filepath.Join(t.TempDir(), "unlabeled.nds")
	checksum := testsupport.WriteROM(t, path, "UNKNOWN", 0x66)

	ident := newTestIdentifier(t, cfg, store, NopPrompter{})
	res, err := ident.Identify(context.Background(), path)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if res.Identified() {
		t.Fatal("empty catalog should never identify")
	}
	if !res.HeaderValid {
		t.Fatal("header should still be valid")
	}
	if res.Checksum == nil || *res.Checksum != checksum {
		t.Fatalf("checksum = %v, want %08x", res.Checksum, checksum)
	}
}

func TestIdentifyArchivedEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	img := testsupport.ROMImage("KIRBY", 0x77)
	zipPath := filepath.Join(t.TempDir(), "0028 - Kirby - Canvas Curse (EUR).zip")
	testsupport.WriteZip(t, zipPath, map[string][]byte{
		"0028 - Kirby - Canvas Curse (EUR).nds": img,
	})
	checksum := testsupport.WriteROM(t, filepath.Join(t.TempDir(), "ref.nds"), "KIRBY", 0x77)
	seedKnown(t, store, catalog.KnownTitle{
		ReleaseNumber: 28,
		Title:         "Kirby - Canvas Curse",
		Checksum:      checksum,
		Region:        0,
	})

	ident := newTestIdentifier(t, cfg, store, &scriptPrompter{})
	composite := archive.CompositePath(zipPath, "0028 - Kirby - Canvas Curse (EUR).nds")
	res, err := ident.Identify(context.Background(), composite)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if !res.Identified() || *res.ReleaseNumber != 28 {
		t.Fatalf("release = %v, want 28", res.ReleaseNumber)
	}

	// The per-candidate scratch directory must be gone afterwards.
	entries, err := os.ReadDir(cfg.Paths.ScratchDir)
	if err != nil {
		t.Fatalf("read scratch dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("scratch dir not cleaned, %d entries remain", len(entries))
	}
}

func TestIdentifyMissingFileReturnsError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ident := newTestIdentifier(t, cfg, store, NopPrompter{})
	if _, err := ident.Identify(context.Background(), filepath.Join(t.TempDir(), "gone.nds")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

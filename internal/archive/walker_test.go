package archive_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"romshelf/internal/archive"
	"romshelf/internal/testsupport"
)

func TestNewSelectsByExtension(t *testing.T) {
	if _, err := archive.New("/roms/pack.zip", archive.Options{}); err != nil {
		t.Errorf("zip: %v", err)
	}
	if _, err := archive.New("/roms/pack.7z", archive.Options{}); err != nil {
		t.Errorf("7z: %v", err)
	}
	if _, err := archive.New("/roms/pack.RAR", archive.Options{}); err != nil {
		t.Errorf("rar: %v", err)
	}
	if _, err := archive.New("/roms/pack.tar", archive.Options{}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestZipScanFiltersBySuffix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.zip")
	testsupport.WriteZip(t, path, map[string][]byte{
		"one.nds":        []byte("aaa"),
		"sub/two.NDS":    []byte("bbb"),
		"readme.txt":     []byte("not a rom"),
		"saves/game.sav": []byte("save data"),
	})

	walker, err := archive.New(path, archive.Options{})
	if err != nil {
		t.Fatal(err)
	}

	entries, err := walker.Scan(context.Background(), "nds")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	sort.Strings(entries)
	if len(entries) != 2 || entries[0] != "one.nds" || entries[1] != "sub/two.NDS" {
		t.Errorf("entries = %v", entries)
	}
}

func TestZipExtractSingleEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.zip")
	testsupport.WriteZip(t, path, map[string][]byte{
		"sub/game.nds": []byte("rom bytes"),
		"other.nds":    []byte("other"),
	})

	walker, err := archive.New(path, archive.Options{})
	if err != nil {
		t.Fatal(err)
	}

	dest := t.TempDir()
	extracted, err := walker.Extract(context.Background(), "sub/game.nds", dest)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if extracted != filepath.Join(dest, "game.nds") {
		t.Errorf("extracted path = %q", extracted)
	}
	data, err := os.ReadFile(extracted)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "rom bytes" {
		t.Errorf("extracted content = %q", data)
	}

	// Only the requested entry materializes.
	if _, err := os.Stat(filepath.Join(dest, "other.nds")); !os.IsNotExist(err) {
		t.Error("unrequested entry was extracted")
	}
}

func TestZipExtractMissingEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.zip")
	testsupport.WriteZip(t, path, map[string][]byte{"one.nds": []byte("a")})

	walker, err := archive.New(path, archive.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := walker.Extract(context.Background(), "absent.nds", t.TempDir()); err == nil {
		t.Error("expected error for missing entry")
	}
}

func TestCompositePathRoundTrip(t *testing.T) {
	composite := archive.CompositePath("/roms/pack.zip", "inner/game.nds")
	archivePath, inner, ok := archive.SplitComposite(composite)
	if !ok {
		t.Fatal("expected composite path to split")
	}
	if archivePath != "/roms/pack.zip" || inner != "inner/game.nds" {
		t.Errorf("split = %q, %q", archivePath, inner)
	}

	if _, _, ok := archive.SplitComposite("/roms/plain.nds"); ok {
		t.Error("plain path must not split")
	}
}

package fileutil

import (
	"bytes"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"
)

// fakeImage builds a small cartridge-shaped payload: a 12-byte title
// followed by filler, like the files these helpers actually move around.
func fakeImage(title string, filler byte) []byte {
	img := make([]byte, 64)
	copy(img, title)
	for i := 28; i < len(img); i++ {
		img[i] = filler
	}
	return img
}

func TestCopyFileOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "0028.nds")
	dst := filepath.Join(dir, "flashcart.nds")

	img := fakeImage("KIRBY CANVAS", 0x01)
	if err := os.WriteFile(src, img, 0o644); err != nil {
		t.Fatal(err)
	}
	// A longer stale copy must be truncated, not appended to.
	if err := os.WriteFile(dst, make([]byte, 256), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, img) {
		t.Fatalf("copied %d bytes, want the %d-byte image", len(got), len(img))
	}
}

func TestCopyFileVerifiedPreservesChecksum(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "0042.nds")
	dst := filepath.Join(dir, "uploaded.nds")

	img := fakeImage("METEOS", 0x02)
	if err := os.WriteFile(src, img, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if crc32.ChecksumIEEE(got) != crc32.ChecksumIEEE(img) {
		t.Fatal("copy fingerprint differs from source")
	}
}

func TestCopyFileVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFileVerified(filepath.Join(dir, "absent.nds"), filepath.Join(dir, "dst.nds")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "absent.sav"), filepath.Join(dir, "dst.sav")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

package testsupport

import (
	"archive/zip"
	"bytes"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"
)

// ROMImage builds a minimal valid cartridge image. Title is truncated or
// NUL-padded to the 12-byte header field; filler bytes make the content
// unique so different titles get different checksums.
func ROMImage(title string, filler byte) []byte {
	var buf bytes.Buffer
	field := make([]byte, 12)
	copy(field, title)
	buf.Write(field)
	buf.WriteString("XXXX")         // code
	buf.WriteString("01")           // maker
	buf.Write([]byte{0, 0, 2, 0})   // unit, encryption, capacity raw = 2
	pad := make([]byte, 100)
	for i := range pad {
		pad[i] = filler
	}
	buf.Write(pad)
	return buf.Bytes()
}

// WriteROM writes a cartridge image to path and returns its checksum.
func WriteROM(t testing.TB, path, title string, filler byte) uint32 {
	t.Helper()

	data := ROMImage(title, filler)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write rom %s: %v", path, err)
	}
	return crc32.ChecksumIEEE(data)
}

// WriteZip writes a zip archive containing the given entries.
func WriteZip(t testing.TB, path string, entries map[string][]byte) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip %s: %v", path, err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, data := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := entry.Write(data); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

package romfile

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// sampleImage builds a minimal 64-byte cartridge image with the given
// capacity raw value.
func sampleImage(capacityRaw uint16) []byte {
	var buf bytes.Buffer
	buf.WriteString("KIRBY CANVAS") // title, exactly 12 bytes
	buf.WriteString("A5KE")         // code
	buf.WriteString("01")           // maker
	buf.WriteByte(0)                // unit code
	buf.WriteByte(0)                // encryption flag
	buf.WriteByte(byte(capacityRaw))
	buf.WriteByte(byte(capacityRaw >> 8))
	buf.Write(make([]byte, 64-buf.Len()))
	return buf.Bytes()
}

func writeImage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.nds")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseGoldenImage(t *testing.T) {
	hdr, err := Parse(writeImage(t, sampleImage(2)), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if hdr.Title != "KIRBY CANVAS" {
		t.Errorf("title = %q", hdr.Title)
	}
	if hdr.Code != "A5KE" {
		t.Errorf("code = %q", hdr.Code)
	}
	if hdr.Maker != "01" {
		t.Errorf("maker = %q", hdr.Maker)
	}
	if hdr.CapacityRaw != 2 {
		t.Errorf("capacity raw = %d", hdr.CapacityRaw)
	}
	if got := hdr.CapacityMB(); got != 0.5 {
		t.Errorf("capacity = %v MB, want 0.5", got)
	}
	if !hdr.Valid() {
		t.Error("expected sample image to be valid")
	}
	if hdr.Size != 64 {
		t.Errorf("size = %d, want 64", hdr.Size)
	}
	if hdr.Checksum != 0xC6F40B4C {
		t.Errorf("checksum = %#08x, want 0xC6F40B4C", hdr.Checksum)
	}
}

func TestParseOversizedCapacityInvalid(t *testing.T) {
	// Raw value 16 classifies as 8192 MB, past the 4096 MB gate.
	hdr, err := Parse(writeImage(t, sampleImage(16)), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if hdr.CapacityMB() != 8192 {
		t.Errorf("capacity = %v MB, want 8192", hdr.CapacityMB())
	}
	if hdr.Valid() {
		t.Error("expected oversized capacity to be invalid")
	}
}

func TestParseTruncatedHeader(t *testing.T) {
	path := writeImage(t, sampleImage(2)[:20])
	_, err := Parse(path, nil)
	if err == nil {
		t.Fatal("expected error for truncated header")
	}
	var headerErr *HeaderError
	if !errors.As(err, &headerErr) {
		t.Fatalf("expected HeaderError, got %T", err)
	}
	if headerErr.Path != path {
		t.Errorf("error path = %q, want %q", headerErr.Path, path)
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "absent.nds"), nil)
	var headerErr *HeaderError
	if !errors.As(err, &headerErr) {
		t.Fatalf("expected HeaderError, got %v", err)
	}
}

func TestDecodeTextInvalidUTF8(t *testing.T) {
	data := sampleImage(2)
	copy(data[0:4], []byte{0xff, 0xfe, 0x80, 0x81})

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	hdr, err := Parse(writeImage(t, data), logger)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if hdr.Title != "" {
		t.Errorf("title = %q, want empty for undecodable bytes", hdr.Title)
	}
	if !strings.Contains(logBuf.String(), "undecodable header field") {
		t.Errorf("decode failure not logged: %q", logBuf.String())
	}
	// Only the title field was corrupted.
	if strings.Count(logBuf.String(), "undecodable header field") != 1 {
		t.Errorf("want exactly one decode warning, got log %q", logBuf.String())
	}
}

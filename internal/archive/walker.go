// Package archive enumerates and extracts entries of supported container
// formats without exposing container-specific details to callers.
//
// Listing never extracts anything; extraction is single-entry and on
// demand, because archives routinely carry entries nobody asked for.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupported indicates a file extension with no walker implementation.
var ErrUnsupported = errors.New("unsupported archive format")

// Walker enumerates entries of one archive file and extracts them one at a
// time to a caller-chosen directory. Callers own the extracted file and are
// expected to delete it when done.
type Walker interface {
	Scan(ctx context.Context, ext string) ([]string, error)
	Extract(ctx context.Context, name, destDir string) (string, error)
}

// Options names the external binaries used for non-zip formats.
type Options struct {
	SevenZipBinary string
	UnrarBinary    string
}

func (o Options) sevenZip() string {
	if strings.TrimSpace(o.SevenZipBinary) == "" {
		return "7z"
	}
	return o.SevenZipBinary
}

func (o Options) unrar() string {
	if strings.TrimSpace(o.UnrarBinary) == "" {
		return "unrar"
	}
	return o.UnrarBinary
}

// New selects a walker for path by its extension.
func New(path string, opts Options) (Walker, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "zip":
		return &zipWalker{path: path}, nil
	case "7z":
		return &sevenZipWalker{path: path, binary: opts.sevenZip()}, nil
	case "rar":
		return &rarWalker{path: path, binary: opts.unrar()}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
}

// IsArchivePath reports whether path has a supported container extension.
func IsArchivePath(path string) bool {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "zip", "7z", "rar":
		return true
	}
	return false
}

// CompositePath encodes an entry inside an archive as "archivePath:inner".
func CompositePath(archivePath, inner string) string {
	return archivePath + ":" + inner
}

// SplitComposite splits a composite path into archive path and inner name.
// A plain path returns ok=false.
func SplitComposite(path string) (archivePath, inner string, ok bool) {
	return strings.Cut(path, ":")
}

// hasSuffixFold reports whether name ends in ".<ext>" case-insensitively.
func hasSuffixFold(name, ext string) bool {
	suffix := "." + strings.ToLower(strings.TrimPrefix(ext, "."))
	return strings.HasSuffix(strings.ToLower(name), suffix)
}

package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type zipWalker struct {
	path string
}

func (w *zipWalker) Scan(_ context.Context, ext string) ([]string, error) {
	r, err := zip.OpenReader(w.path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", w.path, err)
	}
	defer r.Close()

	var entries []string
	for _, file := range r.File {
		if file.FileInfo().IsDir() {
			continue
		}
		if hasSuffixFold(file.Name, ext) {
			entries = append(entries, file.Name)
		}
	}
	return entries, nil
}

func (w *zipWalker) Extract(_ context.Context, name, destDir string) (string, error) {
	r, err := zip.OpenReader(w.path)
	if err != nil {
		return "", fmt.Errorf("open archive %s: %w", w.path, err)
	}
	defer r.Close()

	for _, file := range r.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open entry %s: %w", name, err)
		}
		defer rc.Close()

		dest := filepath.Join(destDir, filepath.Base(name))
		out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return "", fmt.Errorf("create %s: %w", dest, err)
		}
		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			_ = os.Remove(dest)
			return "", fmt.Errorf("extract %s: %w", name, err)
		}
		if err := out.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", dest, err)
		}
		return dest, nil
	}
	return "", fmt.Errorf("entry %s not found in %s", name, w.path)
}

package archive

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// sevenZipWalker shells out to the 7z binary; the 7z container format has
// no stdlib reader.
type sevenZipWalker struct {
	path   string
	binary string
}

func (w *sevenZipWalker) Scan(ctx context.Context, ext string) ([]string, error) {
	// -ba suppresses headers, -slt prints one "key = value" block per entry.
	out, err := runCommand(ctx, w.binary, "l", "-ba", "-slt", w.path)
	if err != nil {
		return nil, fmt.Errorf("list archive %s: %w", w.path, err)
	}

	var (
		entries []string
		current string
		isDir   bool
	)
	flush := func() {
		if current != "" && !isDir && hasSuffixFold(current, ext) {
			entries = append(entries, current)
		}
		current = ""
		isDir = false
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		key, value, found := strings.Cut(line, " = ")
		if !found {
			continue
		}
		switch key {
		case "Path":
			current = value
		case "Folder":
			isDir = value == "+"
		case "Attributes":
			if strings.HasPrefix(value, "D") {
				isDir = true
			}
		}
	}
	flush()
	return entries, scanner.Err()
}

func (w *sevenZipWalker) Extract(ctx context.Context, name, destDir string) (string, error) {
	if _, err := runCommand(ctx, w.binary, "e", "-y", "-o"+destDir, w.path, name); err != nil {
		return "", fmt.Errorf("extract %s from %s: %w", name, w.path, err)
	}
	return extractedPath(destDir, name)
}

// rarWalker shells out to unrar.
type rarWalker struct {
	path   string
	binary string
}

func (w *rarWalker) Scan(ctx context.Context, ext string) ([]string, error) {
	// "lb" prints one bare entry name per line.
	out, err := runCommand(ctx, w.binary, "lb", w.path)
	if err != nil {
		return nil, fmt.Errorf("list archive %s: %w", w.path, err)
	}

	var entries []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" && hasSuffixFold(name, ext) {
			entries = append(entries, name)
		}
	}
	return entries, scanner.Err()
}

func (w *rarWalker) Extract(ctx context.Context, name, destDir string) (string, error) {
	// "e" flattens archived paths into destDir.
	if _, err := runCommand(ctx, w.binary, "e", "-y", w.path, name, destDir+string(os.PathSeparator)); err != nil {
		return "", fmt.Errorf("extract %s from %s: %w", name, w.path, err)
	}
	return extractedPath(destDir, name)
}

func runCommand(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %s: %w", binary, msg, err)
		}
		return nil, fmt.Errorf("%s: %w", binary, err)
	}
	return stdout.Bytes(), nil
}

func extractedPath(destDir, name string) (string, error) {
	dest := filepath.Join(destDir, filepath.Base(name))
	if _, err := os.Stat(dest); err != nil {
		return "", fmt.Errorf("extracted entry missing: %w", err)
	}
	return dest, nil
}

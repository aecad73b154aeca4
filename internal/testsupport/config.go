package testsupport

import (
	"path/filepath"
	"testing"

	"romshelf/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfg.Paths.SavesDir = filepath.Join(base, "saves")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.Flashcart = filepath.Join(base, "flashcart")
	return &cfg
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"romshelf/internal/catalog"
	"romshelf/internal/config"
	"romshelf/internal/testsupport"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
scratch_dir = %q
saves_dir = %q
log_dir = %q

[logging]
format = "json"
level = "info"
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "scratch"),
		filepath.Join(base, "saves"),
		filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImportAndListRoundTrip(t *testing.T) {
	configPath := writeTestConfig(t)

	romDir := t.TempDir()
	checksum := testsupport.WriteROM(t,
		filepath.Join(romDir, "0028 - Kirby - Canvas Curse (EUR).nds"), "KIRBY", 0x01)

	// Seed the known catalog directly so the import can identify the file
	// without prompting.
	seedCatalog(t, configPath, checksum)

	out, err := runCommand(t, "--config", configPath, "import", "--non-interactive", romDir)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 identified") {
		t.Fatalf("import output = %q", out)
	}

	out, err = runCommand(t, "--config", configPath, "list", "kirby")
	if err != nil {
		t.Fatalf("list: %v\n%s", err, out)
	}
	if !strings.Contains(out, "kirby canvas curse") {
		t.Fatalf("list output missing entry:\n%s", out)
	}
	if !strings.Contains(out, "0028") {
		t.Fatalf("list output missing release number:\n%s", out)
	}
}

func TestListKnownSearchesCatalog(t *testing.T) {
	configPath := writeTestConfig(t)
	seedCatalog(t, configPath, 0x11223344)

	out, err := runCommand(t, "--config", configPath, "list", "--known", "kirby")
	if err != nil {
		t.Fatalf("list --known: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Kirby - Canvas Curse") {
		t.Fatalf("known list output:\n%s", out)
	}
}

func TestCleanRemovesStaleRows(t *testing.T) {
	configPath := writeTestConfig(t)

	romDir := t.TempDir()
	romPath := filepath.Join(romDir, "0028 - Kirby - Canvas Curse (EUR).nds")
	checksum := testsupport.WriteROM(t, romPath, "KIRBY", 0x02)
	seedCatalog(t, configPath, checksum)

	if out, err := runCommand(t, "--config", configPath, "import", "--non-interactive", romDir); err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if err := os.Remove(romPath); err != nil {
		t.Fatalf("remove rom: %v", err)
	}

	out, err := runCommand(t, "--config", configPath, "clean")
	if err != nil {
		t.Fatalf("clean: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Removed 1 stale entries") {
		t.Fatalf("clean output = %q", out)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init should refuse to overwrite")
	}
}

// seedCatalog opens the database the CLI will use and inserts one known
// title.
func seedCatalog(t *testing.T, configPath string, checksum uint32) {
	t.Helper()

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if err := store.UpsertKnownTitles(context.Background(), []catalog.KnownTitle{{
		ReleaseNumber:  28,
		Title:          "Kirby - Canvas Curse",
		Checksum:       checksum,
		Region:         0,
		NormalizedName: "kirby canvas curse",
	}}); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
}

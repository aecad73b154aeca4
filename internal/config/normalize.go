package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScanner()
	c.normalizeCatalog()
	c.normalizeSaves()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SavesDir) == "" {
		c.Paths.SavesDir = defaultSavesDir
	}
	if c.Paths.SavesDir, err = expandPath(c.Paths.SavesDir); err != nil {
		return fmt.Errorf("paths.saves_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.Flashcart) != "" {
		if c.Paths.Flashcart, err = expandPath(c.Paths.Flashcart); err != nil {
			return fmt.Errorf("paths.flashcart: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeScanner() {
	if len(c.Scanner.Extensions) == 0 {
		c.Scanner.Extensions = Default().Scanner.Extensions
	}
	for i, ext := range c.Scanner.Extensions {
		c.Scanner.Extensions[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	}
	if strings.TrimSpace(c.Scanner.SevenZipBinary) == "" {
		c.Scanner.SevenZipBinary = defaultSevenZipBinary
	}
	if strings.TrimSpace(c.Scanner.UnrarBinary) == "" {
		c.Scanner.UnrarBinary = defaultUnrarBinary
	}
}

func (c *Config) normalizeCatalog() {
	if strings.TrimSpace(c.Catalog.FeedURL) == "" {
		c.Catalog.FeedURL = defaultFeedURL
	}
	if c.Catalog.DownloadTimeout <= 0 {
		c.Catalog.DownloadTimeout = defaultDownloadTimeout
	}
}

func (c *Config) normalizeSaves() {
	c.Saves.Extension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Saves.Extension), "."))
	if c.Saves.Extension == "" {
		c.Saves.Extension = defaultSaveExtension
	}
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}

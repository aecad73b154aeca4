package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateScanner(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCatalog() error {
	parsed, err := url.Parse(c.Catalog.FeedURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("catalog.feed_url: not a valid URL: %q", c.Catalog.FeedURL)
	}
	return nil
}

func (c *Config) validateScanner() error {
	hasROM := false
	for _, ext := range c.Scanner.Extensions {
		switch ext {
		case "nds":
			hasROM = true
		case "zip", "7z", "rar":
		default:
			return fmt.Errorf("scanner.extensions: unsupported extension %q", ext)
		}
	}
	if !hasROM {
		return fmt.Errorf("scanner.extensions: must include \"nds\"")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// Package advanscene refreshes the reference catalog from the ADVANsCEne
// XML feed.
package advanscene

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"romshelf/internal/catalog"
	"romshelf/internal/logging"
	"romshelf/internal/romname"
)

const defaultDownloadTimeout = 5 * time.Minute

// ErrNoXMLEntry indicates the downloaded feed archive held no XML document.
var ErrNoXMLEntry = errors.New("feed archive missing xml entry")

// Client downloads and imports the reference feed.
type Client struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// New creates a feed client. An empty URL or non-positive timeout falls
// back to defaults.
func New(feedURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		url:    strings.TrimSpace(feedURL),
		client: &http.Client{Timeout: timeout},
		logger: logging.NewComponentLogger(logger, "advanscene"),
	}
}

// RefreshIfStale downloads the feed and imports it into the store when the
// remote copy is newer than the store's refresh marker. It reports whether
// an import happened. Parsing occurs fully in memory before any row is
// written, so a broken feed never leaves the catalog partially updated.
func (c *Client) RefreshIfStale(ctx context.Context, store *catalog.Store, force bool) (bool, error) {
	lastUpdated, err := store.LastUpdated(ctx)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("build feed request: %w", err)
	}
	if !force && !lastUpdated.IsZero() {
		req.Header.Set("If-Modified-Since", lastUpdated.UTC().Format(http.TimeFormat))
	}

	c.logger.Debug("downloading catalog feed", slog.String("url", c.url))
	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("download feed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		c.logger.Debug("catalog feed unchanged")
		return false, nil
	default:
		return false, fmt.Errorf("download feed: unexpected status %d", resp.StatusCode)
	}

	// Servers that ignore If-Modified-Since still advertise Last-Modified;
	// honor it so a fresh catalog is never re-imported.
	if !force && !lastUpdated.IsZero() {
		if modified, ok := parseLastModified(resp.Header.Get("Last-Modified")); ok && !modified.After(lastUpdated) {
			c.logger.Debug("catalog feed not newer than local copy",
				slog.Time("remote", modified), slog.Time("local", lastUpdated))
			return false, nil
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("download feed: %w", err)
	}

	entries, err := parseArchive(data)
	if err != nil {
		return false, err
	}

	if err := store.UpsertKnownTitles(ctx, entries); err != nil {
		return false, fmt.Errorf("import feed: %w", err)
	}
	if err := store.SetUpdated(ctx, time.Now()); err != nil {
		return false, err
	}

	c.logger.Info("catalog refreshed", slog.Int("titles", len(entries)))
	return true, nil
}

func parseLastModified(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	parsed, err := http.ParseTime(value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// parseArchive opens the feed zip in memory and parses the single XML
// document inside it.
func parseArchive(data []byte) ([]catalog.KnownTitle, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open feed archive: %w", err)
	}

	for _, file := range zr.File {
		if !strings.EqualFold(strings.TrimPrefix(filepathExt(file.Name), "."), "xml") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open feed entry %s: %w", file.Name, err)
		}
		entries, err := Parse(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parse feed entry %s: %w", file.Name, err)
		}
		return entries, nil
	}
	return nil, ErrNoXMLEntry
}

func filepathExt(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx:]
	}
	return ""
}

type gameNode struct {
	Title         string    `xml:"title"`
	Publisher     string    `xml:"publisher"`
	SourceRom     string    `xml:"sourceRom"`
	Location      int       `xml:"location"`
	ReleaseNumber int       `xml:"releaseNumber"`
	CRCs          []crcNode `xml:"romCRC"`
}

type crcNode struct {
	Extension string `xml:"extension,attr"`
	Value     string `xml:",chardata"`
}

// Parse streams <game> nodes out of the feed XML. Nodes without a usable
// .nds checksum are kept with a zero checksum; the release number is still
// valuable for filename matching.
func Parse(r io.Reader) ([]catalog.KnownTitle, error) {
	decoder := xml.NewDecoder(r)
	var entries []catalog.KnownTitle

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode feed xml: %w", err)
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "game" {
			continue
		}

		var node gameNode
		if err := decoder.DecodeElement(&node, &start); err != nil {
			return nil, fmt.Errorf("decode game node: %w", err)
		}
		entries = append(entries, node.toKnownTitle())
	}
	return entries, nil
}

func (n gameNode) toKnownTitle() catalog.KnownTitle {
	entry := catalog.KnownTitle{
		ReleaseNumber:  n.ReleaseNumber,
		Title:          strings.TrimSpace(n.Title),
		Publisher:      strings.TrimSpace(n.Publisher),
		ReleaseGroup:   strings.TrimSpace(n.SourceRom),
		Region:         n.Location,
		NormalizedName: romname.Normalize(n.Title),
	}
	for _, crc := range n.CRCs {
		if crc.Extension != ".nds" {
			continue
		}
		if value, err := strconv.ParseUint(strings.TrimSpace(crc.Value), 16, 32); err == nil {
			entry.Checksum = uint32(value)
		}
		break
	}
	return entry
}

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const knownColumns = "release_number, title, crc32, publisher, release_group, region, normalized_name"

// UpsertKnownTitles bulk inserts-or-replaces catalog entries keyed by
// release number. It is idempotent and safe to call with the full feed on
// every refresh; a changed row simply replaces the prior one.
func (s *Store) UpsertKnownTitles(ctx context.Context, entries []KnownTitle) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO known_titles (`+knownColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx,
			entry.ReleaseNumber,
			entry.Title,
			int64(entry.Checksum),
			entry.Publisher,
			entry.ReleaseGroup,
			entry.Region,
			entry.NormalizedName,
		); err != nil {
			return fmt.Errorf("upsert release %d: %w", entry.ReleaseNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// FindKnownByChecksum returns the release numbers of every catalog entry
// with the given content fingerprint, ascending. Multiple hits are expected
// for legitimately distinct releases that share a checksum.
func (s *Store) FindKnownByChecksum(ctx context.Context, checksum uint32) ([]int, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT release_number FROM known_titles WHERE crc32 = ? ORDER BY release_number`,
		int64(checksum))
	if err != nil {
		return nil, fmt.Errorf("query by checksum: %w", err)
	}
	defer rows.Close()
	return scanReleaseNumbers(rows)
}

// KnownReleaseExists reports whether a release number is in the catalog.
func (s *Store) KnownReleaseExists(ctx context.Context, releaseNumber int) (bool, error) {
	if err := s.ensure(ctx); err != nil {
		return false, err
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT release_number FROM known_titles WHERE release_number = ?`,
		releaseNumber).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query release: %w", err)
	}
	return true, nil
}

// FindKnownByNameAndRegion searches normalized names by substring.
// Whitespace in the query acts as a wildcard between tokens; a non-nil
// region narrows the result. Ordering is ascending release number.
func (s *Store) FindKnownByNameAndRegion(ctx context.Context, name string, regionCode *int) ([]int, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	pattern := namePattern(name)
	var (
		rows *sql.Rows
		err  error
	)
	if regionCode != nil {
		rows, err = s.db.QueryContext(ctx,
			`SELECT release_number FROM known_titles
             WHERE normalized_name LIKE ? AND region = ? ORDER BY release_number`,
			pattern, *regionCode)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT release_number FROM known_titles
             WHERE normalized_name LIKE ? ORDER BY release_number`,
			pattern)
	}
	if err != nil {
		return nil, fmt.Errorf("query by name: %w", err)
	}
	defer rows.Close()
	return scanReleaseNumbers(rows)
}

// GetKnownTitle fetches one catalog entry, or nil when absent.
func (s *Store) GetKnownTitle(ctx context.Context, releaseNumber int) (*KnownTitle, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+knownColumns+` FROM known_titles WHERE release_number = ?`,
		releaseNumber)

	var (
		entry KnownTitle
		crc   sql.NullInt64
	)
	err := row.Scan(&entry.ReleaseNumber, &entry.Title, &crc, &entry.Publisher,
		&entry.ReleaseGroup, &entry.Region, &entry.NormalizedName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get known title: %w", err)
	}
	if crc.Valid {
		entry.Checksum = uint32(crc.Int64)
	}
	return &entry, nil
}

// LastUpdated returns the catalog refresh marker, zero if never refreshed.
func (s *Store) LastUpdated(ctx context.Context) (time.Time, error) {
	if err := s.ensure(ctx); err != nil {
		return time.Time{}, err
	}
	var val string
	err := s.db.QueryRowContext(ctx,
		`SELECT val FROM catalog_info WHERE key = 'updated_at'`).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query updated marker: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse updated marker: %w", err)
	}
	return parsed, nil
}

// SetUpdated records the catalog refresh marker.
func (s *Store) SetUpdated(ctx context.Context, at time.Time) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO catalog_info (key, val) VALUES ('updated_at', ?)`,
		at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set updated marker: %w", err)
	}
	return nil
}

// namePattern converts a normalized-name query into a LIKE pattern where
// whitespace separates tokens loosely.
func namePattern(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return "%"
	}
	return "%" + strings.Join(fields, "%") + "%"
}

func scanReleaseNumbers(rows *sql.Rows) ([]int, error) {
	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan release number: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

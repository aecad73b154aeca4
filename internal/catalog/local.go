package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LocalField names a column usable in FindLocalBy predicates.
type LocalField string

const (
	LocalFieldID       LocalField = "id"
	LocalFieldPath     LocalField = "path"
	LocalFieldSize     LocalField = "size"
	LocalFieldChecksum LocalField = "crc32"
	LocalFieldRelease  LocalField = "release_number"
)

const localColumns = "id, release_number, path, normalized_name, size, crc32"

// UpsertLocalFile inserts or replaces a local index row keyed by path.
// Re-scanning the same path replaces the prior row.
func (s *Store) UpsertLocalFile(ctx context.Context, file LocalFile) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}

	var (
		release sql.NullInt64
		size    sql.NullInt64
		crc     sql.NullInt64
	)
	if file.ReleaseNumber != nil {
		release = sql.NullInt64{Int64: int64(*file.ReleaseNumber), Valid: true}
	}
	if file.Size != nil {
		size = sql.NullInt64{Int64: *file.Size, Valid: true}
	}
	if file.Checksum != nil {
		crc = sql.NullInt64{Int64: int64(*file.Checksum), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO local_files (release_number, path, normalized_name, size, crc32)
         VALUES (?, ?, ?, ?, ?)`,
		release, file.Path, file.NormalizedName, size, crc)
	if err != nil {
		return fmt.Errorf("upsert local file %s: %w", file.Path, err)
	}
	return nil
}

// FindLocalBy returns local rows matching an exact predicate on one of the
// whitelisted fields, ordered by id for determinism.
func (s *Store) FindLocalBy(ctx context.Context, field LocalField, value any) ([]LocalFile, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	switch field {
	case LocalFieldID, LocalFieldPath, LocalFieldSize, LocalFieldChecksum, LocalFieldRelease:
	default:
		return nil, fmt.Errorf("unsupported local field %q", field)
	}
	if v, ok := value.(uint32); ok {
		value = int64(v)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+localColumns+` FROM local_files WHERE `+string(field)+` = ? ORDER BY id`,
		value)
	if err != nil {
		return nil, fmt.Errorf("query local by %s: %w", field, err)
	}
	defer rows.Close()
	return scanLocalFiles(rows)
}

// SearchLocalByName searches local rows by normalized-name substring,
// whitespace acting as a token wildcard.
func (s *Store) SearchLocalByName(ctx context.Context, name string) ([]LocalFile, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+localColumns+` FROM local_files WHERE normalized_name LIKE ? ORDER BY id`,
		namePattern(name))
	if err != nil {
		return nil, fmt.Errorf("search local by name: %w", err)
	}
	defer rows.Close()
	return scanLocalFiles(rows)
}

// RemoveLocalByPathPrefix deletes every local row whose path starts with
// prefix. Removing an archive path also drops its "archive:inner" rows.
func (s *Store) RemoveLocalByPathPrefix(ctx context.Context, prefix string) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM local_files WHERE path LIKE ? ESCAPE '\'`,
		escapeLike(prefix)+"%")
	if err != nil {
		return fmt.Errorf("remove local by prefix %s: %w", prefix, err)
	}
	return nil
}

// FindDuplicateChecksums groups local files by checksum and returns the
// groups holding more than one file.
func (s *Store) FindDuplicateChecksums(ctx context.Context) ([]DuplicateGroup, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT COUNT(*) AS entries, crc32 FROM local_files
         WHERE crc32 IS NOT NULL
         GROUP BY crc32 HAVING entries > 1
         ORDER BY crc32`)
	if err != nil {
		return nil, fmt.Errorf("query duplicates: %w", err)
	}
	defer rows.Close()

	var groups []DuplicateGroup
	for rows.Next() {
		var (
			count int
			crc   int64
		)
		if err := rows.Scan(&count, &crc); err != nil {
			return nil, fmt.Errorf("scan duplicate group: %w", err)
		}
		groups = append(groups, DuplicateGroup{Count: count, Checksum: uint32(crc)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate duplicates: %w", err)
	}
	return groups, nil
}

// IsPathKnown reports whether a path was already scanned. When
// includeUnidentified is false, a row without a release number does not
// count, so unidentified files are retried on the next scan.
func (s *Store) IsPathKnown(ctx context.Context, path string, includeUnidentified bool) (bool, error) {
	if err := s.ensure(ctx); err != nil {
		return false, err
	}
	var release sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT release_number FROM local_files WHERE path = ?`, path).Scan(&release)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query path: %w", err)
	}
	return release.Valid || includeUnidentified, nil
}

// ListLocalPaths returns every path in the local index.
func (s *Store) ListLocalPaths(ctx context.Context) ([]string, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM local_files ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list local paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paths: %w", err)
	}
	return paths, nil
}

func scanLocalFiles(rows *sql.Rows) ([]LocalFile, error) {
	var out []LocalFile
	for rows.Next() {
		var (
			file    LocalFile
			release sql.NullInt64
			size    sql.NullInt64
			crc     sql.NullInt64
		)
		if err := rows.Scan(&file.ID, &release, &file.Path, &file.NormalizedName, &size, &crc); err != nil {
			return nil, fmt.Errorf("scan local file: %w", err)
		}
		if release.Valid {
			n := int(release.Int64)
			file.ReleaseNumber = &n
		}
		if size.Valid {
			v := size.Int64
			file.Size = &v
		}
		if crc.Valid {
			v := uint32(crc.Int64)
			file.Checksum = &v
		}
		out = append(out, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate local files: %w", err)
	}
	return out, nil
}

// escapeLike escapes LIKE metacharacters so path prefixes match literally.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// JunkFiles returns all live files flagged as junk, ordered by reason then path.
func (s *Store) JunkFiles(ctx context.Context) ([]*MediaFile, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+fileColumns+` FROM media_files
         WHERE is_junk = 1 AND status != ? ORDER BY junk_reason, path`,
		StatusRemoved,
	)
	if err != nil {
		return nil, fmt.Errorf("list junk files: %w", err)
	}
	defer rows.Close()

	var files []*MediaFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// FilesByStatus returns live rows in a given status, ordered by path.
func (s *Store) FilesByStatus(ctx context.Context, status Status) ([]*MediaFile, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+fileColumns+` FROM media_files WHERE status = ? ORDER BY path`,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("list files by status: %w", err)
	}
	defer rows.Close()

	var files []*MediaFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// Stats returns summary counts for CLI output.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	live := `status != '` + string(StatusRemoved) + `'`

	queries := []struct {
		dest  *int
		query string
	}{
		{&stats.Total, `SELECT COUNT(1) FROM media_files WHERE ` + live},
		{&stats.Images, `SELECT COUNT(1) FROM media_files WHERE kind = 'image' AND ` + live},
		{&stats.Videos, `SELECT COUNT(1) FROM media_files WHERE kind = 'video' AND ` + live},
		{&stats.Signed, `SELECT COUNT(1) FROM media_files WHERE status = '` + string(StatusSigned) + `'`},
		{&stats.Errors, `SELECT COUNT(1) FROM media_files WHERE status = '` + string(StatusError) + `'`},
		{&stats.Junk, `SELECT COUNT(1) FROM media_files WHERE is_junk = 1 AND ` + live},
		{&stats.Removed, `SELECT COUNT(1) FROM media_files WHERE status = '` + string(StatusRemoved) + `'`},
		{&stats.Grouped, `SELECT COUNT(1) FROM media_files WHERE group_id IS NOT NULL AND ` + live},
		{&stats.Groups, `SELECT COUNT(1) FROM duplicate_groups`},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return Stats{}, fmt.Errorf("catalog stats: %w", err)
		}
	}

	var totalBytes sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT SUM(size) FROM media_files WHERE `+live).Scan(&totalBytes); err != nil {
		return Stats{}, fmt.Errorf("catalog stats: %w", err)
	}
	stats.TotalBytes = totalBytes.Int64

	return stats, nil
}

// PurgeRemoved permanently deletes tombstoned rows.
func (s *Store) PurgeRemoved(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM media_files WHERE status = ?`, StatusRemoved)
	if err != nil {
		return 0, fmt.Errorf("purge removed: %w", err)
	}
	return res.RowsAffected()
}

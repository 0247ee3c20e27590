package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"

	"mediascan/internal/config"
)

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and verifies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.CatalogDir, "catalog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the catalog database file.
func (s *Store) Path() string {
	return s.path
}

// UpsertFile creates or refreshes the identity fields for a path. A content
// change (size or mtime differs from the stored pair) clears signatures, the
// junk verdict, and group membership, and resets the row to discovered. An
// unchanged row is returned as-is with only scanned_at refreshed.
func (s *Store) UpsertFile(ctx context.Context, path string, kind Kind, size int64, mtime time.Time) (*MediaFile, error) {
	now := timestamp(time.Now())
	existing, err := s.GetByPath(ctx, path)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		res, err := s.db.ExecContext(
			ctx,
			`INSERT INTO media_files (path, kind, size, mtime, status, created_at, updated_at, scanned_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			path, string(kind), size, timestamp(mtime), StatusDiscovered, now, now, now,
		)
		if err != nil {
			return nil, fmt.Errorf("insert file: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return s.GetByID(ctx, id)
	}

	if existing.Size == size && existing.ModTime.Equal(mtime) && existing.Status != StatusRemoved {
		_, err := s.db.ExecContext(
			ctx,
			`UPDATE media_files SET scanned_at = ?, updated_at = ? WHERE id = ?`,
			now, now, existing.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("touch file: %w", err)
		}
		return s.GetByID(ctx, existing.ID)
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE media_files
         SET kind = ?, size = ?, mtime = ?, status = ?, error_reason = NULL,
             exact_sig = NULL, perceptual_sig = NULL, width = NULL, height = NULL,
             is_junk = 0, junk_rule = NULL, junk_reason = NULL, group_id = NULL,
             updated_at = ?, scanned_at = ?
         WHERE id = ?`,
		string(kind), size, timestamp(mtime), StatusDiscovered, now, now, existing.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("reset changed file: %w", err)
	}
	return s.GetByID(ctx, existing.ID)
}

// RecordSignature stores the signing outcome for a file. On error status, both
// signatures are cleared so the invariant "error rows carry no signatures"
// holds regardless of what the caller computed before failing.
func (s *Store) RecordSignature(ctx context.Context, id int64, exactSig string, perceptualSig *uint64, width, height int, status Status, errorReason string) error {
	if status != StatusSigned && status != StatusError {
		return fmt.Errorf("record signature: invalid status %q", status)
	}
	now := timestamp(time.Now())
	if status == StatusError {
		_, err := s.db.ExecContext(
			ctx,
			`UPDATE media_files
             SET status = ?, error_reason = ?, exact_sig = NULL, perceptual_sig = NULL,
                 group_id = NULL, updated_at = ?, scanned_at = ?
             WHERE id = ?`,
			status, nullableString(errorReason), now, now, id,
		)
		if err != nil {
			return fmt.Errorf("record signing error: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(
		ctx,
		`UPDATE media_files
         SET status = ?, error_reason = NULL, exact_sig = ?, perceptual_sig = ?,
             width = ?, height = ?, updated_at = ?, scanned_at = ?
         WHERE id = ?`,
		status, exactSig, nullableSig(perceptualSig), nullableInt(width), nullableInt(height), now, now, id,
	)
	if err != nil {
		return fmt.Errorf("record signature: %w", err)
	}
	return nil
}

// RecordCaptureInfo stores best-effort EXIF capture metadata.
func (s *Store) RecordCaptureInfo(ctx context.Context, id int64, takenAt *time.Time, camera string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE media_files SET taken_at = ?, camera = ?, updated_at = ? WHERE id = ?`,
		nullableTime(takenAt), nullableString(camera), timestamp(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("record capture info: %w", err)
	}
	return nil
}

// RecordJunkVerdict stores the junk classification for a file.
func (s *Store) RecordJunkVerdict(ctx context.Context, id int64, isJunk bool, rule, reason string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE media_files SET is_junk = ?, junk_rule = ?, junk_reason = ?, updated_at = ? WHERE id = ?`,
		boolToInt(isJunk), nullableString(rule), nullableString(reason), timestamp(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("record junk verdict: %w", err)
	}
	return nil
}

// GetByID fetches a catalog row by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*MediaFile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM media_files WHERE id = ?`, id)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// GetByPath fetches a catalog row by path.
func (s *Store) GetByPath(ctx context.Context, path string) (*MediaFile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM media_files WHERE path = ?`, path)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file by path: %w", err)
	}
	return file, nil
}

// Snapshot returns the identity view of every stored row, keyed by path.
// Removed rows are included so reconciliation can revive reappeared files.
func (s *Store) Snapshot(ctx context.Context) (map[string]Identity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, path, size, mtime, status FROM media_files`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer rows.Close()

	snapshot := make(map[string]Identity)
	for rows.Next() {
		var (
			id       int64
			path     string
			size     int64
			mtimeRaw string
			status   string
		)
		if err := rows.Scan(&id, &path, &size, &mtimeRaw, &status); err != nil {
			return nil, err
		}
		mtime, err := parseTimeString(mtimeRaw)
		if err != nil {
			return nil, fmt.Errorf("snapshot mtime for %s: %w", path, err)
		}
		snapshot[path] = Identity{ID: id, Size: size, ModTime: mtime, Status: Status(status)}
	}
	return snapshot, rows.Err()
}

// TombstoneMissing marks the given paths as removed. Signatures and group
// references are kept so duplicate-group history survives until a purge.
func (s *Store) TombstoneMissing(ctx context.Context, paths []string) (int64, error) {
	var total int64
	now := timestamp(time.Now())
	for _, chunk := range chunkStrings(paths, maxSQLVariables) {
		placeholders := makePlaceholders(len(chunk))
		args := make([]any, 0, len(chunk)+2)
		args = append(args, StatusRemoved, now)
		for _, path := range chunk {
			args = append(args, path)
		}
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE media_files SET status = ?, updated_at = ? WHERE path IN (`+placeholders+`) AND status != '`+string(StatusRemoved)+`'`,
			args...,
		)
		if err != nil {
			return total, fmt.Errorf("tombstone missing: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}

// TombstoneTree marks a path, and every row beneath it, removed. A directory
// removal or rename surfaces as a single filesystem event for the directory
// itself, so the rows under it have to be matched by prefix.
func (s *Store) TombstoneTree(ctx context.Context, root string) (int64, error) {
	now := timestamp(time.Now())
	prefix := strings.TrimSuffix(root, "/") + "/"
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE media_files SET status = ?, updated_at = ?
         WHERE (path = ? OR substr(path, 1, ?) = ?) AND status != '`+string(StatusRemoved)+`'`,
		StatusRemoved, now, root, utf8.RuneCountInString(prefix), prefix,
	)
	if err != nil {
		return 0, fmt.Errorf("tombstone tree: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// Revive restores tombstoned rows whose identity still matches the file on
// disk. Rows that kept their exact signature go straight back to signed; the
// rest return to discovered for re-signing.
func (s *Store) Revive(ctx context.Context, paths []string) (int64, error) {
	var total int64
	now := timestamp(time.Now())
	for _, chunk := range chunkStrings(paths, maxSQLVariables) {
		placeholders := makePlaceholders(len(chunk))
		args := make([]any, 0, len(chunk)+1)
		args = append(args, now)
		for _, path := range chunk {
			args = append(args, path)
		}
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE media_files
             SET status = CASE WHEN exact_sig IS NOT NULL THEN 'signed' ELSE 'discovered' END,
                 updated_at = ?
             WHERE path IN (`+placeholders+`) AND status = '`+string(StatusRemoved)+`'`,
			args...,
		)
		if err != nil {
			return total, fmt.Errorf("revive: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}

const fileColumns = "id, path, kind, size, mtime, status, error_reason, exact_sig, perceptual_sig, width, height, is_junk, junk_rule, junk_reason, group_id, taken_at, camera, created_at, updated_at, scanned_at"

// maxSQLVariables keeps IN clauses under SQLite's bound-parameter limit.
const maxSQLVariables = 500

func scanFile(scanner interface{ Scan(dest ...any) error }) (*MediaFile, error) {
	var (
		id          int64
		path        string
		kind        string
		size        int64
		mtimeRaw    string
		status      string
		errorReason sql.NullString
		exactSig    sql.NullString
		perceptual  sql.NullInt64
		width       sql.NullInt64
		height      sql.NullInt64
		isJunk      sql.NullInt64
		junkRule    sql.NullString
		junkReason  sql.NullString
		groupID     sql.NullString
		takenAtRaw  sql.NullString
		camera      sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
		scannedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id, &path, &kind, &size, &mtimeRaw, &status, &errorReason, &exactSig,
		&perceptual, &width, &height, &isJunk, &junkRule, &junkReason, &groupID,
		&takenAtRaw, &camera, &createdRaw, &updatedRaw, &scannedRaw,
	); err != nil {
		return nil, err
	}

	file := &MediaFile{
		ID:          id,
		Path:        path,
		Kind:        Kind(kind),
		Size:        size,
		Status:      Status(status),
		ErrorReason: errorReason.String,
		ExactSig:    exactSig.String,
		JunkRule:    junkRule.String,
		JunkReason:  junkReason.String,
		GroupID:     groupID.String,
		Camera:      camera.String,
	}
	if perceptual.Valid {
		sig := uint64(perceptual.Int64)
		file.PerceptualSig = &sig
	}
	if width.Valid {
		file.Width = int(width.Int64)
	}
	if height.Valid {
		file.Height = int(height.Int64)
	}
	if isJunk.Valid {
		file.IsJunk = isJunk.Int64 != 0
	}

	if mtime, err := parseTimeString(mtimeRaw); err == nil {
		file.ModTime = mtime
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		file.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		file.UpdatedAt = updated
	}
	if scannedRaw.Valid {
		if scanned, err := parseTimeString(scannedRaw.String); err == nil {
			file.ScannedAt = &scanned
		}
	}
	if takenAtRaw.Valid {
		if taken, err := parseTimeString(takenAtRaw.String); err == nil {
			file.TakenAt = &taken
		}
	}
	return file, nil
}

func timestamp(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

// nullableSig converts an optional perceptual signature for storage. SQLite
// holds signed 64-bit integers, so the value round-trips through int64.
func nullableSig(value *uint64) any {
	if value == nil {
		return nil
	}
	return int64(*value)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return timestamp(*value)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func chunkStrings(values []string, size int) [][]string {
	if len(values) == 0 {
		return nil
	}
	var chunks [][]string
	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}
		chunks = append(chunks, values[start:end])
	}
	return chunks
}

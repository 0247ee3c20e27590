package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// ListSignedFiles returns the clustering input: every signed, non-removed file
// with its signatures, ordered by path.
func (s *Store) ListSignedFiles(ctx context.Context) ([]SignedFile, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, path, kind, exact_sig, perceptual_sig FROM media_files
         WHERE status = ? AND exact_sig IS NOT NULL ORDER BY path`,
		StatusSigned,
	)
	if err != nil {
		return nil, fmt.Errorf("list signed files: %w", err)
	}
	defer rows.Close()

	var files []SignedFile
	for rows.Next() {
		var (
			file       SignedFile
			kind       string
			perceptual sql.NullInt64
		)
		if err := rows.Scan(&file.ID, &file.Path, &kind, &file.ExactSig, &perceptual); err != nil {
			return nil, err
		}
		file.Kind = Kind(kind)
		if perceptual.Valid {
			sig := uint64(perceptual.Int64)
			file.PerceptualSig = &sig
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// ReplaceDuplicateGroups swaps the full set of duplicate groups in one
// transaction: membership references are cleared, old groups deleted, and the
// new groups inserted with their members relinked.
func (s *Store) ReplaceDuplicateGroups(ctx context.Context, groups []DuplicateGroup) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin group tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := timestamp(time.Now())

	if _, err := tx.ExecContext(ctx, `UPDATE media_files SET group_id = NULL WHERE group_id IS NOT NULL`); err != nil {
		return fmt.Errorf("clear group membership: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM duplicate_groups`); err != nil {
		return fmt.Errorf("delete old groups: %w", err)
	}

	for _, group := range groups {
		if len(group.MemberIDs) < 2 {
			return fmt.Errorf("group %s has %d members; groups of size 1 do not exist", group.ID, len(group.MemberIDs))
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO duplicate_groups (id, relation, canonical_path, threshold, created_at)
             VALUES (?, ?, ?, ?, ?)`,
			group.ID, string(group.Relation), group.CanonicalPath, group.Threshold, now,
		); err != nil {
			return fmt.Errorf("insert group %s: %w", group.ID, err)
		}
		for _, memberID := range group.MemberIDs {
			if _, err := tx.ExecContext(
				ctx,
				`UPDATE media_files SET group_id = ?, updated_at = ? WHERE id = ?`,
				group.ID, now, memberID,
			); err != nil {
				return fmt.Errorf("link member %d to group %s: %w", memberID, group.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit groups: %w", err)
	}
	return nil
}

// Duplicates returns all duplicate groups with their member paths, ordered by
// canonical path. Tombstoned members stay listed so group history is visible
// until a purge.
func (s *Store) Duplicates(ctx context.Context) ([]DuplicateGroup, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, relation, canonical_path, threshold FROM duplicate_groups ORDER BY canonical_path`,
	)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []DuplicateGroup
	index := make(map[string]int)
	for rows.Next() {
		var group DuplicateGroup
		var relation string
		if err := rows.Scan(&group.ID, &relation, &group.CanonicalPath, &group.Threshold); err != nil {
			return nil, err
		}
		group.Relation = Relation(relation)
		index[group.ID] = len(groups)
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	memberRows, err := s.db.QueryContext(
		ctx,
		`SELECT id, path, group_id FROM media_files WHERE group_id IS NOT NULL ORDER BY path`,
	)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var (
			id      int64
			path    string
			groupID string
		)
		if err := memberRows.Scan(&id, &path, &groupID); err != nil {
			return nil, err
		}
		at, ok := index[groupID]
		if !ok {
			continue
		}
		groups[at].MemberIDs = append(groups[at].MemberIDs, id)
		groups[at].MemberPaths = append(groups[at].MemberPaths, path)
	}
	if err := memberRows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].CanonicalPath < groups[j].CanonicalPath })
	return groups, nil
}

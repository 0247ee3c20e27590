package scanner

import (
	"sort"

	"mediascan/internal/catalog"
)

// Diff partitions a walk result against the catalog snapshot. Each slice is
// path-sorted so downstream processing is deterministic.
type Diff struct {
	// New entries have no catalog row.
	New []Entry
	// Changed entries exist but size or mtime differs.
	Changed []Entry
	// Revived entries match a tombstoned row exactly.
	Revived []Entry
	// Unchanged entries match their live row exactly and need no work.
	Unchanged []Entry
	// Missing holds catalog paths that no longer exist on disk.
	Missing []string
}

// Reconcile diffs the walked entries against the stored identities. It is a
// pure function of its inputs.
func Reconcile(entries []Entry, snapshot map[string]catalog.Identity) Diff {
	var diff Diff
	seen := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		seen[entry.Path] = struct{}{}
		identity, ok := snapshot[entry.Path]
		if !ok {
			diff.New = append(diff.New, entry)
			continue
		}
		matches := identity.Size == entry.Size && identity.ModTime.Equal(entry.ModTime)
		switch {
		case identity.Status == catalog.StatusRemoved && matches:
			diff.Revived = append(diff.Revived, entry)
		case matches:
			diff.Unchanged = append(diff.Unchanged, entry)
		default:
			diff.Changed = append(diff.Changed, entry)
		}
	}

	for path, identity := range snapshot {
		if identity.Status == catalog.StatusRemoved {
			continue
		}
		if _, ok := seen[path]; !ok {
			diff.Missing = append(diff.Missing, path)
		}
	}
	sort.Strings(diff.Missing)

	return diff
}

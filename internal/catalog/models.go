package catalog

import (
	"strings"
	"time"
)

// Kind distinguishes the two supported media types.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Status represents the lifecycle of a tracked file.
type Status string

const (
	// StatusDiscovered marks a file seen on disk but not yet signed.
	StatusDiscovered Status = "discovered"
	// StatusSigned marks a file with a recorded exact signature.
	StatusSigned Status = "signed"
	// StatusError marks a file whose signing failed; it carries no
	// signatures and is excluded from clustering until re-signed.
	StatusError Status = "error"
	// StatusRemoved marks a tombstoned file no longer present on disk.
	StatusRemoved Status = "removed"
)

// Relation is the identity relation backing a duplicate group.
type Relation string

const (
	RelationExact Relation = "exact"
	RelationNear  Relation = "near"
)

var statusSet = map[Status]struct{}{
	StatusDiscovered: {},
	StatusSigned:     {},
	StatusError:      {},
	StatusRemoved:    {},
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[normalized]
	return normalized, ok
}

// MediaFile is one row of the catalog.
type MediaFile struct {
	ID            int64
	Path          string
	Kind          Kind
	Size          int64
	ModTime       time.Time
	Status        Status
	ErrorReason   string
	ExactSig      string
	PerceptualSig *uint64
	Width         int
	Height        int
	IsJunk        bool
	JunkRule      string
	JunkReason    string
	GroupID       string
	TakenAt       *time.Time
	Camera        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ScannedAt     *time.Time
}

// Identity is the change-detection view of a stored file. Size and mtime are
// the change oracle; content is never compared.
type Identity struct {
	ID      int64
	Size    int64
	ModTime time.Time
	Status  Status
}

// SignedFile is the clustering input: one entry per successfully signed,
// non-removed file.
type SignedFile struct {
	ID            int64
	Path          string
	Kind          Kind
	ExactSig      string
	PerceptualSig *uint64
}

// DuplicateGroup is a cluster of files sharing identity under one relation.
// Members always number at least two; CanonicalPath is the lexicographically
// smallest member path.
type DuplicateGroup struct {
	ID            string
	Relation      Relation
	CanonicalPath string
	// Threshold is the Hamming distance bound used to form a near group;
	// zero for exact groups.
	Threshold   int
	MemberIDs   []int64
	MemberPaths []string
}

// Stats summarizes catalog contents for CLI output.
type Stats struct {
	Total      int
	Images     int
	Videos     int
	Signed     int
	Errors     int
	Junk       int
	Removed    int
	Grouped    int
	Groups     int
	TotalBytes int64
}

// Package dedupe clusters signed files into exact and near duplicate groups.
package dedupe

import (
	"math/bits"
	"sort"

	"github.com/google/uuid"

	"mediascan/internal/catalog"
	"mediascan/internal/signature"
)

// Cluster partitions the signed files into duplicate groups. Files sharing an
// exact signature form exact groups; the remaining files with perceptual
// signatures form near groups under the Hamming threshold, with transitive
// closure via union-find. Output is deterministic: groups are sorted by
// canonical path and members by path.
func Cluster(files []catalog.SignedFile, threshold int) []catalog.DuplicateGroup {
	byExact := make(map[string][]catalog.SignedFile)
	for _, file := range files {
		byExact[file.ExactSig] = append(byExact[file.ExactSig], file)
	}

	var groups []catalog.DuplicateGroup
	var nearCandidates []catalog.SignedFile
	for _, members := range byExact {
		if len(members) >= 2 {
			groups = append(groups, buildGroup(catalog.RelationExact, 0, members))
			continue
		}
		if members[0].PerceptualSig != nil {
			nearCandidates = append(nearCandidates, members[0])
		}
	}

	groups = append(groups, nearGroups(nearCandidates, threshold)...)

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CanonicalPath < groups[j].CanonicalPath
	})
	return groups
}

func nearGroups(candidates []catalog.SignedFile, threshold int) []catalog.DuplicateGroup {
	if len(candidates) < 2 || threshold < 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Path < candidates[j].Path
	})

	uf := newUnionFind(len(candidates))
	for i := 0; i < len(candidates); i++ {
		a := *candidates[i].PerceptualSig
		for j := i + 1; j < len(candidates); j++ {
			b := *candidates[j].PerceptualSig
			// The top-16-bit distance lower-bounds the full distance, so
			// this skip cannot change group membership.
			if prefixDistance(a, b) > threshold {
				continue
			}
			if signature.Distance(a, b) <= threshold {
				uf.union(i, j)
			}
		}
	}

	clusters := make(map[int][]catalog.SignedFile)
	for i, file := range candidates {
		root := uf.find(i)
		clusters[root] = append(clusters[root], file)
	}

	var groups []catalog.DuplicateGroup
	for _, members := range clusters {
		if len(members) >= 2 {
			groups = append(groups, buildGroup(catalog.RelationNear, threshold, members))
		}
	}
	return groups
}

func buildGroup(relation catalog.Relation, threshold int, members []catalog.SignedFile) catalog.DuplicateGroup {
	sort.Slice(members, func(i, j int) bool {
		return members[i].Path < members[j].Path
	})

	group := catalog.DuplicateGroup{
		Relation:      relation,
		CanonicalPath: members[0].Path,
		Threshold:     threshold,
		MemberIDs:     make([]int64, 0, len(members)),
		MemberPaths:   make([]string, 0, len(members)),
	}
	for _, member := range members {
		group.MemberIDs = append(group.MemberIDs, member.ID)
		group.MemberPaths = append(group.MemberPaths, member.Path)
	}
	group.ID = deriveGroupID(relation, group.MemberPaths)
	return group
}

// deriveGroupID mints a v5 UUID from the relation and the sorted member
// paths, so a rescan that leaves a group's composition unchanged reproduces
// the same ID instead of rewriting the group row.
func deriveGroupID(relation catalog.Relation, paths []string) string {
	name := make([]byte, 0, 64)
	name = append(name, relation...)
	for _, path := range paths {
		name = append(name, 0)
		name = append(name, path...)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, name).String()
}

func prefixDistance(a, b uint64) int {
	return bits.OnesCount16(uint16(a>>48) ^ uint16(b>>48))
}

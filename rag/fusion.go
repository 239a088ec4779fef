package rag

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// defaultFusionK is the standard RRF smoothing constant (Cormack et al. 2009).
const defaultFusionK = 60

// ContentKey returns the canonical identity of a document for fusion:
// a hash of the exact content bytes. Passages differing by even whitespace
// are distinct; byte-identical passages from different queries merge.
func ContentKey(doc Document) string {
	sum := sha256.Sum256([]byte(doc.Content))
	return hex.EncodeToString(sum[:])
}

type fusedEntry struct {
	doc   Document
	score float64
	seen  int // first-seen position, for deterministic tie ordering
}

// FuseRankedLists merges one ranked list per retrieval query into a single
// deduplicated ranking using Reciprocal Rank Fusion. A document at 0-based
// rank r contributes 1/(r+k) to its accumulated score, so a passage that
// shows up near the top of several query variants outranks one that appears
// high in just one. Ties keep first-seen order across the input lists.
func FuseRankedLists(lists [][]Document, k int) []Document {
	ranked := fuseEntries(lists, k)
	fused := make([]Document, 0, len(ranked))
	for _, entry := range ranked {
		fused = append(fused, entry.doc)
	}
	return fused
}

func fuseEntries(lists [][]Document, k int) []*fusedEntry {
	if k <= 0 {
		k = defaultFusionK
	}

	entries := make(map[string]*fusedEntry)
	nextSeen := 0

	for _, list := range lists {
		for rank, doc := range list {
			key := ContentKey(doc)
			entry, ok := entries[key]
			if !ok {
				entry = &fusedEntry{doc: doc, seen: nextSeen}
				nextSeen++
				entries[key] = entry
			}
			entry.score += 1.0 / float64(rank+k)
		}
	}

	ranked := make([]*fusedEntry, 0, len(entries))
	for _, entry := range entries {
		ranked = append(ranked, entry)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score == ranked[j].score {
			return ranked[i].seen < ranked[j].seen
		}
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

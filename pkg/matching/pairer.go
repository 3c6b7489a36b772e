package matching

import (
	"sort"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Pair selects 1:1 matches greedily, highest confidence first. Ties are broken by shorter distance
// (unknown distance last), then by source A index, then by source B index, so the outcome only
// depends on the input order. A candidate is accepted when both of its records are still free and
// its confidence is at least threshold. Zero-confidence candidates never match.
//
// The result is a locally greedy choice, not a globally optimal assignment.
func Pair(candidates []models.PairCandidate, threshold float64) []models.PairCandidate {
	eligible := ectolinq.Filter(candidates, func(c models.PairCandidate) bool {
		return c.CombinedConfidence > 0 && c.CombinedConfidence >= threshold
	})

	sorted := make([]models.PairCandidate, len(eligible))
	copy(sorted, eligible)
	sort.SliceStable(sorted, func(i, j int) bool {
		return candidateLess(sorted[i], sorted[j])
	})

	usedA := make(map[int]bool)
	usedB := make(map[int]bool)
	pairs := make([]models.PairCandidate, 0)

	for _, c := range sorted {
		if usedA[c.RecordA] || usedB[c.RecordB] {
			continue
		}
		usedA[c.RecordA] = true
		usedB[c.RecordB] = true
		pairs = append(pairs, c)
	}

	return pairs
}

func candidateLess(a, b models.PairCandidate) bool {
	if a.CombinedConfidence != b.CombinedConfidence {
		return a.CombinedConfidence > b.CombinedConfidence
	}

	switch {
	case a.DistanceMeters != nil && b.DistanceMeters == nil:
		return true
	case a.DistanceMeters == nil && b.DistanceMeters != nil:
		return false
	case a.DistanceMeters != nil && *a.DistanceMeters != *b.DistanceMeters:
		return *a.DistanceMeters < *b.DistanceMeters
	}

	if a.RecordA != b.RecordA {
		return a.RecordA < b.RecordA
	}
	return a.RecordB < b.RecordB
}

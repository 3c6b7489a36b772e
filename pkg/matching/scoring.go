package matching

import (
	"math"
	"sort"
	"strings"
)

// EarthRadiusMeters is the mean earth radius used for haversine distances
const EarthRadiusMeters = 6371008.8

// TokenMatchThreshold is the Jaro-Winkler similarity two words need before they count as the same word
const TokenMatchThreshold = 0.85

// Scorer provides various string and value comparison algorithms
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactMatch returns 1.0 for exact match, 0.0 otherwise
func (s *Scorer) ExactMatch(a, b string, caseSensitive bool) float64 {
	if !caseSensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// JaroWinkler calculates the Jaro-Winkler similarity between two strings
// Returns a value between 0.0 (no similarity) and 1.0 (exact match)
func (s *Scorer) JaroWinkler(a, b string) float64 {
	if a == b {
		return 1.0
	}

	jaro := s.Jaro(a, b)

	// common prefix boost, capped at 4 characters
	prefixLen := 0
	for i := 0; i < len(a) && i < len(b) && i < 4; i++ {
		if a[i] != b[i] {
			break
		}
		prefixLen++
	}

	return jaro + float64(prefixLen)*0.1*(1.0-jaro)
}

// Jaro calculates the Jaro similarity between two strings
func (s *Scorer) Jaro(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	matchDist := max(max(len(a), len(b))/2-1, 0)

	aMatches := make([]bool, len(a))
	bMatches := make([]bool, len(b))

	matches := 0
	for i := 0; i < len(a); i++ {
		start := max(0, i-matchDist)
		end := min(len(b), i+matchDist+1)

		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := 0; i < len(a); i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2

	return (m/float64(len(a)) + m/float64(len(b)) + (m-t)/m) / 3
}

// SoftTokenSimilarity compares two word lists. Every word is paired with its most similar word on
// the other side; pairs under TokenMatchThreshold contribute nothing. The result is the mean of
// those best scores over all words of both sides, so word order and repeated words do not matter
// much but extra words lower the score.
func (s *Scorer) SoftTokenSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	total := s.bestTokenSum(a, b) + s.bestTokenSum(b, a)
	score := total / float64(len(a)+len(b))

	return math.Min(1.0, score)
}

func (s *Scorer) bestTokenSum(from, to []string) float64 {
	var sum float64
	for _, x := range from {
		best := 0.0
		for _, y := range to {
			if sim := s.JaroWinkler(x, y); sim > best {
				best = sim
				if best == 1.0 {
					break
				}
			}
		}
		if best >= TokenMatchThreshold {
			sum += best
		}
	}
	return sum
}

// Haversine returns the great-circle distance in meters between two coordinates given in degrees
func (s *Scorer) Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180

	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Pow(math.Sin(dLon/2), 2)

	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// NumericProximity calculates a proximity score for two numbers
// Returns 1.0 for exact match, decreasing linearly to 0.0 at maxDiff
func (s *Scorer) NumericProximity(a, b, maxDiff float64) float64 {
	if a == b {
		return 1.0
	}

	diff := math.Abs(a - b)
	if diff >= maxDiff {
		return 0.0
	}

	return 1.0 - (diff / maxDiff)
}

// DistanceProximity scores a distance against a threshold: 1.0 at zero meters, 0.0 at or beyond the threshold.
// A zero threshold only accepts identical coordinates.
func (s *Scorer) DistanceProximity(distanceMeters, thresholdMeters float64) float64 {
	return s.NumericProximity(distanceMeters, 0, thresholdMeters)
}

// WeightedScore calculates a weighted average of scores.
// Fields are summed in name order so equal inputs give bit-identical results.
func (s *Scorer) WeightedScore(scores map[string]float64, weights map[string]float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	fields := make([]string, 0, len(scores))
	for field := range scores {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var totalWeight float64
	var weightedSum float64

	for _, field := range fields {
		weight := 1.0 // Default weight
		if w, ok := weights[field]; ok {
			weight = w
		}
		weightedSum += scores[field] * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0.0
	}

	return weightedSum / totalWeight
}

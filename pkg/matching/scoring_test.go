package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorer_JaroWinkler(t *testing.T) {
	s := NewScorer()

	t.Run("identical strings", func(t *testing.T) {
		assert.Equal(t, 1.0, s.JaroWinkler("acme", "acme"))
	})

	t.Run("empty string", func(t *testing.T) {
		assert.Equal(t, 0.0, s.JaroWinkler("", "acme"))
	})

	t.Run("classic reference pair", func(t *testing.T) {
		assert.InDelta(t, 0.961, s.JaroWinkler("martha", "marhta"), 0.001)
	})

	t.Run("unrelated words", func(t *testing.T) {
		assert.Less(t, s.JaroWinkler("alpha", "beta"), TokenMatchThreshold)
	})
}

func TestScorer_SoftTokenSimilarity(t *testing.T) {
	s := NewScorer()

	t.Run("same words any order", func(t *testing.T) {
		assert.Equal(t, 1.0, s.SoftTokenSimilarity([]string{"acme", "plumbing"}, []string{"plumbing", "acme"}))
	})

	t.Run("no similar words", func(t *testing.T) {
		assert.Equal(t, 0.0, s.SoftTokenSimilarity([]string{"alpha", "bakery"}, []string{"beta", "fitness"}))
	})

	t.Run("extra word lowers score", func(t *testing.T) {
		score := s.SoftTokenSimilarity([]string{"acme", "plumbing"}, []string{"acme", "plumbing", "heating"})
		assert.InDelta(t, 0.8, score, 1e-9)
	})

	t.Run("typo still counts", func(t *testing.T) {
		score := s.SoftTokenSimilarity([]string{"acme", "plumbing"}, []string{"acme", "plumbnig"})
		assert.Greater(t, score, 0.9)
		assert.Less(t, score, 1.0)
	})

	t.Run("empty side", func(t *testing.T) {
		assert.Equal(t, 0.0, s.SoftTokenSimilarity(nil, []string{"acme"}))
	})
}

func TestScorer_Haversine(t *testing.T) {
	s := NewScorer()

	t.Run("same point", func(t *testing.T) {
		assert.Equal(t, 0.0, s.Haversine(40, -74, 40, -74))
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		assert.InDelta(t, 111195, s.Haversine(0, 0, 1, 0), 10)
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.InDelta(t, s.Haversine(40, -74, 40.0005, -74.0005), s.Haversine(40.0005, -74.0005, 40, -74), 1e-9)
	})
}

func TestScorer_DistanceProximity(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 1.0, s.DistanceProximity(0, 500))
	assert.InDelta(t, 0.5, s.DistanceProximity(250, 500), 1e-9)
	assert.Equal(t, 0.0, s.DistanceProximity(500, 500))
	assert.Equal(t, 0.0, s.DistanceProximity(1400, 1000))

	t.Run("zero threshold only accepts exact coordinates", func(t *testing.T) {
		assert.Equal(t, 1.0, s.DistanceProximity(0, 0))
		assert.Equal(t, 0.0, s.DistanceProximity(0.1, 0))
	})
}

func TestScorer_WeightedScore(t *testing.T) {
	s := NewScorer()

	t.Run("only present fields count", func(t *testing.T) {
		score := s.WeightedScore(map[string]float64{"name": 1, "address": 1, "geo": 0}, DefaultWeights())
		assert.InDelta(t, 0.65/0.85, score, 1e-12)
	})

	t.Run("no fields", func(t *testing.T) {
		assert.Equal(t, 0.0, s.WeightedScore(map[string]float64{}, DefaultWeights()))
	})
}

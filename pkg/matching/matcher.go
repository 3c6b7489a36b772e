// Package matching scores cross-source business record pairs and selects the 1:1 matches
package matching

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// ErrNonFiniteCoordinate is returned for NaN or infinite coordinates
var ErrNonFiniteCoordinate = errors.New("coordinate is not a finite number")

// DefaultWeights are the per-field weights of the combined confidence. They sum to 1.0.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		models.FieldName:    0.40,
		models.FieldAddress: 0.25,
		models.FieldGeo:     0.20,
		models.FieldPhone:   0.10,
		models.FieldWebsite: 0.05,
	}
}

// fieldNormalizers names the registered normalizer used for each compared text field
var fieldNormalizers = map[string]string{
	models.FieldName:    "nname",
	models.FieldAddress: "naddress",
	models.FieldPhone:   "nphone_key",
	models.FieldWebsite: "nwebsite",
}

// Profile is the comparison form of a record, computed once per record per merge
type Profile struct {
	Name          string
	NameTokens    []string
	Address       string
	AddressTokens []string
	PhoneKey      string
	Website       string
	HasGeo        bool
	Latitude      float64
	Longitude     float64
}

// Matcher computes per-field similarity signals for a pair of records and combines them into a
// single confidence. It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	scorer            *Scorer
	weights           map[string]float64
	distanceThreshold float64
}

// NewMatcher creates a matcher using DefaultWeights
func NewMatcher(distanceThresholdMeters float64) *Matcher {
	return &Matcher{
		scorer:            NewScorer(),
		weights:           DefaultWeights(),
		distanceThreshold: distanceThresholdMeters,
	}
}

// DistanceThreshold returns the distance at which the geo score reaches zero
func (m *Matcher) DistanceThreshold() float64 {
	return m.distanceThreshold
}

// Prepare normalizes a record into its comparison profile
func (m *Matcher) Prepare(r models.BusinessRecord) (Profile, error) {
	p := Profile{
		Name:     normalizers.Apply(r.Name, fieldNormalizers[models.FieldName]),
		Address:  normalizers.Apply(r.Address, fieldNormalizers[models.FieldAddress]),
		PhoneKey: normalizers.Apply(r.Phone, fieldNormalizers[models.FieldPhone]),
		Website:  normalizers.Apply(r.Website, fieldNormalizers[models.FieldWebsite]),
	}
	p.NameTokens = strings.Fields(p.Name)
	p.AddressTokens = strings.Fields(p.Address)

	if !finite(r.Latitude) {
		return p, fmt.Errorf("latitude: %w", ErrNonFiniteCoordinate)
	}
	if !finite(r.Longitude) {
		return p, fmt.Errorf("longitude: %w", ErrNonFiniteCoordinate)
	}

	if r.HasCoordinates() {
		p.HasGeo = true
		p.Latitude = *r.Latitude
		p.Longitude = *r.Longitude
	}

	return p, nil
}

// Score compares two records. RecordA and RecordB of the result are left at zero.
func (m *Matcher) Score(a, b models.BusinessRecord) (models.PairCandidate, error) {
	pa, err := m.Prepare(a)
	if err != nil {
		return models.PairCandidate{}, err
	}
	pb, err := m.Prepare(b)
	if err != nil {
		return models.PairCandidate{}, err
	}
	return m.ScoreProfiles(0, 0, pa, pb), nil
}

// ScoreProfiles compares two prepared records. Only fields present on both sides get a score,
// and the combined confidence is the weighted mean over those fields alone.
func (m *Matcher) ScoreProfiles(indexA, indexB int, a, b Profile) models.PairCandidate {
	scores := make(map[string]float64, len(m.weights))

	if len(a.NameTokens) > 0 && len(b.NameTokens) > 0 {
		scores[models.FieldName] = m.textScore(a.Name, b.Name, a.NameTokens, b.NameTokens)
	}
	if len(a.AddressTokens) > 0 && len(b.AddressTokens) > 0 {
		scores[models.FieldAddress] = m.textScore(a.Address, b.Address, a.AddressTokens, b.AddressTokens)
	}

	var distance *float64
	if a.HasGeo && b.HasGeo {
		d := m.scorer.Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
		distance = &d
		scores[models.FieldGeo] = m.scorer.DistanceProximity(d, m.distanceThreshold)
	}

	if a.PhoneKey != "" && b.PhoneKey != "" {
		scores[models.FieldPhone] = m.scorer.ExactMatch(a.PhoneKey, b.PhoneKey, true)
	}
	if a.Website != "" && b.Website != "" {
		scores[models.FieldWebsite] = m.scorer.ExactMatch(a.Website, b.Website, true)
	}

	return models.PairCandidate{
		RecordA:            indexA,
		RecordB:            indexB,
		FieldScores:        scores,
		DistanceMeters:     distance,
		CombinedConfidence: m.scorer.WeightedScore(scores, m.weights),
	}
}

func (m *Matcher) textScore(a, b string, aTokens, bTokens []string) float64 {
	if a == b {
		return 1.0
	}
	return m.scorer.SoftTokenSimilarity(aTokens, bTokens)
}

func finite(v *float64) bool {
	return v == nil || !(math.IsNaN(*v) || math.IsInf(*v, 0))
}

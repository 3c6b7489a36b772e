package models

// Source identifies the upstream provider a record came from
type Source string

const (
	SourceA Source = "source_a" // maps/places provider
	SourceB Source = "source_b" // reviews provider
)

// Valid reports whether s is a known source
func (s Source) Valid() bool {
	return s == SourceA || s == SourceB
}

// Other returns the opposite source
func (s Source) Other() Source {
	if s == SourceB {
		return SourceA
	}
	return SourceB
}

// BusinessRecord is a single listing as delivered by one provider.
// Records are never modified by the merge engine.
type BusinessRecord struct {
	Source     Source   `json:"source,omitempty"`
	ExternalID string   `json:"external_id,omitempty" validate:"max=256"`
	Name       string   `json:"name" validate:"required,max=512"`
	Address    string   `json:"address,omitempty" validate:"max=1024"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Phone      string   `json:"phone,omitempty" validate:"max=64"`
	Website    string   `json:"website,omitempty" validate:"max=2048"`
}

// HasCoordinates reports whether both latitude and longitude are present
func (r BusinessRecord) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Field names used in scores, conflicts and metrics
const (
	FieldName    = "name"
	FieldAddress = "address"
	FieldGeo     = "geo"
	FieldPhone   = "phone"
	FieldWebsite = "website"
)

// PairCandidate is a scored cross-source pair. RecordA and RecordB are indexes into the
// source A and source B input lists.
type PairCandidate struct {
	RecordA            int                `json:"record_a"`
	RecordB            int                `json:"record_b"`
	FieldScores        map[string]float64 `json:"field_scores"`
	DistanceMeters     *float64           `json:"distance_meters,omitempty"`
	CombinedConfidence float64            `json:"combined_confidence"`
}

// ConfidenceLevel is the coarse bucket of a confidence score
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// ConfidenceLevelFor buckets a score: below 0.5 is low, below 0.8 is medium, the rest high
func ConfidenceLevelFor(score float64) ConfidenceLevel {
	switch {
	case score < 0.5:
		return ConfidenceLow
	case score < 0.8:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// ReviewReason explains why a merged record needs a human look
type ReviewReason string

const (
	ReviewBorderlineConfidence  ReviewReason = "borderline_confidence"
	ReviewCoordinateDiscrepancy ReviewReason = "coordinate_discrepancy"
	ReviewLowEvidence           ReviewReason = "low_evidence"
	ReviewPhoneConflict         ReviewReason = "phone_conflict"
)

// FieldConflict records a field where both sources disagreed and how it was resolved
type FieldConflict struct {
	Field         string   `json:"field"`
	Values        []string `json:"values"`
	Sources       []Source `json:"sources"`
	Resolution    string   `json:"resolution"`
	ResolvedValue string   `json:"resolved_value"`
}

// MergedRecord is the canonical listing produced from a matched pair or a singleton
type MergedRecord struct {
	Name                 string             `json:"name"`
	Address              string             `json:"address,omitempty"`
	Latitude             *float64           `json:"latitude,omitempty"`
	Longitude            *float64           `json:"longitude,omitempty"`
	Phone                string             `json:"phone,omitempty"`
	Website              string             `json:"website,omitempty"`
	SourceIDs            map[Source]string  `json:"source_ids"`
	ConfidenceScore      float64            `json:"confidence_score"`
	ConfidenceLevel      ConfidenceLevel    `json:"confidence_level"`
	ManualReviewRequired bool               `json:"manual_review_required"`
	ReviewReasons        []ReviewReason     `json:"review_reasons"`
	FieldScores          map[string]float64 `json:"field_scores,omitempty"`
	DistanceMeters       *float64           `json:"distance_meters,omitempty"`
	Conflicts            []FieldConflict    `json:"conflicts,omitempty"`
}

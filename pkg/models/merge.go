package models

// MergeRequest is the input of a merge run
type MergeRequest struct {
	SourceARecords          []BusinessRecord `json:"source_a_records" validate:"dive"`
	SourceBRecords          []BusinessRecord `json:"source_b_records" validate:"dive"`
	MatchThreshold          *float64         `json:"match_threshold,omitempty"`
	DistanceThresholdMeters *float64         `json:"distance_threshold_meters,omitempty"`
	PrimarySource           Source           `json:"primary_source,omitempty" validate:"omitempty,oneof=source_a source_b"`
}

// MergeResponse is the output of a merge run
type MergeResponse struct {
	Success           bool           `json:"success"`
	TotalInput        int            `json:"total_input"`
	TotalOutput       int            `json:"total_output"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	ManualReviewCount int            `json:"manual_review_count"`
	Fingerprint       string         `json:"fingerprint,omitempty"`
	Merged            []MergedRecord `json:"merged"`
}

// MergeOptions are the effective settings of a merge run once request values and
// service defaults have been combined
type MergeOptions struct {
	MatchThreshold          float64 `json:"match_threshold"`
	DistanceThresholdMeters float64 `json:"distance_threshold_meters"`
	PrimarySource           Source  `json:"primary_source"`
	// ReviewBand is the width of the borderline band above MatchThreshold
	ReviewBand float64 `json:"review_band"`
	// DiscrepancyRatio is the share of DistanceThresholdMeters a matched pair may drift apart
	// before it is flagged
	DiscrepancyRatio float64 `json:"discrepancy_ratio"`
}

const (
	DefaultMatchThreshold          = 0.7
	DefaultDistanceThresholdMeters = 500.0
	DefaultReviewBand              = 0.1
	DefaultDiscrepancyRatio        = 0.5
)

// DefaultMergeOptions returns the built-in defaults
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{
		MatchThreshold:          DefaultMatchThreshold,
		DistanceThresholdMeters: DefaultDistanceThresholdMeters,
		PrimarySource:           SourceA,
		ReviewBand:              DefaultReviewBand,
		DiscrepancyRatio:        DefaultDiscrepancyRatio,
	}
}

// Options resolves the request's optional settings against defaults
func (r MergeRequest) Options(defaults MergeOptions) MergeOptions {
	opts := defaults
	if r.MatchThreshold != nil {
		opts.MatchThreshold = *r.MatchThreshold
	}
	if r.DistanceThresholdMeters != nil {
		opts.DistanceThresholdMeters = *r.DistanceThresholdMeters
	}
	if r.PrimarySource != "" {
		opts.PrimarySource = r.PrimarySource
	}
	if !opts.PrimarySource.Valid() {
		opts.PrimarySource = SourceA
	}
	return opts
}

// Capabilities describes what the merge service offers
type Capabilities struct {
	Status   string       `json:"status"`
	Version  string       `json:"version"`
	Features []string     `json:"features"`
	Defaults MergeOptions `json:"defaults"`
}

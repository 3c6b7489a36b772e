// Package merging turns matched pairs and leftover records into canonical business listings
package merging

import (
	"context"
	"fmt"
	"sort"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Features advertised by the capability endpoint
var Features = []string{
	"name_similarity",
	"address_similarity",
	"proximity_scoring",
	"confidence_scoring",
	"manual_review_flags",
}

// RecordError identifies the input record that stopped a merge run
type RecordError struct {
	Source     models.Source
	Index      int
	ExternalID string
	Err        error
}

func (e *RecordError) Error() string {
	if e.ExternalID != "" {
		return fmt.Sprintf("record %s[%d] (%s): %v", e.Source, e.Index, e.ExternalID, e.Err)
	}
	return fmt.Sprintf("record %s[%d]: %v", e.Source, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Engine runs normalization, matching, pairing and merging for one request at a time.
// It has no mutable state, so a single Engine is shared by every caller.
type Engine struct {
	logger      ectologger.Logger
	defaults    models.MergeOptions
	fieldMerger *FieldMerger
}

// NewEngine creates a new merge engine
func NewEngine(logger ectologger.Logger, defaults models.MergeOptions) *Engine {
	return &Engine{
		logger:      logger,
		defaults:    defaults,
		fieldMerger: NewFieldMerger(),
	}
}

// Defaults returns the options used for settings a request leaves out
func (e *Engine) Defaults() models.MergeOptions {
	return e.defaults
}

// Capabilities describes the engine for discovery clients
func (e *Engine) Capabilities(version string) models.Capabilities {
	features := make([]string, len(Features))
	copy(features, Features)

	return models.Capabilities{
		Status:   "ok",
		Version:  version,
		Features: features,
		Defaults: e.defaults,
	}
}

// Merge deduplicates the two record lists of a request.
//
// Invalid requests fail with an error wrapping models.ErrInvalidInput before any work is done.
// A record that cannot be compared fails the whole run with a *RecordError; no partial result is
// returned.
func (e *Engine) Merge(ctx context.Context, req *models.MergeRequest) (*models.MergeResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.Merge")
	defer span.End()

	if err := models.ValidateMergeRequest(req); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	opts := req.Options(e.defaults)
	recordsA := stamp(req.SourceARecords, models.SourceA)
	recordsB := stamp(req.SourceBRecords, models.SourceB)

	span.SetAttributes(
		attribute.Int("merge.source_a_count", len(recordsA)),
		attribute.Int("merge.source_b_count", len(recordsB)),
		attribute.Float64("merge.match_threshold", opts.MatchThreshold),
	)

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"source_a_count":  len(recordsA),
		"source_b_count":  len(recordsB),
		"match_threshold": opts.MatchThreshold,
		"distance_meters": opts.DistanceThresholdMeters,
		"primary_source":  opts.PrimarySource,
	})

	matcher := matching.NewMatcher(opts.DistanceThresholdMeters)

	profilesA, err := prepare(matcher, recordsA, models.SourceA)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	profilesB, err := prepare(matcher, recordsB, models.SourceB)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	candidates := make([]models.PairCandidate, 0)
	for i, pa := range profilesA {
		for j, pb := range profilesB {
			c := matcher.ScoreProfiles(i, j, pa, pb)
			if c.CombinedConfidence > 0 {
				candidates = append(candidates, c)
			}
		}
	}

	pairs := matching.Pair(candidates, opts.MatchThreshold)

	pairByA := make(map[int]models.PairCandidate, len(pairs))
	matchedB := make(map[int]bool, len(pairs))
	for _, p := range pairs {
		pairByA[p.RecordA] = p
		matchedB[p.RecordB] = true
	}

	merged := make([]models.MergedRecord, 0, len(recordsA)+len(recordsB)-len(pairs))
	for i, a := range recordsA {
		if p, ok := pairByA[i]; ok {
			merged = append(merged, e.mergePair(a, recordsB[p.RecordB], p, opts))
			continue
		}
		merged = append(merged, singleton(a, i))
	}
	for j, b := range recordsB {
		if !matchedB[j] {
			merged = append(merged, singleton(b, j))
		}
	}

	total := len(recordsA) + len(recordsB)
	resp := &models.MergeResponse{
		Success:           true,
		TotalInput:        total,
		TotalOutput:       len(merged),
		DuplicatesRemoved: total - len(merged),
		ManualReviewCount: len(ectolinq.Filter(merged, func(r models.MergedRecord) bool { return r.ManualReviewRequired })),
		Merged:            merged,
	}

	log.WithFields(map[string]any{
		"candidates":          len(candidates),
		"pairs":               len(pairs),
		"total_output":        resp.TotalOutput,
		"manual_review_count": resp.ManualReviewCount,
	}).Debug("Merge complete")

	return resp, nil
}

func (e *Engine) mergePair(a, b models.BusinessRecord, pair models.PairCandidate, opts models.MergeOptions) models.MergedRecord {
	primary, other := a, b
	if opts.PrimarySource == models.SourceB {
		primary, other = b, a
	}

	value := func(r models.BusinessRecord, v string) fieldValue {
		return fieldValue{Value: v, Source: r.Source}
	}

	var conflicts []models.FieldConflict
	collect := func(v string, c *models.FieldConflict) string {
		if c != nil {
			conflicts = append(conflicts, *c)
		}
		return v
	}

	out := models.MergedRecord{
		Name:    collect(e.fieldMerger.MergeText(models.FieldName, "nname", value(primary, primary.Name), value(other, other.Name))),
		Address: collect(e.fieldMerger.MergeText(models.FieldAddress, "naddress", value(primary, primary.Address), value(other, other.Address))),
		Phone:   collect(e.fieldMerger.MergePhone(value(primary, primary.Phone), value(other, other.Phone))),
		Website: collect(e.fieldMerger.MergeWebsite(value(primary, primary.Website), value(other, other.Website))),
		SourceIDs: map[models.Source]string{
			models.SourceA: recordID(a, pair.RecordA),
			models.SourceB: recordID(b, pair.RecordB),
		},
		ConfidenceScore: pair.CombinedConfidence,
		ConfidenceLevel: models.ConfidenceLevelFor(pair.CombinedConfidence),
		FieldScores:     pair.FieldScores,
		DistanceMeters:  pair.DistanceMeters,
		Conflicts:       conflicts,
	}
	out.Latitude, out.Longitude = e.fieldMerger.MergeCoordinates(primary, other)

	phoneConflict := ectolinq.Filter(conflicts, func(c models.FieldConflict) bool { return c.Field == models.FieldPhone })
	out.ReviewReasons = reviewReasons(pair, opts, len(phoneConflict) > 0)
	out.ManualReviewRequired = len(out.ReviewReasons) > 0

	return out
}

// reviewReasons lists, sorted and without duplicates, why a merged pair needs a human look
func reviewReasons(pair models.PairCandidate, opts models.MergeOptions, phoneConflict bool) []models.ReviewReason {
	set := make(map[models.ReviewReason]bool)

	if pair.CombinedConfidence < opts.MatchThreshold+opts.ReviewBand {
		set[models.ReviewBorderlineConfidence] = true
	}
	if pair.DistanceMeters != nil && *pair.DistanceMeters > opts.DistanceThresholdMeters*opts.DiscrepancyRatio {
		set[models.ReviewCoordinateDiscrepancy] = true
	}
	if len(pair.FieldScores) < 2 {
		set[models.ReviewLowEvidence] = true
	}
	if phoneConflict {
		set[models.ReviewPhoneConflict] = true
	}

	reasons := make([]models.ReviewReason, 0, len(set))
	for r := range set {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })

	return reasons
}

func singleton(r models.BusinessRecord, index int) models.MergedRecord {
	return models.MergedRecord{
		Name:                 r.Name,
		Address:              r.Address,
		Latitude:             copyFloat(r.Latitude),
		Longitude:            copyFloat(r.Longitude),
		Phone:                r.Phone,
		Website:              r.Website,
		SourceIDs:            map[models.Source]string{r.Source: recordID(r, index)},
		ConfidenceScore:      1.0,
		ConfidenceLevel:      models.ConfidenceHigh,
		ManualReviewRequired: false,
		ReviewReasons:        []models.ReviewReason{},
	}
}

// recordID is the external id, or "<source>#<index>" for records without one
func recordID(r models.BusinessRecord, index int) string {
	if r.ExternalID != "" {
		return r.ExternalID
	}
	return fmt.Sprintf("%s#%d", r.Source, index)
}

// stamp copies the records with their source set from the list they arrived in
func stamp(records []models.BusinessRecord, source models.Source) []models.BusinessRecord {
	return ectolinq.Map(records, func(r models.BusinessRecord) models.BusinessRecord {
		r.Source = source
		return r
	})
}

func prepare(matcher *matching.Matcher, records []models.BusinessRecord, source models.Source) ([]matching.Profile, error) {
	profiles := make([]matching.Profile, len(records))
	for i, r := range records {
		p, err := matcher.Prepare(r)
		if err != nil {
			return nil, &RecordError{Source: source, Index: i, ExternalID: r.ExternalID, Err: err}
		}
		profiles[i] = p
	}
	return profiles, nil
}

package models

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func validRequest() *MergeRequest {
	return &MergeRequest{
		SourceARecords: []BusinessRecord{{Name: "Acme Coffee", Latitude: ptr(40.7128), Longitude: ptr(-74.0060)}},
		SourceBRecords: []BusinessRecord{},
	}
}

func TestValidateMergeRequest(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		assert.NoError(t, ValidateMergeRequest(validRequest()))
	})

	t.Run("empty lists are valid", func(t *testing.T) {
		req := &MergeRequest{SourceARecords: []BusinessRecord{}, SourceBRecords: []BusinessRecord{}}
		assert.NoError(t, ValidateMergeRequest(req))
	})

	tests := []struct {
		name   string
		mutate func(r *MergeRequest)
		field  string
		rule   string
	}{
		{"nil request list a", func(r *MergeRequest) { r.SourceARecords = nil }, "source_a_records", "required"},
		{"nil request list b", func(r *MergeRequest) { r.SourceBRecords = nil }, "source_b_records", "required"},
		{"threshold above one", func(r *MergeRequest) { r.MatchThreshold = ptr(1.5) }, "match_threshold", "range"},
		{"threshold below zero", func(r *MergeRequest) { r.MatchThreshold = ptr(-0.1) }, "match_threshold", "range"},
		{"threshold nan", func(r *MergeRequest) { r.MatchThreshold = ptr(math.NaN()) }, "match_threshold", "range"},
		{"negative distance", func(r *MergeRequest) { r.DistanceThresholdMeters = ptr(-1) }, "distance_threshold_meters", "range"},
		{"infinite distance", func(r *MergeRequest) { r.DistanceThresholdMeters = ptr(math.Inf(1)) }, "distance_threshold_meters", "range"},
		{"blank name", func(r *MergeRequest) { r.SourceARecords[0].Name = "   " }, "source_a_records[0].name", "required"},
		{"latitude out of range", func(r *MergeRequest) { r.SourceARecords[0].Latitude = ptr(91) }, "source_a_records[0].latitude", "range"},
		{"longitude out of range", func(r *MergeRequest) { r.SourceARecords[0].Longitude = ptr(-180.5) }, "source_a_records[0].longitude", "range"},
		{"blank name in list b", func(r *MergeRequest) {
			r.SourceBRecords = append(r.SourceBRecords, BusinessRecord{Name: "Ok"}, BusinessRecord{})
		}, "source_b_records[1].name", "required"},
		{"unknown primary source", func(r *MergeRequest) { r.PrimarySource = "source_c" }, "primary_source", "oneof"},
		{"external id too long", func(r *MergeRequest) {
			r.SourceARecords[0].ExternalID = strings.Repeat("x", 300)
		}, "source_a_records[0].external_id", "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := ValidateMergeRequest(req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.rule, verr.Rule)
		})
	}

	t.Run("nil request", func(t *testing.T) {
		assert.ErrorIs(t, ValidateMergeRequest(nil), ErrInvalidInput)
	})

	t.Run("boundary thresholds are valid", func(t *testing.T) {
		req := validRequest()
		req.MatchThreshold = ptr(0)
		req.DistanceThresholdMeters = ptr(0)
		assert.NoError(t, ValidateMergeRequest(req))

		req.MatchThreshold = ptr(1)
		assert.NoError(t, ValidateMergeRequest(req))
	})
}

func TestMergeRequestOptions(t *testing.T) {
	t.Run("defaults apply when unset", func(t *testing.T) {
		opts := MergeRequest{}.Options(DefaultMergeOptions())
		assert.Equal(t, 0.7, opts.MatchThreshold)
		assert.Equal(t, 500.0, opts.DistanceThresholdMeters)
		assert.Equal(t, SourceA, opts.PrimarySource)
	})

	t.Run("request values win", func(t *testing.T) {
		req := MergeRequest{MatchThreshold: ptr(0), DistanceThresholdMeters: ptr(50), PrimarySource: SourceB}
		opts := req.Options(DefaultMergeOptions())
		assert.Equal(t, 0.0, opts.MatchThreshold)
		assert.Equal(t, 50.0, opts.DistanceThresholdMeters)
		assert.Equal(t, SourceB, opts.PrimarySource)
	})
}

func TestConfidenceLevelFor(t *testing.T) {
	assert.Equal(t, ConfidenceLow, ConfidenceLevelFor(0))
	assert.Equal(t, ConfidenceLow, ConfidenceLevelFor(0.4999))
	assert.Equal(t, ConfidenceMedium, ConfidenceLevelFor(0.5))
	assert.Equal(t, ConfidenceMedium, ConfidenceLevelFor(0.7999))
	assert.Equal(t, ConfidenceHigh, ConfidenceLevelFor(0.8))
	assert.Equal(t, ConfidenceHigh, ConfidenceLevelFor(1))
}

package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func ptr(f float64) *float64 { return &f }

func TestMergeRequest(t *testing.T) {
	defaults := models.DefaultMergeOptions()
	req := &models.MergeRequest{
		SourceARecords: []models.BusinessRecord{{Name: "Acme", Latitude: ptr(1), Longitude: ptr(2)}},
		SourceBRecords: []models.BusinessRecord{{Name: "Acme Inc"}},
	}

	fp, err := MergeRequest(req, req.Options(defaults))
	require.NoError(t, err)
	assert.Len(t, fp, 64)

	t.Run("stable", func(t *testing.T) {
		again, err := MergeRequest(req, req.Options(defaults))
		require.NoError(t, err)
		assert.Equal(t, fp, again)
	})

	t.Run("explicit defaults hash like omitted ones", func(t *testing.T) {
		explicit := *req
		explicit.MatchThreshold = ptr(0.7)
		explicit.PrimarySource = models.SourceA

		got, err := MergeRequest(&explicit, explicit.Options(defaults))
		require.NoError(t, err)
		assert.Equal(t, fp, got)
	})

	t.Run("source stamp does not matter", func(t *testing.T) {
		stamped := *req
		stamped.SourceARecords = []models.BusinessRecord{{Source: models.SourceB, Name: "Acme", Latitude: ptr(1), Longitude: ptr(2)}}

		got, err := MergeRequest(&stamped, stamped.Options(defaults))
		require.NoError(t, err)
		assert.Equal(t, fp, got)
	})

	t.Run("threshold changes the hash", func(t *testing.T) {
		changed := *req
		changed.MatchThreshold = ptr(0.9)

		got, err := MergeRequest(&changed, changed.Options(defaults))
		require.NoError(t, err)
		assert.NotEqual(t, fp, got)
	})

	t.Run("record order changes the hash", func(t *testing.T) {
		swapped := &models.MergeRequest{
			SourceARecords: req.SourceBRecords,
			SourceBRecords: req.SourceARecords,
		}

		got, err := MergeRequest(swapped, swapped.Options(defaults))
		require.NoError(t, err)
		assert.NotEqual(t, fp, got)
	})
}

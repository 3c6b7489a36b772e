package merge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/merging"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/processor"
)

func newTestServer() *echo.Echo {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	engine := merging.NewEngine(logger, models.DefaultMergeOptions())
	p := processor.NewMergeProcessor(logger, engine, nil, nil)

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	Register(e.Group("/api/v1/merge"), NewHandler(p, "1.2.3"))
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type errorBody struct {
	Message   string         `json:"message"`
	Code      string         `json:"code"`
	RequestID string         `json:"request_id"`
	Meta      map[string]any `json:"meta"`
}

func TestMergeRoute(t *testing.T) {
	e := newTestServer()

	t.Run("merges duplicate listings", func(t *testing.T) {
		body := `{
			"source_a_records": [{"external_id": "a-1", "name": "Acme Plumbing", "address": "123 Main St", "latitude": 40.0, "longitude": -74.0}],
			"source_b_records": [{"external_id": "b-1", "name": "Acme Plumbing", "address": "123 Main Street", "latitude": 40.0005, "longitude": -74.0005}]
		}`

		rec := do(e, http.MethodPost, "/api/v1/merge", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp models.MergeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 2, resp.TotalInput)
		assert.Equal(t, 1, resp.TotalOutput)
		assert.Equal(t, 1, resp.DuplicatesRemoved)
		require.Len(t, resp.Merged, 1)
		assert.Equal(t, "a-1", resp.Merged[0].SourceIDs[models.SourceA])
		assert.Equal(t, "b-1", resp.Merged[0].SourceIDs[models.SourceB])
		assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
	})

	t.Run("empty lists are valid", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/v1/merge", `{"source_a_records": [], "source_b_records": []}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp models.MergeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.TotalOutput)
		assert.NotNil(t, resp.Merged)
	})

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing list", body: `{"source_a_records": []}`, field: "source_b_records"},
		{name: "null list", body: `{"source_a_records": null, "source_b_records": []}`, field: "source_a_records"},
		{name: "threshold out of range", body: `{"source_a_records": [], "source_b_records": [], "match_threshold": 1.5}`, field: "match_threshold"},
		{name: "negative distance", body: `{"source_a_records": [], "source_b_records": [], "distance_threshold_meters": -1}`, field: "distance_threshold_meters"},
		{name: "blank name", body: `{"source_a_records": [{"name": "  "}], "source_b_records": []}`, field: "source_a_records[0].name"},
		{name: "latitude out of range", body: `{"source_a_records": [], "source_b_records": [{"name": "x", "latitude": 91}]}`, field: "source_b_records[0].latitude"},
		{name: "unknown primary source", body: `{"source_a_records": [], "source_b_records": [], "primary_source": "yelp"}`, field: "primary_source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/v1/merge", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "INVALID_INPUT", body.Code)
			assert.Equal(t, tt.field, body.Meta["field"])
			assert.Equal(t, "req-123", body.RequestID)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/v1/merge", `{"source_a_records": [`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "INVALID_INPUT", body.Code)
	})
}

func TestCapabilitiesRoute(t *testing.T) {
	e := newTestServer()

	rec := do(e, http.MethodGet, "/api/v1/merge/capabilities", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var caps models.Capabilities
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &caps))
	assert.Equal(t, "ok", caps.Status)
	assert.Equal(t, "1.2.3", caps.Version)
	assert.Equal(t, []string{"name_similarity", "address_similarity", "proximity_scoring", "confidence_scoring", "manual_review_flags"}, caps.Features)
	assert.Equal(t, 0.7, caps.Defaults.MatchThreshold)
	assert.Equal(t, 500.0, caps.Defaults.DistanceThresholdMeters)
	assert.Equal(t, models.SourceA, caps.Defaults.PrimarySource)
}

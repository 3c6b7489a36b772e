package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/api/test/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/api/fail", func(c echo.Context) error {
		return httperror.NewHTTPError(http.StatusBadRequest, "bad")
	})

	t.Run("uses the route template", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/test/42", http.NoBody))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/test/:id", "200")), 1.0)
		assert.Positive(t, testutil.CollectAndCount(httpRequestDuration))
	})

	t.Run("error status is recorded", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fail", http.NoBody))

		assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/fail", "400")), 1.0)
	})
}

func TestHandler(t *testing.T) {
	e := echo.New()
	e.GET("/metrics", Handler())

	MergeRequestsTotal.WithLabelValues("success", OriginHTTP).Inc()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "clover_merge_requests_total"))
}

func TestRecordMerge(t *testing.T) {
	before := testutil.ToFloat64(ReviewFlagsTotal.WithLabelValues(string(models.ReviewLowEvidence)))
	inputBefore := testutil.ToFloat64(MergeRecordsTotal.WithLabelValues("input"))

	RecordMerge(&models.MergeResponse{
		TotalInput:        3,
		TotalOutput:       2,
		DuplicatesRemoved: 1,
		Merged: []models.MergedRecord{
			{ReviewReasons: []models.ReviewReason{models.ReviewLowEvidence, models.ReviewPhoneConflict}},
			{ReviewReasons: []models.ReviewReason{}},
		},
	})

	assert.Equal(t, before+1, testutil.ToFloat64(ReviewFlagsTotal.WithLabelValues(string(models.ReviewLowEvidence))))
	assert.Equal(t, inputBefore+3, testutil.ToFloat64(MergeRecordsTotal.WithLabelValues("input")))
}

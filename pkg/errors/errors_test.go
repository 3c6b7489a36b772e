package errors

import (
	"fmt"
	"math"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/merging"
	"github.com/Ramsey-B/clover/pkg/models"
)

func TestToHTTPError(t *testing.T) {
	t.Run("validation error", func(t *testing.T) {
		err := models.ValidateMergeRequest(&models.MergeRequest{SourceBRecords: []models.BusinessRecord{}})

		httpErr := ToHTTPError(err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(httpErr))
		assert.Equal(t, CodeInvalidInput, httpErr.Meta["code"])
		assert.Equal(t, "source_a_records", httpErr.Meta["field"])
		assert.Equal(t, CodeInvalidInput, Code(err))
	})

	t.Run("record error", func(t *testing.T) {
		err := fmt.Errorf("merge: %w", &merging.RecordError{
			Source: models.SourceA, Index: 3, ExternalID: "ext-3", Err: fmt.Errorf("latitude %v", math.NaN()),
		})

		httpErr := ToHTTPError(err)
		assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(httpErr))
		assert.Equal(t, CodeInternalError, httpErr.Meta["code"])
		assert.Equal(t, "source_a", httpErr.Meta["source"])
		assert.Equal(t, 3, httpErr.Meta["index"])
		assert.Equal(t, "ext-3", httpErr.Meta["external_id"])
		assert.Equal(t, CodeInternalError, Code(err))
	})

	t.Run("unknown error is internal", func(t *testing.T) {
		httpErr := ToHTTPError(fmt.Errorf("boom"))
		assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(httpErr))
		assert.Equal(t, CodeInternalError, httpErr.Meta["code"])
	})

	t.Run("bad request http error", func(t *testing.T) {
		httpErr := ToHTTPError(httperror.NewHTTPError(http.StatusBadRequest, "malformed body"))
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(httpErr))
		assert.Equal(t, CodeInvalidInput, httpErr.Meta["code"])
	})
}

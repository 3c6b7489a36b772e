// Package errors maps merge failures onto the service's HTTP error contract
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/clover/pkg/merging"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Error codes returned to clients
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeInternalError = "INTERNAL_ERROR"
)

// Code classifies an error as INVALID_INPUT or INTERNAL_ERROR
func Code(err error) string {
	if err == nil {
		return ""
	}
	if stderrors.Is(err, models.ErrInvalidInput) {
		return CodeInvalidInput
	}
	if httperror.IsHTTPError(err) && httperror.GetStatusCode(err) < http.StatusInternalServerError {
		return CodeInvalidInput
	}
	return CodeInternalError
}

// ToHTTPError converts a merge error into the HTTP error rendered by the error middleware.
// Meta always carries "code"; validation failures add "field" and "rule", record failures add
// "source", "index" and "external_id".
func ToHTTPError(err error) *httperror.HTTPError {
	var verr *models.ValidationError
	if stderrors.As(err, &verr) {
		return httperror.NewHTTPError(http.StatusBadRequest, verr.Error()).
			AddMetaValue("code", CodeInvalidInput).
			AddMetaValue("field", verr.Field).
			AddMetaValue("rule", verr.Rule)
	}

	if stderrors.Is(err, models.ErrInvalidInput) {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error()).
			AddMetaValue("code", CodeInvalidInput)
	}

	var recErr *merging.RecordError
	if stderrors.As(err, &recErr) {
		return httperror.NewHTTPError(http.StatusInternalServerError, recErr.Error()).
			AddMetaValue("code", CodeInternalError).
			AddMetaValue("source", string(recErr.Source)).
			AddMetaValue("index", recErr.Index).
			AddMetaValue("external_id", recErr.ExternalID)
	}

	if httperror.IsHTTPError(err) {
		httpErr := httperror.ToHTTPError(err)
		return httpErr.AddMetaValue("code", Code(err))
	}

	return httperror.NewHTTPError(http.StatusInternalServerError, "merge failed").
		AddMetaValue("code", CodeInternalError)
}

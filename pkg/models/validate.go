package models

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput is wrapped by every request validation failure
var ErrInvalidInput = errors.New("invalid input")

// ValidationError identifies the first rule a request broke
type ValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so errors point at the payload field
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateMergeRequest checks a request before any matching work starts.
// It returns nil or a *ValidationError for the first violation found.
func ValidateMergeRequest(req *MergeRequest) error {
	if req == nil {
		return invalid("request", "required", "request body is required")
	}
	if req.SourceARecords == nil {
		return invalid("source_a_records", "required", "source_a_records is required")
	}
	if req.SourceBRecords == nil {
		return invalid("source_b_records", "required", "source_b_records is required")
	}

	if t := req.MatchThreshold; t != nil && (math.IsNaN(*t) || *t < 0 || *t > 1) {
		return invalid("match_threshold", "range", fmt.Sprintf("must be between 0 and 1, got %v", *t))
	}
	if d := req.DistanceThresholdMeters; d != nil && (math.IsNaN(*d) || math.IsInf(*d, 0) || *d < 0) {
		return invalid("distance_threshold_meters", "range", fmt.Sprintf("must be a non-negative number, got %v", *d))
	}

	if err := validateRecords("source_a_records", req.SourceARecords); err != nil {
		return err
	}
	if err := validateRecords("source_b_records", req.SourceBRecords); err != nil {
		return err
	}

	if req.PrimarySource != "" && !req.PrimarySource.Valid() {
		return invalid("primary_source", "oneof", fmt.Sprintf("must be %s or %s, got %q", SourceA, SourceB, req.PrimarySource))
	}

	if err := validate.Struct(req); err != nil {
		return fromValidator(err)
	}

	return nil
}

func validateRecords(list string, records []BusinessRecord) error {
	for i, r := range records {
		field := func(name string) string {
			return fmt.Sprintf("%s[%d].%s", list, i, name)
		}

		if strings.TrimSpace(r.Name) == "" {
			return invalid(field("name"), "required", "name must not be blank")
		}
		// NaN coordinates pass here and are rejected by the engine
		if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
			return invalid(field("latitude"), "range", fmt.Sprintf("must be between -90 and 90, got %v", *r.Latitude))
		}
		if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
			return invalid(field("longitude"), "range", fmt.Sprintf("must be between -180 and 180, got %v", *r.Longitude))
		}
	}
	return nil
}

func invalid(field, rule, message string) *ValidationError {
	return &ValidationError{Field: field, Rule: rule, Message: message}
}

func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	msg := fmt.Sprintf("failed rule '%s'", fe.Tag())
	if fe.Param() != "" {
		msg += fmt.Sprintf(" expected '%s'", fe.Param())
	}
	return invalid(field, fe.Tag(), msg)
}

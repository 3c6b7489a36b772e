package merging

import (
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Conflict resolutions
const (
	ResolutionPrimarySource  = "primary_source"
	ResolutionHTTPSPreferred = "https_preferred"
	ResolutionMostDigits     = "most_digits"
)

// fieldValue is one source's value for a field
type fieldValue struct {
	Value  string
	Source models.Source
}

func (v fieldValue) empty() bool {
	return v.Value == ""
}

// FieldMerger handles field-level merge logic for a matched pair.
// Values are always passed primary source first.
type FieldMerger struct{}

// NewFieldMerger creates a new FieldMerger
func NewFieldMerger() *FieldMerger {
	return &FieldMerger{}
}

// MergeText keeps the primary value unless it is empty. A conflict is reported when both
// values are present and their normalized forms differ.
func (m *FieldMerger) MergeText(field, normalizer string, primary, other fieldValue) (string, *models.FieldConflict) {
	if primary.empty() {
		return other.Value, nil
	}
	if other.empty() {
		return primary.Value, nil
	}

	if normalizers.Apply(primary.Value, normalizer) == normalizers.Apply(other.Value, normalizer) {
		return primary.Value, nil
	}

	return primary.Value, m.conflict(field, ResolutionPrimarySource, primary.Value, primary, other)
}

// MergeWebsite prefers an https value over an http one, then the primary value
func (m *FieldMerger) MergeWebsite(primary, other fieldValue) (string, *models.FieldConflict) {
	if primary.empty() {
		return other.Value, nil
	}
	if other.empty() {
		return primary.Value, nil
	}

	resolved, resolution := primary.Value, ResolutionPrimarySource
	if normalizers.WebsiteScheme(other.Value) == "https" && normalizers.WebsiteScheme(primary.Value) != "https" {
		resolved, resolution = other.Value, ResolutionHTTPSPreferred
	}

	if normalizers.NormalizeWebsite(primary.Value) == normalizers.NormalizeWebsite(other.Value) {
		return resolved, nil
	}

	return resolved, m.conflict(models.FieldWebsite, resolution, resolved, primary, other)
}

// MergePhone keeps the more complete number when both describe the same line
// (e.g. "+1 555 123 4567" over "555-123-4567"). Two different lines resolve to the primary value
// and are reported as a conflict.
func (m *FieldMerger) MergePhone(primary, other fieldValue) (string, *models.FieldConflict) {
	if normalizers.PhoneKey(primary.Value) == "" {
		if normalizers.PhoneKey(other.Value) == "" {
			return firstNonEmpty(primary.Value, other.Value), nil
		}
		return other.Value, nil
	}
	if normalizers.PhoneKey(other.Value) == "" {
		return primary.Value, nil
	}

	if normalizers.PhoneKey(primary.Value) == normalizers.PhoneKey(other.Value) {
		if len(normalizers.DigitsOnly(other.Value)) > len(normalizers.DigitsOnly(primary.Value)) {
			return other.Value, nil
		}
		return primary.Value, nil
	}

	return primary.Value, m.conflict(models.FieldPhone, ResolutionPrimarySource, primary.Value, primary, other)
}

// MergeCoordinates takes the primary's complete pair, else the other's complete pair,
// else whichever component each side has
func (m *FieldMerger) MergeCoordinates(primary, other models.BusinessRecord) (*float64, *float64) {
	if primary.HasCoordinates() {
		return copyFloat(primary.Latitude), copyFloat(primary.Longitude)
	}
	if other.HasCoordinates() {
		return copyFloat(other.Latitude), copyFloat(other.Longitude)
	}

	lat := primary.Latitude
	if lat == nil {
		lat = other.Latitude
	}
	lon := primary.Longitude
	if lon == nil {
		lon = other.Longitude
	}
	return copyFloat(lat), copyFloat(lon)
}

func (m *FieldMerger) conflict(field, resolution, resolved string, primary, other fieldValue) *models.FieldConflict {
	return &models.FieldConflict{
		Field:         field,
		Values:        []string{primary.Value, other.Value},
		Sources:       []models.Source{primary.Source, other.Source},
		Resolution:    resolution,
		ResolvedValue: resolved,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

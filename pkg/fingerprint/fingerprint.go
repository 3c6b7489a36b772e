package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Generate creates a deterministic fingerprint for any JSON encodable value.
// The fingerprint is a SHA256 hash of its JSON encoding; struct fields keep declaration order and
// map keys are sorted by encoding/json, so equal values hash equally.
func Generate(data any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(b)
	return hex.EncodeToString(hash[:]), nil
}

// requestShape is what a merge result depends on
type requestShape struct {
	Options models.MergeOptions     `json:"options"`
	SourceA []models.BusinessRecord `json:"source_a"`
	SourceB []models.BusinessRecord `json:"source_b"`
}

// MergeRequest fingerprints a request together with the options it resolves to, so a request
// that spells out the defaults hashes like one that omits them
func MergeRequest(req *models.MergeRequest, opts models.MergeOptions) (string, error) {
	return Generate(requestShape{
		Options: opts,
		SourceA: withSource(req.SourceARecords, models.SourceA),
		SourceB: withSource(req.SourceBRecords, models.SourceB),
	})
}

func withSource(records []models.BusinessRecord, source models.Source) []models.BusinessRecord {
	out := make([]models.BusinessRecord, len(records))
	for i, r := range records {
		r.Source = source
		out[i] = r
	}
	return out
}

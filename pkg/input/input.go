// Package input reads merge requests and record lists from JSON or YAML files for the offline
// merge command.
package input

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/clover/pkg/models"
)

// ErrUnsupportedFormat is returned for files that are neither JSON nor YAML
var ErrUnsupportedFormat = errors.New("unsupported input format")

// LoadRequest reads a whole merge request
func LoadRequest(path string) (*models.MergeRequest, error) {
	var req models.MergeRequest
	if err := load(path, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// LoadRecords reads a list of business records. A file holding an object with a "records" key is
// accepted as well as a bare list.
func LoadRecords(path string) ([]models.BusinessRecord, error) {
	var raw any
	if err := load(path, &raw); err != nil {
		return nil, err
	}

	if obj, ok := raw.(map[string]any); ok {
		inner, found := obj["records"]
		if !found {
			return nil, errors.Errorf("%s: expected a list of records or an object with a \"records\" key", path)
		}
		raw = inner
	}

	var records []models.BusinessRecord
	if err := convert(raw, &records); err != nil {
		return nil, errors.Wrapf(err, "%s: invalid records", path)
	}
	if records == nil {
		records = []models.BusinessRecord{}
	}
	return records, nil
}

func load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(out); err != nil {
			return errors.Wrapf(err, "failed to parse %s", path)
		}
		return nil
	case ".yaml", ".yml":
		// YAML is decoded generically and re-encoded so the json tags on the models apply
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return errors.Wrapf(err, "failed to parse %s", path)
		}
		if err := convert(raw, out); err != nil {
			return errors.Wrapf(err, "failed to parse %s", path)
		}
		return nil
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
}

func convert(raw any, out any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// ErrMalformedMessage is returned when a message value is not a merge job
var ErrMalformedMessage = errors.New("malformed merge job message")

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Trace context (extracted from Kafka headers)
	TraceParent string
}

// MergeJob is the payload of a message on the merge request topic
type MergeJob struct {
	JobID   string              `json:"job_id"`
	Request models.MergeRequest `json:"request"`
}

// ParseMergeJob decodes the message value. When the payload has no job id the message key is used.
func (m *IncomingMessage) ParseMergeJob() (*MergeJob, error) {
	var job MergeJob
	if err := json.Unmarshal(m.Value, &job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	if strings.TrimSpace(job.JobID) == "" {
		job.JobID = m.Key
	}
	if job.JobID == "" {
		return nil, fmt.Errorf("%w: job_id is required", ErrMalformedMessage)
	}

	return &job, nil
}

// JobID returns the best available job id without fully parsing the payload
func (m *IncomingMessage) JobID() string {
	if id := m.Headers[HeaderJobID]; id != "" {
		return id
	}
	return m.Key
}

// Package events publishes merge lifecycle events
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Gobusters/ectologger"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Publisher writes an encoded event under a partition key
type Publisher interface {
	Publish(ctx context.Context, key, eventType string, value []byte) error
}

// Emitter handles event emission for Clover
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

// EmitMergeCompleted emits a merge.completed event
func (e *Emitter) EmitMergeCompleted(ctx context.Context, jobID, origin string, resp *models.MergeResponse, cached bool) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMergeCompleted")
	defer span.End()

	event := &MergeCompletedEvent{
		BaseEvent:   newBaseEvent(EventTypeMergeCompleted, jobID, origin, appctx.GetRequestID(ctx)),
		Fingerprint: resp.Fingerprint,
		Cached:      cached,
		Result:      resp,
	}

	return e.emit(ctx, partitionKey(jobID, resp.Fingerprint), event.EventType, event)
}

// EmitMergeFailed emits a merge.failed event
func (e *Emitter) EmitMergeFailed(ctx context.Context, jobID, origin, code, message string, meta map[string]any) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMergeFailed")
	defer span.End()

	event := &MergeFailedEvent{
		BaseEvent: newBaseEvent(EventTypeMergeFailed, jobID, origin, appctx.GetRequestID(ctx)),
		Code:      code,
		Message:   message,
		Meta:      meta,
	}

	return e.emit(ctx, partitionKey(jobID, event.EventID), event.EventType, event)
}

func (e *Emitter) emit(ctx context.Context, key string, eventType EventType, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}

	if err := e.publisher.Publish(ctx, key, string(eventType), data); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", eventType)
		return err
	}

	return nil
}

func partitionKey(jobID, fallback string) string {
	if jobID != "" {
		return jobID
	}
	return fallback
}

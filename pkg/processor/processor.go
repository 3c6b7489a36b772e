// Package processor runs merge requests end to end for both the HTTP API and Kafka jobs.
// It owns the request fingerprint, the result cache, metrics and lifecycle events around the
// stateless merge engine.
package processor

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel/attribute"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	pkgerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/merging"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ResultStore caches merge responses by request fingerprint
type ResultStore interface {
	Get(ctx context.Context, fingerprint string) (*models.MergeResponse, bool, error)
	Set(ctx context.Context, fingerprint string, resp *models.MergeResponse) error
}

// EventEmitter publishes merge lifecycle events
type EventEmitter interface {
	EmitMergeCompleted(ctx context.Context, jobID, origin string, resp *models.MergeResponse, cached bool) error
	EmitMergeFailed(ctx context.Context, jobID, origin, code, message string, meta map[string]any) error
}

// MergeProcessor wraps the merge engine with caching, metrics and events.
// store and emitter are optional.
type MergeProcessor struct {
	logger  ectologger.Logger
	engine  *merging.Engine
	store   ResultStore
	emitter EventEmitter
}

// NewMergeProcessor creates a new merge processor
func NewMergeProcessor(logger ectologger.Logger, engine *merging.Engine, store ResultStore, emitter EventEmitter) *MergeProcessor {
	return &MergeProcessor{
		logger:  logger,
		engine:  engine,
		store:   store,
		emitter: emitter,
	}
}

// Engine returns the underlying merge engine
func (p *MergeProcessor) Engine() *merging.Engine {
	return p.engine
}

// Process runs a merge request received over HTTP. A merge.completed event is emitted on success;
// failing to emit it is logged and does not fail the request.
func (p *MergeProcessor) Process(ctx context.Context, req *models.MergeRequest) (*models.MergeResponse, error) {
	ctx = appctx.SetOrigin(ctx, metrics.OriginHTTP)

	resp, cached, err := p.run(ctx, req, metrics.OriginHTTP)
	if err != nil {
		return nil, err
	}

	if p.emitter != nil {
		if emitErr := p.emitter.EmitMergeCompleted(ctx, "", metrics.OriginHTTP, resp, cached); emitErr != nil {
			p.logger.WithContext(ctx).WithError(emitErr).Warn("Failed to emit merge.completed event")
		}
	}

	return resp, nil
}

// run validates, fingerprints and merges a request, consulting the result cache first.
// The returned bool reports whether the response came from the cache.
func (p *MergeProcessor) run(ctx context.Context, req *models.MergeRequest, origin string) (*models.MergeResponse, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.MergeProcessor.run", attribute.String("merge.origin", origin))
	defer span.End()

	start := time.Now()
	log := p.logger.WithContext(ctx).WithField("origin", origin)

	if err := models.ValidateMergeRequest(req); err != nil {
		tracing.RecordError(span, err)
		p.observe(origin, start, err)
		log.WithError(err).Debug("Rejected merge request")
		return nil, false, err
	}

	opts := req.Options(p.engine.Defaults())
	fp, err := fingerprint.MergeRequest(req, opts)
	if err != nil {
		// the response is still computed, just not cacheable
		log.WithError(err).Warn("Failed to fingerprint merge request")
	}
	span.SetAttributes(attribute.String("merge.fingerprint", fp))

	if cached := p.lookup(ctx, fp); cached != nil {
		p.observe(origin, start, nil)
		metrics.RecordMerge(cached)
		log.WithField("fingerprint", fp).Debug("Serving merge result from cache")
		return cached, true, nil
	}

	resp, err := p.engine.Merge(ctx, req)
	if err != nil {
		tracing.RecordError(span, err)
		p.observe(origin, start, err)
		log.WithError(err).Error("Merge failed")
		return nil, false, err
	}
	resp.Fingerprint = fp

	p.observe(origin, start, nil)
	metrics.RecordMerge(resp)

	if p.store != nil && fp != "" {
		if err := p.store.Set(ctx, fp, resp); err != nil {
			log.WithError(err).Warn("Failed to cache merge result")
		}
	}

	log.WithFields(map[string]any{
		"fingerprint":         fp,
		"total_input":         resp.TotalInput,
		"total_output":        resp.TotalOutput,
		"duplicates_removed":  resp.DuplicatesRemoved,
		"manual_review_count": resp.ManualReviewCount,
	}).Info("Merge completed")

	return resp, false, nil
}

func (p *MergeProcessor) lookup(ctx context.Context, fp string) *models.MergeResponse {
	if p.store == nil || fp == "" {
		return nil
	}

	resp, ok, err := p.store.Get(ctx, fp)
	switch {
	case err != nil:
		metrics.CacheTotal.WithLabelValues("error").Inc()
		p.logger.WithContext(ctx).WithError(err).Warn("Result cache lookup failed")
		return nil
	case !ok:
		metrics.CacheTotal.WithLabelValues("miss").Inc()
		return nil
	default:
		metrics.CacheTotal.WithLabelValues("hit").Inc()
		return resp
	}
}

func (p *MergeProcessor) observe(origin string, start time.Time, err error) {
	metrics.MergeDuration.WithLabelValues(origin).Observe(time.Since(start).Seconds())
	metrics.MergeRequestsTotal.WithLabelValues(status(err), origin).Inc()
}

func status(err error) string {
	switch pkgerrors.Code(err) {
	case "":
		return "success"
	case pkgerrors.CodeInvalidInput:
		return "invalid_input"
	default:
		return "internal_error"
	}
}

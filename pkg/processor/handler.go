package processor

import (
	"context"
	"errors"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	pkgerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// HandleMessage processes one merge job from the request topic.
//
// Every job ends in a merge.completed or merge.failed event. Malformed, invalid and
// record-level failures are reported and the message is committed. The only error returned is a
// failure to publish the outcome, which leaves the message uncommitted; the consumer retries it
// before moving on to later offsets.
func (p *MergeProcessor) HandleMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.MergeProcessor.HandleMessage")
	defer span.End()

	ctx = appctx.SetOrigin(ctx, metrics.OriginKafka)
	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	job, err := msg.ParseMergeJob()
	if err != nil {
		jobID := msg.JobID()
		log.WithError(err).WithField("job_id", jobID).Warn("Dropping malformed merge job")
		metrics.MergeRequestsTotal.WithLabelValues("invalid_input", metrics.OriginKafka).Inc()
		return p.emitFailed(ctx, jobID, err)
	}

	ctx = appctx.SetJobID(ctx, job.JobID)
	log = log.WithField("job_id", job.JobID)

	resp, cached, err := p.run(ctx, &job.Request, metrics.OriginKafka)
	if err != nil {
		log.WithError(err).Warn("Merge job failed")
		return p.emitFailed(ctx, job.JobID, err)
	}

	if p.emitter == nil {
		return nil
	}
	if err := p.emitter.EmitMergeCompleted(ctx, job.JobID, metrics.OriginKafka, resp, cached); err != nil {
		tracing.RecordError(span, err)
		return err
	}
	return nil
}

func (p *MergeProcessor) emitFailed(ctx context.Context, jobID string, cause error) error {
	if p.emitter == nil {
		return nil
	}

	code, message, meta := pkgerrors.CodeInvalidInput, cause.Error(), map[string]any{}
	if !errors.Is(cause, kafka.ErrMalformedMessage) {
		httpErr := pkgerrors.ToHTTPError(cause)
		code = pkgerrors.Code(cause)
		message = httpErr.Error()
		for k, v := range httpErr.Meta {
			if k != "code" {
				meta[k] = v
			}
		}
	}

	return p.emitter.EmitMergeFailed(ctx, jobID, metrics.OriginKafka, code, message, meta)
}

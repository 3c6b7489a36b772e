// Package logging builds the service logger
package logging

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	appctx "github.com/Ramsey-B/clover/pkg/context"
)

// New returns an ectologger backed by zap. Pretty logs use zap's development encoder.
// The returned function flushes buffered entries.
func New(appName, version, level string, pretty bool) (ectologger.Logger, func() error, error) {
	zapConfig := zap.NewProductionConfig()
	if pretty {
		zapConfig = zap.NewDevelopmentConfig()
	}

	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zapConfig.Level = atomicLevel
	zapConfig.InitialFields = map[string]any{
		"service": appName,
		"version": version,
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return zapadapter.NewZapEctoLogger(zapLogger, ContextFields), zapLogger.Sync, nil
}

// ContextFields copies request and job metadata from the message context into its fields.
// Fields set explicitly on the logger win.
func ContextFields(msg ectologger.EctoLogMessage) ectologger.EctoLogMessage {
	if msg.Ctx == nil {
		return msg
	}

	fields := make(map[string]any, len(msg.Fields)+7)
	add := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	add("request_id", appctx.GetRequestID(msg.Ctx))
	add("method", appctx.GetMethod(msg.Ctx))
	add("route", appctx.GetRoute(msg.Ctx))
	add("remote_ip", appctx.GetRemoteIP(msg.Ctx))
	add("job_id", appctx.GetJobID(msg.Ctx))
	add("origin", appctx.GetOrigin(msg.Ctx))
	if sc := trace.SpanContextFromContext(msg.Ctx); sc.HasTraceID() {
		fields["trace_id"] = sc.TraceID().String()
	}

	// copy rather than mutate; sub-loggers share their field map between messages
	for k, v := range msg.Fields {
		fields[k] = v
	}
	msg.Fields = fields
	return msg
}

package tracing

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

func TestTracing(t *testing.T) {
	ctx := context.Background()

	t.Run("no tracer", func(t *testing.T) {
		SetTracer(nil)

		spanCtx, span := StartSpan(ctx, "noop")
		defer span.End()

		assert.Empty(t, GetTraceID(spanCtx))
		assert.Empty(t, GetTraceParent(spanCtx))
		RecordError(nil, errors.New("ignored"))
	})

	t.Run("setup without export still produces trace ids", func(t *testing.T) {
		shutdown, err := Setup(ctx, "clover-api", "test", false, exporters.OTLPConfig{})
		require.NoError(t, err)
		defer func() {
			require.NoError(t, shutdown(ctx))
			SetTracer(nil)
		}()

		spanCtx, span := StartSpan(ctx, "merge")
		defer span.End()

		assert.Len(t, GetTraceID(spanCtx), 32)
		assert.Regexp(t, regexp.MustCompile(`^00-[0-9a-f]{32}-[0-9a-f]{16}-0[01]$`), GetTraceParent(spanCtx))
		assert.NotNil(t, GetActiveSpan(spanCtx))
		assert.Nil(t, GetActiveSpan(ctx))

		RecordError(span, errors.New("boom"))
	})

	t.Run("unknown export protocol", func(t *testing.T) {
		_, err := Setup(ctx, "clover-api", "test", true, exporters.OTLPConfig{Protocol: "carrier-pigeon"})
		assert.Error(t, err)
	})
}

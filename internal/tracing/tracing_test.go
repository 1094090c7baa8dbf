package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/therealutkarshpriyadarshi/ytclipper/internal/config"
)

func TestInitDisabled(t *testing.T) {
	tracer, closer, err := Init(appconfig.TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NotNil(t, tracer)
	assert.NoError(t, closer.Close())
}

func TestSpanHelpers(t *testing.T) {
	tracer := mocktracer.New()
	prev := opentracing.GlobalTracer()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(prev)

	span, ctx := StartSpan(context.Background(), "clipper.extract")
	assert.NotNil(t, opentracing.SpanFromContext(ctx))

	SetTag(span, "video_id", "dQw4w9WgXcQ")
	LogError(span, errors.New("ffmpeg exited with status 1"))
	LogError(span, nil)
	FinishSpan(span)
	FinishSpan(nil)

	finished := tracer.FinishedSpans()
	require.Len(t, finished, 1)
	assert.Equal(t, "clipper.extract", finished[0].OperationName)
	assert.Equal(t, "dQw4w9WgXcQ", finished[0].Tag("video_id"))
	assert.Equal(t, true, finished[0].Tag("error"))
	assert.Len(t, finished[0].Logs(), 1)
}

package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_NoneGivesValidSpans(t *testing.T) {
	tp, err := NewProvider(&Config{ServiceName: "fifo-worker", Exporter: ExporterNone}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
}

func TestNewProvider_StdoutExportsOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewProvider(&Config{ServiceName: "fifo-worker", Exporter: ExporterStdout, SampleRate: 1}, &buf)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "consumer.handle")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "consumer.handle")
	assert.Contains(t, buf.String(), "fifo-worker")
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(&Config{ServiceName: "fifo-worker", Exporter: "zipkin"}, nil)
	assert.EqualError(t, err, "unsupported trace exporter: zipkin")
}

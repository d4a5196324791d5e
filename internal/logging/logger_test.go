package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInfoWritesJSONWithServiceFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "parking-test", "production")

	Info(context.Background(), "spot allocated", "spot_id", "F1-S1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "spot allocated", record["msg"])
	assert.Equal(t, "parking-test", record["service"])
	assert.Equal(t, "production", record["environment"])
	assert.Equal(t, "F1-S1", record["spot_id"])
	assert.NotContains(t, record, "traceId")
}

func TestDebugSuppressedOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "parking-test", "production")

	Debug(context.Background(), "noisy")

	assert.Empty(t, buf.String())
}

func TestWithContextAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "parking-test", "development")

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	Warn(ctx, "overstay")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, span.SpanContext().TraceID().String(), record["traceId"])
	assert.Equal(t, span.SpanContext().SpanID().String(), record["spanId"])
}

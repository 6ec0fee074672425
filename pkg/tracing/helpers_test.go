package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/trace"
)

// recordingExporter keeps every exported span
type recordingExporter struct {
	spans []*trace.SpanData
}

func (e *recordingExporter) ExportSpan(s *trace.SpanData) {
	e.spans = append(e.spans, s)
}

func withRecorder(t *testing.T) *recordingExporter {
	rec := &recordingExporter{}
	trace.RegisterExporter(rec)
	t.Cleanup(func() { trace.UnregisterExporter(rec) })
	return rec
}

func TestStartServiceSpan(t *testing.T) {
	ctx, span := StartServiceSpan(context.Background(), "ContactService", "List")
	defer span.End()

	require.NotNil(t, span)
	assert.Equal(t, span, trace.FromContext(ctx))
}

func TestTraceMethodWithResult(t *testing.T) {
	rec := withRecorder(t)
	sampled := trace.WithSampler(trace.AlwaysSample())
	ctx, root := trace.StartSpan(context.Background(), "root", sampled)
	defer root.End()

	result, err := TraceMethodWithResult(ctx, "BillingService", "ApplyCheckout", func(ctx context.Context) (int, error) {
		return 100, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 100, result)

	testErr := errors.New("boom")
	_, err = TraceMethodWithResult(ctx, "BillingService", "ApplyCheckout", func(ctx context.Context) (int, error) {
		return 0, testErr
	})
	assert.Equal(t, testErr, err)

	require.Len(t, rec.spans, 2)
	assert.Equal(t, "BillingService.ApplyCheckout", rec.spans[0].Name)
	assert.Equal(t, int32(trace.StatusCodeOK), rec.spans[0].Status.Code)
	assert.Equal(t, int32(trace.StatusCodeUnknown), rec.spans[1].Status.Code)
	assert.Equal(t, "boom", rec.spans[1].Status.Message)
}

func TestAddAttributeAndMarkSpanError(t *testing.T) {
	rec := withRecorder(t)
	ctx, span := trace.StartSpan(context.Background(), "test", trace.WithSampler(trace.AlwaysSample()))

	AddAttribute(ctx, "user_id", "user-1")
	AddAttribute(ctx, "count", 3)
	AddAttribute(ctx, "duration", int64(12))
	AddAttribute(ctx, "cached", true)
	AddAttribute(ctx, "other", struct{ Name string }{"x"})
	MarkSpanError(ctx, nil)
	MarkSpanError(ctx, errors.New("failed"))
	span.End()

	require.Len(t, rec.spans, 1)
	attrs := rec.spans[0].Attributes
	assert.Equal(t, "user-1", attrs["user_id"])
	assert.Equal(t, int64(3), attrs["count"])
	assert.Equal(t, true, attrs["cached"])
	assert.Equal(t, "{x}", attrs["other"])
	assert.Equal(t, "failed", rec.spans[0].Status.Message)

	// no span in context
	AddAttribute(context.Background(), "key", "value")
	MarkSpanError(context.Background(), errors.New("ignored"))
}

func TestEndSpan(t *testing.T) {
	_, span := trace.StartSpan(context.Background(), "test")
	EndSpan(span, nil)

	_, span = trace.StartSpan(context.Background(), "test-with-error")
	EndSpan(span, errors.New("test error"))
}

func TestWrapHTTPClient(t *testing.T) {
	client := WrapHTTPClient(nil)
	assert.Equal(t, 30*time.Second, client.Timeout)
	assert.NotNil(t, client.Transport)

	wrapped := WrapHTTPClient(&http.Client{Timeout: time.Minute})
	assert.Equal(t, time.Minute, wrapped.Timeout)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	resp, err := wrapped.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

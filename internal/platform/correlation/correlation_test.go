package correlation

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_Format(t *testing.T) {
	id := NewID()
	assert.Len(t, id, 8)
	assert.NotEqual(t, id, NewID())
}

func TestWithID_RoundTrip(t *testing.T) {
	ctx := WithID(context.Background(), "abcd1234")
	id, ok := ID(ctx)
	require.True(t, ok)
	assert.Equal(t, "abcd1234", id)
}

func TestID_Absent(t *testing.T) {
	_, ok := ID(context.Background())
	assert.False(t, ok)
}

func TestEnsure(t *testing.T) {
	ctx := Ensure(context.Background())
	id, ok := ID(ctx)
	require.True(t, ok)
	assert.NotEmpty(t, id)

	// Existing ID is preserved
	again := Ensure(ctx)
	id2, _ := ID(again)
	assert.Equal(t, id, id2)
}

func TestStamp(t *testing.T) {
	req, err := http.NewRequestWithContext(WithID(context.Background(), "deadbeef"), http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)

	Stamp(req)
	assert.Equal(t, "deadbeef", req.Header.Get(HeaderName))
}

func TestStamp_NoID(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)

	Stamp(req)
	assert.Empty(t, req.Header.Get(HeaderName))
}

func TestHandler_InjectsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	handler := NewHandler(slog.NewJSONHandler(&buf, nil))
	logger := slog.New(handler)

	ctx := WithID(context.Background(), "cafe0123")
	logger.InfoContext(ctx, "hello")

	assert.Contains(t, buf.String(), `"correlation_id":"cafe0123"`)
}

func TestHandler_NoIDInContext(t *testing.T) {
	var buf bytes.Buffer
	handler := NewHandler(slog.NewJSONHandler(&buf, nil))
	logger := slog.New(handler)

	logger.InfoContext(context.Background(), "hello")

	assert.NotContains(t, buf.String(), "correlation_id")
}

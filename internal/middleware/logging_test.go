package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/pokearena/internal/testutil"
)

func TestLogging_RecordsRequest(t *testing.T) {
	var buf bytes.Buffer
	h := Logging(testutil.BufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		AddLogAttrs(r.Context(), slog.String("user_id", "u1"))
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hello"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http request", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "/api/v1/health", line["path"])
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
	assert.Equal(t, float64(5), line["size"])
	assert.Equal(t, "u1", line["user_id"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, rec.Header().Get(RequestIDHeader), line["request_id"])
}

func TestLogging_KeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	h := Logging(testutil.BufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestAddLogAttrs_OutsideMiddleware(t *testing.T) {
	assert.NotPanics(t, func() {
		AddLogAttrs(httptest.NewRequest(http.MethodGet, "/", nil).Context(), slog.String("k", "v"))
	})
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	h := Recovery(testutil.BufferLogger(&buf), DefaultPanicHandler)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/battles", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "boom")
}

func TestRecovery_AfterWriteLeavesResponse(t *testing.T) {
	var buf bytes.Buffer
	called := false
	h := Recovery(testutil.BufferLogger(&buf), func(w http.ResponseWriter, r *http.Request, err any) {
		called = true
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("event: connected\n\n"))
		panic("stream broke")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), `"response_started":true`)
}

func TestRecovery_AbortHandlerRepanics(t *testing.T) {
	h := Recovery(testutil.BufferLogger(&bytes.Buffer{}), DefaultPanicHandler)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

package httputil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rxdesk/pharmacy-api/internal/pkg/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggedRouter(buf *bytes.Buffer) http.Handler {
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLoggerMiddleware(logger))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { Text(w, http.StatusOK, "OK") })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		Text(w, http.StatusServiceUnavailable, "Database unavailable")
	})
	r.Get("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		ctxlog.FromContext(r.Context()).Debug("loading product")
		Error(w, http.StatusNotFound, "product not found")
	})
	r.Get("/api/fail", func(w http.ResponseWriter, _ *http.Request) {
		Error(w, http.StatusInternalServerError, "internal error")
	})
	r.Get("/api/plain", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &line))
		lines = append(lines, line)
	}
	return lines
}

func TestRequestLoggerMiddleware_Levels(t *testing.T) {
	tests := []struct {
		path       string
		wantLevel  string
		wantStatus float64
	}{
		{path: "/api/plain", wantLevel: "INFO", wantStatus: 200},
		{path: "/api/products/PROD001", wantLevel: "WARN", wantStatus: 404},
		{path: "/api/fail", wantLevel: "ERROR", wantStatus: 500},
		{path: "/readyz", wantLevel: "ERROR", wantStatus: 503},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var buf bytes.Buffer
			router := newLoggedRouter(&buf)

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			lines := logLines(t, &buf)
			require.NotEmpty(t, lines)
			access := lines[len(lines)-1]
			assert.Equal(t, "http request", access["msg"])
			assert.Equal(t, tt.wantLevel, access["level"])
			assert.Equal(t, tt.wantStatus, access["status"])
			assert.Equal(t, tt.path, access["path"])
			assert.NotEmpty(t, access["request_id"])
		})
	}
}

func TestRequestLoggerMiddleware_HandlerLogsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	router := newLoggedRouter(&buf)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/PROD001", nil))

	lines := logLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "loading product", lines[0]["msg"])
	assert.Equal(t, lines[1]["request_id"], lines[0]["request_id"])
}

func TestRequestLoggerMiddleware_QuietHealthProbe(t *testing.T) {
	var buf bytes.Buffer
	router := newLoggedRouter(&buf)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, buf.String())
}

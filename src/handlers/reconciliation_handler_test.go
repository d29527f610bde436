package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/riconcilia/src/database/dbtest"
	"github.com/username/riconcilia/src/logger"
	"github.com/username/riconcilia/src/services"
)

type fakeService struct {
	got    services.RunConfig
	result *services.RunResult
	err    error
}

func (f *fakeService) Run(_ context.Context, cfg services.RunConfig) (*services.RunResult, error) {
	f.got = cfg
	return f.result, f.err
}

func newRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/reconciliations", strings.NewReader(body))
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ContextualLoggerMiddleware(h).ServeHTTP(rec, req)
	return rec
}

func TestHandleRun_Success(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "maggio"), 0o700))

	svc := &fakeService{result: &services.RunResult{RunID: "r", InstallationsProcessed: 3}}
	h := NewReconciliationHandler(svc, root, 1024)

	rec := serve(http.HandlerFunc(h.HandleRun), newRequest(`{"input_dir":"maggio"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["installations_processed"])

	wantDir, err := filepath.Abs(filepath.Join(root, "maggio"))
	require.NoError(t, err)
	assert.Equal(t, wantDir, svc.got.InputDir)
	assert.NotEmpty(t, svc.got.RunID, "the request id tags the run")
}

func TestHandleRun_BadRequests(t *testing.T) {
	root := t.TempDir()
	svc := &fakeService{result: &services.RunResult{}}
	h := NewReconciliationHandler(svc, root, 64)

	tests := map[string]string{
		"malformed json": `{"input_dir":`,
		"unknown field":  `{"dir":"x"}`,
		"empty dir":      `{"input_dir":""}`,
		"escapes root":   `{"input_dir":"../../etc"}`,
		"missing dir":    `{"input_dir":"nope"}`,
		"too large":      fmt.Sprintf(`{"input_dir":"%s"}`, strings.Repeat("a", 100)),
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := serve(http.HandlerFunc(h.HandleRun), newRequest(body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		})
	}
}

func TestHandleRun_ErrorMapping(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "in"), 0o700))

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"busy", services.ErrRunInProgress, http.StatusConflict},
		{"no export", services.ErrTheoreticalExportMissing, http.StatusUnprocessableEntity},
		{"empty export", fmt.Errorf("%w: sheet is empty", services.ErrNoTheoreticalData), http.StatusUnprocessableEntity},
		{"store failure", errors.New("disk I/O error"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewReconciliationHandler(&fakeService{err: tt.err}, root, 1024)
			rec := serve(http.HandlerFunc(h.HandleRun), newRequest(`{"input_dir":"in"}`))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestHealthHandler(t *testing.T) {
	db := dbtest.New(t)
	rec := serve(NewHealthHandler(db), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev, prevDefault := logger.L, slog.Default()
	t.Cleanup(func() {
		logger.L = prev
		slog.SetDefault(prevDefault)
	})
	var buf bytes.Buffer
	logger.InitLoggerTo(&buf, "info")
	buf.Reset()
	return &buf
}

func logEntries(t *testing.T, buf *bytes.Buffer, msg string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == msg {
			out = append(out, entry)
		}
	}
	return out
}

func TestHandleRun_LogsWithRequestID(t *testing.T) {
	buf := captureLogs(t)
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "in"), 0o700))

	svc := &fakeService{result: &services.RunResult{InstallationsProcessed: 2}}
	h := NewReconciliationHandler(svc, root, 1024)
	rec := serve(http.HandlerFunc(h.HandleRun), newRequest(`{"input_dir":"in"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	done := logEntries(t, buf, "Reconciliation run completed")
	require.Len(t, done, 1)
	assert.Equal(t, "INFO", done[0]["level"])
	assert.Equal(t, svc.got.RunID, done[0]["requestID"])
	assert.Equal(t, float64(2), done[0]["installations"])

	h = NewReconciliationHandler(&fakeService{err: errors.New("disk I/O error")}, root, 1024)
	rec = serve(http.HandlerFunc(h.HandleRun), newRequest(`{"input_dir":"in"}`))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	failed := logEntries(t, buf, "Reconciliation run failed")
	require.Len(t, failed, 1)
	assert.Equal(t, "ERROR", failed[0]["level"])
	assert.NotEmpty(t, failed[0]["requestID"])

	rec = serve(http.HandlerFunc(h.HandleRun), newRequest(`{"input_dir":`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	bad := logEntries(t, buf, "Invalid reconciliation request body")
	require.Len(t, bad, 1)
	assert.Equal(t, "WARN", bad[0]["level"])
}

package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracewire-systems/wsrecorder/internal/diag"
	"github.com/tracewire-systems/wsrecorder/internal/format"
	"github.com/tracewire-systems/wsrecorder/internal/logging"
	"github.com/tracewire-systems/wsrecorder/internal/models"
	"github.com/tracewire-systems/wsrecorder/internal/recorder"
	"github.com/tracewire-systems/wsrecorder/internal/sink"
)

func newTestHandler(t *testing.T) (*ControlHandler, *recorder.Recorder, string) {
	t.Helper()
	logger := &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	reporter := diag.NewReporter(logger.Logger, 100)

	path := filepath.Join(t.TempDir(), "out.xml")
	mgr := sink.NewManager()
	require.NoError(t, mgr.Open(path, format.XML))

	rec := recorder.New(logger, reporter, mgr, format.DefaultOptions())
	t.Cleanup(func() { rec.Close() })

	return NewControlHandler(rec, reporter), rec, path
}

func wireOptions(rec *recorder.Recorder) Options {
	return optionsToWire(rec.Options(), rec.Recording())
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

func TestHandleOptionsGet(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	h.HandleOptions(w, httptest.NewRequest(http.MethodGet, "/api/v1/options", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got Options
	decodeJSON(t, w, &got)
	assert.True(t, got.Recording)
	assert.Equal(t, "xml", got.Format)
	assert.Equal(t, "C-S", got.DirectionLabelCS)
	assert.Equal(t, "S-C", got.DirectionLabelSC)
	assert.True(t, got.IncludeData)
}

func TestHandleOptionsPutUpdatesSnapshot(t *testing.T) {
	h, rec, _ := newTestHandler(t)

	req := wireOptions(rec)
	req.Recording = false
	req.DirectionLabelCS = "out"
	req.IncludeTime = false

	body, err := json.Marshal(req)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.HandleOptions(w, httptest.NewRequest(http.MethodPut, "/api/v1/options", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	assert.False(t, rec.Recording())
	assert.Equal(t, "out", rec.Options().DirectionLabelCS)
	assert.False(t, rec.Options().IncludeTime)
}

func TestHandleOptionsPutRejectsRaw(t *testing.T) {
	h, rec, _ := newTestHandler(t)

	req := wireOptions(rec)
	req.Format = "raw"
	body, err := json.Marshal(req)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.HandleOptions(w, httptest.NewRequest(http.MethodPut, "/api/v1/options", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, format.XML, rec.Options().Format)
}

func TestHandleOptionsPutRejectsUnknownFormat(t *testing.T) {
	h, rec, _ := newTestHandler(t)

	req := wireOptions(rec)
	req.Format = "yaml"
	body, err := json.Marshal(req)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.HandleOptions(w, httptest.NewRequest(http.MethodPut, "/api/v1/options", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, format.XML, rec.Options().Format)
}

func TestHandleOptionsPutFormatChangeNeedsNewPath(t *testing.T) {
	h, rec, origPath := newTestHandler(t)

	req := wireOptions(rec)
	req.Format = "json"
	body, err := json.Marshal(req)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.HandleOptions(w, httptest.NewRequest(http.MethodPut, "/api/v1/options", bytes.NewReader(body)))
	assert.Equal(t, http.StatusConflict, w.Code)

	// Previous options and sink stay in effect.
	assert.Equal(t, format.XML, rec.Options().Format)
	path, f, open := rec.CurrentOutput()
	require.True(t, open)
	assert.Equal(t, origPath, path)
	assert.Equal(t, format.XML, f)
}

func TestHandleOptionsPutFormatChangeWithNewPath(t *testing.T) {
	h, rec, _ := newTestHandler(t)

	req := wireOptions(rec)
	req.Format = "json"
	req.OutputPath = filepath.Join(t.TempDir(), "out.json")
	body, err := json.Marshal(req)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.HandleOptions(w, httptest.NewRequest(http.MethodPut, "/api/v1/options", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, format.JSON, rec.Options().Format)
	path, f, open := rec.CurrentOutput()
	require.True(t, open)
	assert.Equal(t, req.OutputPath, path)
	assert.Equal(t, format.JSON, f)
}

func TestHandleOptionsPutInvalidBody(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	h.HandleOptions(w, httptest.NewRequest(http.MethodPut, "/api/v1/options", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleOptionsMethodNotAllowed(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	h.HandleOptions(w, httptest.NewRequest(http.MethodDelete, "/api/v1/options", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleOutputSwapsFile(t *testing.T) {
	h, rec, origPath := newTestHandler(t)

	newPath := filepath.Join(t.TempDir(), "next.xml")
	body, err := json.Marshal(map[string]string{"path": newPath})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.HandleOutput(w, httptest.NewRequest(http.MethodPut, "/api/v1/output", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	decodeJSON(t, w, &resp)
	assert.Equal(t, newPath, resp["path"])
	assert.Equal(t, "xml", resp["format"])

	path, _, _ := rec.CurrentOutput()
	assert.Equal(t, newPath, path)
	assert.NotEqual(t, origPath, path)
}

func TestHandleOutputRejectsEmptyPath(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	h.HandleOutput(w, httptest.NewRequest(http.MethodPut, "/api/v1/output", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleOutputSwapFailureKeepsOldSink(t *testing.T) {
	h, rec, origPath := newTestHandler(t)

	bad := filepath.Join(t.TempDir(), "missing", "next.xml")
	body, err := json.Marshal(map[string]string{"path": bad})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.HandleOutput(w, httptest.NewRequest(http.MethodPut, "/api/v1/output", bytes.NewReader(body)))
	assert.Equal(t, http.StatusConflict, w.Code)

	path, _, open := rec.CurrentOutput()
	require.True(t, open)
	assert.Equal(t, origPath, path)
}

func TestHandleStatus(t *testing.T) {
	h, rec, origPath := newTestHandler(t)

	id := rec.OnConnected("wss://example.com")
	rec.OnTextMessage(id, "hello", models.ClientToServer)

	w := httptest.NewRecorder()
	h.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var status Status
	decodeJSON(t, w, &status)
	assert.True(t, status.Recording)
	assert.Equal(t, origPath, status.OutputPath)
	assert.Equal(t, "xml", status.OutputFormat)
	assert.Equal(t, int64(1), status.Stats.Connections)
	assert.Equal(t, int64(1), status.Stats.RecordedEvents)
}

func TestHandleErrors(t *testing.T) {
	h, rec, _ := newTestHandler(t)

	// Force a serialization failure so the reporter has something to show.
	opts := rec.Options()
	opts.Format = format.Raw
	rec.Reconfigure(opts)
	id := rec.OnConnected("wss://example.com")
	rec.OnTextMessage(id, "dropped", models.ClientToServer)

	w := httptest.NewRecorder()
	h.HandleErrors(w, httptest.NewRequest(http.MethodGet, "/api/v1/errors", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Errors []diag.ErrorEvent `json:"errors"`
	}
	decodeJSON(t, w, &resp)
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0].Message, "serialize")
}

func TestHealthAndReady(t *testing.T) {
	h, rec, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.Ready(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// After shutdown the sink is gone and readiness fails.
	require.NoError(t, rec.Close())
	w = httptest.NewRecorder()
	h.Ready(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

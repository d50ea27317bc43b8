// Package handlers exposes the recorder's configuration surface over HTTP:
// the standalone replacement for the original settings panel.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tracewire-systems/wsrecorder/internal/diag"
	"github.com/tracewire-systems/wsrecorder/internal/format"
	"github.com/tracewire-systems/wsrecorder/internal/httputil"
	"github.com/tracewire-systems/wsrecorder/internal/models"
	"github.com/tracewire-systems/wsrecorder/internal/recorder"
)

// Options is the wire representation of a formatting snapshot.
type Options struct {
	Recording        bool   `json:"recording"`
	Format           string `json:"format"`
	IncludeID        bool   `json:"include_id"`
	IncludeDirection bool   `json:"include_direction"`
	IncludeURL       bool   `json:"include_url"`
	IncludeTime      bool   `json:"include_time"`
	IncludeData      bool   `json:"include_data"`
	DirectionLabelCS string `json:"direction_label_cs"`
	DirectionLabelSC string `json:"direction_label_sc"`
	TimeFormat       string `json:"time_format"`
	BinaryAsBase64   bool   `json:"binary_as_base64"`
	UseCDATA         bool   `json:"use_cdata"`

	// OutputPath, when set on an update, swaps the output file before the
	// options take effect. Required when the format changes.
	OutputPath string `json:"output_path,omitempty"`
}

// Status is the wire representation of the recorder's runtime state.
type Status struct {
	Recording    bool                 `json:"recording"`
	OutputPath   string               `json:"output_path"`
	OutputFormat string               `json:"output_format"`
	QueueDepth   int                  `json:"queue_depth"`
	Stats        models.RecorderStats `json:"stats"`
}

// ControlHandler serves the recorder control API.
type ControlHandler struct {
	recorder *recorder.Recorder
	reporter *diag.Reporter
}

func NewControlHandler(rec *recorder.Recorder, reporter *diag.Reporter) *ControlHandler {
	return &ControlHandler{
		recorder: rec,
		reporter: reporter,
	}
}

// HandleOptions serves GET (current snapshot) and PUT (replace snapshot,
// optionally swapping the output file first).
func (h *ControlHandler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSON(w, http.StatusOK, optionsToWire(h.recorder.Options(), h.recorder.Recording()))
	case http.MethodPut:
		h.updateOptions(w, r)
	default:
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *ControlHandler) updateOptions(w http.ResponseWriter, r *http.Request) {
	var req Options
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid options payload")
		return
	}

	f, err := format.ParseFormat(req.Format)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f == format.Raw {
		httputil.WriteError(w, http.StatusBadRequest, format.ErrRawNotImplemented.Error())
		return
	}
	if req.TimeFormat == "" {
		httputil.WriteError(w, http.StatusBadRequest, "time_format must not be empty")
		return
	}

	opts := format.Options{
		Format:           f,
		IncludeID:        req.IncludeID,
		IncludeDirection: req.IncludeDirection,
		IncludeURL:       req.IncludeURL,
		IncludeTime:      req.IncludeTime,
		IncludeData:      req.IncludeData,
		DirectionLabelCS: req.DirectionLabelCS,
		DirectionLabelSC: req.DirectionLabelSC,
		TimeFormat:       req.TimeFormat,
		BinaryAsBase64:   req.BinaryAsBase64,
		UseCDATA:         req.UseCDATA,
	}

	// Failure leaves the previous options and sink in effect; the caller
	// rolls back its pending change, as the original settings panel did.
	if err := h.recorder.ApplyOptions(opts, req.OutputPath); err != nil {
		httputil.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	h.recorder.SetRecording(req.Recording)

	httputil.WriteJSON(w, http.StatusOK, optionsToWire(h.recorder.Options(), h.recorder.Recording()))
}

// HandleOutput swaps the output file, keeping the current format.
func (h *ControlHandler) HandleOutput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		httputil.WriteError(w, http.StatusBadRequest, "path is required")
		return
	}

	if err := h.recorder.ChangeOutput(req.Path); err != nil {
		httputil.WriteError(w, http.StatusConflict, err.Error())
		return
	}

	path, f, _ := h.recorder.CurrentOutput()
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"path":   path,
		"format": f.String(),
	})
}

// HandleStatus reports counters, queue depth and the current output file.
func (h *ControlHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path, f, open := h.recorder.CurrentOutput()
	status := Status{
		Recording:  h.recorder.Recording(),
		QueueDepth: h.recorder.QueueDepth(),
		Stats:      h.recorder.Stats(),
	}
	if open {
		status.OutputPath = path
		status.OutputFormat = f.String()
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// HandleErrors returns the retained operator-visible error events.
func (h *ControlHandler) HandleErrors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"errors": h.reporter.Recent(),
	})
}

// Health reports liveness.
func (h *ControlHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready reports readiness: the recorder must have an open sink.
func (h *ControlHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, _, open := h.recorder.CurrentOutput(); !open {
		httputil.WriteError(w, http.StatusServiceUnavailable, "no output sink open")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func optionsToWire(opts format.Options, recording bool) Options {
	return Options{
		Recording:        recording,
		Format:           opts.Format.String(),
		IncludeID:        opts.IncludeID,
		IncludeDirection: opts.IncludeDirection,
		IncludeURL:       opts.IncludeURL,
		IncludeTime:      opts.IncludeTime,
		IncludeData:      opts.IncludeData,
		DirectionLabelCS: opts.DirectionLabelCS,
		DirectionLabelSC: opts.DirectionLabelSC,
		TimeFormat:       opts.TimeFormat,
		BinaryAsBase64:   opts.BinaryAsBase64,
		UseCDATA:         opts.UseCDATA,
	}
}

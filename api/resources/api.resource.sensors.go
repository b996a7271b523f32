// FilePath: api/resources/api.resource.sensors.go
package resources

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/smartir/hub/internal/errors"
	"github.com/smartir/hub/internal/hubservice"
	"github.com/smartir/hub/internal/models"
	"github.com/smartir/hub/internal/stream"
	nuts "github.com/vaudience/go-nuts"
)

// SensorHandlers encapsulates the device-facing and dashboard-facing
// sensor endpoints.
type SensorHandlers struct {
	hubservice *hubservice.HubService
	registry   *stream.Registry
}

type ingestRequest struct {
	SensorID string               `json:"sensor_id"`
	Detected models.DetectionFlag `json:"detected"`
}

type ingestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	LogID   int64  `json:"log_id"`
}

// @Summary Ingest a detection report
// @Description Record a detection/clear observation pushed by a device; unknown devices are auto-registered
// @Tags sensor
// @Accept json
// @Produce json
// @Param report body ingestRequest true "Device report"
// @Success 201 {object} ingestResponse
// @Failure 400 {object} errors.APIError
// @Failure 500 {object} errors.APIError
// @Router /sensor/data [post]
func (h *SensorHandlers) IngestData(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	log, _, err := h.hubservice.RecordDetection(r.Context(), req.SensorID, bool(req.Detected))
	if err != nil {
		respondWithError(w, asAPIError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusCreated, ingestResponse{
		Success: true,
		Message: "Data received",
		LogID:   log.ID,
	})
}

// @Summary Live update stream
// @Description Server-sent event stream of detection updates; the first event is always type "connected"
// @Tags sensor
// @Produce text/event-stream
// @Success 200
// @Router /sensor/stream [get]
func (h *SensorHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, errors.NewInternalError("streaming unsupported", nil))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	id, events := h.registry.Subscribe()
	defer h.registry.Unsubscribe(id)

	for {
		select {
		case <-r.Context().Done():
			return
		case payload, ok := <-events:
			if !ok {
				// Dropped by the registry (stalled queue).
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// @Summary Detection statistics
// @Tags sensor
// @Produce json
// @Success 200 {object} hubservice.DetectionStats
// @Router /sensor/stats [get]
// @Security BearerAuth
func (h *SensorHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	stats, err := h.hubservice.Stats(r.Context())
	if err != nil {
		respondWithError(w, asAPIError(err, requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// @Summary Hourly detection activity for today
// @Tags sensor
// @Produce json
// @Success 200 {object} hubservice.HourlyActivity
// @Router /sensor/activity/hourly [get]
// @Security BearerAuth
func (h *SensorHandlers) Activity(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	activity, err := h.hubservice.Activity(r.Context())
	if err != nil {
		respondWithError(w, asAPIError(err, requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, activity)
}

type logsQuery struct {
	Limit int `schema:"limit"`
}

// @Summary Recent observation log
// @Tags sensor
// @Produce json
// @Param limit query int false "Maximum entries (default 10)"
// @Success 200 {object} map[string][]models.SensorLogEntry
// @Router /sensor/logs [get]
// @Security BearerAuth
func (h *SensorHandlers) RecentLogs(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var query logsQuery
	if err := queryDecoder.Decode(&query, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	entries, err := h.hubservice.RecentLogs(r.Context(), query.Limit)
	if err != nil {
		respondWithError(w, asAPIError(err, requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": entries})
}

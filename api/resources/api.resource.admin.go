// FilePath: api/resources/api.resource.admin.go
package resources

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/smartir/hub/api/middleware"
	"github.com/smartir/hub/internal/errors"
	"github.com/smartir/hub/internal/hubservice"
	"github.com/smartir/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// AdminHandlers encapsulates the admin-gated CRUD and maintenance
// endpoints. Role enforcement happens in the router middleware.
type AdminHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary List accounts
// @Tags admin
// @Produce json
// @Success 200 {array} models.User
// @Router /admin/users [get]
// @Security BearerAuth
func (h *AdminHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	users, err := h.hubservice.Users.List(r.Context())
	if err != nil {
		respondWithError(w, asAPIError(err, requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

// @Summary Toggle an account's active flag
// @Description Flips is_active; admins cannot deactivate their own account
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.APIError
// @Router /admin/users/{id}/toggle [patch]
// @Security BearerAuth
func (h *AdminHandlers) ToggleUser(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, errors.NewValidationError("invalid user id", err).WithRequestID(requestID))
		return
	}

	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		if selfID, err := claims.UserID(); err == nil && selfID == id {
			respondWithError(w, errors.NewValidationError("you cannot deactivate your own account", nil).WithRequestID(requestID))
			return
		}
	}

	user, err := h.hubservice.Users.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, asAPIError(err, requestID))
		return
	}

	active := !user.IsActive
	if err := h.hubservice.Users.SetActive(r.Context(), id, active); err != nil {
		respondWithError(w, asAPIError(err, requestID))
		return
	}

	state := "Inactive"
	if active {
		state = "Active"
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":   fmt.Sprintf("User %s is now %s", user.Username, state),
		"is_active": active,
	})
}

// @Summary List sensors
// @Tags admin
// @Produce json
// @Success 200 {array} models.Sensor
// @Router /admin/sensors [get]
// @Security BearerAuth
func (h *AdminHandlers) ListSensors(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	sensors, err := h.hubservice.Sensors.List(r.Context())
	if err != nil {
		respondWithError(w, asAPIError(err, requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, sensors)
}

// @Summary Update a sensor
// @Description Admin edit of location and/or status
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Sensor ID"
// @Param update body models.SensorUpdate true "Fields to change"
// @Success 200 {object} models.Sensor
// @Failure 404 {object} errors.APIError
// @Router /admin/sensors/{id} [patch]
// @Security BearerAuth
func (h *AdminHandlers) UpdateSensor(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, errors.NewValidationError("invalid sensor id", err).WithRequestID(requestID))
		return
	}

	var update models.SensorUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	sensor, err := h.hubservice.UpdateSensor(r.Context(), id, update)
	if err != nil {
		respondWithError(w, asAPIError(err, requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Sensor updated",
		"sensor":  sensor,
	})
}

type cleanupQuery struct {
	Days int `schema:"days"`
}

// @Summary Delete old observations
// @Description Removes logs older than now minus days; idempotent
// @Tags admin
// @Produce json
// @Param days query int false "Retention age in days (default 30)"
// @Success 200 {object} map[string]interface{}
// @Router /admin/logs/cleanup [delete]
// @Security BearerAuth
func (h *AdminHandlers) CleanupLogs(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	query := cleanupQuery{Days: 30}
	if err := queryDecoder.Decode(&query, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	deleted, err := h.hubservice.Cleanup.PurgeOldLogs(r.Context(), query.Days)
	if err != nil {
		respondWithError(w, asAPIError(err, requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Cleanup completed",
		"deleted": deleted,
	})
}

// exportLimit caps CSV exports.
const exportLimit = 10000

// @Summary Export observations as CSV
// @Tags admin
// @Produce text/csv
// @Success 200
// @Router /admin/export/logs [get]
// @Security BearerAuth
func (h *AdminHandlers) ExportLogs(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	entries, err := h.hubservice.RecentLogs(r.Context(), exportLimit)
	if err != nil {
		respondWithError(w, asAPIError(err, requestID))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=sensor_logs_%d.csv", time.Now().Unix()))

	writer := csv.NewWriter(w)
	writer.Write([]string{"ID", "Sensor Code", "Location", "Detected", "Timestamp"})
	for _, entry := range entries {
		code, location := "DELETED", "UNKNOWN"
		if entry.SensorCode != nil {
			code = *entry.SensorCode
		}
		if entry.Location != nil {
			location = *entry.Location
		}
		writer.Write([]string{
			strconv.FormatInt(entry.ID, 10),
			code,
			location,
			strconv.FormatBool(entry.Detected),
			entry.Timestamp.Format(time.RFC3339),
		})
	}
	writer.Flush()
}

// @Summary Admin dashboard counts
// @Tags admin
// @Produce json
// @Success 200 {object} hubservice.DashboardCounts
// @Router /admin/dashboard [get]
// @Security BearerAuth
func (h *AdminHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	counts, err := h.hubservice.Dashboard(r.Context())
	if err != nil {
		respondWithError(w, asAPIError(err, requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, counts)
}

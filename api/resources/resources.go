// FilePath: api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/smartir/hub/internal/auth"
	"github.com/smartir/hub/internal/errors"
	"github.com/smartir/hub/internal/hubservice"
	"github.com/smartir/hub/internal/stream"
	nuts "github.com/vaudience/go-nuts"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Sensors *SensorHandlers
	Auth    *AuthHandlers
	Admin   *AdminHandlers
}

// NewResources creates a new Resources instance
func NewResources(svc *hubservice.HubService, registry *stream.Registry, gate *auth.Gate) *Resources {
	return &Resources{
		Sensors: &SensorHandlers{hubservice: svc, registry: registry},
		Auth:    &AuthHandlers{hubservice: svc, gate: gate},
		Admin:   &AdminHandlers{hubservice: svc},
	}
}

// queryDecoder decodes URL query parameters into filter structs.
var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// asAPIError passes structured errors through and wraps anything else as an
// internal fault, so no raw error detail reaches a client.
func asAPIError(err error, requestID string) *errors.APIError {
	if apiErr, ok := err.(*errors.APIError); ok {
		return apiErr.WithRequestID(requestID)
	}
	return errors.NewInternalError("internal server error", err).WithRequestID(requestID)
}

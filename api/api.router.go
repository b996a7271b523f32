package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/smartir/hub/api/middleware"
	"github.com/smartir/hub/api/resources"
	"github.com/smartir/hub/internal/auth"
	"github.com/smartir/hub/internal/hubservice"
	"github.com/smartir/hub/internal/models"
	"github.com/smartir/hub/internal/stream"
)

type Router struct {
	router    *mux.Router
	handler   http.Handler
	auth      *middleware.AuthMiddleware
	resources *resources.Resources
	health    http.HandlerFunc
}

func NewRouter(svc *hubservice.HubService, registry *stream.Registry, gate *auth.Gate, health http.HandlerFunc) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewAuthMiddleware(gate),
		resources: resources.NewResources(svc, registry, gate),
		health:    health,
	}

	r.setupRoutes()

	// CORS policy the dashboard frontend relies on.
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	r.handler = cors(r.router)
	return r
}

func (r *Router) setupRoutes() {
	api := r.router.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/health", r.health).Methods(http.MethodGet)
	api.HandleFunc("/sensor/data", r.resources.Sensors.IngestData).Methods(http.MethodPost)
	api.HandleFunc("/sensor/stream", r.resources.Sensors.Stream).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", r.resources.Auth.Login).Methods(http.MethodPost)

	// Authenticated dashboard routes
	authed := r.auth.Authenticate
	api.Handle("/sensor/stats", authed(http.HandlerFunc(r.resources.Sensors.Stats))).Methods(http.MethodGet)
	api.Handle("/sensor/activity/hourly", authed(http.HandlerFunc(r.resources.Sensors.Activity))).Methods(http.MethodGet)
	api.Handle("/sensor/logs", authed(http.HandlerFunc(r.resources.Sensors.RecentLogs))).Methods(http.MethodGet)

	// Account creation is admin-only
	adminOnly := r.auth.RequireRoles(models.RoleAdmin)
	api.Handle("/auth/register", authed(adminOnly(http.HandlerFunc(r.resources.Auth.Register)))).Methods(http.MethodPost)

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.auth.Authenticate, adminOnly)
	admin.HandleFunc("/users", r.resources.Admin.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/toggle", r.resources.Admin.ToggleUser).Methods(http.MethodPatch)
	admin.HandleFunc("/sensors", r.resources.Admin.ListSensors).Methods(http.MethodGet)
	admin.HandleFunc("/sensors/{id}", r.resources.Admin.UpdateSensor).Methods(http.MethodPatch)
	admin.HandleFunc("/logs/cleanup", r.resources.Admin.CleanupLogs).Methods(http.MethodDelete)
	admin.HandleFunc("/export/logs", r.resources.Admin.ExportLogs).Methods(http.MethodGet)
	admin.HandleFunc("/dashboard", r.resources.Admin.Dashboard).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/smartir/hub/api"
	"github.com/smartir/hub/internal/auth"
	"github.com/smartir/hub/internal/config"
	"github.com/smartir/hub/internal/database"
	"github.com/smartir/hub/internal/hubservice"
	"github.com/smartir/hub/internal/monitoring"
	"github.com/smartir/hub/internal/repository"
	"github.com/smartir/hub/internal/repository/memory"
	"github.com/smartir/hub/internal/repository/postgres"
	"github.com/smartir/hub/internal/stream"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	hubservice *hubservice.HubService
	registry   *stream.Registry
	monitoring *monitoring.Service
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout deliberately stays at the configured value, which
		// defaults to zero: the SSE stream endpoint holds its response
		// open for the lifetime of the client connection.
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config: cfg,
		srv:    srv,
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Initialize services
	s.registry = stream.NewRegistry(s.config.Stream.SubscriberBuffer)
	s.monitoring = monitoring.NewService()
	s.hubservice = s.initializeHubService()

	gate := auth.NewGate(s.hubservice.Users, s.config.Auth)

	// Set up cleanup event handlers
	s.setupCleanupHandlers()

	// Setup routes
	s.srv.Handler = api.NewRouter(s.hubservice, s.registry, gate, s.handleHealth())

	// Start server
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// handleHealth returns a simple health check handler
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() +
			`","server_time":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
	}
}

func (s *Server) setupCleanupHandlers() {
	s.hubservice.Cleanup.OnCleanup("logs.purged", func(deleted int64) {
		nuts.L.Infof("[Cleanup] %d sensor logs purged by retention cleanup", deleted)
		s.monitoring.RecordEvent("logs_purged", map[string]string{
			"deleted": strconv.FormatInt(deleted, 10),
		})
	})
}

// initializeHubService creates and configures the hub service
func (s *Server) initializeHubService() *hubservice.HubService {
	var (
		sensors    repository.SensorRepository
		sensorLogs repository.SensorLogRepository
		users      repository.UserRepository
	)

	switch s.config.Database.Driver {
	case "memory":
		nuts.L.Warnf("[Server] Using in-memory store; data will not survive a restart")
		store := memory.NewStore()
		sensors = store.Sensors()
		sensorLogs = store.SensorLogs()
		users = store.Users()
	default:
		db := s.initAppDB()
		var err error
		// Sensors first: the log table references it.
		if sensors, err = postgres.NewSensorRepository(db); err != nil {
			nuts.L.Fatalf("[Server] Failed to initialize sensor repository: %v", err)
		}
		if sensorLogs, err = postgres.NewSensorLogRepository(db); err != nil {
			nuts.L.Fatalf("[Server] Failed to initialize sensor log repository: %v", err)
		}
		if users, err = postgres.NewUserRepository(db); err != nil {
			nuts.L.Fatalf("[Server] Failed to initialize user repository: %v", err)
		}
	}

	var relay hubservice.RelayPublisher
	if s.config.Redis.Host != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		redisRelay, err := stream.NewRedisRelay(ctx, s.config.Redis)
		if err != nil {
			nuts.L.Fatalf("[Server] Failed to connect Redis relay: %v", err)
		}
		relay = redisRelay
	}

	return hubservice.New(sensors, sensorLogs, users, s.registry, relay)
}

func (s *Server) initAppDB() database.DB {
	wrappedDB, err := database.NewPostgresDB(s.config.Database.Postgres)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wrappedDB.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping database: %v", err)
	}
	return wrappedDB
}

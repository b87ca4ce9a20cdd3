package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/room-relay/modules/activity"
	"github.com/example/room-relay/modules/relay"
)

// SessionServer runs a relay session over an accepted connection.
type SessionServer interface {
	ServeConn(ctx context.Context, conn relay.Conn) error
}

// StatsSource reports relay activity counters.
type StatsSource interface {
	Snapshot() activity.Stats
}

// APIModule is the HTTP API module with WebSocket support.
type APIModule struct {
	app            *fiber.App
	rooms          relay.RoomPort
	sessions       SessionServer
	stats          StatsSource
	addr           string
	allowedOrigins string
	logger         types.Logger

	// sessionCtx is cancelled on Stop so live sessions end before the
	// server waits for its handlers.
	sessionCtx    context.Context
	cancelSession context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule listening on addr.
func NewModule(addr, allowedOrigins string, logger types.Logger) *APIModule {
	ctx, cancel := context.WithCancel(context.Background())
	return &APIModule{
		addr:           addr,
		allowedOrigins: allowedOrigins,
		logger:         logger,
		sessionCtx:     ctx,
		cancelSession:  cancel,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"relay"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "relay":
		m.rooms = relay.NewRoomAdapter(container)
	}
}

// SetSessionServer sets the server that runs WebSocket sessions (called from main.go).
func (m *APIModule) SetSessionServer(sessions SessionServer) {
	m.sessions = sessions
}

// SetStats sets the activity counters reported by /health (called from main.go).
func (m *APIModule) SetStats(stats StatsSource) {
	m.stats = stats
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.rooms == nil {
		return fmt.Errorf("relay adapter dependency not set")
	}
	if m.sessions == nil {
		return fmt.Errorf("session server not set")
	}

	m.app = m.newApp()

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", m.addr)
	return nil
}

// Stop ends live sessions and shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	m.cancelSession()
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Health returns the health status.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	details := map[string]any{
		"addr": m.addr,
	}
	if m.stats != nil {
		details["live_sessions"] = m.stats.Snapshot().LiveSessions
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: details,
	}
}

// newApp builds the Fiber application with middleware and routes.
func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Room Relay",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: m.allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	m.setupRoutes(app)
	return app
}

// customErrorHandler renders Fiber errors as ErrorResponse.
func customErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		fiberErr = fiber.ErrInternalServerError
	}

	return c.Status(fiberErr.Code).JSON(ErrorResponse{
		Error:   errorCode(fiberErr.Code),
		Message: fiberErr.Message,
	})
}

// errorCode maps an HTTP status to the machine-readable error field.
func errorCode(status int) string {
	switch status {
	case fiber.StatusUpgradeRequired:
		return "upgrade_required"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	default:
		if status >= fiber.StatusBadRequest && status < fiber.StatusInternalServerError {
			return "bad_request"
		}
		return "server_error"
	}
}

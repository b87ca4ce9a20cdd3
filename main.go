package main

import (
	"context"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/room-relay/config"
	"github.com/example/room-relay/modules/activity"
	"github.com/example/room-relay/modules/api"
	"github.com/example/room-relay/modules/relay"
)

func main() {
	log.Println("=== Room Relay - Fiber WebSocket chat rooms ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	relayModule := relay.NewModule(cfg.BroadcastCapacity, cfg.StartupRoom(), app.Logger().WithModule("relay"))
	activityModule := activity.NewModule(app.Logger().WithModule("activity"))
	apiModule := api.NewModule(cfg.Addr(), cfg.CORSAllowedOrigins, app.Logger().WithModule("api"))

	// Sessions and counters are handed over directly; they are not
	// request-reply services.
	apiModule.SetSessionServer(relayModule)
	apiModule.SetStats(activityModule)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - relay: Core domain (ServiceProviderModule + EventEmitterModule)
	// - activity: Event consumer (lifecycle counters)
	// - api: Driving adapter (Fiber HTTP/WebSocket server, depends on relay)
	app.Register(relayModule)
	app.Register(activityModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	addr := cfg.Addr()

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Configuration:")
	log.Printf("  - Listen address: %s", addr)
	log.Printf("  - Broadcast capacity: %d messages per subscriber", cfg.BroadcastCapacity)
	if room := cfg.StartupRoom(); room != "" {
		log.Printf("  - Default room: %s", room)
	}
	log.Println("")
	log.Printf("REST API Endpoints (http://%s):", addr)
	log.Println("  GET    /health                 - Health check with activity counters")
	log.Println("  GET    /api/v1/rooms           - List all rooms (also GET /room)")
	log.Println("  POST   /api/v1/rooms           - Create a new room (also POST /room)")
	log.Println("  GET    /api/v1/rooms/:id       - Get room details (also GET /room/:id)")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://%s/ws):", addr)
	log.Println(`  First frame: {"username": "alice", "room_id": "<room id>"}`)
	log.Println(`  Then send:   {"text": "hello"}`)
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

package relay

import (
	"context"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/room-relay/events"
)

// Module owns the room registry, serves room management requests and runs
// connection sessions.
type Module struct {
	registry    *Registry
	defaultRoom string
	eventBus    mono.EventBus
	logger      types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ Observer                   = (*Module)(nil)
)

// NewModule creates a relay module. capacity bounds each subscriber's queue;
// defaultRoom, when not empty, names a room opened at start.
func NewModule(capacity int, defaultRoom string, logger types.Logger) *Module {
	return &Module{
		registry:    NewRegistry(capacity),
		defaultRoom: defaultRoom,
		logger:      logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "relay"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomCreatedV1.ToBase(),
		events.MemberJoinedV1.ToBase(),
		events.MemberLeftV1.ToBase(),
	}
}

// Start opens the default room, if one is configured.
func (m *Module) Start(_ context.Context) error {
	if m.defaultRoom != "" {
		id := m.CreateRoom(m.defaultRoom)
		m.logger.Info("Relay module started with default room", "roomID", id, "name", m.defaultRoom)
		return nil
	}
	m.logger.Info("Relay module started")
	return nil
}

// Stop shuts down the module. Live sessions end when their connections close.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Relay module stopped", "rooms", m.registry.RoomCount())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"rooms": m.registry.RoomCount(),
		},
	}
}

// Registry returns the room registry.
func (m *Module) Registry() *Registry {
	return m.registry
}

// CreateRoom adds a room and announces it.
func (m *Module) CreateRoom(name string) string {
	id := m.registry.CreateRoom(name)
	m.publish(func(bus mono.EventBus) error {
		return events.RoomCreatedV1.Publish(bus, events.RoomCreatedEvent{
			RoomID:    id,
			RoomName:  name,
			Timestamp: time.Now(),
		}, nil)
	})
	return id
}

// ServeConn runs a session for conn and blocks until it is closed.
func (m *Module) ServeConn(ctx context.Context, conn Conn) error {
	return NewSession(conn, m.registry, m, m.logger).Run(ctx)
}

// MemberJoined publishes a MemberJoined event.
func (m *Module) MemberJoined(roomID, username string) {
	m.publish(func(bus mono.EventBus) error {
		return events.MemberJoinedV1.Publish(bus, events.MemberJoinedEvent{
			RoomID:    roomID,
			Username:  username,
			Timestamp: time.Now(),
		}, nil)
	})
}

// MemberLeft publishes a MemberLeft event.
func (m *Module) MemberLeft(roomID, username string, roomRemoved bool) {
	m.publish(func(bus mono.EventBus) error {
		return events.MemberLeftV1.Publish(bus, events.MemberLeftEvent{
			RoomID:     roomID,
			Username:   username,
			RoomClosed: roomRemoved,
			Timestamp:  time.Now(),
		}, nil)
	})
}

// publish sends an event when a bus is attached. Event failures never
// affect the relay itself.
func (m *Module) publish(send func(bus mono.EventBus) error) {
	if m.eventBus == nil {
		return
	}
	if err := send(m.eventBus); err != nil {
		m.logger.Warn("Failed to publish relay event", "error", err)
	}
}

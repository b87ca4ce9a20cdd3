package activity

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/room-relay/events"
)

// Stats is a point-in-time view of relay activity.
type Stats struct {
	RoomsOpened  int64 `json:"rooms_opened"`
	RoomsClosed  int64 `json:"rooms_closed"`
	Joins        int64 `json:"joins"`
	Departures   int64 `json:"departures"`
	LiveSessions int64 `json:"live_sessions"`
}

// Module is an EventConsumerModule that counts relay lifecycle events.
type Module struct {
	roomsOpened atomic.Int64
	roomsClosed atomic.Int64
	joins       atomic.Int64
	departures  atomic.Int64
	logger      types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new activity module.
func NewModule(logger types.Logger) *Module {
	return &Module{logger: logger}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "activity"
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Activity module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	s := m.Snapshot()
	m.logger.Info("Activity module stopped", "joins", s.Joins, "departures", s.Departures)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	s := m.Snapshot()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"open_rooms":    s.RoomsOpened - s.RoomsClosed,
			"live_sessions": s.LiveSessions,
		},
	}
}

// Snapshot returns the current counters.
func (m *Module) Snapshot() Stats {
	joins := m.joins.Load()
	departures := m.departures.Load()
	return Stats{
		RoomsOpened:  m.roomsOpened.Load(),
		RoomsClosed:  m.roomsClosed.Load(),
		Joins:        joins,
		Departures:   departures,
		LiveSessions: joins - departures,
	}
}

// RegisterEventConsumers registers event handlers.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomCreatedV1, m.handleRoomCreated, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomCreated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MemberJoinedV1, m.handleMemberJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register MemberJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MemberLeftV1, m.handleMemberLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register MemberLeft consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", []string{"RoomCreated", "MemberJoined", "MemberLeft"})
	return nil
}

// Event handlers

func (m *Module) handleRoomCreated(_ context.Context, event events.RoomCreatedEvent, _ *mono.Msg) error {
	m.roomsOpened.Add(1)
	m.logger.Debug("Room opened", "roomID", event.RoomID, "name", event.RoomName)
	return nil
}

func (m *Module) handleMemberJoined(_ context.Context, event events.MemberJoinedEvent, _ *mono.Msg) error {
	m.joins.Add(1)
	m.logger.Debug("Member joined", "roomID", event.RoomID, "username", event.Username)
	return nil
}

func (m *Module) handleMemberLeft(_ context.Context, event events.MemberLeftEvent, _ *mono.Msg) error {
	m.departures.Add(1)
	if event.RoomClosed {
		m.roomsClosed.Add(1)
	}
	m.logger.Debug("Member left", "roomID", event.RoomID, "username", event.Username, "roomClosed", event.RoomClosed)
	return nil
}

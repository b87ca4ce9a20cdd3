package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Service names registered by the relay module.
const (
	ServiceListRooms  = "list-rooms"
	ServiceCreateRoom = "create-room"
	ServiceGetRoom    = "get-room"
)

// ListRoomsRequest is the request for listing rooms.
type ListRoomsRequest struct{}

// ListRoomsResponse carries a snapshot of every room.
type ListRoomsResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}

// CreateRoomRequest is the request for creating a room.
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// CreateRoomResponse returns the new room's ID, or a validation error.
type CreateRoomResponse struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// GetRoomRequest is the request for one room.
type GetRoomRequest struct {
	RoomID string `json:"room_id"`
}

// GetRoomResponse carries the room when Found is set.
type GetRoomResponse struct {
	Found bool      `json:"found"`
	Room  *RoomInfo `json:"room,omitempty"`
}

// RegisterServices registers the room management services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListRooms, json.Unmarshal, json.Marshal, m.listRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateRoom, json.Unmarshal, json.Marshal, m.createRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateRoom, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetRoom, json.Unmarshal, json.Marshal, m.getRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetRoom, err)
	}

	m.logger.Info("Registered services", "services", []string{ServiceListRooms, ServiceCreateRoom, ServiceGetRoom})
	return nil
}

// listRooms handles the list-rooms service request.
func (m *Module) listRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	return ListRoomsResponse{Rooms: m.registry.ListRooms()}, nil
}

// createRoom handles the create-room service request.
func (m *Module) createRoom(_ context.Context, req CreateRoomRequest, _ *mono.Msg) (CreateRoomResponse, error) {
	if err := ValidateRoomName(req.Name); err != nil {
		return CreateRoomResponse{Error: err.Error()}, nil
	}
	return CreateRoomResponse{ID: m.CreateRoom(req.Name)}, nil
}

// getRoom handles the get-room service request.
func (m *Module) getRoom(_ context.Context, req GetRoomRequest, _ *mono.Msg) (GetRoomResponse, error) {
	info, err := m.registry.GetRoom(req.RoomID)
	if err != nil {
		return GetRoomResponse{Found: false}, nil
	}
	return GetRoomResponse{Found: true, Room: &info}, nil
}

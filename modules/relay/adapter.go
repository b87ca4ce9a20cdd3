package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ErrInvalidRoomName is returned by RoomPort.CreateRoom when the name is rejected.
var ErrInvalidRoomName = errors.New("invalid room name")

// RoomPort defines the room management operations offered to other modules.
type RoomPort interface {
	ListRooms(ctx context.Context) ([]RoomInfo, error)
	CreateRoom(ctx context.Context, name string) (string, error)
	GetRoom(ctx context.Context, roomID string) (RoomInfo, error)
}

// RoomAdapter implements RoomPort using the service container.
type RoomAdapter struct {
	container mono.ServiceContainer
}

// NewRoomAdapter creates a new RoomAdapter.
func NewRoomAdapter(container mono.ServiceContainer) RoomPort {
	if container == nil {
		panic("relay: ServiceContainer is nil")
	}
	return &RoomAdapter{container: container}
}

// ListRooms returns every open room.
func (a *RoomAdapter) ListRooms(ctx context.Context) ([]RoomInfo, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Rooms, nil
}

// CreateRoom opens a room and returns its ID.
func (a *RoomAdapter) CreateRoom(ctx context.Context, name string) (string, error) {
	req := CreateRoomRequest{Name: name}
	var resp CreateRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCreateRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidRoomName, resp.Error)
	}
	return resp.ID, nil
}

// GetRoom retrieves a room by ID.
func (a *RoomAdapter) GetRoom(ctx context.Context, roomID string) (RoomInfo, error) {
	req := GetRoomRequest{RoomID: roomID}
	var resp GetRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return RoomInfo{}, fmt.Errorf("failed to get room: %w", err)
	}
	if !resp.Found || resp.Room == nil {
		return RoomInfo{}, ErrRoomNotFound
	}
	return *resp.Room, nil
}

package api

import (
	"time"

	"github.com/example/room-relay/modules/activity"
)

// CreateRoomRequest is the API request to create a room.
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// CreateRoomResponse is the API response for a created room.
type CreateRoomResponse struct {
	ID string `json:"id"`
}

// RoomResponse is the API response for a room.
type RoomResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Users     []string  `json:"users"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status   string          `json:"status"`
	Activity *activity.Stats `json:"activity,omitempty"`
}

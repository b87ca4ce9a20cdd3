package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// RoomCreatedEvent is emitted when a room is added to the registry.
type RoomCreatedEvent struct {
	RoomID    string    `json:"room_id"`
	RoomName  string    `json:"room_name"`
	Timestamp time.Time `json:"timestamp"`
}

// MemberJoinedEvent is emitted when a session is admitted into a room.
type MemberJoinedEvent struct {
	RoomID    string    `json:"room_id"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// MemberLeftEvent is emitted after a session's teardown.
// RoomClosed is set when the departure emptied and removed the room.
type MemberLeftEvent struct {
	RoomID     string    `json:"room_id"`
	Username   string    `json:"username"`
	RoomClosed bool      `json:"room_closed"`
	Timestamp  time.Time `json:"timestamp"`
}

// Event definitions for the relay domain.
var (
	RoomCreatedV1 = helper.EventDefinition[RoomCreatedEvent](
		"relay",
		"RoomCreated",
		"v1",
	)

	MemberJoinedV1 = helper.EventDefinition[MemberJoinedEvent](
		"relay",
		"MemberJoined",
		"v1",
	)

	MemberLeftV1 = helper.EventDefinition[MemberLeftEvent](
		"relay",
		"MemberLeft",
		"v1",
	)
)

package relay

import (
	"errors"
	"fmt"
)

// Relay errors
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrHandshakeMalformed = errors.New("malformed join request")
	ErrMessageDecode      = errors.New("message decode failed")
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// LagError reports that a subscriber fell behind and Skipped messages were
// dropped from its queue. Receiving continues with the oldest retained message.
type LagError struct {
	Skipped uint64
}

func (e *LagError) Error() string {
	return fmt.Sprintf("subscriber lagged, %d messages dropped", e.Skipped)
}

// Client-facing notices sent before a failed handshake closes the connection.
const (
	noticeMalformed    = "Failed to parse connect message"
	noticeRoomNotFound = "Room not found"
	noticeTaken        = "Username is already taken"
)

package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ServerSender is the reserved sender name for notices synthesized by the server.
const ServerSender = "SERVER"

// Message is a chat message relayed to every member of a room.
type Message struct {
	ID     uuid.UUID `json:"id"`
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	Time   int64     `json:"time"` // milliseconds since epoch
}

// NewMessage creates a message stamped with a fresh ID and the current time.
func NewMessage(sender, text string) Message {
	return Message{
		ID:     uuid.New(),
		Sender: sender,
		Text:   text,
		Time:   time.Now().UnixMilli(),
	}
}

// ServerNotice creates a message authored by ServerSender.
func ServerNotice(text string) Message {
	return NewMessage(ServerSender, text)
}

// JoinedNotice is broadcast when username enters a room.
func JoinedNotice(username string) Message {
	return ServerNotice(username + " joined")
}

// LeftNotice is broadcast when username leaves a room.
func LeftNotice(username string) Message {
	return ServerNotice(username + " left")
}

// Encode returns the JSON text frame for msg.
func Encode(msg Message) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	return string(data), nil
}

// ErrMissingText is returned by Decode for a frame without a text field.
var ErrMissingText = errors.New("message has no text field")

// wireMessage distinguishes an absent text field from an empty one.
type wireMessage struct {
	ID     uuid.UUID `json:"id"`
	Sender string    `json:"sender"`
	Text   *string   `json:"text"`
	Time   int64     `json:"time"`
}

// Decode parses a JSON text frame into a Message. The text field is
// required; id, sender and time may be absent.
func Decode(frame string) (Message, error) {
	var wire wireMessage
	if err := json.Unmarshal([]byte(frame), &wire); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if wire.Text == nil {
		return Message{}, fmt.Errorf("decode message: %w", ErrMissingText)
	}
	return Message{
		ID:     wire.ID,
		Sender: wire.Sender,
		Text:   *wire.Text,
		Time:   wire.Time,
	}, nil
}

// JoinRequest is the first frame a client sends to enter a room.
type JoinRequest struct {
	Username string `json:"username"`
	RoomID   string `json:"room_id"`
}

// DecodeJoinRequest parses a join frame. Both fields are required.
func DecodeJoinRequest(frame string) (JoinRequest, error) {
	var req JoinRequest
	if err := json.Unmarshal([]byte(frame), &req); err != nil {
		return JoinRequest{}, fmt.Errorf("decode join request: %w", err)
	}
	if req.Username == "" || req.RoomID == "" {
		return JoinRequest{}, fmt.Errorf("decode join request: username and room_id are required")
	}
	return req, nil
}

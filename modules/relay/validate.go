package relay

import (
	"errors"
	"unicode/utf8"

	domain "github.com/example/room-relay/domain/relay"
)

// Validation constants
const (
	MaxUsernameLength = 50
	MaxRoomNameLength = 100
)

// Validation errors
var (
	ErrUsernameEmpty    = errors.New("username cannot be empty")
	ErrUsernameTooLong  = errors.New("username exceeds maximum length")
	ErrUsernameInvalid  = errors.New("username contains invalid characters")
	ErrUsernameReserved = errors.New("username is reserved")
	ErrRoomNameEmpty    = errors.New("room name cannot be empty")
	ErrRoomNameTooLong  = errors.New("room name exceeds maximum length")
	ErrRoomNameInvalid  = errors.New("room name contains invalid characters")
)

// ValidateUsername validates a username.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if !utf8.ValidString(username) {
		return ErrUsernameInvalid
	}
	if username == domain.ServerSender {
		return ErrUsernameReserved
	}
	return nil
}

// ValidateRoomName validates a room name.
func ValidateRoomName(name string) error {
	if name == "" {
		return ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLength {
		return ErrRoomNameTooLong
	}
	if !utf8.ValidString(name) {
		return ErrRoomNameInvalid
	}
	return nil
}

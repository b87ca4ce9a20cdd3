package relay

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domain "github.com/example/room-relay/domain/relay"
)

// Conn is a duplex channel of text frames, typically an upgraded WebSocket.
type Conn interface {
	// ReadFrame blocks until the next text frame arrives or the connection fails.
	ReadFrame() (string, error)
	WriteFrame(frame string) error
	Close() error
}

// Observer is told about membership changes made by sessions.
type Observer interface {
	MemberJoined(roomID, username string)
	MemberLeft(roomID, username string, roomRemoved bool)
}

type noopObserver struct{}

func (noopObserver) MemberJoined(string, string)     {}
func (noopObserver) MemberLeft(string, string, bool) {}

// State is the lifecycle stage of a Session.
type State int32

const (
	StateConnecting State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session drives one connection through handshake, relay and teardown.
// A Session is single use.
type Session struct {
	id       string
	conn     Conn
	registry *Registry
	observer Observer
	logger   types.Logger
	state    atomic.Int32

	roomID   string
	username string
}

// NewSession creates a session for conn. observer may be nil.
func NewSession(conn Conn, registry *Registry, observer Observer, logger types.Logger) *Session {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Session{
		id:       uuid.New().String(),
		conn:     conn,
		registry: registry,
		observer: observer,
		logger:   logger,
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle stage.
func (s *Session) State() State { return State(s.state.Load()) }

// Run performs the handshake and relays until the connection ends or ctx is
// cancelled. Handshake failures are reported to the client and returned;
// once admitted, a departure is ordinary and Run returns nil.
func (s *Session) Run(ctx context.Context) error {
	defer s.state.Store(int32(StateClosed))

	sub, broadcaster, err := s.handshake(ctx)
	if err != nil {
		return err
	}
	s.state.Store(int32(StateActive))
	s.logger.Info("Session joined room", "sessionID", s.id, "roomID", s.roomID, "username", s.username)
	s.observer.MemberJoined(s.roomID, s.username)

	broadcaster.Publish(domain.JoinedNotice(s.username))

	cause := s.relay(ctx, sub, broadcaster)
	s.logger.Debug("Relay ended", "sessionID", s.id, "cause", cause)

	s.teardown(sub)
	return nil
}

// handshake reads the join request and admits the session into the room.
// Lookup, the username check and the insert happen in one WithRoom call so
// two sessions can never both claim the same name.
func (s *Session) handshake(ctx context.Context) (*Subscription, *Broadcaster, error) {
	frame, err := s.readJoinFrame(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read join request: %w", err)
	}

	req, err := domain.DecodeJoinRequest(frame)
	if err == nil {
		err = ValidateUsername(req.Username)
	}
	switch {
	case errors.Is(err, ErrUsernameReserved):
		s.notify(noticeTaken)
		return nil, nil, ErrUsernameTaken
	case err != nil:
		s.notify(noticeMalformed)
		return nil, nil, fmt.Errorf("%w: %v", ErrHandshakeMalformed, err)
	}

	var (
		sub         *Subscription
		broadcaster *Broadcaster
		taken       bool
	)
	err = s.registry.WithRoom(req.RoomID, func(room *Room) {
		if room.HasMember(req.Username) {
			taken = true
			return
		}
		room.AddMember(req.Username)
		sub = room.Subscribe()
		broadcaster = room.broadcaster
	})
	if err != nil {
		s.notify(noticeRoomNotFound)
		return nil, nil, fmt.Errorf("join %s: %w", req.RoomID, err)
	}
	if taken {
		s.notify(noticeTaken)
		return nil, nil, ErrUsernameTaken
	}

	s.roomID = req.RoomID
	s.username = req.Username
	return sub, broadcaster, nil
}

// readJoinFrame reads the first frame. Cancelling ctx closes the
// connection so a client that never sends its join request is released.
func (s *Session) readJoinFrame(ctx context.Context) (string, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.Close()
	})
	frame, err := s.conn.ReadFrame()
	if !stop() {
		// The connection was closed by cancellation.
		return "", ctx.Err()
	}
	return frame, err
}

// relay runs the inbound and outbound tasks until either ends. The first
// task to return cancels the group context; the connection is then closed
// so a read blocked in the other task returns.
func (s *Session) relay(ctx context.Context, sub *Subscription, broadcaster *Broadcaster) error {
	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, func() {
		_ = s.conn.Close()
	})
	defer stop()

	g.Go(func() error {
		return s.outbound(gctx, sub)
	})
	g.Go(func() error {
		return s.inbound(gctx, broadcaster)
	})

	return g.Wait()
}

func (s *Session) outbound(ctx context.Context, sub *Subscription) error {
	for {
		msg, err := sub.Recv(ctx)
		if err != nil {
			var lag *LagError
			if errors.As(err, &lag) {
				s.logger.Warn("Subscriber lagging", "sessionID", s.id, "roomID", s.roomID, "skipped", lag.Skipped)
				continue
			}
			return err
		}

		frame, err := domain.Encode(msg)
		if err != nil {
			s.logger.Error("Failed to encode message", "sessionID", s.id, "error", err)
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.conn.WriteFrame(frame); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
	}
}

func (s *Session) inbound(ctx context.Context, broadcaster *Broadcaster) error {
	for {
		frame, err := s.conn.ReadFrame()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := domain.Decode(frame)
		if err != nil {
			s.logger.Debug("Dropping frame", "sessionID", s.id, "error", fmt.Errorf("%w: %v", ErrMessageDecode, err))
			continue
		}

		// The sender is always the name bound at handshake.
		msg.Sender = s.username
		if msg.ID == uuid.Nil {
			msg.ID = uuid.New()
		}
		if msg.Time == 0 {
			msg.Time = time.Now().UnixMilli()
		}
		broadcaster.Publish(msg)
	}
}

// teardown announces the departure, releases the username and removes the
// room if this was its last member.
func (s *Session) teardown(sub *Subscription) {
	sub.Close()

	err := s.registry.WithRoom(s.roomID, func(room *Room) {
		room.Broadcast(domain.LeftNotice(s.username))
		room.RemoveMember(s.username)
	})
	if err != nil {
		// Unreachable while the invariant holds: a room with members is never removed.
		s.logger.Error("Teardown lost its room", "sessionID", s.id, "roomID", s.roomID, "error", err)
		return
	}

	removed := s.registry.RemoveRoomIfEmpty(s.roomID)
	s.observer.MemberLeft(s.roomID, s.username, removed)
	s.logger.Info("Session left room", "sessionID", s.id, "roomID", s.roomID, "username", s.username, "roomRemoved", removed)
}

func (s *Session) notify(text string) {
	if err := s.conn.WriteFrame(text); err != nil {
		s.logger.Debug("Failed to send notice", "sessionID", s.id, "error", err)
	}
}

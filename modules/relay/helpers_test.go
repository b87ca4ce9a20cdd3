package relay

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/require"

	domain "github.com/example/room-relay/domain/relay"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

const waitTimeout = 2 * time.Second

// fakeConn is an in-memory Conn. Frames written by the test arrive through
// ReadFrame; frames the session writes are collected on out.
type fakeConn struct {
	in     chan string
	out    chan string
	closed chan struct{}

	closeOnce sync.Once
	hangOnce  sync.Once

	mu         sync.Mutex
	failWrites bool
	keepOpen   bool
	gate       chan struct{}
	entered    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan string, 64),
		out:    make(chan string, 256),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadFrame() (string, error) {
	select {
	case <-c.closed:
		return "", net.ErrClosed
	case frame, ok := <-c.in:
		if !ok {
			return "", io.EOF
		}
		return frame, nil
	}
}

func (c *fakeConn) WriteFrame(frame string) error {
	c.mu.Lock()
	fail := c.failWrites
	gate, entered := c.gate, c.entered
	c.mu.Unlock()
	if fail {
		return io.ErrClosedPipe
	}
	if gate != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
		select {
		case <-gate:
		case <-c.closed:
			return net.ErrClosed
		}
	}

	select {
	case <-c.closed:
		return net.ErrClosed
	case c.out <- frame:
		return nil
	}
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	keepOpen := c.keepOpen
	c.mu.Unlock()
	if keepOpen {
		return nil
	}
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// ignoreClose makes Close a no-op so writes issued after cancellation
// would still be recorded.
func (c *fakeConn) ignoreClose() {
	c.mu.Lock()
	c.keepOpen = true
	c.mu.Unlock()
}

// holdWrites blocks every WriteFrame until releaseWrites.
func (c *fakeConn) holdWrites() {
	c.mu.Lock()
	c.gate = make(chan struct{})
	c.entered = make(chan struct{}, 1)
	c.mu.Unlock()
}

func (c *fakeConn) releaseWrites() {
	c.mu.Lock()
	close(c.gate)
	c.gate = nil
	c.mu.Unlock()
}

// waitWriteBlocked waits until a WriteFrame is parked on the gate.
func (c *fakeConn) waitWriteBlocked(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	entered := c.entered
	c.mu.Unlock()
	select {
	case <-entered:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a blocked write")
	}
}

// assertNoFrame fails if the session wrote anything within a short window.
func (c *fakeConn) assertNoFrame(t *testing.T) {
	t.Helper()
	select {
	case frame := <-c.out:
		t.Fatalf("unexpected frame %q", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func (c *fakeConn) setFailWrites() {
	c.mu.Lock()
	c.failWrites = true
	c.mu.Unlock()
}

// send delivers a frame from the client side.
func (c *fakeConn) send(frame string) {
	c.in <- frame
}

// hangUp ends the client's stream, as an abrupt disconnect would.
func (c *fakeConn) hangUp() {
	c.hangOnce.Do(func() { close(c.in) })
}

func (c *fakeConn) nextFrame(t *testing.T) string {
	t.Helper()
	select {
	case frame := <-c.out:
		return frame
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for frame")
		return ""
	}
}

func (c *fakeConn) nextMessage(t *testing.T) domain.Message {
	t.Helper()
	msg, err := domain.Decode(c.nextFrame(t))
	require.NoError(t, err)
	return msg
}

func joinFrame(username, roomID string) string {
	return `{"username":"` + username + `","room_id":"` + roomID + `"}`
}

// runSession starts a session and returns a channel that yields Run's result.
func runSession(ctx context.Context, s *Session) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for session to end")
		return nil
	}
}

package api

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// wsConn adapts a Fiber WebSocket to relay.Conn. Only text frames are
// surfaced; binary frames are skipped and control frames are handled by
// the underlying connection.
type wsConn struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadFrame() (string, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		return string(data), nil
	}
}

func (c *wsConn) WriteFrame(frame string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

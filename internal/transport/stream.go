package transport

import (
	"time"

	"github.com/gorilla/websocket"
)

// frameOverhead is headroom above the payload cap for the JSON envelope, so
// the dispatcher can reject an oversized payload with an error reply instead
// of the read limit killing the connection. Frames beyond cap+overhead are
// still connection-fatal.
const frameOverhead = 4096

// wsStream implements connection.Stream over a gorilla WebSocket.
type wsStream struct {
	conn         *websocket.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func newStream(conn *websocket.Conn, maxPayloadBytes int64, readTimeout, writeTimeout time.Duration) *wsStream {
	s := &wsStream{
		conn:         conn,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}

	conn.SetReadLimit(maxPayloadBytes + frameOverhead)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	return s
}

// Read blocks until the next inbound frame or a transport error.
func (s *wsStream) Read() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	return data, nil
}

// Write sends one text frame.
func (s *wsStream) Write(data []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Ping sends a keepalive control frame.
func (s *wsStream) Ping() error {
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeTimeout))
}

// WriteClose sends a normal-closure close frame.
func (s *wsStream) WriteClose(reason string) error {
	// Close frame payloads are capped at 125 bytes including the code.
	if len(reason) > 123 {
		reason = reason[:123]
	}
	return s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(s.writeTimeout),
	)
}

// Close tears down the socket, unblocking a pending Read.
func (s *wsStream) Close() error {
	return s.conn.Close()
}

// RemoteAddr reports the peer address.
func (s *wsStream) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}

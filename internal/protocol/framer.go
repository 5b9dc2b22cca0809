package protocol

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// maxFrameSize caps a single frame. Anything bigger than this is a broken or
// hostile peer, and the read error tears the connection down.
const maxFrameSize = 64 * 1024

type tcpFramer struct {
	conn         net.Conn
	scanner      *bufio.Scanner
	writeTimeout time.Duration
}

// NewTCPFramer wraps a raw socket into the newline-delimited dialect.
// writeTimeout bounds every WriteFrame; zero disables the deadline.
func NewTCPFramer(conn net.Conn, writeTimeout time.Duration) Framer {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), maxFrameSize)

	return &tcpFramer{conn: conn, scanner: scanner, writeTimeout: writeTimeout}
}

func (f *tcpFramer) ReadFrame() ([]byte, error) {
	if !f.scanner.Scan() {
		if err := f.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	// The scanner reuses its buffer on the next Scan.
	frame := make([]byte, len(f.scanner.Bytes()))
	copy(frame, f.scanner.Bytes())
	return frame, nil
}

func (f *tcpFramer) WriteFrame(payload []byte) error {
	if f.writeTimeout > 0 {
		if err := f.conn.SetWriteDeadline(time.Now().Add(f.writeTimeout)); err != nil {
			return err
		}
	}

	frame := make([]byte, 0, len(payload)+1)
	frame = append(frame, payload...)
	frame = append(frame, '\n')

	_, err := f.conn.Write(frame)
	return err
}

func (f *tcpFramer) Close() error {
	return f.conn.Close()
}

func (f *tcpFramer) RemoteAddr() string {
	return f.conn.RemoteAddr().String()
}

type wsFramer struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

// NewWSFramer adapts a WebSocket connection to the same dialect, one message
// per frame. Trailing line breaks are tolerated so line-oriented clients can
// sit behind a proxy that bridges them onto WebSocket unchanged.
func NewWSFramer(conn *websocket.Conn, writeTimeout time.Duration) Framer {
	conn.SetReadLimit(maxFrameSize)

	return &wsFramer{conn: conn, writeTimeout: writeTimeout}
}

func (f *wsFramer) ReadFrame() ([]byte, error) {
	_, frame, err := f.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(frame, "\r\n"), nil
}

func (f *wsFramer) WriteFrame(payload []byte) error {
	if f.writeTimeout > 0 {
		if err := f.conn.SetWriteDeadline(time.Now().Add(f.writeTimeout)); err != nil {
			return err
		}
	}
	return f.conn.WriteMessage(websocket.TextMessage, payload)
}

func (f *wsFramer) Close() error {
	return f.conn.Close()
}

func (f *wsFramer) RemoteAddr() string {
	return f.conn.RemoteAddr().String()
}

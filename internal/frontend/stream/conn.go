// Package stream implements the TCP frontend: a line-framed connection
// wrapper and an acceptor that hands each connection to a session handler.
package stream

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// MaxFrameBytes caps the size of a single inbound frame, and with it the
// memory a connection's reader holds. Lines beyond this are discarded
// without killing the connection; a well-behaved client never comes near it.
const MaxFrameBytes = 1 << 20

// Conn wraps a TCP connection with newline framing. A frame may span
// multiple reads and multiple frames may arrive in one read; the buffered
// reader handles both. Writes are serialized by an internal mutex so
// concurrent broadcasts never interleave frames.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	mu     sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps a raw TCP connection with line framing.
//
// Precondition: raw must be a valid, open network connection.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// ReadFrame returns the next newline-terminated frame, trailing delimiter
// included. Input is consumed in buffer-sized chunks, so a line that grows
// past MaxFrameBytes is discarded as it streams in rather than accumulated:
// the connection never holds more than MaxFrameBytes plus one read buffer,
// even for a peer that sends no newline at all.
//
// Postcondition: Returns a non-empty frame, or an error (including io.EOF).
func (c *Conn) ReadFrame() ([]byte, error) {
	var frame []byte
	discarding := false
	for {
		if c.readTimeout > 0 {
			_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
		}

		chunk, err := c.reader.ReadSlice('\n')
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			// Partial line, no delimiter yet.
			if discarding {
				continue
			}
			frame = append(frame, chunk...)
			if len(frame) > MaxFrameBytes {
				frame = nil
				discarding = true
			}
		case err != nil:
			return nil, err
		default:
			if discarding || len(frame)+len(chunk) > MaxFrameBytes {
				// Oversized line finally terminated; start fresh on
				// the next one.
				frame = nil
				discarding = false
				continue
			}
			return append(frame, chunk...), nil
		}
	}
}

// WriteFrame writes one complete frame. Safe for concurrent use.
//
// Precondition: frame should already carry its trailing newline.
func (c *Conn) WriteFrame(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	n, err := c.raw.Write(frame)
	if err != nil {
		return err
	}
	if n < len(frame) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(frame))
	}
	return nil
}

// Close closes the underlying TCP connection.
//
// Postcondition: The connection is closed and no longer usable.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the remote network address of the client.
func (c *Conn) RemoteAddr() string {
	return c.raw.RemoteAddr().String()
}

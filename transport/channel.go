package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var (
	// ErrTimeout is returned when no line arrives within the receive timeout.
	ErrTimeout = errors.New("timed out waiting for response line")
	// ErrConnectionClosed is returned once the peer output stream has ended.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrEmbeddedNewline is returned when a message to send spans more than one line.
	ErrEmbeddedNewline = errors.New("message contains a newline")
)

// Direction identifies which way a line travelled.
type Direction string

const (
	Outbound Direction = "send"
	Inbound  Direction = "receive"
)

// Listener observes every line sent or received on a channel.
type Listener func(direction Direction, line []byte)

type received struct {
	line []byte
	err  error
}

// Channel frames messages as newline-terminated lines over a duplex byte stream.
type Channel struct {
	writer    *bufio.Writer
	reader    *bufio.Reader
	listener  Listener
	lines     chan received
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	mux       sync.Mutex
	closed    error
}

// SendLine writes text followed by a single newline and flushes it immediately.
func (c *Channel) SendLine(ctx context.Context, text []byte) error {
	if bytes.ContainsAny(text, "\r\n") {
		return ErrEmbeddedNewline
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	if _, err := c.writer.Write(text); err != nil {
		return c.writeError(err)
	}
	if err := c.writer.WriteByte('\n'); err != nil {
		return c.writeError(err)
	}
	if err := c.writer.Flush(); err != nil {
		return c.writeError(err)
	}
	if c.listener != nil {
		c.listener(Outbound, text)
	}
	return nil
}

func (c *Channel) writeError(err error) error {
	if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, io.EOF) || isBrokenPipe(err) {
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}
	return err
}

// ReceiveLine blocks until one line is available, the timeout elapses or ctx is done.
// The returned line excludes its terminator.
func (c *Channel) ReceiveLine(ctx context.Context, timeout time.Duration) ([]byte, error) {
	c.startOnce.Do(c.startReader)
	if c.closed != nil {
		return nil, c.closed
	}
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case item, ok := <-c.lines:
		if !ok {
			c.closed = ErrConnectionClosed
			return nil, c.closed
		}
		if item.err != nil {
			c.closed = item.err
			return nil, item.err
		}
		if c.listener != nil {
			c.listener(Inbound, item.line)
		}
		return item.line, nil
	case <-expired:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close releases the reader goroutine. It does not close the underlying stream.
func (c *Channel) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Channel) deliver(item received) bool {
	select {
	case c.lines <- item:
		return true
	case <-c.done:
		return false
	}
}

// startReader launches the single goroutine that owns the read side of the stream.
func (c *Channel) startReader() {
	go func() {
		defer close(c.lines)
		for {
			line, err := c.reader.ReadBytes('\n')
			if err == nil {
				line = bytes.TrimRight(line, "\r\n")
				if len(line) == 0 {
					continue
				}
				if !c.deliver(received{line: line}) {
					return
				}
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || isClosedFile(err) {
				if len(bytes.TrimSpace(line)) > 0 {
					c.deliver(received{err: fmt.Errorf("%w: partial line %s", ErrConnectionClosed, line)})
					return
				}
				c.deliver(received{err: ErrConnectionClosed})
				return
			}
			c.deliver(received{err: fmt.Errorf("%w: %v", ErrConnectionClosed, err)})
			return
		}
	}()
}

// New creates a channel writing to w and reading from r.
func New(w io.Writer, r io.Reader, options ...Option) *Channel {
	ret := &Channel{
		writer: bufio.NewWriter(w),
		reader: bufio.NewReaderSize(r, 64*1024),
		lines:  make(chan received),
		done:   make(chan struct{}),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

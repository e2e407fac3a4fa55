package tv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// readSize is the largest chunk taken from the connection per read.
const readSize = 1024

// Display renders what the client receives. ShowContent replaces the screen
// with streamed text; ShowStatus replaces it with an in-band status message.
type Display interface {
	ShowContent(text string)
	ShowStatus(text string)
}

// Consumer holds at most one connection to the server and feeds the text it
// receives into its DisplayBuffer, which is emptied on every connect.
type Consumer struct {
	addr    string
	display Display
	logger  *zap.Logger
	dialer  net.Dialer
	buffer  *DisplayBuffer

	mu   sync.Mutex
	conn net.Conn
	gen  uint64 // bumped on every connect and disconnect
	done chan struct{}
}

// NewConsumer creates a Consumer for the server at addr.
func NewConsumer(addr string, display Display, logger *zap.Logger) *Consumer {
	return &Consumer{
		addr:    addr,
		display: display,
		logger:  logger,
		buffer:  NewDisplayBuffer(MaxLines),
	}
}

// Connect drops any current connection, dials the server and selects channel.
// Received text is rendered until the connection ends; there is no automatic
// reconnection.
func (c *Consumer) Connect(ctx context.Context, channel int) error {
	c.Disconnect()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		c.display.ShowStatus(fmt.Sprintf("No signal!\n\nCould not connect to server: %v\n\nPlease check your connection.", err))
		return fmt.Errorf("connecting to %s: %w", c.addr, err)
	}

	if _, err := io.WriteString(conn, strconv.Itoa(channel)); err != nil {
		conn.Close()
		c.display.ShowStatus(fmt.Sprintf("No signal!\n\nCould not select channel: %v", err))
		return fmt.Errorf("sending channel selection: %w", err)
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.conn = conn
	c.done = make(chan struct{})
	done := c.done
	c.buffer.Reset()
	c.display.ShowContent("")
	c.mu.Unlock()

	c.logger.Info("connected",
		zap.String("addr", c.addr),
		zap.Int("channel", channel),
	)

	go c.receive(conn, gen, done)
	return nil
}

// Disconnect closes the current connection, if any, and waits for its
// receive loop to finish. It does not report a lost signal.
func (c *Consumer) Disconnect() {
	c.mu.Lock()
	conn, done := c.conn, c.done
	c.conn = nil
	c.gen++
	c.mu.Unlock()

	if conn == nil {
		return
	}
	conn.Close()
	<-done
}

// Connected reports whether a connection is open.
func (c *Consumer) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Consumer) receive(conn net.Conn, gen uint64, done chan struct{}) {
	defer close(done)

	chunk := make([]byte, readSize)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			c.paint(gen, func() {
				c.buffer.Write(chunk[:n])
				c.display.ShowContent(c.buffer.String())
			})
		}
		if err != nil {
			c.lost(gen, err)
			return
		}
	}
}

// paint runs fn only while gen is still the current connection.
func (c *Consumer) paint(gen uint64, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		fn()
	}
}

func (c *Consumer) lost(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen || c.conn == nil {
		return
	}
	c.conn.Close()
	c.conn = nil

	reason := err.Error()
	if errors.Is(err, io.EOF) {
		reason = "connection closed by server"
	}
	c.logger.Info("signal lost", zap.String("reason", reason))
	c.display.ShowStatus("Signal lost: " + reason)
}

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/asciitv/internal/channel"
	"github.com/dgnsrekt/asciitv/internal/metrics"
)

// Options tunes a Dispatcher.
type Options struct {
	// Interval is the poll cadence of every viewer session.
	Interval time.Duration
	// HandshakeTimeout bounds the wait for a channel selection. Zero waits forever.
	HandshakeTimeout time.Duration
	// AcceptRate limits accepted connections per second. Zero disables the limit.
	AcceptRate float64
	// AcceptBurst is the limiter burst, used when AcceptRate is set.
	AcceptBurst int
	// Clock drives session tickers. Nil means the real clock.
	Clock clockwork.Clock
}

// Dispatcher accepts viewer connections and attaches each to its selected channel.
type Dispatcher struct {
	registry *channel.Registry
	opts     Options
	limiter  *rate.Limiter
	logger   *zap.Logger

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher serving the channels in registry.
func NewDispatcher(registry *channel.Registry, opts Options, logger *zap.Logger) *Dispatcher {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	var limiter *rate.Limiter
	if opts.AcceptRate > 0 {
		burst := opts.AcceptBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.AcceptRate), burst)
	}

	return &Dispatcher{
		registry: registry,
		opts:     opts,
		limiter:  limiter,
		logger:   logger,
	}
}

// ListenAndServe listens on the TCP address addr and calls Serve.
func (d *Dispatcher) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return d.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. Every connection is
// handled on its own goroutine. Serve closes ln and, once cancelled, waits for
// open sessions to finish before returning.
func (d *Dispatcher) Serve(ctx context.Context, ln net.Listener) error {
	d.logger.Info("dispatcher listening",
		zap.String("addr", ln.Addr().String()),
		zap.Int("channels", d.registry.Len()),
	)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	defer d.wg.Wait()

	for {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return nil
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				d.logger.Info("dispatcher stopped")
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.handle(ctx, conn)
		}()
	}
}

func (d *Dispatcher) handle(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	logger := d.logger.With(zap.String("remoteAddr", remote))
	logger.Debug("connection accepted")

	// The selection read does not observe ctx; closing the connection on
	// shutdown unblocks it.
	handshook := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-handshook:
		}
	}()

	state, err := d.handshake(conn)
	close(handshook)
	if err != nil {
		if errors.Is(err, ErrInvalidChannel) {
			metrics.HandshakesRejected.Inc()
			logger.Info("rejecting viewer", zap.Error(err))
			if _, werr := io.WriteString(conn, RejectMessage); werr != nil {
				logger.Debug("sending rejection", zap.Error(werr))
			}
		} else {
			logger.Info("handshake failed", zap.Error(err))
		}
		conn.Close()
		return
	}

	session := NewSession(state, conn, "tcp", remote, d.opts.Interval, d.opts.Clock, logger)
	if err := session.Run(ctx); err != nil {
		logger.Info("viewer disconnected", zap.Error(err))
	}
}

// handshake reads the channel selection from the first read of conn.
func (d *Dispatcher) handshake(conn net.Conn) (*channel.State, error) {
	if d.opts.HandshakeTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(d.opts.HandshakeTimeout)); err != nil {
			return nil, fmt.Errorf("setting handshake deadline: %w", err)
		}
		defer conn.SetReadDeadline(time.Time{})
	}

	buf := make([]byte, maxSelectionSize)
	n, err := conn.Read(buf)
	if n == 0 && err != nil {
		return nil, fmt.Errorf("reading channel selection: %w", err)
	}

	idx, err := ParseSelection(string(buf[:n]), d.registry.Len())
	if err != nil {
		return nil, err
	}

	state, _ := d.registry.Get(idx)
	return state, nil
}

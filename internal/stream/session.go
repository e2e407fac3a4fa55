package stream

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/dgnsrekt/asciitv/internal/channel"
	"github.com/dgnsrekt/asciitv/internal/metrics"
)

// Transport is the viewer side of a connection.
type Transport interface {
	io.Writer
	Close() error
}

// Session delivers the latest unit of one channel to one viewer.
type Session struct {
	state     *channel.State
	viewer    *channel.Viewer
	transport Transport
	interval  time.Duration
	clock     clockwork.Clock
	logger    *zap.Logger

	closeOnce sync.Once
}

// NewSession creates a session for a viewer at remoteAddr over transport.
// kind names the transport in logs and metrics.
func NewSession(state *channel.State, transport Transport, kind, remoteAddr string, interval time.Duration, clock clockwork.Clock, logger *zap.Logger) *Session {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	viewer := &channel.Viewer{
		ID:         uuid.New().String(),
		RemoteAddr: remoteAddr,
		Transport:  kind,
		AttachedAt: clock.Now(),
	}
	return &Session{
		state:     state,
		viewer:    viewer,
		transport: transport,
		interval:  interval,
		clock:     clock,
		logger: logger.With(
			zap.Int("channel", state.Index()),
			zap.String("viewerID", viewer.ID),
		),
	}
}

// Run attaches the viewer and writes a snapshot every tick until a write
// fails or ctx is cancelled. The viewer is detached and the transport closed
// before Run returns. A nil error means the session was stopped by ctx.
func (s *Session) Run(ctx context.Context) error {
	s.state.Attach(s.viewer)
	metrics.SessionsStarted.WithLabelValues(s.viewer.Transport).Inc()
	s.logger.Info("viewer attached",
		zap.String("remoteAddr", s.viewer.RemoteAddr),
		zap.String("transport", s.viewer.Transport),
	)

	// A write to a stalled peer can block indefinitely; closing the
	// transport on shutdown unblocks it.
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.close()
		case <-stop:
		}
	}()

	defer func() {
		close(stop)
		s.state.Detach(s.viewer)
		s.close()
		s.logger.Info("viewer detached",
			zap.Duration("watched", s.clock.Since(s.viewer.AttachedAt)),
		)
	}()

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	label := strconv.Itoa(s.state.Index())
	for {
		unit := s.state.Snapshot()
		if unit.Text != "" {
			n, err := io.WriteString(s.transport, unit.Text)
			metrics.BytesSent.WithLabelValues(label).Add(float64(n))
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("writing to viewer: %w", err)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
		}
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		if err := s.transport.Close(); err != nil {
			s.logger.Debug("closing transport", zap.Error(err))
		}
	})
}

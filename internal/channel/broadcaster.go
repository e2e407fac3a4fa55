package channel

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/dgnsrekt/asciitv/internal/content"
	"github.com/dgnsrekt/asciitv/internal/metrics"
)

// Broadcaster advances one channel through its content source at a fixed cadence.
type Broadcaster struct {
	state    *State
	interval time.Duration
	clock    clockwork.Clock
	logger   *zap.Logger
}

// NewBroadcaster creates a Broadcaster for state. A nil clock means the real clock.
func NewBroadcaster(state *State, interval time.Duration, clock clockwork.Clock, logger *zap.Logger) *Broadcaster {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Broadcaster{
		state:    state,
		interval: interval,
		clock:    clock,
		logger:   logger.With(zap.Int("channel", state.Index())),
	}
}

// Run publishes lines until ctx is cancelled or the source fails. Call in a goroutine.
// A failed source leaves the channel's last unit in place.
func (b *Broadcaster) Run(ctx context.Context) {
	src, err := content.Open(b.state.Source())
	if err != nil {
		b.fail(err)
		return
	}
	defer src.Close()

	ticker := b.clock.NewTicker(b.interval)
	defer ticker.Stop()

	b.state.setStatus(StatusLive)
	b.logger.Info("broadcaster started",
		zap.String("source", src.Path()),
		zap.Duration("interval", b.interval),
	)

	for {
		line, err := src.Next()
		if err != nil {
			b.fail(err)
			return
		}
		b.state.Publish(line)

		select {
		case <-ctx.Done():
			b.logger.Info("broadcaster stopping")
			return
		case <-ticker.Chan():
		}
	}
}

func (b *Broadcaster) fail(err error) {
	b.state.setStatus(StatusFailed)
	metrics.BroadcasterFailures.WithLabelValues(b.state.label).Inc()
	b.logger.Error("broadcaster stopped, channel is off air",
		zap.String("source", b.state.Source()),
		zap.Error(err),
	)
}

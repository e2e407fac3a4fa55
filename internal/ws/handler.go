package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/dgnsrekt/asciitv/internal/channel"
	"github.com/dgnsrekt/asciitv/internal/metrics"
	"github.com/dgnsrekt/asciitv/internal/stream"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to send the close frame.
	closeWait = time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler serves viewer sessions over WebSocket. Each snapshot is sent as
// one text message.
type Handler struct {
	ctx      context.Context
	registry *channel.Registry
	interval time.Duration
	clock    clockwork.Clock
	logger   *zap.Logger
}

// NewHandler creates a Handler. Sessions end when ctx is cancelled.
func NewHandler(ctx context.Context, registry *channel.Registry, interval time.Duration, clock clockwork.Clock, logger *zap.Logger) *Handler {
	return &Handler{
		ctx:      ctx,
		registry: registry,
		interval: interval,
		clock:    clock,
		logger:   logger,
	}
}

// ServeHTTP handles GET /ws?channel=N.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	idx, err := stream.ParseSelection(r.URL.Query().Get("channel"), h.registry.Len())
	if err != nil {
		metrics.HandshakesRejected.Inc()
		h.logger.Info("rejecting websocket viewer",
			zap.String("remoteAddr", r.RemoteAddr),
			zap.Error(err),
		)
		http.Error(w, stream.RejectMessage, http.StatusBadRequest)
		return
	}
	state, _ := h.registry.Get(idx)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()

	t := &transport{conn: conn}
	go t.readPump(cancel)

	session := stream.NewSession(state, t, "websocket", r.RemoteAddr, h.interval, h.clock, h.logger)
	if err := session.Run(ctx); err != nil {
		h.logger.Debug("websocket viewer disconnected", zap.Error(err))
	}
}

// transport adapts a WebSocket connection to stream.Transport.
type transport struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writers
}

// Compile-time interface verification
var _ stream.Transport = (*transport)(nil)

func (t *transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := t.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame unless a write is in flight, then closes the
// connection. A write stuck on a stalled peer fails once the socket closes.
func (t *transport) Close() error {
	if t.mu.TryLock() {
		t.conn.SetWriteDeadline(time.Now().Add(closeWait))
		t.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		t.mu.Unlock()
	}
	return t.conn.Close()
}

// readPump discards inbound messages and calls stop once the peer goes away.
func (t *transport) readPump(stop context.CancelFunc) {
	defer stop()

	t.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := t.conn.ReadMessage(); err != nil {
			return
		}
	}
}

package stream

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgnsrekt/asciitv/internal/channel"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "0", want: 0},
		{raw: "2", want: 2},
		{raw: " 1\n", want: 1},
		{raw: "3", wantErr: true},
		{raw: "99", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseSelection(tt.raw, 3)
		if tt.wantErr {
			assert.True(t, errors.Is(err, ErrInvalidChannel), "raw %q: got %v", tt.raw, err)
			continue
		}
		require.NoError(t, err, "raw %q", tt.raw)
		assert.Equal(t, tt.want, got, "raw %q", tt.raw)
	}
}

type testServer struct {
	registry *channel.Registry
	addr     string
	cancel   context.CancelFunc
	done     chan struct{}
	err      error
}

func startServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	registry := channel.NewRegistry([]channel.Definition{
		{Name: "one", Source: "1.txt"},
		{Name: "two", Source: "2.txt"},
		{Name: "four", Source: "4.txt"},
	})
	if opts.Interval == 0 {
		opts.Interval = 5 * time.Millisecond
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(registry, opts, zap.NewNop())
	srv := &testServer{registry: registry, addr: ln.Addr().String(), cancel: cancel, done: make(chan struct{})}
	go func() {
		srv.err = d.Serve(ctx, ln)
		close(srv.done)
	}()
	t.Cleanup(srv.stop)
	return srv
}

func (s *testServer) stop() {
	s.cancel()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
	}
}

func (s *testServer) totalViewers() int {
	total := 0
	for _, ch := range s.registry.All() {
		total += ch.ViewerCount()
	}
	return total
}

func dial(t *testing.T, addr, selection string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = io.WriteString(conn, selection)
	require.NoError(t, err)
	return conn
}

func TestDispatcherStreamsSelectedChannel(t *testing.T) {
	srv := startServer(t, Options{})
	ch, _ := srv.registry.Get(1)
	ch.Publish("second channel\n")

	conn := dial(t, srv.addr, "1")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "second channel\n", line)

	require.Eventually(t, func() bool { return ch.ViewerCount() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, srv.totalViewers())
}

func TestDispatcherRejectsOutOfRange(t *testing.T) {
	srv := startServer(t, Options{})

	conn := dial(t, srv.addr, "99")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	body, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, RejectMessage, string(body))
	assert.Equal(t, 0, srv.totalViewers())
}

func TestDispatcherRejectsGarbage(t *testing.T) {
	srv := startServer(t, Options{})

	conn := dial(t, srv.addr, "channel one")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	body, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, RejectMessage, string(body))
	assert.Equal(t, 0, srv.totalViewers())
}

func TestDispatcherHandshakeTimeout(t *testing.T) {
	srv := startServer(t, Options{HandshakeTimeout: 50 * time.Millisecond})

	conn, err := net.Dial("tcp", srv.addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	body, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Empty(t, body)
	assert.Equal(t, 0, srv.totalViewers())
}

func TestDispatcherDetachesClosedViewer(t *testing.T) {
	srv := startServer(t, Options{})
	ch, _ := srv.registry.Get(0)
	ch.Publish("frame\n")

	conn := dial(t, srv.addr, "0")
	require.Eventually(t, func() bool { return ch.ViewerCount() == 1 }, time.Second, time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return ch.ViewerCount() == 0 }, 5*time.Second, 5*time.Millisecond)
}

func TestDispatcherServesViewersConcurrently(t *testing.T) {
	srv := startServer(t, Options{})
	for _, ch := range srv.registry.All() {
		ch.Publish(ch.Name() + "\n")
	}

	selections := []string{"0", "1", "2", "0", "1", "2"}
	readers := make([]*bufio.Reader, len(selections))
	for i, sel := range selections {
		conn := dial(t, srv.addr, sel)
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		readers[i] = bufio.NewReader(conn)
	}

	want := map[string]string{"0": "one\n", "1": "two\n", "2": "four\n"}
	for i, sel := range selections {
		line, err := readers[i].ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, want[sel], line)
	}
	require.Eventually(t, func() bool { return srv.totalViewers() == len(selections) }, time.Second, time.Millisecond)
}

func TestDispatcherShutdownDetachesEveryone(t *testing.T) {
	srv := startServer(t, Options{AcceptRate: 1000, AcceptBurst: 10})
	ch, _ := srv.registry.Get(2)
	ch.Publish("x\n")

	dial(t, srv.addr, "2")
	dial(t, srv.addr, "2")
	require.Eventually(t, func() bool { return ch.ViewerCount() == 2 }, time.Second, time.Millisecond)

	srv.cancel()
	select {
	case <-srv.done:
		require.NoError(t, srv.err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Equal(t, 0, ch.ViewerCount())
}

func TestDispatcherShutdownWithPendingSelection(t *testing.T) {
	srv := startServer(t, Options{})

	conn, err := net.Dial("tcp", srv.addr)
	require.NoError(t, err)
	defer conn.Close()

	// Let the server accept and block reading the selection.
	time.Sleep(20 * time.Millisecond)

	srv.cancel()
	select {
	case <-srv.done:
		require.NoError(t, srv.err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return while a connection had not chosen a channel")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	body, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Empty(t, body)
	assert.Equal(t, 0, srv.totalViewers())
}

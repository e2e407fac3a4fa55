package channel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testInterval = 50 * time.Millisecond

func writeSource(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "1.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func waitForText(t *testing.T, s *State, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.Snapshot().Text == want
	}, 2*time.Second, time.Millisecond, "waiting for %q", want)
}

func TestBroadcasterCyclesForward(t *testing.T) {
	state := NewState(0, "one", writeSource(t, "A\nB\nC\n"))
	clock := clockwork.NewFakeClock()
	b := NewBroadcaster(state, testInterval, clock, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	waitForText(t, state, "A\n")
	assert.Equal(t, StatusLive, state.Info().Status)

	for _, want := range []string{"B\n", "C\n", "A\n", "B\n"} {
		clock.Advance(testInterval)
		waitForText(t, state, want)
	}
	assert.Equal(t, uint64(5), state.Snapshot().Seq)

	cancel()
	clock.Advance(testInterval)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcaster did not stop after cancel")
	}
}

func TestBroadcasterMissingSourceFails(t *testing.T) {
	state := NewState(1, "two", filepath.Join(t.TempDir(), "missing.txt"))
	b := NewBroadcaster(state, testInterval, clockwork.NewFakeClock(), zap.NewNop())

	done := make(chan struct{})
	go func() {
		b.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcaster should exit when its source cannot be opened")
	}

	info := state.Info()
	assert.Equal(t, StatusFailed, info.Status)
	assert.Equal(t, "", info.Current)
}

func TestBroadcasterEmptySourceFails(t *testing.T) {
	state := NewState(2, "four", writeSource(t, ""))
	b := NewBroadcaster(state, testInterval, clockwork.NewFakeClock(), zap.NewNop())

	done := make(chan struct{})
	go func() {
		b.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcaster should exit on an empty source")
	}
	assert.Equal(t, StatusFailed, state.Info().Status)
}

func TestBroadcasterFailureIsolatedPerChannel(t *testing.T) {
	good := NewState(0, "one", writeSource(t, "ok\n"))
	bad := NewState(1, "two", filepath.Join(t.TempDir(), "missing.txt"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go NewBroadcaster(bad, testInterval, nil, zap.NewNop()).Run(ctx)
	go NewBroadcaster(good, testInterval, nil, zap.NewNop()).Run(ctx)

	waitForText(t, good, "ok\n")
	require.Eventually(t, func() bool {
		return bad.Info().Status == StatusFailed
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, StatusLive, good.Info().Status)
}

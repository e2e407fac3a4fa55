package tv

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

const (
	PoweredOffMessage = "TV is powered off. Press the power button to turn on."
	powerOnMessage    = "Powering on...\n\nInitializing television...\n"
)

// ErrUnknownChannel is returned when selecting a channel the set does not have.
var ErrUnknownChannel = errors.New("unknown channel")

// Tuner connects the set to a channel stream. *Consumer implements it.
type Tuner interface {
	Connect(ctx context.Context, channel int) error
	Disconnect()
	Connected() bool
}

// Set is the client-local state of the television: power, channel, volume
// and mute. Volume is cosmetic.
type Set struct {
	tuner    Tuner
	display  Display
	channels []string
	step     int

	mu      sync.Mutex
	powered bool
	channel int
	volume  int
	muted   bool
}

// Snapshot is a copy of the set's state.
type Snapshot struct {
	Powered     bool
	Channel     int
	ChannelName string
	Volume      int
	Muted       bool
	Connected   bool
}

// NewSet creates a powered-off set tuned to channel 0. channels holds the
// display name of each channel.
func NewSet(tuner Tuner, display Display, channels []string, volume, step int) *Set {
	return &Set{
		tuner:    tuner,
		display:  display,
		channels: channels,
		step:     step,
		volume:   clamp(volume),
	}
}

// TogglePower switches the set on or off.
func (s *Set) TogglePower(ctx context.Context) error {
	s.mu.Lock()
	on := s.powered
	s.mu.Unlock()

	if on {
		s.PowerOff()
		return nil
	}
	return s.PowerOn(ctx)
}

// PowerOn turns the set on and tunes to the current channel.
func (s *Set) PowerOn(ctx context.Context) error {
	s.mu.Lock()
	if s.powered {
		s.mu.Unlock()
		return nil
	}
	s.powered = true
	ch := s.channel
	s.mu.Unlock()

	s.display.ShowStatus(powerOnMessage)
	return s.tuner.Connect(ctx, ch)
}

// PowerOff drops the connection and blanks the screen.
func (s *Set) PowerOff() {
	s.mu.Lock()
	s.powered = false
	s.mu.Unlock()

	s.tuner.Disconnect()
	s.display.ShowStatus(PoweredOffMessage)
}

// Preset selects the channel the set tunes to at the next power on. It has
// no effect while the set is on.
func (s *Set) Preset(channel int) error {
	if channel < 0 || channel >= len(s.channels) {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, channel+1)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.powered {
		s.channel = channel
	}
	return nil
}

// ChangeChannel tunes to channel. It is ignored while the set is off, and
// re-selecting the channel already playing keeps the current connection.
func (s *Set) ChangeChannel(ctx context.Context, channel int) error {
	if channel < 0 || channel >= len(s.channels) {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, channel+1)
	}

	s.mu.Lock()
	if !s.powered {
		s.mu.Unlock()
		return nil
	}
	if channel == s.channel && s.tuner.Connected() {
		s.mu.Unlock()
		return nil
	}
	s.channel = channel
	s.mu.Unlock()

	s.display.ShowStatus(fmt.Sprintf("Changing to channel %d...\n\nPlease wait...", channel+1))
	return s.tuner.Connect(ctx, channel)
}

// AdjustVolume moves the volume by delta within 0-100. Raising the volume
// above zero unmutes.
func (s *Set) AdjustVolume(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.powered {
		return
	}
	s.volume = clamp(s.volume + delta)
	if s.muted && s.volume > 0 {
		s.muted = false
	}
}

func (s *Set) VolumeUp()   { s.AdjustVolume(s.step) }
func (s *Set) VolumeDown() { s.AdjustVolume(-s.step) }

// ToggleMute flips mute while the set is on.
func (s *Set) ToggleMute() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.powered {
		s.muted = !s.muted
	}
}

// State returns a copy of the current state.
func (s *Set) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Powered:     s.powered,
		Channel:     s.channel,
		ChannelName: s.channels[s.channel],
		Volume:      s.volume,
		Muted:       s.muted,
		Connected:   s.tuner.Connected(),
	}
}

// Info is the one-line on-screen description of the set.
func (s *Set) Info() string {
	st := s.State()
	if !st.Powered {
		return "Powered Off"
	}
	vol := fmt.Sprintf("%d%%", st.Volume)
	if st.Muted {
		vol = "MUTED"
	}
	return fmt.Sprintf("Channel %d: %s | Volume %s", st.Channel+1, st.ChannelName, vol)
}

func clamp(v int) int {
	return max(0, min(100, v))
}

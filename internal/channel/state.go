package channel

import (
	"strconv"
	"sync"
	"time"

	"github.com/dgnsrekt/asciitv/internal/metrics"
)

// Status describes the health of a channel's broadcaster.
type Status string

const (
	StatusStarting Status = "starting"
	StatusLive     Status = "live"
	StatusFailed   Status = "failed"
)

// Unit is one published line. Seq increases by one on every publish
// and is zero before the first one.
type Unit struct {
	Text string
	Seq  uint64
}

// Viewer identifies one attached connection.
type Viewer struct {
	ID         string
	RemoteAddr string
	Transport  string
	AttachedAt time.Time
}

// State holds the latest unit of one channel and the viewers attached to it.
// A single mutex guards both, and it is never held across I/O.
type State struct {
	index  int
	name   string
	source string
	label  string // index as a metrics label

	mu      sync.Mutex
	current Unit
	viewers map[*Viewer]struct{}
	status  Status
}

// NewState creates the state for channel index backed by the file at source.
func NewState(index int, name, source string) *State {
	return &State{
		index:   index,
		name:    name,
		source:  source,
		label:   strconv.Itoa(index),
		viewers: make(map[*Viewer]struct{}),
		status:  StatusStarting,
	}
}

func (s *State) Index() int     { return s.index }
func (s *State) Name() string   { return s.name }
func (s *State) Source() string { return s.source }

// Publish overwrites the current unit. Only the channel's broadcaster calls it.
func (s *State) Publish(text string) {
	s.mu.Lock()
	s.current = Unit{Text: text, Seq: s.current.Seq + 1}
	s.mu.Unlock()

	metrics.UnitsPublished.WithLabelValues(s.label).Inc()
}

// Snapshot returns the current unit.
func (s *State) Snapshot() Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Attach adds v to the viewer set. Attaching twice is a no-op.
func (s *State) Attach(v *Viewer) {
	s.mu.Lock()
	s.viewers[v] = struct{}{}
	n := len(s.viewers)
	s.mu.Unlock()

	metrics.ChannelViewers.WithLabelValues(s.label).Set(float64(n))
}

// Detach removes v from the viewer set and reports whether it was present.
func (s *State) Detach(v *Viewer) bool {
	s.mu.Lock()
	_, ok := s.viewers[v]
	delete(s.viewers, v)
	n := len(s.viewers)
	s.mu.Unlock()

	if ok {
		metrics.ChannelViewers.WithLabelValues(s.label).Set(float64(n))
	}
	return ok
}

func (s *State) attached(v *Viewer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.viewers[v]
	return ok
}

// ViewerCount returns the number of attached viewers.
func (s *State) ViewerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewers)
}

func (s *State) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Info is a point-in-time description of a channel.
type Info struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Source  string `json:"source"`
	Status  Status `json:"status"`
	Viewers int    `json:"viewers"`
	Current string `json:"current"`
	Seq     uint64 `json:"seq"`
}

// Info returns a consistent view of the channel.
func (s *State) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Info{
		Index:   s.index,
		Name:    s.name,
		Source:  s.source,
		Status:  s.status,
		Viewers: len(s.viewers),
		Current: s.current.Text,
		Seq:     s.current.Seq,
	}
}

package channel

// Definition configures one channel.
type Definition struct {
	Name   string
	Source string
}

// Registry is the fixed table of channels built once at startup.
type Registry struct {
	channels []*State
}

// NewRegistry creates one State per definition; the slice position is the
// channel index.
func NewRegistry(defs []Definition) *Registry {
	channels := make([]*State, len(defs))
	for i, def := range defs {
		channels[i] = NewState(i, def.Name, def.Source)
	}
	return &Registry{channels: channels}
}

// Len returns the number of channels.
func (r *Registry) Len() int {
	return len(r.channels)
}

// Get returns the channel at index, or false when index is outside [0, Len()).
func (r *Registry) Get(index int) (*State, bool) {
	if index < 0 || index >= len(r.channels) {
		return nil, false
	}
	return r.channels[index], true
}

// All returns every channel in index order.
func (r *Registry) All() []*State {
	out := make([]*State, len(r.channels))
	copy(out, r.channels)
	return out
}

// Infos describes every channel in index order.
func (r *Registry) Infos() []Info {
	infos := make([]Info, 0, len(r.channels))
	for _, ch := range r.channels {
		infos = append(infos, ch.Info())
	}
	return infos
}

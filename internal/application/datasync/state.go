package datasync

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Source tells where a fetch result came from
type Source string

const (
	SourceCache  Source = "cache"
	SourceRemote Source = "remote"
	SourceSample Source = "sample"
	SourceMock   Source = "mock"
	sourceError  Source = "error"
)

// ResourceState is the loading and error state of one resource
type ResourceState struct {
	Resource  string    `json:"resource"`
	Loading   bool      `json:"loading"`
	Source    Source    `json:"source,omitempty"`
	SoftError string    `json:"soft_error,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`

	inFlight int
}

// StateTracker records per-resource state. Safe for concurrent use.
type StateTracker struct {
	mu     sync.RWMutex
	states map[string]*ResourceState
	now    func() time.Time
}

// NewStateTracker creates an empty tracker
func NewStateTracker() *StateTracker {
	return &StateTracker{states: make(map[string]*ResourceState), now: time.Now}
}

func (t *StateTracker) entry(resource string) *ResourceState {
	st, ok := t.states[resource]
	if !ok {
		st = &ResourceState{Resource: resource}
		t.states[resource] = st
	}
	return st
}

func (t *StateTracker) begin(resource string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.entry(resource)
	st.inFlight++
	st.Loading = true
}

// finish records the outcome of a fetch. When ctx is already done the caller
// has gone away and only the in-flight count is updated.
func (t *StateTracker) finish(ctx context.Context, resource string, source Source, softErr, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.entry(resource)
	if st.inFlight > 0 {
		st.inFlight--
	}
	st.Loading = st.inFlight > 0
	if ctx.Err() != nil {
		return
	}
	st.Source = source
	st.SoftError = ""
	st.Error = ""
	if softErr != nil {
		st.SoftError = softErr.Error()
	}
	if err != nil {
		st.Error = err.Error()
	}
	st.UpdatedAt = t.now()
}

// Get returns the state of resource
func (t *StateTracker) Get(resource string) ResourceState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if st, ok := t.states[resource]; ok {
		return *st
	}
	return ResourceState{Resource: resource}
}

// All returns every known resource state sorted by name
func (t *StateTracker) All() []ResourceState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ResourceState, 0, len(t.states))
	for _, st := range t.states {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resource < out[j].Resource })
	return out
}

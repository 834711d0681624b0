// internal/registry/registry.go
package registry

import (
	"sync"
	"sync/atomic"
)

// Session is one connected viewer as seen by the broadcaster.
type Session interface {
	ID() string
	Send([]byte) error
}

// Outcome is the result of one send inside a broadcast.
type Outcome struct {
	SessionID string
	Err       error
}

// Registry is the live viewer set.
// Membership is copy-on-write: Register/Unregister publish a new
// immutable slice; Broadcast reads the current one without locking.
type Registry struct {
	mu      sync.Mutex // serializes writers only
	members atomic.Pointer[[]Session]
}

// New returns an empty registry.
func New() *Registry {
	r := &Registry{}
	empty := []Session{}
	r.members.Store(&empty)
	return r
}

// Register adds s. Registering the same session id twice replaces it.
func (r *Registry) Register(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.members.Load()
	next := make([]Session, 0, len(cur)+1)
	for _, m := range cur {
		if m.ID() != s.ID() {
			next = append(next, m)
		}
	}
	next = append(next, s)
	r.members.Store(&next)
}

// Unregister removes s. Unknown sessions are a no-op.
func (r *Registry) Unregister(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.members.Load()
	next := make([]Session, 0, len(cur))
	for _, m := range cur {
		if m.ID() != s.ID() {
			next = append(next, m)
		}
	}
	if len(next) == len(cur) {
		return
	}
	r.members.Store(&next)
}

// Len is the current member count.
func (r *Registry) Len() int {
	return len(*r.members.Load())
}

// Snapshot returns the current members. The slice must not be modified.
func (r *Registry) Snapshot() []Session {
	return *r.members.Load()
}

// Broadcast sends buf to every member of the current snapshot.
// Each send is independent: a failure neither stops the loop nor
// changes membership. Removal is the session's own teardown job.
func (r *Registry) Broadcast(buf []byte) []Outcome {
	members := r.Snapshot()
	if len(members) == 0 {
		return nil
	}

	out := make([]Outcome, 0, len(members))
	for _, s := range members {
		out = append(out, Outcome{
			SessionID: s.ID(),
			Err:       s.Send(buf),
		})
	}
	return out
}

// Failed counts outcomes carrying an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

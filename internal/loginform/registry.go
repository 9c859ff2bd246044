package loginform

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Factory builds the controller for a newly mounted form.
type Factory func() *Controller

type entry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry keeps one controller per mounted form, keyed by form id.
// Entries idle for longer than the TTL are dropped on the next Mount.
type Registry struct {
	factory Factory
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	forms map[string]*entry
}

// NewRegistry creates a registry. A non-positive ttl disables pruning.
func NewRegistry(factory Factory, ttl time.Duration) *Registry {
	return &Registry{
		factory: factory,
		ttl:     ttl,
		now:     time.Now,
		forms:   make(map[string]*entry),
	}
}

// Mount creates a fresh form under a new id.
func (r *Registry) Mount() (string, *Controller) {
	id := uuid.NewString()
	return id, r.Reset(id)
}

// Reset replaces the controller stored under id with a fresh one.
func (r *Registry) Reset(id string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()
	ctrl := r.factory()
	r.forms[id] = &entry{ctrl: ctrl, lastSeen: r.now()}
	return ctrl
}

// Get returns the live controller for id.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.forms[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.ctrl, true
}

// Delete drops the controller for id.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.forms, id)
}

// Len reports the number of mounted forms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

func (r *Registry) pruneLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	for id, e := range r.forms {
		// A form with an attempt in flight is never pruned.
		if e.lastSeen.Before(cutoff) && !e.ctrl.State().Loading {
			delete(r.forms, id)
		}
	}
}

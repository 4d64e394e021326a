package session

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	sessionTTL      = 2 * time.Hour
	cleanupInterval = 10 * time.Minute
)

// Registry tracks the open sessions, bounded to a fixed count. When a new
// upload would exceed the bound, the oldest session is evicted. Sessions also
// expire after sessionTTL of disuse.
type Registry struct {
	mu    sync.Mutex
	cache *gocache.Cache
	order []string
	max   int
}

// NewRegistry creates a registry holding at most max sessions.
func NewRegistry(max int) *Registry {
	return &Registry{
		cache: gocache.New(sessionTTL, cleanupInterval),
		max:   max,
	}
}

// Open creates and registers a session for a newly uploaded bitmap. The key
// identifies the upload; re-opening an existing key replaces its session.
func (r *Registry) Open(key string, width, height int) *Session {
	s := New(width, height)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reconcile()
	r.dropKey(key)
	for len(r.order) >= r.max {
		oldest := r.order[0]
		r.order = r.order[1:]
		r.cache.Delete(oldest)
	}
	r.cache.Set(key, s, gocache.DefaultExpiration)
	r.order = append(r.order, key)
	return s
}

// Get returns the session for a key, if still live.
func (r *Registry) Get(key string) (*Session, bool) {
	v, ok := r.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Clear destroys one session.
func (r *Registry) Clear(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropKey(key)
	r.cache.Delete(key)
}

// ClearAll destroys every session.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.cache.Flush()
}

// Keys returns the live session keys in insertion order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconcile()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// reconcile drops order entries whose sessions have expired out of the cache.
// Caller holds the lock.
func (r *Registry) reconcile() {
	live := r.order[:0]
	for _, k := range r.order {
		if _, ok := r.cache.Get(k); ok {
			live = append(live, k)
		}
	}
	r.order = live
}

// dropKey removes a key from the insertion order. Caller holds the lock.
func (r *Registry) dropKey(key string) {
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

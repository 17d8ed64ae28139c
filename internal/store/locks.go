package store

import "sync"

// LockRegistry hands out one mutex per slug. An entry lives while someone holds
// or waits for it, so every caller for a slug contends on the same mutex and
// idle slugs cost nothing.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[string]*slugLock
}

type slugLock struct {
	mu   sync.Mutex
	refs int // holders plus waiters, guarded by LockRegistry.mu
}

// NewLockRegistry creates an empty registry.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: make(map[string]*slugLock)}
}

// Lock blocks until the slug's mutex is held and returns its unlock function.
// The unlock function must be called exactly once.
func (r *LockRegistry) Lock(slug string) func() {
	r.mu.Lock()
	l, ok := r.locks[slug]
	if !ok {
		l = &slugLock{}
		r.locks[slug] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, slug)
		}
		r.mu.Unlock()
	}
}

// Len returns the number of slugs currently held or waited on.
func (r *LockRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

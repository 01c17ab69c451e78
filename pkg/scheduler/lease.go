package scheduler

import (
	"sync"
	"time"
)

// lease records the holder of one thread's execution slot.
type lease struct {
	acquiredAt time.Time
}

// LeaseRegistry enforces per-thread mutual exclusion inside one process. At
// most one run may hold a given thread ID at a time; a second trigger for the
// same thread is rejected with ErrLeaseHeld instead of racing the first.
type LeaseRegistry struct {
	mu     sync.Mutex
	leases map[string]lease
}

func NewLeaseRegistry() *LeaseRegistry {
	return &LeaseRegistry{leases: make(map[string]lease)}
}

// Acquire takes the lease for threadID. The returned release function must be
// called exactly once when the run finishes, regardless of outcome.
func (r *LeaseRegistry) Acquire(threadID string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.leases[threadID]; held {
		return nil, ErrLeaseHeld
	}

	r.leases[threadID] = lease{acquiredAt: time.Now().UTC()}

	var once sync.Once

	release := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.leases, threadID)
		})
	}

	return release, nil
}

// Held reports whether threadID currently has an active lease.
func (r *LeaseRegistry) Held(threadID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, held := r.leases[threadID]

	return held
}

// Active returns the number of currently held leases.
func (r *LeaseRegistry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.leases)
}

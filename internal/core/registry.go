package core

import (
	"sync"
	"time"
)

// FireFunc is invoked (in a timer goroutine) when an armed task comes due.
// The registry ignores its outcome; run errors are the caller's to log.
type FireFunc func(taskID string)

// Registry owns the in-memory one-shot timers for scheduled tasks, keyed by
// task id. At most one timer is armed per task; arming again replaces the
// previous timer. It is a rebuildable cache over the store, never the
// system of record.
type Registry struct {
	clock Clock
	fire  FireFunc

	lock   sync.Mutex
	armed  map[string]*armedTimer
	closed bool
}

type armedTimer struct {
	timer Timer
	at    time.Time
}

// NewRegistry returns an empty registry that calls fire when timers pop.
func NewRegistry(clock Clock, fire FireFunc) *Registry {
	return &Registry{
		clock: clock,
		fire:  fire,
		armed: map[string]*armedTimer{},
	}
}

// Arm schedules the given task to fire at the given instant, replacing any
// timer already armed for it. Instants in the past fire immediately.
func (r *Registry) Arm(taskID string, at time.Time) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return
	}
	if prev, ok := r.armed[taskID]; ok {
		prev.timer.Stop()
	}

	delay := at.Sub(r.clock.Now())
	if delay < 0 {
		delay = 0
	}

	entry := &armedTimer{at: at}
	entry.timer = r.clock.AfterFunc(delay, func() {
		r.pop(taskID, entry)
	})
	r.armed[taskID] = entry
}

// Disarm cancels the task's pending timer, if any.
func (r *Registry) Disarm(taskID string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	entry, ok := r.armed[taskID]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(r.armed, taskID)
	return true
}

// NextFire returns the instant the task's timer will pop, or nil if the
// task is not armed.
func (r *Registry) NextFire(taskID string) *time.Time {
	r.lock.Lock()
	defer r.lock.Unlock()

	entry, ok := r.armed[taskID]
	if !ok {
		return nil
	}
	at := entry.at
	return &at
}

// Len returns the number of armed timers.
func (r *Registry) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.armed)
}

// Shutdown stops every armed timer and refuses further arming.
// Fires already in flight are not interrupted.
func (r *Registry) Shutdown() {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.closed = true
	for id, entry := range r.armed {
		entry.timer.Stop()
		delete(r.armed, id)
	}
}

// pop runs when a timer goes off. A timer replaced or disarmed after it was
// scheduled can still go off; the entry check drops those stale pops.
func (r *Registry) pop(taskID string, entry *armedTimer) {
	r.lock.Lock()
	if r.closed || r.armed[taskID] != entry {
		r.lock.Unlock()
		return
	}
	delete(r.armed, taskID)
	r.lock.Unlock()

	r.fire(taskID)
}

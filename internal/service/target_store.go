package service

import (
	"math"
	"time"

	"mini_thermostat/internal/models"
)

// DebounceWindow is the quiet period after the last proposal before the
// target temperature is committed.
const DebounceWindow = 2000 * time.Millisecond

// tempTolerance absorbs float drift from repeated step arithmetic.
const tempTolerance = 1e-6

// Timer is a cancellable one-shot timer.
type Timer interface {
	Stop() bool
}

// Scheduler arms one-shot timers.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler is backed by time.AfterFunc.
var RealScheduler Scheduler = realScheduler{}

// TargetStore holds the locally intended target temperature until the host
// confirms it. It is not safe for concurrent use; the Card event loop owns it.
//
// At most one commit is scheduled at a time. Every new proposal stops the
// outstanding timer and bumps the generation, so a timer that already fired
// and raced with the proposal is recognised as stale in Expire.
type TargetStore struct {
	entityID string
	value    *float64
	pending  bool

	sched    Scheduler
	onExpire func(gen uint64)
	timer    Timer
	armed    bool
	gen      uint64

	dispatcher Dispatcher
}

// NewTargetStore builds a store. onExpire is called from the timer goroutine
// with the generation of the commit that came due; the owner must hand it
// back to Expire on its own event path.
func NewTargetStore(sched Scheduler, onExpire func(gen uint64)) *TargetStore {
	if sched == nil {
		sched = RealScheduler
	}
	return &TargetStore{sched: sched, onExpire: onExpire}
}

// Reset cancels any scheduled commit and forgets all local state.
func (s *TargetStore) Reset(entityID string) {
	s.cancel()
	s.entityID = entityID
	s.value = nil
	s.pending = false
}

// ProposeDelta moves the intended target by delta from the displayed value.
func (s *TargetStore) ProposeDelta(delta float64) (float64, error) {
	if s.value == nil {
		return 0, ErrNoTarget
	}
	return s.ProposeAbsolute(*s.value + delta), nil
}

// ProposeAbsolute sets the intended target and (re)schedules the commit.
func (s *TargetStore) ProposeAbsolute(v float64) float64 {
	s.value = &v
	s.pending = true
	s.schedule()
	return v
}

// Reconcile folds an authoritative snapshot into the store. Only a snapshot
// arriving after the commit was handed off can clear the pending flag.
func (s *TargetStore) Reconcile(snap models.EntitySnapshot) {
	incoming := snap.TargetTemperature
	if !s.pending {
		s.value = copyTemp(incoming)
		return
	}
	// A queued commit has not reached the host yet, so no snapshot can
	// confirm it; a match here is stale and the commit must still fire.
	if s.armed {
		return
	}
	if incoming != nil && s.value != nil && sameTemp(*incoming, *s.value) {
		s.pending = false
		s.value = copyTemp(incoming)
	}
}

// Expire commits the value for generation gen. It reports false for stale
// generations and for commits that were cancelled in the meantime.
func (s *TargetStore) Expire(gen uint64) (models.CommandRecord, bool) {
	if !s.armed || gen != s.gen || s.value == nil {
		return models.CommandRecord{}, false
	}
	s.armed = false
	s.timer = nil
	return s.dispatcher.SetTemperature(s.entityID, *s.value), true
}

// Displayed is the value the user sees: the pending value while a change is
// outstanding, else the latest snapshot target.
func (s *TargetStore) Displayed() *float64 {
	return copyTemp(s.value)
}

// Pending reports whether a local change awaits confirmation.
func (s *TargetStore) Pending() bool {
	return s.pending
}

// CommitScheduled reports whether a debounced commit is outstanding.
func (s *TargetStore) CommitScheduled() bool {
	return s.armed
}

// EntityID is the entity the store currently tracks.
func (s *TargetStore) EntityID() string {
	return s.entityID
}

func (s *TargetStore) schedule() {
	s.cancel()
	gen := s.gen
	onExpire := s.onExpire
	s.armed = true
	s.timer = s.sched.AfterFunc(DebounceWindow, func() {
		if onExpire != nil {
			onExpire(gen)
		}
	})
}

func (s *TargetStore) cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.armed = false
	s.gen++
}

func sameTemp(a, b float64) bool {
	return math.Abs(a-b) < tempTolerance
}

func copyTemp(t *float64) *float64 {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Package state holds the dashboard's mutable state: the latest rendered
// snapshot and the auto-refresh settings. Snapshots are replaced wholesale at
// cycle boundaries; readers never observe a partially updated view.
package state

import (
	"sync"
	"sync/atomic"
	"time"

	"clobview/internal/view"
)

type State struct {
	snapMu   sync.RWMutex
	snapshot view.Snapshot
	haveSnap bool

	autoMu   sync.Mutex
	autoOn   bool
	interval time.Duration

	backendUp atomic.Bool
}

func New(defaultInterval time.Duration) *State {
	return &State{interval: defaultInterval}
}

// SetSnapshot installs a freshly built snapshot, discarding the previous one.
func (s *State) SetSnapshot(snap view.Snapshot) {
	s.snapMu.Lock()
	s.snapshot = snap
	s.haveSnap = true
	s.snapMu.Unlock()
	s.backendUp.Store(!snap.Unavailable)
}

// Snapshot returns the last rendered snapshot; ok is false before the first
// completed cycle.
func (s *State) Snapshot() (view.Snapshot, bool) {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snapshot, s.haveSnap
}

func (s *State) BackendUp() bool { return s.backendUp.Load() }

// SetAuto records the operator's auto-refresh toggle and interval.
func (s *State) SetAuto(on bool, interval time.Duration) {
	s.autoMu.Lock()
	defer s.autoMu.Unlock()
	s.autoOn = on
	if interval > 0 {
		s.interval = interval
	}
}

func (s *State) Auto() (bool, time.Duration) {
	s.autoMu.Lock()
	defer s.autoMu.Unlock()
	return s.autoOn, s.interval
}

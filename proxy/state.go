package proxy

import (
	"sync"

	"github.com/sturdilythatch87/tari/basenode"
	"github.com/sturdilythatch87/tari/merge_mining"
)

// PendingWork auxiliary block waiting for the proof of work of the template handed out last
type PendingWork struct {
	Block *basenode.Block
	// SeedHash RandomX seed of the upstream template, as returned by monerod
	SeedHash string
	Job      merge_mining.AuxiliaryJob
}

type optionalHeight struct {
	height uint64
	ok     bool
}

func (h *optionalHeight) set(height uint64) {
	h.height, h.ok = height, true
}

// State shared by all request handlers. Every handler takes the write lock
type State struct {
	lock sync.RWMutex

	pending             *PendingWork
	lastKnownHeight     optionalHeight
	lastSubmittedHeight optionalHeight
}

func NewState() *State {
	return &State{}
}

func (s *State) Pending() *PendingWork {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.pending
}

// LastKnownHeight auxiliary tip height seen by the last template or height request
func (s *State) LastKnownHeight() (uint64, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.lastKnownHeight.height, s.lastKnownHeight.ok
}

// LastSubmittedHeight last known height at the time of the last auxiliary submission
func (s *State) LastSubmittedHeight() (uint64, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.lastSubmittedHeight.height, s.lastSubmittedHeight.ok
}

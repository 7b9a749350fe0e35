package server

import (
	"sync"
	"time"

	"github.com/matzehuels/collage/pkg/collage"
)

type slotEntry struct {
	slot     *collage.Slot
	lastUsed time.Time
}

// slots hands out one supersession slot per client ID. Slots idle for
// longer than ttl are dropped on the next lookup.
type slots struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*slotEntry
	now     func() time.Time
}

func newSlots(ttl time.Duration) *slots {
	return &slots{ttl: ttl, entries: make(map[string]*slotEntry), now: time.Now}
}

// get returns the slot for client, creating it if needed. An empty client
// gets no slot.
func (s *slots) get(client string) *collage.Slot {
	if client == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.entries {
		if now.Sub(e.lastUsed) > s.ttl {
			delete(s.entries, id)
		}
	}
	e, ok := s.entries[client]
	if !ok {
		e = &slotEntry{slot: &collage.Slot{}}
		s.entries[client] = e
	}
	e.lastUsed = now
	return e.slot
}

func (s *slots) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

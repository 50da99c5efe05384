package game

import (
	"sync"

	"go.uber.org/zap"
)

// Store holds the single canonical GameState for one table. Readers always
// see either the previous state or the fully mutated next state; partial
// application is never visible. Mutation goes through the action processor
// and lands here as a wholesale replacement.
type Store struct {
	logger *zap.Logger

	mu      sync.RWMutex
	state   *GameState
	nextSub int
	subs    map[int]chan *GameState
}

// NewStore creates a store around the initial state.
func NewStore(initial *GameState, logger *zap.Logger) *Store {
	return &Store{
		logger: logger,
		state:  initial,
		subs:   make(map[int]chan *GameState),
	}
}

// State returns a deep copy of the current state.
func (s *Store) State() *GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Copy()
}

// Commit atomically replaces the canonical state and notifies subscribers
// with deep copies of the new state.
func (s *Store) Commit(next *GameState) {
	s.mu.Lock()
	s.state = next
	subs := make([]chan *GameState, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- next.Copy():
		default:
			if s.logger != nil {
				s.logger.Warn("dropping state notification, subscriber not keeping up")
			}
		}
	}
}

// Subscribe registers for full-state notifications after each commit. The
// returned cancel func must be called when done.
func (s *Store) Subscribe() (<-chan *GameState, func()) {
	ch := make(chan *GameState, 16)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return ch, cancel
}

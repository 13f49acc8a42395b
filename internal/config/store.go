package config

import "sync"

// Store holds the live simulation settings. The scheduler reads a fresh
// snapshot before every decision so file-driven changes apply without a
// restart.
type Store struct {
	mu      sync.RWMutex
	sim     SimConfig
	version uint64
}

func NewStore(sim SimConfig) *Store {
	return &Store{sim: sim, version: 1}
}

// Sim returns the current settings snapshot.
func (s *Store) Sim() SimConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sim
}

// Version increments on every settings change, letting readers detect
// staleness without comparing snapshots.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Replace swaps the settings wholesale.
func (s *Store) Replace(sim SimConfig) {
	s.mu.Lock()
	s.sim = sim
	s.version++
	s.mu.Unlock()
}

// Update applies fn to a copy of the current settings and installs the
// result.
func (s *Store) Update(fn func(SimConfig) SimConfig) {
	s.mu.Lock()
	s.sim = fn(s.sim)
	s.version++
	s.mu.Unlock()
}

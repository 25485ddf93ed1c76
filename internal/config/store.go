package config

import (
	"sync/atomic"

	"github.com/insightpdf/insightpdf/internal/domain"
)

// Store owns the process-wide active ModelConfig. Reads always see a
// fully-formed configuration; updates replace the value wholesale.
type Store struct {
	current atomic.Pointer[domain.ModelConfig]
}

// NewStore creates a store seeded with the given configuration.
func NewStore(initial domain.ModelConfig) *Store {
	s := &Store{}
	s.current.Store(&initial)
	return s
}

// Current returns the active model configuration.
func (s *Store) Current() domain.ModelConfig {
	return *s.current.Load()
}

// Replace atomically swaps in a new configuration and returns the previous one.
func (s *Store) Replace(cfg domain.ModelConfig) domain.ModelConfig {
	prev := s.current.Swap(&cfg)
	return *prev
}

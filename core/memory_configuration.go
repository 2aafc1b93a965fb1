package core

import (
	"context"
	"sync"
)

type MemoryConfigurationStore struct {
	mu     sync.RWMutex
	config *Configuration
}

func NewMemoryConfigurationStore() *MemoryConfigurationStore {
	return &MemoryConfigurationStore{}
}

func (s *MemoryConfigurationStore) Load(context.Context) (Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return Configuration{}, ErrConfigurationNotFound
	}
	return *s.config, nil
}

func (s *MemoryConfigurationStore) Save(_ context.Context, cfg Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := cfg
	s.config = &copied
	return nil
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Storage. Safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

func NewMemory() *Memory {
	return &Memory{stores: map[string]*MemoryStore{}}
}

func (m *Memory) Open(_ context.Context, name string) (Store, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.stores[name]
	if !ok {
		s = &MemoryStore{entries: map[string]*Entry{}}
		m.stores[name] = s
	}
	return s, nil
}

// Names returns the names of every store opened so far.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.stores))
	for n := range m.stores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func (s *MemoryStore) Match(_ context.Context, key string) (*Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	return e, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = e
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package mem is an in-memory storage.Storage.
package mem

import (
	"context"
	"sort"
	"sync"

	"github.com/xStarless-Skyx/skparse/storage"
)

type Storage struct {
	sync.RWMutex
	vars   map[string]interface{}
	closed bool
}

func NewStorage() *Storage {
	return &Storage{
		vars: make(map[string]interface{}),
	}
}

func (s *Storage) Get(ctx context.Context, name string) (interface{}, bool, error) {
	s.RLock()
	defer s.RUnlock()
	if s.closed {
		return nil, false, storage.Closed
	}
	v, have := s.vars[name]
	return v, have, nil
}

func (s *Storage) Put(ctx context.Context, name string, v interface{}) error {
	s.Lock()
	defer s.Unlock()
	if s.closed {
		return storage.Closed
	}
	s.vars[name] = v
	return nil
}

func (s *Storage) Delete(ctx context.Context, name string) error {
	s.Lock()
	defer s.Unlock()
	if s.closed {
		return storage.Closed
	}
	delete(s.vars, name)
	return nil
}

func (s *Storage) Names(ctx context.Context) ([]string, error) {
	s.RLock()
	defer s.RUnlock()
	if s.closed {
		return nil, storage.Closed
	}
	acc := make([]string, 0, len(s.vars))
	for name := range s.vars {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc, nil
}

func (s *Storage) Close() error {
	s.Lock()
	s.closed = true
	s.Unlock()
	return nil
}

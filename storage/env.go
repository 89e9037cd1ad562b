package storage

import (
	"context"
	"sync"
	"time"

	"github.com/xStarless-Skyx/skparse/core"
)

// Env is a core.Env with local variables in memory and global
// variables in a Storage.
type Env struct {
	Storage Storage

	// Clock defaults to time.Now.
	Clock func() time.Time

	mu     sync.Mutex
	locals map[string]core.Value
}

// NewEnv makes an Env with no local variables.
func NewEnv(s Storage) *Env {
	return &Env{
		Storage: s,
		locals:  make(map[string]core.Value),
	}
}

func (e *Env) Get(ctx context.Context, name string, scope core.Scope) (core.Value, error) {
	if scope == core.Local {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.locals[name], nil
	}
	v, _, err := e.Storage.Get(ctx, name)
	return v, err
}

func (e *Env) Set(ctx context.Context, name string, scope core.Scope, v core.Value) error {
	if scope == core.Local {
		e.mu.Lock()
		e.locals[name] = v
		e.mu.Unlock()
		return nil
	}
	return e.Storage.Put(ctx, name, v)
}

func (e *Env) Delete(ctx context.Context, name string, scope core.Scope) error {
	if scope == core.Local {
		e.mu.Lock()
		delete(e.locals, name)
		e.mu.Unlock()
		return nil
	}
	return e.Storage.Delete(ctx, name)
}

func (e *Env) Now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock()
}

// Locals returns a copy of the local variables.
func (e *Env) Locals() map[string]core.Value {
	e.mu.Lock()
	defer e.mu.Unlock()
	acc := make(map[string]core.Value, len(e.locals))
	for k, v := range e.locals {
		acc[k] = v
	}
	return acc
}

// SetLocals adds the given local variables.
func (e *Env) SetLocals(vs map[string]core.Value) {
	e.mu.Lock()
	for k, v := range vs {
		e.locals[k] = v
	}
	e.mu.Unlock()
}

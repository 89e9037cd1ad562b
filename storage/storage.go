// Package storage persists global variables.
package storage

import (
	"context"
	"errors"
)

// Storage is a persistence interface for global variables.
//
// Get returns false for a variable that isn't there.  Deleting a
// missing variable isn't an error.
type Storage interface {
	Get(ctx context.Context, name string) (interface{}, bool, error)

	Put(ctx context.Context, name string, v interface{}) error

	Delete(ctx context.Context, name string) error

	// Names returns the names of the stored variables, sorted.
	Names(ctx context.Context) ([]string, error)

	Close() error
}

// Closed is returned by a Storage after Close.
var Closed = errors.New("storage closed")

// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// Storage errors shared by all ModelStore implementations.
var (
	// ErrModelNotFound is returned when no model exists for a name or a
	// name/version pair.
	ErrModelNotFound = errors.New("model not found")

	// ErrVersionExists is returned by Put when the version is already
	// stored for that name. Versions are append-only.
	ErrVersionExists = errors.New("model version already exists")
)

// ModelStore persists serialized validation models, keyed by model name
// and version. The core treats the serialized form as an opaque string it
// produces and consumes through the codec.
type ModelStore interface {
	// Get retrieves the serialized model for a name and version.
	Get(ctx context.Context, name string, version int) (string, error)

	// GetLatest retrieves the newest stored version of a model.
	GetLatest(ctx context.Context, name string) (serialized string, version int, err error)

	// Put stores a serialized model under a new version. It fails with
	// ErrVersionExists if the version is already present for that name.
	Put(ctx context.Context, name string, version int, serialized string) error

	// ListVersions returns all stored versions for a name, descending.
	ListVersions(ctx context.Context, name string) ([]int, error)
}

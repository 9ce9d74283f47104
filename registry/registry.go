// Package registry provides persistence for staged migrations.
package registry

import (
	"context"

	"github.com/getpup/pgstage"
)

// Registry stores migrations between stage and commit. Implementations
// must be safe for concurrent single-key access from interleaved requests.
//
// The orchestrator generates migration IDs; stores never invent keys.
type Registry interface {
	// Put stores a migration under its ID.
	Put(ctx context.Context, migration pgstage.Migration) error

	// Get returns the migration with the given ID.
	// Returns pgstage.ErrMigrationNotFound if the ID is unknown.
	Get(ctx context.Context, id string) (pgstage.Migration, error)

	// Remove deletes the migration with the given ID.
	// Returns pgstage.ErrMigrationNotFound if the ID is unknown.
	Remove(ctx context.Context, id string) error

	// List returns all stored migrations in unspecified order.
	// Returns an empty slice if the registry is empty.
	List(ctx context.Context) ([]pgstage.Migration, error)
}

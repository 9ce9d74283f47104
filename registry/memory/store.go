// Package memory provides an in-memory Registry implementation.
//
// Staged migrations do not survive a process restart with this backend;
// that is a deliberate availability trade-off, not an accident. Use the
// sqlite backend when the server is expected to run long-lived.
package memory

import (
	"context"
	"sync"

	"github.com/getpup/pgstage"
)

// Store is an in-memory implementation of registry.Registry. It provides
// thread-safe access to migrations using a sync.RWMutex.
type Store struct {
	mu         sync.RWMutex
	migrations map[string]pgstage.Migration // migrationID -> migration
}

// New creates a new in-memory store with an initialized map.
func New() *Store {
	return &Store{
		migrations: make(map[string]pgstage.Migration),
	}
}

// Put stores a migration under its ID.
func (s *Store) Put(ctx context.Context, migration pgstage.Migration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.migrations[migration.ID] = migration

	return nil
}

// Get returns the migration with the given ID.
// Returns pgstage.ErrMigrationNotFound if the ID is unknown.
func (s *Store) Get(ctx context.Context, id string) (pgstage.Migration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	migration, ok := s.migrations[id]
	if !ok {
		return pgstage.Migration{}, pgstage.ErrMigrationNotFound
	}

	return migration, nil
}

// Remove deletes the migration with the given ID.
// Returns pgstage.ErrMigrationNotFound if the ID is unknown.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.migrations[id]; !ok {
		return pgstage.ErrMigrationNotFound
	}

	delete(s.migrations, id)

	return nil
}

// List returns all stored migrations in unspecified order.
// Returns an empty slice if the registry is empty.
func (s *Store) List(ctx context.Context) ([]pgstage.Migration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	migrations := make([]pgstage.Migration, 0, len(s.migrations))
	for _, migration := range s.migrations {
		migrations = append(migrations, migration)
	}

	return migrations, nil
}

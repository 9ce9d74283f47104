package registry

import (
	"context"
	"sync"

	"github.com/getpup/pgstage"
)

// MockRegistry is a configurable mock implementation of Registry for use in
// tests. It allows setting up expected return values, tracking method calls,
// and injecting errors for testing error paths.
type MockRegistry struct {
	mu sync.Mutex

	// PutFunc is called by Put if set.
	PutFunc func(ctx context.Context, migration pgstage.Migration) error

	// GetFunc is called by Get if set.
	GetFunc func(ctx context.Context, id string) (pgstage.Migration, error)

	// RemoveFunc is called by Remove if set.
	RemoveFunc func(ctx context.Context, id string) error

	// ListFunc is called by List if set.
	ListFunc func(ctx context.Context) ([]pgstage.Migration, error)

	// Call tracking
	PutCalls    []PutCall
	GetCalls    []GetCall
	RemoveCalls []RemoveCall
	ListCalls   int
}

// PutCall records the parameters of a single Put call.
type PutCall struct {
	Migration pgstage.Migration
}

// GetCall records the parameters of a single Get call.
type GetCall struct {
	ID string
}

// RemoveCall records the parameters of a single Remove call.
type RemoveCall struct {
	ID string
}

// NewMockRegistry creates a new mock registry.
func NewMockRegistry() *MockRegistry {
	return &MockRegistry{}
}

// Put implements Registry.
func (m *MockRegistry) Put(ctx context.Context, migration pgstage.Migration) error {
	m.mu.Lock()
	m.PutCalls = append(m.PutCalls, PutCall{Migration: migration})
	m.mu.Unlock()

	if m.PutFunc != nil {
		return m.PutFunc(ctx, migration)
	}

	return nil
}

// Get implements Registry.
func (m *MockRegistry) Get(ctx context.Context, id string) (pgstage.Migration, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, GetCall{ID: id})
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}

	return pgstage.Migration{}, pgstage.ErrMigrationNotFound
}

// Remove implements Registry.
func (m *MockRegistry) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	m.RemoveCalls = append(m.RemoveCalls, RemoveCall{ID: id})
	m.mu.Unlock()

	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, id)
	}

	return nil
}

// List implements Registry.
func (m *MockRegistry) List(ctx context.Context) ([]pgstage.Migration, error) {
	m.mu.Lock()
	m.ListCalls++
	m.mu.Unlock()

	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}

	return []pgstage.Migration{}, nil
}

var _ Registry = (*MockRegistry)(nil)

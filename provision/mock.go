package provision

import (
	"context"
	"fmt"
	"sync"

	"github.com/getpup/pgstage"
)

// MockClient is a configurable mock implementation of Client for use in
// tests. It allows setting up expected return values, tracking method
// calls, and injecting errors for testing error paths.
//
// Without Func overrides it behaves as a tiny in-memory control plane:
// CreateBranch mints deterministic branch IDs parented at "br-main".
type MockClient struct {
	mu sync.Mutex

	// CreateBranchFunc is called by CreateBranch if set.
	CreateBranchFunc func(ctx context.Context, projectID, parentID string) (pgstage.Branch, error)

	// DeleteBranchFunc is called by DeleteBranch if set.
	DeleteBranchFunc func(ctx context.Context, projectID, branchID string) error

	// ListBranchesFunc is called by ListBranches if set.
	ListBranchesFunc func(ctx context.Context, projectID string) ([]pgstage.Branch, error)

	// PrimaryBranchFunc is called by PrimaryBranch if set.
	PrimaryBranchFunc func(ctx context.Context, projectID string) (pgstage.Branch, error)

	// Call tracking
	CreateBranchCalls  []CreateBranchCall
	DeleteBranchCalls  []DeleteBranchCall
	ListBranchesCalls  []ListBranchesCall
	PrimaryBranchCalls []PrimaryBranchCall

	created int
}

// CreateBranchCall records the parameters of a single CreateBranch call.
type CreateBranchCall struct {
	ProjectID string
	ParentID  string
}

// DeleteBranchCall records the parameters of a single DeleteBranch call.
type DeleteBranchCall struct {
	ProjectID string
	BranchID  string
}

// ListBranchesCall records the parameters of a single ListBranches call.
type ListBranchesCall struct {
	ProjectID string
}

// PrimaryBranchCall records the parameters of a single PrimaryBranch call.
type PrimaryBranchCall struct {
	ProjectID string
}

// NewMockClient creates a new mock provisioning client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// CreateBranch implements Client.
func (m *MockClient) CreateBranch(ctx context.Context, projectID, parentID string) (pgstage.Branch, error) {
	m.mu.Lock()
	m.CreateBranchCalls = append(m.CreateBranchCalls, CreateBranchCall{
		ProjectID: projectID,
		ParentID:  parentID,
	})
	m.created++
	n := m.created
	m.mu.Unlock()

	if m.CreateBranchFunc != nil {
		return m.CreateBranchFunc(ctx, projectID, parentID)
	}

	if parentID == "" {
		parentID = "br-main"
	}
	return pgstage.Branch{
		ProjectID: projectID,
		ID:        fmt.Sprintf("br-staging-%d", n),
		ParentID:  parentID,
	}, nil
}

// DeleteBranch implements Client.
func (m *MockClient) DeleteBranch(ctx context.Context, projectID, branchID string) error {
	m.mu.Lock()
	m.DeleteBranchCalls = append(m.DeleteBranchCalls, DeleteBranchCall{
		ProjectID: projectID,
		BranchID:  branchID,
	})
	m.mu.Unlock()

	if m.DeleteBranchFunc != nil {
		return m.DeleteBranchFunc(ctx, projectID, branchID)
	}

	return nil
}

// ListBranches implements Client.
func (m *MockClient) ListBranches(ctx context.Context, projectID string) ([]pgstage.Branch, error) {
	m.mu.Lock()
	m.ListBranchesCalls = append(m.ListBranchesCalls, ListBranchesCall{ProjectID: projectID})
	m.mu.Unlock()

	if m.ListBranchesFunc != nil {
		return m.ListBranchesFunc(ctx, projectID)
	}

	return []pgstage.Branch{
		{ProjectID: projectID, ID: "br-main", Name: "main"},
	}, nil
}

// PrimaryBranch implements Client.
func (m *MockClient) PrimaryBranch(ctx context.Context, projectID string) (pgstage.Branch, error) {
	m.mu.Lock()
	m.PrimaryBranchCalls = append(m.PrimaryBranchCalls, PrimaryBranchCall{ProjectID: projectID})
	m.mu.Unlock()

	if m.PrimaryBranchFunc != nil {
		return m.PrimaryBranchFunc(ctx, projectID)
	}

	return pgstage.Branch{ProjectID: projectID, ID: "br-main", Name: "main"}, nil
}

var _ Client = (*MockClient)(nil)

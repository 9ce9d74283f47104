// Package provision talks to the control plane that owns branches and
// their compute endpoints. The orchestrator drives it through the narrow
// Client interface; the control plane itself is the sole arbiter of
// branch-creation conflicts.
package provision

import (
	"context"

	"github.com/getpup/pgstage"
)

// Client provisions and tears down copy-on-write branches.
// Implementations must be safe for concurrent use.
type Client interface {
	// CreateBranch creates a new branch in the project, cloned from the
	// branch identified by parentID. An empty parentID clones the
	// project's primary branch. The returned Branch always carries the
	// resolved parent ID.
	CreateBranch(ctx context.Context, projectID, parentID string) (pgstage.Branch, error)

	// DeleteBranch deletes a branch and its compute endpoint.
	DeleteBranch(ctx context.Context, projectID, branchID string) error

	// ListBranches returns all branches in the project.
	ListBranches(ctx context.Context, projectID string) ([]pgstage.Branch, error)

	// PrimaryBranch returns the project's primary branch.
	PrimaryBranch(ctx context.Context, projectID string) (pgstage.Branch, error)
}

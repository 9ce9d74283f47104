package pgstage

import "time"

// MigrationState represents the lifecycle state of a staged migration.
type MigrationState string

const (
	// MigrationStateStaging indicates the migration script is being applied
	// to a freshly created staging branch.
	MigrationStateStaging MigrationState = "staging"

	// MigrationStateStaged indicates the script has been applied to the
	// staging branch and the migration is awaiting commit.
	MigrationStateStaged MigrationState = "staged"

	// MigrationStateCommitting indicates the script is being re-applied to
	// the primary branch.
	MigrationStateCommitting MigrationState = "committing"

	// MigrationStateCommitted indicates the migration was applied to the
	// primary branch and its staging branch was deleted. Terminal.
	MigrationStateCommitted MigrationState = "committed"

	// MigrationStateFailed indicates the commit batch failed on the primary
	// branch. The registry entry survives a failed commit so the commit can
	// be retried with the same migration ID.
	MigrationStateFailed MigrationState = "failed"
)

// Branch references a copy-on-write branch owned by the control plane.
// The orchestrator references branches, it never owns them.
type Branch struct {
	// ProjectID is the control-plane project the branch belongs to.
	ProjectID string

	// ID is the branch identifier within the project.
	ID string

	// ParentID is the branch this one was cloned from. Empty for a
	// project's root branch.
	ParentID string

	// Name is the human-readable branch name, if the control plane
	// assigned one.
	Name string
}

// Migration is a staged schema change awaiting commit. It is owned
// exclusively by the registry between Stage and Commit.
type Migration struct {
	// ID is an opaque unique token (UUID) generated at stage time.
	// It is never reused.
	ID string

	// Script is the original, unsplit SQL text supplied by the caller.
	// Commit re-splits this text rather than caching split statements,
	// so the split can never go stale.
	Script string

	// DatabaseName is the target database within the project.
	DatabaseName string

	// StagingBranch is the ephemeral branch the script was applied to.
	// Its ParentID records the primary branch at stage time; commit
	// always targets that parent, never whatever is primary later.
	StagingBranch Branch

	// State is the current lifecycle state.
	State MigrationState

	// CreatedAt is when the migration was staged.
	CreatedAt time.Time
}

// ConnectionTarget resolves to a specific database endpoint for SQL
// execution: one project, one branch, one database, one role.
type ConnectionTarget struct {
	ProjectID    string
	BranchID     string
	DatabaseName string
	Role         string
}

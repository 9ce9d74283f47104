package pgstage

import (
	"errors"
	"fmt"
)

var (
	// ErrMigrationNotFound indicates the migration ID is unknown to the
	// registry: it was never staged, it was already committed, or the
	// process restarted with a non-durable registry.
	ErrMigrationNotFound = errors.New("migration not found")
)

// ProvisionError indicates a branch create or delete failed on the control
// plane. When Op is "delete" the staging branch may still exist and must be
// cleaned up out-of-band.
type ProvisionError struct {
	// Op is the provisioning operation that failed: "create" or "delete".
	Op string

	// ProjectID is the project the operation targeted.
	ProjectID string

	// BranchID is the branch the operation targeted, if known.
	BranchID string

	// Err is the underlying cause.
	Err error
}

func (e *ProvisionError) Error() string {
	if e.BranchID == "" {
		return fmt.Sprintf("branch %s failed for project %s: %v", e.Op, e.ProjectID, e.Err)
	}
	return fmt.Sprintf("branch %s failed for %s/%s: %v", e.Op, e.ProjectID, e.BranchID, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// MalformedSQLError indicates the statement splitter could not parse a
// script: an unterminated string, dollar-quoted block, or comment.
type MalformedSQLError struct {
	// Construct names the unterminated construct, e.g. "string literal".
	Construct string

	// Offset is the byte offset where the construct began.
	Offset int
}

func (e *MalformedSQLError) Error() string {
	return fmt.Sprintf("malformed SQL: unterminated %s starting at offset %d", e.Construct, e.Offset)
}

// ExecPhase identifies which phase of the migration workflow an execution
// failure occurred in.
type ExecPhase string

const (
	// ExecPhaseStaging is the initial batch run against the staging branch.
	ExecPhaseStaging ExecPhase = "staging"

	// ExecPhaseCommit is the batch re-run against the primary branch.
	ExecPhaseCommit ExecPhase = "commit"
)

// ExecError indicates an atomic batch failed. The batch has no effect:
// execution is transactional, so a failing statement rolls back the ones
// before it.
type ExecError struct {
	// Phase is the workflow phase the batch ran in.
	Phase ExecPhase

	// StatementIndex is the zero-based index of the failing statement
	// within the split batch, or -1 if the failure was not attributable
	// to a single statement (e.g. connection loss).
	StatementIndex int

	// Err is the underlying cause.
	Err error
}

func (e *ExecError) Error() string {
	if e.StatementIndex < 0 {
		return fmt.Sprintf("%s batch failed: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s batch failed at statement %d: %v", e.Phase, e.StatementIndex, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

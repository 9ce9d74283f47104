// Package sqlexec executes SQL against a specific project, branch,
// database, and role. Batch execution is atomic: a failing statement
// rolls back everything before it.
package sqlexec

import (
	"context"
	"fmt"

	"github.com/getpup/pgstage"
)

// Executor runs SQL against a connection target.
// Implementations must be safe for concurrent use.
type Executor interface {
	// ExecuteBatch executes the statements in order within a single
	// transaction. Either every statement takes effect or none do.
	// A failure is reported as a *BatchError carrying the index of the
	// failing statement.
	ExecuteBatch(ctx context.Context, target pgstage.ConnectionTarget, stmts []string) (BatchResult, error)

	// ExecuteStatement executes a single statement outside any
	// orchestrated batch, returning its rows if it produced any.
	ExecuteStatement(ctx context.Context, target pgstage.ConnectionTarget, stmt string) (StatementResult, error)
}

// StatementResult is the outcome of one executed statement.
type StatementResult struct {
	// Command is the server's command tag, e.g. "CREATE TABLE" or
	// "INSERT 0 1".
	Command string

	// RowsAffected is the number of rows the statement touched.
	RowsAffected int64

	// Columns are the result column names, empty for statements that
	// return no rows.
	Columns []string

	// Rows are the result rows, nil for statements that return none.
	Rows [][]any
}

// BatchResult is the outcome of an atomic batch, one entry per statement
// in execution order.
type BatchResult struct {
	Statements []StatementResult
}

// BatchError reports which statement of a batch failed. The batch had no
// effect; the transaction was rolled back.
type BatchError struct {
	// StatementIndex is the zero-based index of the failing statement,
	// or -1 if the failure preceded statement execution (connection,
	// begin, commit).
	StatementIndex int

	// Err is the underlying cause.
	Err error
}

func (e *BatchError) Error() string {
	if e.StatementIndex < 0 {
		return fmt.Sprintf("batch failed: %v", e.Err)
	}
	return fmt.Sprintf("batch failed at statement %d: %v", e.StatementIndex, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

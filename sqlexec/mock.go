package sqlexec

import (
	"context"
	"sync"

	"github.com/getpup/pgstage"
)

// MockExecutor is a configurable mock implementation of Executor for use
// in tests. It allows setting up expected return values, tracking method
// calls, and injecting errors for testing error paths.
type MockExecutor struct {
	mu sync.Mutex

	// ExecuteBatchFunc is called by ExecuteBatch if set.
	ExecuteBatchFunc func(ctx context.Context, target pgstage.ConnectionTarget, stmts []string) (BatchResult, error)

	// ExecuteStatementFunc is called by ExecuteStatement if set.
	ExecuteStatementFunc func(ctx context.Context, target pgstage.ConnectionTarget, stmt string) (StatementResult, error)

	// Call tracking
	ExecuteBatchCalls     []ExecuteBatchCall
	ExecuteStatementCalls []ExecuteStatementCall
}

// ExecuteBatchCall records the parameters of a single ExecuteBatch call.
type ExecuteBatchCall struct {
	Target     pgstage.ConnectionTarget
	Statements []string
}

// ExecuteStatementCall records the parameters of a single ExecuteStatement call.
type ExecuteStatementCall struct {
	Target    pgstage.ConnectionTarget
	Statement string
}

// NewMockExecutor creates a new mock executor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{}
}

// ExecuteBatch implements Executor.
// Without an override it reports success with an "OK" tag per statement.
func (m *MockExecutor) ExecuteBatch(ctx context.Context, target pgstage.ConnectionTarget, stmts []string) (BatchResult, error) {
	m.mu.Lock()
	m.ExecuteBatchCalls = append(m.ExecuteBatchCalls, ExecuteBatchCall{
		Target:     target,
		Statements: stmts,
	})
	m.mu.Unlock()

	if m.ExecuteBatchFunc != nil {
		return m.ExecuteBatchFunc(ctx, target, stmts)
	}

	results := make([]StatementResult, len(stmts))
	for i := range results {
		results[i] = StatementResult{Command: "OK"}
	}
	return BatchResult{Statements: results}, nil
}

// ExecuteStatement implements Executor.
func (m *MockExecutor) ExecuteStatement(ctx context.Context, target pgstage.ConnectionTarget, stmt string) (StatementResult, error) {
	m.mu.Lock()
	m.ExecuteStatementCalls = append(m.ExecuteStatementCalls, ExecuteStatementCall{
		Target:    target,
		Statement: stmt,
	})
	m.mu.Unlock()

	if m.ExecuteStatementFunc != nil {
		return m.ExecuteStatementFunc(ctx, target, stmt)
	}

	return StatementResult{Command: "OK"}, nil
}

var _ Executor = (*MockExecutor)(nil)

package sqlexec

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/getpup/pgstage"
)

// TargetResolver maps a connection target to a Postgres DSN. The control
// plane assigns each branch its own compute endpoint, so the DSN depends
// on the branch, not just the project.
type TargetResolver func(ctx context.Context, target pgstage.ConnectionTarget) (string, error)

// TemplateResolver builds a resolver from a DSN template. The
// placeholders {branch}, {database}, and {role} are substituted from the
// target, e.g.
//
//	postgres://{role}@{branch}.pg.example.com/{database}?sslmode=require
func TemplateResolver(template string) TargetResolver {
	return func(_ context.Context, target pgstage.ConnectionTarget) (string, error) {
		if target.BranchID == "" {
			return "", fmt.Errorf("connection target has no branch")
		}
		if target.DatabaseName == "" {
			return "", fmt.Errorf("connection target has no database")
		}

		r := strings.NewReplacer(
			"{branch}", target.BranchID,
			"{database}", target.DatabaseName,
			"{role}", target.Role,
		)
		return r.Replace(template), nil
	}
}

// PGExecutor is a pgx implementation of Executor. It maintains one
// connection pool per resolved DSN.
type PGExecutor struct {
	resolver TargetResolver

	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
}

// NewPGExecutor creates an executor that resolves connection targets
// through resolver.
func NewPGExecutor(resolver TargetResolver) *PGExecutor {
	return &PGExecutor{
		resolver: resolver,
		pools:    make(map[string]*pgxpool.Pool),
	}
}

// Close closes all connection pools.
func (e *PGExecutor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for dsn, pool := range e.pools {
		pool.Close()
		delete(e.pools, dsn)
	}
}

// ExecuteBatch implements Executor. All statements run inside one
// transaction in the given order; any failure rolls the whole batch back
// and is reported as a *BatchError.
func (e *PGExecutor) ExecuteBatch(ctx context.Context, target pgstage.ConnectionTarget, stmts []string) (BatchResult, error) {
	pool, err := e.pool(ctx, target)
	if err != nil {
		return BatchResult{}, &BatchError{StatementIndex: -1, Err: err}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return BatchResult{}, &BatchError{StatementIndex: -1, Err: fmt.Errorf("begin: %w", err)}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	results := make([]StatementResult, 0, len(stmts))
	for i, stmt := range stmts {
		result, err := runStatement(ctx, tx, stmt)
		if err != nil {
			return BatchResult{}, &BatchError{StatementIndex: i, Err: err}
		}
		results = append(results, result)
	}

	if err := tx.Commit(ctx); err != nil {
		return BatchResult{}, &BatchError{StatementIndex: -1, Err: fmt.Errorf("commit: %w", err)}
	}

	return BatchResult{Statements: results}, nil
}

// ExecuteStatement implements Executor.
func (e *PGExecutor) ExecuteStatement(ctx context.Context, target pgstage.ConnectionTarget, stmt string) (StatementResult, error) {
	pool, err := e.pool(ctx, target)
	if err != nil {
		return StatementResult{}, err
	}

	return runStatement(ctx, pool, stmt)
}

func (e *PGExecutor) pool(ctx context.Context, target pgstage.ConnectionTarget) (*pgxpool.Pool, error) {
	dsn, err := e.resolver(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve connection target: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if pool, ok := e.pools[dsn]; ok {
		return pool, nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	e.pools[dsn] = pool

	return pool, nil
}

// querier is the subset of pgx shared by pools and transactions.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func runStatement(ctx context.Context, q querier, stmt string) (StatementResult, error) {
	rows, err := q.Query(ctx, stmt)
	if err != nil {
		return StatementResult{}, err
	}
	defer rows.Close()

	var result StatementResult
	for _, fd := range rows.FieldDescriptions() {
		result.Columns = append(result.Columns, string(fd.Name))
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return StatementResult{}, err
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return StatementResult{}, err
	}

	tag := rows.CommandTag()
	result.Command = tag.String()
	result.RowsAffected = tag.RowsAffected()

	return result, nil
}

var _ Executor = (*PGExecutor)(nil)

package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/getpup/pgstage"
	"github.com/getpup/pgstage/sqlexec"
)

func TestPrepareMigration(t *testing.T) {
	fix := newTestFixture(t)

	result, err := fix.server.handlePrepareMigration(context.Background(), makeCallToolRequest(map[string]any{
		"migration_sql": "CREATE TABLE users (id serial PRIMARY KEY); CREATE INDEX ON users (id);",
		"database_name": "neondb",
		"project_id":    "proj-1",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := parseResult(t, result)
	if data["migration_id"] == "" {
		t.Fatal("expected a migration_id")
	}
	branch, ok := data["staging_branch"].(map[string]any)
	if !ok {
		t.Fatal("staging_branch not found in result")
	}
	if branch["parent_id"] != "br-main" {
		t.Errorf("expected staging branch parented at br-main, got %v", branch["parent_id"])
	}

	// The script ran against the staging branch, split into statements.
	if len(fix.executor.ExecuteBatchCalls) != 1 {
		t.Fatalf("expected 1 batch call, got %d", len(fix.executor.ExecuteBatchCalls))
	}
	call := fix.executor.ExecuteBatchCalls[0]
	if len(call.Statements) != 2 {
		t.Errorf("expected 2 statements, got %d", len(call.Statements))
	}
	if call.Target.BranchID != branch["id"] {
		t.Errorf("batch ran against %q, expected staging branch %q", call.Target.BranchID, branch["id"])
	}
}

func TestPrepareMigration_MissingArguments(t *testing.T) {
	fix := newTestFixture(t)

	cases := []struct {
		name string
		args map[string]any
		want string
	}{
		{"no sql", map[string]any{"database_name": "neondb", "project_id": "proj-1"}, "migration_sql"},
		{"no database", map[string]any{"migration_sql": "SELECT 1", "project_id": "proj-1"}, "database_name"},
		{"no project", map[string]any{"migration_sql": "SELECT 1", "database_name": "neondb"}, "project_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := fix.server.handlePrepareMigration(context.Background(), makeCallToolRequest(tc.args))
			text := callErrorText(t, result, err)
			if !strings.Contains(text, tc.want) {
				t.Errorf("error %q does not name the missing argument %q", text, tc.want)
			}
		})
	}
}

func TestPrepareMigration_MalformedScript(t *testing.T) {
	fix := newTestFixture(t)

	result, err := fix.server.handlePrepareMigration(context.Background(), makeCallToolRequest(map[string]any{
		"migration_sql": "INSERT INTO t VALUES ('unterminated",
		"database_name": "neondb",
		"project_id":    "proj-1",
	}))
	text := callErrorText(t, result, err)
	if !strings.Contains(text, "unterminated") {
		t.Errorf("error %q does not describe the malformed construct", text)
	}
	// The staging branch was cleaned up.
	if len(fix.provisioner.DeleteBranchCalls) != 1 {
		t.Errorf("expected the staging branch to be deleted, got %d delete calls", len(fix.provisioner.DeleteBranchCalls))
	}
}

func TestCompleteMigration(t *testing.T) {
	fix := newTestFixture(t)
	ctx := context.Background()

	staged, err := fix.server.handlePrepareMigration(ctx, makeCallToolRequest(map[string]any{
		"migration_sql": "ALTER TABLE users ADD COLUMN email text;",
		"database_name": "neondb",
		"project_id":    "proj-1",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	migrationID := parseResult(t, staged)["migration_id"].(string)

	result, err := fix.server.handleCompleteMigration(ctx, makeCallToolRequest(map[string]any{
		"migration_id": migrationID,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := parseResult(t, result)
	deleted, ok := data["deleted_branch"].(map[string]any)
	if !ok {
		t.Fatal("deleted_branch not found in result")
	}
	if deleted["id"] != "br-staging-1" {
		t.Errorf("expected br-staging-1 deleted, got %v", deleted["id"])
	}

	// The commit batch targeted the parent branch, not the staging one.
	commitCall := fix.executor.ExecuteBatchCalls[1]
	if commitCall.Target.BranchID != "br-main" {
		t.Errorf("commit ran against %q, expected br-main", commitCall.Target.BranchID)
	}

	// The migration is gone from the registry.
	if _, err := fix.registry.Get(ctx, migrationID); !errors.Is(err, pgstage.ErrMigrationNotFound) {
		t.Errorf("expected the registry entry to be removed, got err=%v", err)
	}
}

func TestCompleteMigration_UnknownID(t *testing.T) {
	fix := newTestFixture(t)

	result, err := fix.server.handleCompleteMigration(context.Background(), makeCallToolRequest(map[string]any{
		"migration_id": "no-such-id",
	}))
	text := callErrorText(t, result, err)
	if !strings.Contains(text, "not found") {
		t.Errorf("error %q does not say the migration was not found", text)
	}
}

func TestListStagedMigrations(t *testing.T) {
	fix := newTestFixture(t)
	ctx := context.Background()

	empty, err := fix.server.handleListStagedMigrations(ctx, makeCallToolRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if migrations := parseResult(t, empty)["migrations"].([]any); len(migrations) != 0 {
		t.Fatalf("expected no staged migrations, got %d", len(migrations))
	}

	if _, err := fix.server.handlePrepareMigration(ctx, makeCallToolRequest(map[string]any{
		"migration_sql": "CREATE TABLE a (id int);",
		"database_name": "neondb",
		"project_id":    "proj-1",
	})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := fix.server.handleListStagedMigrations(ctx, makeCallToolRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	migrations := parseResult(t, result)["migrations"].([]any)
	if len(migrations) != 1 {
		t.Fatalf("expected 1 staged migration, got %d", len(migrations))
	}
	entry := migrations[0].(map[string]any)
	if entry["state"] != string(pgstage.MigrationStateStaged) {
		t.Errorf("expected state %q, got %v", pgstage.MigrationStateStaged, entry["state"])
	}
	if entry["database_name"] != "neondb" {
		t.Errorf("expected database neondb, got %v", entry["database_name"])
	}
}

func TestRunSQL(t *testing.T) {
	fix := newTestFixture(t)
	fix.executor.ExecuteStatementFunc = func(_ context.Context, _ pgstage.ConnectionTarget, _ string) (sqlexec.StatementResult, error) {
		return sqlexec.StatementResult{
			Command:      "SELECT 1",
			RowsAffected: 1,
			Columns:      []string{"count"},
			Rows:         [][]any{{int64(42)}},
		}, nil
	}

	result, err := fix.server.handleRunSQL(context.Background(), makeCallToolRequest(map[string]any{
		"sql":           "SELECT count(*) FROM users",
		"project_id":    "proj-1",
		"database_name": "neondb",
		"branch_id":     "br-staging-1",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := parseResult(t, result)
	if data["command"] != "SELECT 1" {
		t.Errorf("expected command SELECT 1, got %v", data["command"])
	}
	rows := data["rows"].([]any)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	call := fix.executor.ExecuteStatementCalls[0]
	if call.Target.BranchID != "br-staging-1" {
		t.Errorf("statement ran against %q, expected br-staging-1", call.Target.BranchID)
	}
	if call.Target.Role == "" {
		t.Error("expected a role on the connection target")
	}
}

func TestRunSQL_DefaultsToPrimaryBranch(t *testing.T) {
	fix := newTestFixture(t)

	if _, err := fix.server.handleRunSQL(context.Background(), makeCallToolRequest(map[string]any{
		"sql":           "SELECT 1",
		"project_id":    "proj-1",
		"database_name": "neondb",
	})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fix.provisioner.PrimaryBranchCalls) != 1 {
		t.Fatalf("expected the primary branch to be resolved, got %d calls", len(fix.provisioner.PrimaryBranchCalls))
	}
	if target := fix.executor.ExecuteStatementCalls[0].Target; target.BranchID != "br-main" {
		t.Errorf("statement ran against %q, expected br-main", target.BranchID)
	}
}

func TestRunSQL_StatementError(t *testing.T) {
	fix := newTestFixture(t)
	fix.executor.ExecuteStatementFunc = func(_ context.Context, _ pgstage.ConnectionTarget, _ string) (sqlexec.StatementResult, error) {
		return sqlexec.StatementResult{}, errors.New(`relation "users" does not exist`)
	}

	result, err := fix.server.handleRunSQL(context.Background(), makeCallToolRequest(map[string]any{
		"sql":           "SELECT * FROM users",
		"project_id":    "proj-1",
		"database_name": "neondb",
	}))
	text := callErrorText(t, result, err)
	if !strings.Contains(text, "does not exist") {
		t.Errorf("error %q does not carry the database error", text)
	}
}

func TestRunSQLTransaction(t *testing.T) {
	fix := newTestFixture(t)

	result, err := fix.server.handleRunSQLTransaction(context.Background(), makeCallToolRequest(map[string]any{
		"sql":           "INSERT INTO t VALUES (1); INSERT INTO t VALUES (2); INSERT INTO t VALUES (3);",
		"project_id":    "proj-1",
		"database_name": "neondb",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	statements := parseResult(t, result)["result"].([]any)
	if len(statements) != 3 {
		t.Fatalf("expected 3 statement results, got %d", len(statements))
	}
	if got := fix.executor.ExecuteBatchCalls[0].Statements; len(got) != 3 {
		t.Errorf("expected the script split into 3 statements, got %d", len(got))
	}
}

func TestRunSQLTransaction_RollsBack(t *testing.T) {
	fix := newTestFixture(t)
	fix.executor.ExecuteBatchFunc = func(_ context.Context, _ pgstage.ConnectionTarget, _ []string) (sqlexec.BatchResult, error) {
		return sqlexec.BatchResult{}, &sqlexec.BatchError{StatementIndex: 1, Err: errors.New("syntax error")}
	}

	result, err := fix.server.handleRunSQLTransaction(context.Background(), makeCallToolRequest(map[string]any{
		"sql":           "INSERT INTO t VALUES (1); BAD SQL;",
		"project_id":    "proj-1",
		"database_name": "neondb",
	}))
	text := callErrorText(t, result, err)
	if !strings.Contains(text, "rolled back") {
		t.Errorf("error %q does not mention the rollback", text)
	}
	if !strings.Contains(text, "statement 1") {
		t.Errorf("error %q does not locate the failing statement", text)
	}
}

func TestRunSQLTransaction_EmptyScript(t *testing.T) {
	fix := newTestFixture(t)

	result, err := fix.server.handleRunSQLTransaction(context.Background(), makeCallToolRequest(map[string]any{
		"sql":           "  -- nothing here\n",
		"project_id":    "proj-1",
		"database_name": "neondb",
	}))
	text := callErrorText(t, result, err)
	if !strings.Contains(text, "no statements") {
		t.Errorf("error %q does not say the script is empty", text)
	}
}

func TestCreateBranch(t *testing.T) {
	fix := newTestFixture(t)

	result, err := fix.server.handleCreateBranch(context.Background(), makeCallToolRequest(map[string]any{
		"project_id":       "proj-1",
		"parent_branch_id": "br-dev",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	branch := parseResult(t, result)["branch"].(map[string]any)
	if branch["parent_id"] != "br-dev" {
		t.Errorf("expected parent br-dev, got %v", branch["parent_id"])
	}
	if fix.provisioner.CreateBranchCalls[0].ParentID != "br-dev" {
		t.Errorf("provisioner called with parent %q", fix.provisioner.CreateBranchCalls[0].ParentID)
	}
}

func TestDeleteBranch(t *testing.T) {
	fix := newTestFixture(t)

	result, err := fix.server.handleDeleteBranch(context.Background(), makeCallToolRequest(map[string]any{
		"project_id": "proj-1",
		"branch_id":  "br-staging-9",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deleted := parseResult(t, result)["deleted"]; deleted != "br-staging-9" {
		t.Errorf("expected br-staging-9 deleted, got %v", deleted)
	}
	if len(fix.provisioner.DeleteBranchCalls) != 1 {
		t.Fatalf("expected 1 delete call, got %d", len(fix.provisioner.DeleteBranchCalls))
	}
}

func TestDeleteBranch_MissingBranchID(t *testing.T) {
	fix := newTestFixture(t)

	result, err := fix.server.handleDeleteBranch(context.Background(), makeCallToolRequest(map[string]any{
		"project_id": "proj-1",
	}))
	text := callErrorText(t, result, err)
	if !strings.Contains(text, "branch_id") {
		t.Errorf("error %q does not name the missing argument", text)
	}
}

func TestListBranches(t *testing.T) {
	fix := newTestFixture(t)

	result, err := fix.server.handleListBranches(context.Background(), makeCallToolRequest(map[string]any{
		"project_id": "proj-1",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	branches := parseResult(t, result)["branches"].([]any)
	if len(branches) == 0 {
		t.Fatal("expected at least one branch")
	}
	first := branches[0].(map[string]any)
	if first["id"] != "br-main" {
		t.Errorf("expected br-main first, got %v", first["id"])
	}
}

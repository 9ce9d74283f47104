package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/getpup/pgstage"
	"github.com/getpup/pgstage/migrate"
	"github.com/getpup/pgstage/sqlexec"
	"github.com/getpup/pgstage/sqlsplit"
)

// registerMigrationTools registers the two-phase migration workflow tools.
func (s *Server) registerMigrationTools() {
	// prepare_database_migration
	s.mcpServer.AddTool(
		mcp.NewTool("prepare_database_migration",
			mcp.WithDescription("Stage a schema migration on a new ephemeral branch instead of "+
				"applying it directly. Returns a migration_id and the staging branch; verify the "+
				"change by running read-only SQL against that branch, then call "+
				"complete_database_migration with the migration_id to apply it to the primary "+
				"branch. If staging fails, retry once with a corrected script, then give up and "+
				"report the error."),
			mcp.WithString("migration_sql",
				mcp.Required(),
				mcp.Description("The migration SQL. May contain multiple statements separated by semicolons."),
			),
			mcp.WithString("database_name",
				mcp.Required(),
				mcp.Description("The target database within the project, e.g. 'neondb'."),
			),
			mcp.WithString("project_id",
				mcp.Required(),
				mcp.Description("The control-plane project ID."),
			),
		),
		s.handlePrepareMigration,
	)

	// complete_database_migration
	s.mcpServer.AddTool(
		mcp.NewTool("complete_database_migration",
			mcp.WithDescription("Apply a previously staged migration to the primary branch and "+
				"delete its staging branch. Only call this after verifying the staged change."),
			mcp.WithString("migration_id",
				mcp.Required(),
				mcp.Description("The migration ID returned by prepare_database_migration."),
			),
		),
		s.handleCompleteMigration,
	)

	// list_staged_migrations
	s.mcpServer.AddTool(
		mcp.NewTool("list_staged_migrations",
			mcp.WithDescription("List migrations that are staged and awaiting completion."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleListStagedMigrations,
	)
}

// registerSQLTools registers the ad hoc SQL execution tools.
func (s *Server) registerSQLTools() {
	// run_sql
	s.mcpServer.AddTool(
		mcp.NewTool("run_sql",
			mcp.WithDescription("Execute a single SQL statement against a branch's database. "+
				"Use this to inspect a staging branch before completing a migration."),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description("The SQL statement to execute."),
			),
			mcp.WithString("project_id",
				mcp.Required(),
				mcp.Description("The control-plane project ID."),
			),
			mcp.WithString("database_name",
				mcp.Required(),
				mcp.Description("The target database."),
			),
			mcp.WithString("branch_id",
				mcp.Description("The branch to execute against. Defaults to the project's primary branch."),
			),
		),
		s.handleRunSQL,
	)

	// run_sql_transaction
	s.mcpServer.AddTool(
		mcp.NewTool("run_sql_transaction",
			mcp.WithDescription("Execute a SQL script of multiple statements as a single atomic "+
				"transaction against a branch's database. Either every statement takes effect or "+
				"none do."),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description("The SQL script. Statements are separated by semicolons."),
			),
			mcp.WithString("project_id",
				mcp.Required(),
				mcp.Description("The control-plane project ID."),
			),
			mcp.WithString("database_name",
				mcp.Required(),
				mcp.Description("The target database."),
			),
			mcp.WithString("branch_id",
				mcp.Description("The branch to execute against. Defaults to the project's primary branch."),
			),
		),
		s.handleRunSQLTransaction,
	)
}

// registerBranchTools registers the branch management tools.
func (s *Server) registerBranchTools() {
	// create_branch
	s.mcpServer.AddTool(
		mcp.NewTool("create_branch",
			mcp.WithDescription("Create a new copy-on-write branch in a project."),
			mcp.WithString("project_id",
				mcp.Required(),
				mcp.Description("The control-plane project ID."),
			),
			mcp.WithString("parent_branch_id",
				mcp.Description("The branch to clone. Defaults to the project's primary branch."),
			),
		),
		s.handleCreateBranch,
	)

	// delete_branch
	s.mcpServer.AddTool(
		mcp.NewTool("delete_branch",
			mcp.WithDescription("Delete a branch and its compute endpoint. Do not delete a "+
				"staging branch that belongs to a migration awaiting completion."),
			mcp.WithString("project_id",
				mcp.Required(),
				mcp.Description("The control-plane project ID."),
			),
			mcp.WithString("branch_id",
				mcp.Required(),
				mcp.Description("The branch to delete."),
			),
		),
		s.handleDeleteBranch,
	)

	// list_branches
	s.mcpServer.AddTool(
		mcp.NewTool("list_branches",
			mcp.WithDescription("List all branches in a project."),
			mcp.WithString("project_id",
				mcp.Required(),
				mcp.Description("The control-plane project ID."),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleListBranches,
	)
}

// --- Wire representations ---

type branchJSON struct {
	ProjectID string `json:"project_id"`
	ID        string `json:"id"`
	ParentID  string `json:"parent_id,omitempty"`
	Name      string `json:"name,omitempty"`
}

func toBranchJSON(b pgstage.Branch) branchJSON {
	return branchJSON{ProjectID: b.ProjectID, ID: b.ID, ParentID: b.ParentID, Name: b.Name}
}

type statementJSON struct {
	Command      string   `json:"command"`
	RowsAffected int64    `json:"rows_affected"`
	Columns      []string `json:"columns,omitempty"`
	Rows         [][]any  `json:"rows,omitempty"`
}

func toBatchJSON(result sqlexec.BatchResult) []statementJSON {
	statements := make([]statementJSON, 0, len(result.Statements))
	for _, st := range result.Statements {
		statements = append(statements, statementJSON{
			Command:      st.Command,
			RowsAffected: st.RowsAffected,
			Columns:      st.Columns,
			Rows:         st.Rows,
		})
	}
	return statements
}

// --- Tool handlers ---

func (s *Server) handlePrepareMigration(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	script := mcp.ParseString(req, "migration_sql", "")
	if script == "" {
		return mcp.NewToolResultError("migration_sql is required"), nil
	}
	databaseName := mcp.ParseString(req, "database_name", "")
	if databaseName == "" {
		return mcp.NewToolResultError("database_name is required"), nil
	}
	projectID := mcp.ParseString(req, "project_id", "")
	if projectID == "" {
		return mcp.NewToolResultError("project_id is required"), nil
	}

	result, err := s.config.Orchestrator.Stage(ctx, migrate.StageRequest{
		ProjectID:    projectID,
		DatabaseName: databaseName,
		Script:       script,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to stage migration: %v", err)), nil
	}

	return marshalToolResult(map[string]any{
		"migration_id":   result.MigrationID,
		"staging_branch": toBranchJSON(result.StagingBranch),
		"result":         toBatchJSON(result.Result),
		"next_step": "Verify the change by running SQL against the staging branch, then call " +
			"complete_database_migration with this migration_id.",
	})
}

func (s *Server) handleCompleteMigration(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	migrationID := mcp.ParseString(req, "migration_id", "")
	if migrationID == "" {
		return mcp.NewToolResultError("migration_id is required"), nil
	}

	result, err := s.config.Orchestrator.Commit(ctx, migrationID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete migration: %v", err)), nil
	}

	return marshalToolResult(map[string]any{
		"deleted_branch": toBranchJSON(result.DeletedBranch),
		"result":         toBatchJSON(result.Result),
	})
}

func (s *Server) handleListStagedMigrations(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	migrations, err := s.config.Registry.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list migrations: %v", err)), nil
	}

	items := make([]map[string]any, 0, len(migrations))
	for _, m := range migrations {
		items = append(items, map[string]any{
			"migration_id":   m.ID,
			"database_name":  m.DatabaseName,
			"staging_branch": toBranchJSON(m.StagingBranch),
			"state":          string(m.State),
			"created_at":     m.CreatedAt,
		})
	}

	return marshalToolResult(map[string]any{"migrations": items})
}

func (s *Server) handleRunSQL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, stmt, errResult := s.sqlArgs(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	result, err := s.config.Executor.ExecuteStatement(ctx, target, stmt)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("statement failed: %v", err)), nil
	}

	return marshalToolResult(statementJSON{
		Command:      result.Command,
		RowsAffected: result.RowsAffected,
		Columns:      result.Columns,
		Rows:         result.Rows,
	})
}

func (s *Server) handleRunSQLTransaction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, script, errResult := s.sqlArgs(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	stmts, err := sqlsplit.Split(script)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid SQL script: %v", err)), nil
	}
	if len(stmts) == 0 {
		return mcp.NewToolResultError("sql contains no statements"), nil
	}

	result, err := s.config.Executor.ExecuteBatch(ctx, target, stmts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("transaction failed and was rolled back: %v", err)), nil
	}

	return marshalToolResult(map[string]any{"result": toBatchJSON(result)})
}

// sqlArgs parses the shared arguments of the SQL tools and resolves the
// branch, defaulting to the project's primary branch.
func (s *Server) sqlArgs(ctx context.Context, req mcp.CallToolRequest) (pgstage.ConnectionTarget, string, *mcp.CallToolResult) {
	stmt := mcp.ParseString(req, "sql", "")
	if stmt == "" {
		return pgstage.ConnectionTarget{}, "", mcp.NewToolResultError("sql is required")
	}
	projectID := mcp.ParseString(req, "project_id", "")
	if projectID == "" {
		return pgstage.ConnectionTarget{}, "", mcp.NewToolResultError("project_id is required")
	}
	databaseName := mcp.ParseString(req, "database_name", "")
	if databaseName == "" {
		return pgstage.ConnectionTarget{}, "", mcp.NewToolResultError("database_name is required")
	}

	branchID := mcp.ParseString(req, "branch_id", "")
	if branchID == "" {
		primary, err := s.config.Provisioner.PrimaryBranch(ctx, projectID)
		if err != nil {
			return pgstage.ConnectionTarget{}, "", mcp.NewToolResultError(fmt.Sprintf("failed to resolve primary branch: %v", err))
		}
		branchID = primary.ID
	}

	return pgstage.ConnectionTarget{
		ProjectID:    projectID,
		BranchID:     branchID,
		DatabaseName: databaseName,
		Role:         s.config.Role,
	}, stmt, nil
}

func (s *Server) handleCreateBranch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := mcp.ParseString(req, "project_id", "")
	if projectID == "" {
		return mcp.NewToolResultError("project_id is required"), nil
	}
	parentID := mcp.ParseString(req, "parent_branch_id", "")

	branch, err := s.config.Provisioner.CreateBranch(ctx, projectID, parentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create branch: %v", err)), nil
	}

	return marshalToolResult(map[string]any{"branch": toBranchJSON(branch)})
}

func (s *Server) handleDeleteBranch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := mcp.ParseString(req, "project_id", "")
	if projectID == "" {
		return mcp.NewToolResultError("project_id is required"), nil
	}
	branchID := mcp.ParseString(req, "branch_id", "")
	if branchID == "" {
		return mcp.NewToolResultError("branch_id is required"), nil
	}

	if err := s.config.Provisioner.DeleteBranch(ctx, projectID, branchID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete branch: %v", err)), nil
	}

	return marshalToolResult(map[string]any{"deleted": branchID})
}

func (s *Server) handleListBranches(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := mcp.ParseString(req, "project_id", "")
	if projectID == "" {
		return mcp.NewToolResultError("project_id is required"), nil
	}

	branches, err := s.config.Provisioner.ListBranches(ctx, projectID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list branches: %v", err)), nil
	}

	items := make([]branchJSON, 0, len(branches))
	for _, b := range branches {
		items = append(items, toBranchJSON(b))
	}

	return marshalToolResult(map[string]any{"branches": items})
}

// Package mcp provides a Model Context Protocol (MCP) server that exposes
// the migration workflow to AI agents. The central pair of tools stages a
// schema migration on an ephemeral branch and, after the agent has
// verified it there, commits it to the primary branch. Supporting tools
// cover ad hoc SQL execution and branch management.
package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/getpup/pgstage/migrate"
	"github.com/getpup/pgstage/provision"
	"github.com/getpup/pgstage/registry"
	"github.com/getpup/pgstage/sqlexec"
)

// Version is the MCP server version, set at build time.
var Version = "dev"

// Config holds the collaborators the server drives. Orchestrator,
// Provisioner, Executor, and Registry are all required.
type Config struct {
	Orchestrator *migrate.Orchestrator
	Provisioner  provision.Client
	Executor     sqlexec.Executor
	Registry     registry.Registry

	// Role is the database role ad hoc SQL executes as
	// (default: migrate.DefaultRole).
	Role string
}

// Server wraps an MCP server instance and provides the migration and
// branch-management tools.
type Server struct {
	mcpServer *server.MCPServer
	config    Config
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if cfg.Provisioner == nil {
		return nil, fmt.Errorf("provisioner is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.Role == "" {
		cfg.Role = migrate.DefaultRole
	}

	s := &Server{config: cfg}

	s.mcpServer = server.NewMCPServer(
		"pgstage",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions("This MCP server manages a Postgres control plane with "+
			"copy-on-write branches. To change a schema safely, stage the migration with "+
			"prepare_database_migration, verify the result on the returned staging branch "+
			"with run_sql, then apply it to the primary branch with "+
			"complete_database_migration. Use the branch tools for manual branch management "+
			"and run_sql / run_sql_transaction for ad hoc queries."),
	)

	s.registerMigrationTools()
	s.registerSQLTools()
	s.registerBranchTools()

	return s, nil
}

// MCPServer returns the underlying mcp-go server instance (useful for testing).
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the MCP server over standard input/output.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// marshalToolResult renders a result value as indented JSON text.
func marshalToolResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("internal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

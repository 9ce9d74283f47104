package sqlite

import "fmt"

// TableConfig configures the table name used by the registry.
type TableConfig struct {
	// MigrationsTable is the name of the table storing staged migrations.
	MigrationsTable string
}

// DefaultTableConfig returns the default table configuration.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		MigrationsTable: "pgstage_migrations",
	}
}

// MigrationUp returns the SQL to create the registry table.
func MigrationUp(config TableConfig) string {
	return fmt.Sprintf(`-- Staged migrations awaiting commit
CREATE TABLE IF NOT EXISTS %s (
    id TEXT PRIMARY KEY,
    script TEXT NOT NULL,
    database_name TEXT NOT NULL,
    project_id TEXT NOT NULL,
    branch_id TEXT NOT NULL,
    parent_branch_id TEXT NOT NULL,
    branch_name TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL DEFAULT 'staged',
    created_at TIMESTAMP NOT NULL
);
`, config.MigrationsTable)
}

// MigrationDown returns the SQL to drop the registry table.
func MigrationDown(config TableConfig) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;\n", config.MigrationsTable)
}

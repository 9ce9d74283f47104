// Package sqlite provides a durable Registry implementation backed by a
// local SQLite database, so staged migrations survive process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/getpup/pgstage"
)

// Store is a SQLite implementation of registry.Registry.
type Store struct {
	db              *sql.DB
	migrationsTable string
}

// Open opens (creating if necessary) the registry database at path and
// bootstraps the schema with default table names.
func Open(path string) (*Store, error) {
	return OpenWithConfig(path, DefaultTableConfig())
}

// OpenWithConfig opens the registry database at path with custom table names.
func OpenWithConfig(path string, config TableConfig) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}

	s := &Store{db: db, migrationsTable: config.MigrationsTable}
	if _, err := db.Exec(MigrationUp(config)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap registry schema: %w", err)
	}

	return s, nil
}

// New wraps an existing database handle with default table names.
// The schema must already exist; use Open to bootstrap it.
func New(db *sql.DB) *Store {
	config := DefaultTableConfig()
	return &Store{db: db, migrationsTable: config.MigrationsTable}
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a migration under its ID. An existing row with the same ID is
// replaced, which lets a failed commit update the recorded state in place.
func (s *Store) Put(ctx context.Context, migration pgstage.Migration) error {
	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s
			(id, script, database_name, project_id, branch_id, parent_branch_id, branch_name, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.migrationsTable)

	_, err := s.db.ExecContext(ctx, query,
		migration.ID,
		migration.Script,
		migration.DatabaseName,
		migration.StagingBranch.ProjectID,
		migration.StagingBranch.ID,
		migration.StagingBranch.ParentID,
		migration.StagingBranch.Name,
		string(migration.State),
		migration.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store migration: %w", err)
	}

	return nil
}

// Get returns the migration with the given ID.
// Returns pgstage.ErrMigrationNotFound if the ID is unknown.
func (s *Store) Get(ctx context.Context, id string) (pgstage.Migration, error) {
	query := fmt.Sprintf(`
		SELECT id, script, database_name, project_id, branch_id, parent_branch_id, branch_name, state, created_at
		FROM %s
		WHERE id = ?
	`, s.migrationsTable)

	migration, err := scanMigration(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return pgstage.Migration{}, pgstage.ErrMigrationNotFound
	}
	if err != nil {
		return pgstage.Migration{}, fmt.Errorf("failed to get migration: %w", err)
	}

	return migration, nil
}

// Remove deletes the migration with the given ID.
// Returns pgstage.ErrMigrationNotFound if the ID is unknown.
func (s *Store) Remove(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.migrationsTable)

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to remove migration: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return pgstage.ErrMigrationNotFound
	}

	return nil
}

// List returns all stored migrations ordered by creation time.
// Returns an empty slice if the registry is empty.
func (s *Store) List(ctx context.Context) ([]pgstage.Migration, error) {
	query := fmt.Sprintf(`
		SELECT id, script, database_name, project_id, branch_id, parent_branch_id, branch_name, state, created_at
		FROM %s
		ORDER BY created_at
	`, s.migrationsTable)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	defer rows.Close()

	migrations := make([]pgstage.Migration, 0)
	for rows.Next() {
		migration, err := scanMigration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		migrations = append(migrations, migration)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	return migrations, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMigration(row rowScanner) (pgstage.Migration, error) {
	var migration pgstage.Migration
	var state string

	err := row.Scan(
		&migration.ID,
		&migration.Script,
		&migration.DatabaseName,
		&migration.StagingBranch.ProjectID,
		&migration.StagingBranch.ID,
		&migration.StagingBranch.ParentID,
		&migration.StagingBranch.Name,
		&state,
		&migration.CreatedAt,
	)
	if err != nil {
		return pgstage.Migration{}, err
	}

	migration.State = pgstage.MigrationState(state)
	return migration, nil
}

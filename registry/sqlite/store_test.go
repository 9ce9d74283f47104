package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/getpup/pgstage"
	"github.com/getpup/pgstage/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func testMigration(id string) pgstage.Migration {
	return pgstage.Migration{
		ID:           id,
		Script:       "ALTER TABLE users ADD COLUMN last_login timestamp;",
		DatabaseName: "neondb",
		StagingBranch: pgstage.Branch{
			ProjectID: "proj-1",
			ID:        "br-staging-1",
			ParentID:  "br-main",
			Name:      "migrate/add-last-login",
		},
		State:     pgstage.MigrationStateStaged,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestStore_ImplementsRegistry(t *testing.T) {
	var _ registry.Registry = (*Store)(nil)
}

func TestPutAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	migration := testMigration("m1")

	require.NoError(t, s.Put(ctx, migration))

	got, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, migration.ID, got.ID)
	assert.Equal(t, migration.Script, got.Script)
	assert.Equal(t, migration.DatabaseName, got.DatabaseName)
	assert.Equal(t, migration.StagingBranch, got.StagingBranch)
	assert.Equal(t, migration.State, got.State)
	assert.True(t, migration.CreatedAt.Equal(got.CreatedAt.UTC()))
}

func TestGet_UnknownID(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "nope")

	assert.ErrorIs(t, err, pgstage.ErrMigrationNotFound)
}

func TestRemove(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testMigration("m1")))
	require.NoError(t, s.Remove(ctx, "m1"))

	_, err := s.Get(ctx, "m1")
	assert.ErrorIs(t, err, pgstage.ErrMigrationNotFound)

	err = s.Remove(ctx, "m1")
	assert.ErrorIs(t, err, pgstage.ErrMigrationNotFound)
}

func TestPut_ReplacesExistingEntry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	migration := testMigration("m1")
	require.NoError(t, s.Put(ctx, migration))

	migration.State = pgstage.MigrationStateFailed
	require.NoError(t, s.Put(ctx, migration))

	got, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, pgstage.MigrationStateFailed, got.State)

	migrations, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, migrations, 1, "replace must not create a second row")
}

func TestList_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, testMigration("m1")))
	require.NoError(t, s.Put(ctx, testMigration("m2")))
	require.NoError(t, s.Close())

	// Reopen: staged migrations must survive a process restart.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	migrations, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, migrations, 2)
}

func TestMigrationDown(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec(MigrationDown(DefaultTableConfig()))
	require.NoError(t, err)

	_, err = s.List(context.Background())
	assert.Error(t, err)
}

package pgstage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationState_Constants(t *testing.T) {
	t.Run("MigrationStateStaging equals staging", func(t *testing.T) {
		assert.Equal(t, MigrationState("staging"), MigrationStateStaging)
	})

	t.Run("MigrationStateStaged equals staged", func(t *testing.T) {
		assert.Equal(t, MigrationState("staged"), MigrationStateStaged)
	})

	t.Run("MigrationStateCommitting equals committing", func(t *testing.T) {
		assert.Equal(t, MigrationState("committing"), MigrationStateCommitting)
	})

	t.Run("MigrationStateCommitted equals committed", func(t *testing.T) {
		assert.Equal(t, MigrationState("committed"), MigrationStateCommitted)
	})

	t.Run("MigrationStateFailed equals failed", func(t *testing.T) {
		assert.Equal(t, MigrationState("failed"), MigrationStateFailed)
	})
}

func TestProvisionError(t *testing.T) {
	cause := errors.New("boom")

	t.Run("without branch", func(t *testing.T) {
		err := &ProvisionError{Op: "create", ProjectID: "proj-1", Err: cause}

		assert.Equal(t, "branch create failed for project proj-1: boom", err.Error())
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("with branch", func(t *testing.T) {
		err := &ProvisionError{Op: "delete", ProjectID: "proj-1", BranchID: "br-2", Err: cause}

		assert.Equal(t, "branch delete failed for proj-1/br-2: boom", err.Error())
	})
}

func TestMalformedSQLError(t *testing.T) {
	err := &MalformedSQLError{Construct: "string literal", Offset: 42}

	assert.Equal(t, "malformed SQL: unterminated string literal starting at offset 42", err.Error())
}

func TestExecError(t *testing.T) {
	cause := errors.New("syntax error")

	t.Run("with statement index", func(t *testing.T) {
		err := &ExecError{Phase: ExecPhaseStaging, StatementIndex: 2, Err: cause}

		assert.Equal(t, "staging batch failed at statement 2: syntax error", err.Error())
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("without statement index", func(t *testing.T) {
		err := &ExecError{Phase: ExecPhaseCommit, StatementIndex: -1, Err: cause}

		assert.Equal(t, "commit batch failed: syntax error", err.Error())
	})
}

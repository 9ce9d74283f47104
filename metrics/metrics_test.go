package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMigrationsStagedTotal_Increment(t *testing.T) {
	before := testutil.ToFloat64(MigrationsStagedTotal.WithLabelValues("test-proj"))
	MigrationsStagedTotal.WithLabelValues("test-proj").Inc()
	after := testutil.ToFloat64(MigrationsStagedTotal.WithLabelValues("test-proj"))

	assert.Equal(t, before+1, after)
}

func TestMigrationFailuresTotal_PhaseLabels(t *testing.T) {
	MigrationFailuresTotal.WithLabelValues("test-proj-2", "staging").Inc()
	MigrationFailuresTotal.WithLabelValues("test-proj-2", "commit").Inc()
	MigrationFailuresTotal.WithLabelValues("test-proj-2", "commit").Inc()

	staging := testutil.ToFloat64(MigrationFailuresTotal.WithLabelValues("test-proj-2", "staging"))
	commit := testutil.ToFloat64(MigrationFailuresTotal.WithLabelValues("test-proj-2", "commit"))

	assert.Equal(t, float64(1), staging)
	assert.Equal(t, float64(2), commit)
}

func TestCollector_StagedAndCommitted(t *testing.T) {
	c := NewCollector("test-proj-3")

	c.IncStaged()
	c.IncStaged()
	assert.Equal(t, float64(2), testutil.ToFloat64(StagedMigrations.WithLabelValues("test-proj-3")))

	c.IncCommitted()
	assert.Equal(t, float64(1), testutil.ToFloat64(StagedMigrations.WithLabelValues("test-proj-3")))
	assert.Equal(t, float64(1), testutil.ToFloat64(MigrationsCommittedTotal.WithLabelValues("test-proj-3")))
}

func TestCollector_Statements(t *testing.T) {
	c := NewCollector("test-proj-4")

	c.AddStatements("batch", 3)
	c.AddStatements("single", 1)

	assert.Equal(t, float64(3), testutil.ToFloat64(StatementsExecutedTotal.WithLabelValues("test-proj-4", "batch")))
	assert.Equal(t, float64(1), testutil.ToFloat64(StatementsExecutedTotal.WithLabelValues("test-proj-4", "single")))
}

func TestCollector_Branches(t *testing.T) {
	c := NewCollector("test-proj-5")

	c.IncBranchCreated()
	c.IncBranchCreated()
	c.IncBranchDeleted()

	assert.Equal(t, float64(2), testutil.ToFloat64(BranchesCreatedTotal.WithLabelValues("test-proj-5")))
	assert.Equal(t, float64(1), testutil.ToFloat64(BranchesDeletedTotal.WithLabelValues("test-proj-5")))
}

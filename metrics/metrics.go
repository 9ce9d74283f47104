package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MigrationsStagedTotal tracks the total number of migrations staged.
var MigrationsStagedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pgstage_migrations_staged_total",
		Help: "Total migrations staged on an ephemeral branch",
	},
	[]string{"project"},
)

// MigrationsCommittedTotal tracks the total number of migrations committed.
var MigrationsCommittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pgstage_migrations_committed_total",
		Help: "Total migrations committed to a primary branch",
	},
	[]string{"project"},
)

// MigrationFailuresTotal tracks migration workflow failures by phase.
var MigrationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pgstage_migration_failures_total",
		Help: "Total migration workflow failures",
	},
	[]string{"project", "phase"},
)

// BranchesCreatedTotal tracks the total number of staging branches created.
var BranchesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pgstage_branches_created_total",
		Help: "Total staging branches created",
	},
	[]string{"project"},
)

// BranchesDeletedTotal tracks the total number of staging branches deleted.
var BranchesDeletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pgstage_branches_deleted_total",
		Help: "Total staging branches deleted",
	},
	[]string{"project"},
)

// StatementsExecutedTotal tracks SQL statements executed through the server.
var StatementsExecutedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pgstage_sql_statements_total",
		Help: "Total SQL statements executed",
	},
	[]string{"project", "kind"},
)

// StagedMigrations tracks the number of migrations currently awaiting commit.
var StagedMigrations = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pgstage_staged_migrations",
		Help: "Migrations currently staged and awaiting commit",
	},
	[]string{"project"},
)

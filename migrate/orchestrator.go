// Package migrate implements the two-phase migration workflow: stage a
// schema change on an ephemeral branch, then commit it to the primary
// branch once the caller has verified it.
package migrate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/getpup/pgstage"
	"github.com/getpup/pgstage/metrics"
	"github.com/getpup/pgstage/provision"
	"github.com/getpup/pgstage/registry"
	"github.com/getpup/pgstage/sqlexec"
	"github.com/getpup/pgstage/sqlsplit"
)

// DefaultRole is the database role used when Config.Role is empty.
const DefaultRole = "neondb_owner"

// Config holds configuration for the migration Orchestrator.
type Config struct {
	// Provisioner creates and deletes staging branches (required).
	Provisioner provision.Client

	// Executor runs SQL batches against branches (required).
	Executor sqlexec.Executor

	// Registry stores migrations between stage and commit (required).
	Registry registry.Registry

	// Role is the database role SQL executes as (default: DefaultRole).
	Role string

	// Logger is for observability (optional; defaults to a no-op logger).
	Logger zerolog.Logger

	// MetricsEnabled enables Prometheus metrics collection (default: true).
	// Set to false explicitly to disable metrics.
	MetricsEnabled *bool
}

// StageRequest describes a migration to stage.
type StageRequest struct {
	// ProjectID is the control-plane project.
	ProjectID string

	// DatabaseName is the target database within the project.
	DatabaseName string

	// Script is the migration SQL, possibly multiple statements.
	Script string
}

// StageResult is returned by Stage. The caller verifies the change on the
// staging branch (e.g. by running SQL against it directly) before
// committing.
type StageResult struct {
	// MigrationID identifies the staged migration for Commit.
	MigrationID string

	// StagingBranch is the branch the script was applied to. Its
	// ParentID is the primary branch the commit will target.
	StagingBranch pgstage.Branch

	// Result is the raw execution result from the staging batch.
	Result sqlexec.BatchResult
}

// CommitResult is returned by a successful Commit.
type CommitResult struct {
	// DeletedBranch is the staging branch that was deleted.
	DeletedBranch pgstage.Branch

	// Result is the raw execution result from the commit batch.
	Result sqlexec.BatchResult
}

// Orchestrator drives the stage/commit state machine. Each invocation
// runs to completion; there is no internal parallelism. Concurrent Stage
// calls are independent — each creates its own branch and registry entry.
type Orchestrator struct {
	config    Config
	logger    zerolog.Logger
	newID     func() string
	now       func() time.Time
	collector func(project string) *metrics.Collector
}

// New creates a new Orchestrator with the given configuration.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Provisioner == nil {
		return nil, errors.New("provisioner is required")
	}
	if cfg.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Role == "" {
		cfg.Role = DefaultRole
	}

	metricsEnabled := true
	if cfg.MetricsEnabled != nil {
		metricsEnabled = *cfg.MetricsEnabled
	}
	collector := func(string) *metrics.Collector { return nil }
	if metricsEnabled {
		collector = metrics.NewCollector
	}

	return &Orchestrator{
		config:    cfg,
		logger:    cfg.Logger,
		newID:     func() string { return uuid.New().String() },
		now:       time.Now,
		collector: collector,
	}, nil
}

// Stage creates a staging branch parented at the project's primary
// branch, applies the script to it as one atomic batch, and records the
// migration in the registry. The returned migration ID is the handle for
// Commit.
//
// Failure behavior is deliberately asymmetric:
//   - branch creation failed: nothing to clean up, no registry entry;
//   - script is malformed: the fresh branch is deleted before returning,
//     since it holds nothing worth inspecting;
//   - the staging batch failed: the branch is kept so the caller can
//     inspect the failure; it must be cleaned up out-of-band.
func (o *Orchestrator) Stage(ctx context.Context, req StageRequest) (StageResult, error) {
	logger := o.logger.With().
		Str("project", req.ProjectID).
		Str("database", req.DatabaseName).
		Logger()
	collector := o.collector(req.ProjectID)

	branch, err := o.config.Provisioner.CreateBranch(ctx, req.ProjectID, "")
	if err != nil {
		logger.Error().Err(err).Msg("staging branch creation failed")
		if collector != nil {
			collector.IncFailure(string(pgstage.ExecPhaseStaging))
		}
		return StageResult{}, err
	}
	if collector != nil {
		collector.IncBranchCreated()
	}
	logger = logger.With().Str("branch", branch.ID).Str("parent", branch.ParentID).Logger()
	logger.Info().Msg("staging branch created")

	stmts, err := sqlsplit.Split(req.Script)
	if err != nil {
		// The branch was created for this script alone; a script that
		// cannot even be split leaves nothing worth keeping on it.
		if delErr := o.config.Provisioner.DeleteBranch(ctx, req.ProjectID, branch.ID); delErr != nil {
			logger.Error().Err(delErr).Msg("failed to clean up staging branch after malformed script")
		} else if collector != nil {
			collector.IncBranchDeleted()
		}
		logger.Error().Err(err).Msg("migration script is malformed")
		return StageResult{}, err
	}

	target := pgstage.ConnectionTarget{
		ProjectID:    req.ProjectID,
		BranchID:     branch.ID,
		DatabaseName: req.DatabaseName,
		Role:         o.config.Role,
	}
	result, err := o.config.Executor.ExecuteBatch(ctx, target, stmts)
	if err != nil {
		// Keep the branch: its partially-diagnosable state is the most
		// useful artifact the caller has. No registry entry is written.
		if collector != nil {
			collector.IncFailure(string(pgstage.ExecPhaseStaging))
		}
		logger.Error().Err(err).Msg("staging batch failed; branch kept for inspection")
		return StageResult{}, execError(pgstage.ExecPhaseStaging, err)
	}
	if collector != nil {
		collector.AddStatements("batch", len(stmts))
	}

	migration := pgstage.Migration{
		ID:            o.newID(),
		Script:        req.Script,
		DatabaseName:  req.DatabaseName,
		StagingBranch: branch,
		State:         pgstage.MigrationStateStaged,
		CreatedAt:     o.now(),
	}
	if err := o.config.Registry.Put(ctx, migration); err != nil {
		logger.Error().Err(err).Msg("failed to record staged migration")
		return StageResult{}, err
	}
	if collector != nil {
		collector.IncStaged()
	}
	logger.Info().Str("migration_id", migration.ID).Msg("migration staged")

	return StageResult{
		MigrationID:   migration.ID,
		StagingBranch: branch,
		Result:        result,
	}, nil
}

// Commit re-applies a staged migration's script to the parent of its
// staging branch — the primary branch as it was at stage time — then
// deletes the staging branch and removes the registry entry.
//
// The script is re-split from the stored text; statements from the stage
// phase are never reused. If the commit batch fails, the registry entry
// and the staging branch are both kept so the caller can inspect the
// staging branch or retry Commit with the same ID. Retrying is safe only
// if the script is idempotent; the orchestrator does not enforce that.
func (o *Orchestrator) Commit(ctx context.Context, migrationID string) (CommitResult, error) {
	migration, err := o.config.Registry.Get(ctx, migrationID)
	if err != nil {
		return CommitResult{}, err
	}

	branch := migration.StagingBranch
	logger := o.logger.With().
		Str("project", branch.ProjectID).
		Str("database", migration.DatabaseName).
		Str("migration_id", migration.ID).
		Str("target_branch", branch.ParentID).
		Logger()
	collector := o.collector(branch.ProjectID)

	stmts, err := sqlsplit.Split(migration.Script)
	if err != nil {
		// The script split at stage time, so this means the stored text
		// was corrupted. Surface it; never guess at statement grouping.
		logger.Error().Err(err).Msg("stored migration script no longer splits")
		return CommitResult{}, err
	}

	// Always the parent recorded at stage time, never whatever branch the
	// project considers primary now.
	target := pgstage.ConnectionTarget{
		ProjectID:    branch.ProjectID,
		BranchID:     branch.ParentID,
		DatabaseName: migration.DatabaseName,
		Role:         o.config.Role,
	}
	result, err := o.config.Executor.ExecuteBatch(ctx, target, stmts)
	if err != nil {
		migration.State = pgstage.MigrationStateFailed
		if putErr := o.config.Registry.Put(ctx, migration); putErr != nil {
			logger.Error().Err(putErr).Msg("failed to record commit failure")
		}
		if collector != nil {
			collector.IncFailure(string(pgstage.ExecPhaseCommit))
		}
		logger.Error().Err(err).Msg("commit batch failed; migration kept for retry")
		return CommitResult{}, execError(pgstage.ExecPhaseCommit, err)
	}
	if collector != nil {
		collector.AddStatements("batch", len(stmts))
	}

	// The migration is applied from here on; the entry must go even if
	// branch deletion fails.
	if err := o.config.Registry.Remove(ctx, migration.ID); err != nil &&
		!errors.Is(err, pgstage.ErrMigrationNotFound) {
		logger.Error().Err(err).Msg("failed to remove committed migration from registry")
	}
	if collector != nil {
		collector.IncCommitted()
	}

	if err := o.config.Provisioner.DeleteBranch(ctx, branch.ProjectID, branch.ID); err != nil {
		logger.Error().Err(err).Msg("migration committed but staging branch deletion failed")
		return CommitResult{}, err
	}
	if collector != nil {
		collector.IncBranchDeleted()
	}
	logger.Info().Msg("migration committed")

	return CommitResult{
		DeletedBranch: branch,
		Result:        result,
	}, nil
}

// execError converts an executor failure into a *pgstage.ExecError for
// the given phase, carrying over the failing statement index when the
// executor reported one.
func execError(phase pgstage.ExecPhase, err error) error {
	index := -1
	var batchErr *sqlexec.BatchError
	if errors.As(err, &batchErr) {
		index = batchErr.StatementIndex
	}
	return &pgstage.ExecError{Phase: phase, StatementIndex: index, Err: err}
}

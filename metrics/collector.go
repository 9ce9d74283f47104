package metrics

// Collector wraps metrics and provides helper methods with a pre-filled
// project label.
type Collector struct {
	project string
}

// NewCollector creates a new Collector for the given project.
func NewCollector(project string) *Collector {
	return &Collector{project: project}
}

// IncStaged increments the staged-migrations counter and gauge.
func (c *Collector) IncStaged() {
	MigrationsStagedTotal.WithLabelValues(c.project).Inc()
	StagedMigrations.WithLabelValues(c.project).Inc()
}

// IncCommitted increments the committed counter and decrements the
// staged gauge.
func (c *Collector) IncCommitted() {
	MigrationsCommittedTotal.WithLabelValues(c.project).Inc()
	StagedMigrations.WithLabelValues(c.project).Dec()
}

// IncFailure increments the failure counter for a workflow phase.
func (c *Collector) IncFailure(phase string) {
	MigrationFailuresTotal.WithLabelValues(c.project, phase).Inc()
}

// IncBranchCreated increments the branches created counter.
func (c *Collector) IncBranchCreated() {
	BranchesCreatedTotal.WithLabelValues(c.project).Inc()
}

// IncBranchDeleted increments the branches deleted counter.
func (c *Collector) IncBranchDeleted() {
	BranchesDeletedTotal.WithLabelValues(c.project).Inc()
}

// AddStatements adds to the executed-statements counter for a statement kind
// ("batch" or "single").
func (c *Collector) AddStatements(kind string, n int) {
	StatementsExecutedTotal.WithLabelValues(c.project, kind).Add(float64(n))
}

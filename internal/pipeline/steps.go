package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scanforge/osfp/internal/analyze"
	"github.com/scanforge/osfp/internal/config"
	"github.com/scanforge/osfp/internal/database"
	"github.com/scanforge/osfp/internal/model"
)

// ReconcileStep builds the OS fingerprint from the decoded input data.
// This step is the heart of the pipeline: everything after it operates
// on the report it produces.
//
// Design decision: Reconciliation is a separate step rather than a
// precondition because:
// 1. Validation failures surface through the same error path as any step
// 2. The pipeline log shows how long reconciliation took per host
// 3. Batch runs can share the analyze/persist steps unchanged
type ReconcileStep struct {
	// logger for structured logging. Also receives the deprecation
	// warnings the fingerprint emits for legacy queries.
	logger *slog.Logger
}

// ReconcileStepOption configures a ReconcileStep.
type ReconcileStepOption func(*ReconcileStep)

// WithReconcileLogger sets a custom logger for the reconcile step.
func WithReconcileLogger(logger *slog.Logger) ReconcileStepOption {
	return func(s *ReconcileStep) {
		s.logger = logger
	}
}

// NewReconcileStep creates a new reconciliation step.
func NewReconcileStep(opts ...ReconcileStepOption) *ReconcileStep {
	s := &ReconcileStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ReconcileStep) Name() string {
	return "reconcile"
}

// Do executes the reconciliation step.
func (s *ReconcileStep) Do(_ context.Context, job *Job) error {
	fp, err := model.NewOSFingerprint(job.Data, model.WithLogger(s.logger))
	if err != nil {
		return fmt.Errorf("reconcile %s: %w", job.Host, err)
	}

	job.Report = model.NewReport(job.Host, fp)

	s.logger.Debug("fingerprint reconciled",
		"host", job.Host,
		"matches", len(fp.Matches(0)),
		"probes", len(fp.Probes()),
	)

	return nil
}

// AnalyzeStep inspects the reconciled fingerprint and records findings
// on the report.
//
// Design decision: Analysis is a separate step because:
// 1. It operates on the report the reconcile step produced
// 2. It has its own configuration (confidence threshold)
// 3. Its findings are advisory, so its failures are non-fatal
type AnalyzeStep struct {
	// analyzer is the analyzer coordinator.
	analyzer *analyze.Analyzer

	// threshold is the low-confidence accuracy threshold.
	threshold int

	// logger for structured logging.
	logger *slog.Logger
}

// AnalyzeStepOption configures an AnalyzeStep.
type AnalyzeStepOption func(*AnalyzeStep)

// WithAnalyzeConfidenceThreshold sets the low-confidence threshold.
func WithAnalyzeConfidenceThreshold(threshold int) AnalyzeStepOption {
	return func(s *AnalyzeStep) {
		s.threshold = threshold
	}
}

// WithAnalyzeLogger sets a custom logger for the analyze step.
func WithAnalyzeLogger(logger *slog.Logger) AnalyzeStepOption {
	return func(s *AnalyzeStep) {
		s.logger = logger
	}
}

// NewAnalyzeStep creates a new analysis step.
func NewAnalyzeStep(opts ...AnalyzeStepOption) *AnalyzeStep {
	s := &AnalyzeStep{
		threshold: config.DefaultConfidenceThreshold,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.analyzer = analyze.NewAnalyzer(analyze.WithConfidenceThreshold(s.threshold))

	return s
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do executes the analysis step.
func (s *AnalyzeStep) Do(ctx context.Context, job *Job) error {
	// Skip if reconciliation produced nothing to analyze
	if job.Report == nil {
		s.logger.Debug("skipping analysis, no report", "host", job.Host)
		return nil
	}

	data := &analyze.AnalysisData{
		Host:        job.Host,
		Fingerprint: job.Report.Fingerprint,
	}

	findings, err := s.analyzer.Analyze(ctx, data)
	if err != nil {
		// Non-fatal: keep the partial findings
		s.logger.Warn("analysis completed with error", "host", job.Host, "error", err)
	}

	for _, f := range findings {
		job.Report.AddFinding(f)
	}

	s.logger.Info("analysis completed",
		"host", job.Host,
		"findings_count", len(findings),
	)

	return nil
}

// PersistStep saves the report to the fingerprint history store.
//
// Design decision: Persistence is a separate step because:
// 1. It is optional (the store can be disabled entirely)
// 2. It needs the fully analyzed report, so it must run last
// 3. Skip-if-unchanged is a storage policy, not a reconciliation concern
type PersistStep struct {
	// db is the history store to write to.
	db *database.HistoryDB

	// skipUnchanged avoids writing a new record when the fingerprint
	// digest matches the most recent stored one for the host.
	skipUnchanged bool

	// logger for structured logging.
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithSkipUnchanged controls digest-based duplicate suppression.
func WithSkipUnchanged(skip bool) PersistStepOption {
	return func(s *PersistStep) {
		s.skipUnchanged = skip
	}
}

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a new persistence step writing to the given store.
func NewPersistStep(db *database.HistoryDB, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		db:            db,
		skipUnchanged: true,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persistence step.
func (s *PersistStep) Do(ctx context.Context, job *Job) error {
	if job.Report == nil {
		s.logger.Debug("skipping persist, no report", "host", job.Host)
		return nil
	}

	if s.skipUnchanged && job.Report.Fingerprint != nil {
		last, err := s.db.LatestDigest(ctx, job.Host)
		if err != nil {
			// Non-fatal: fall through and store the report anyway
			s.logger.Warn("digest lookup failed", "host", job.Host, "error", err)
		} else if last != "" && last == job.Report.Fingerprint.Digest() {
			job.Unchanged = true
			s.logger.Info("fingerprint unchanged, skipping save", "host", job.Host)
			return nil
		}
	}

	id, err := s.db.SaveReport(ctx, job.Report)
	if err != nil {
		return fmt.Errorf("persist report for %s: %w", job.Host, err)
	}

	job.ReportID = id
	s.logger.Info("report saved", "host", job.Host, "id", id)

	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// ConfidenceThreshold is the best-match accuracy below which the
	// analysis records a low-confidence finding.
	ConfidenceThreshold int

	// SkipUnchanged avoids storing reports whose fingerprint digest
	// matches the most recent stored one.
	SkipUnchanged bool
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineConfidenceThreshold sets the low-confidence threshold.
func WithPipelineConfidenceThreshold(threshold int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.ConfidenceThreshold = threshold
	}
}

// WithPipelineSkipUnchanged controls digest-based duplicate suppression.
func WithPipelineSkipUnchanged(skip bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SkipUnchanged = skip
	}
}

// DefaultPipeline creates a pipeline with all default steps configured.
// This is the standard pipeline for reconciling one host end to end.
// Passing a nil store omits the persistence step.
//
// Design decision: We provide a default pipeline because:
// 1. Most users want all steps
// 2. Reduces boilerplate in CLI
// 3. Ensures consistent ordering
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineConfidenceThreshold, etc).
func DefaultPipeline(db *database.HistoryDB, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		ConfidenceThreshold: config.DefaultConfidenceThreshold,
		SkipUnchanged:       true,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddSteps(
		NewReconcileStep(),
		NewAnalyzeStep(
			WithAnalyzeConfidenceThreshold(cfg.ConfidenceThreshold),
		),
	)

	if db != nil {
		p.AddStep(NewPersistStep(db, WithSkipUnchanged(cfg.SkipUnchanged)))
	}

	return p
}

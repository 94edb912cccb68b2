package analyze

import (
	"context"

	"github.com/scanforge/osfp/internal/model"
)

// Analyzer category constants.
const (
	// CategoryAttribution is used by analyzers that examine how classes
	// were attached to matches.
	CategoryAttribution = "attribution"
	// CategoryConfidence is used by analyzers that examine how strong
	// the identification is.
	CategoryConfidence = "confidence"
)

// DefaultConfidenceThreshold is the best-match accuracy below which the
// low-confidence check fires when no threshold is configured.
const DefaultConfidenceThreshold = 80

// Analyzer coordinates checks across multiple analyzers. It aggregates
// findings from different analysis types into a unified report.
//
// Design decision: We use a coordinator pattern rather than running analyzers
// independently because:
//  1. Unified severity assessment across all findings
//  2. Deduplication of repeated findings
//  3. Consistent context and cancellation handling
type Analyzer struct {
	// analyzers is the list of registered analyzers to run.
	analyzers []CheckAnalyzer

	// options configures analyzer behavior.
	options AnalyzerOptions
}

// AnalyzerOptions configures the analyzer behavior.
type AnalyzerOptions struct {
	// ConfidenceThreshold is the best-match accuracy below which a
	// low-confidence finding is recorded. 0 disables the check.
	ConfidenceThreshold int
}

// DefaultOptions returns sensible default analyzer options.
func DefaultOptions() AnalyzerOptions {
	return AnalyzerOptions{
		ConfidenceThreshold: DefaultConfidenceThreshold,
	}
}

// WithConfidenceThreshold sets the low-confidence threshold.
func WithConfidenceThreshold(threshold int) func(*AnalyzerOptions) {
	return func(o *AnalyzerOptions) {
		o.ConfidenceThreshold = threshold
	}
}

// CheckAnalyzer defines the interface for individual analyzers.
// Each analyzer focuses on one condition worth flagging.
//
// Design decision: We use an interface rather than concrete types because:
//  1. Allows for easy extension with new analyzers
//  2. Enables testing with mock analyzers
//  3. Supports different analyzer implementations for the same check type
type CheckAnalyzer interface {
	// Name returns the analyzer's name for logging and reporting.
	Name() string

	// Category returns the analyzer's category ("attribution", "confidence").
	Category() string

	// Analyze runs the analysis on the provided data.
	// It returns findings discovered during analysis.
	Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error)
}

// AnalysisData contains all data available for analysis.
//
// Design decision: We pass all data in a single struct rather than
// multiple parameters because:
//  1. Not all analyzers need all fields
//  2. Adding new fields doesn't change analyzer signatures
//  3. Easier to mock in tests
type AnalysisData struct {
	// Host is the host label being analyzed.
	Host string

	// Fingerprint is the reconciled result to inspect. May be nil, in
	// which case every analyzer returns no findings.
	Fingerprint *model.OSFingerprint
}

// NewAnalyzer creates a new Analyzer with all built-in analyzers registered.
func NewAnalyzer(opts ...func(*AnalyzerOptions)) *Analyzer {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	a := &Analyzer{
		options:   options,
		analyzers: make([]CheckAnalyzer, 0),
	}

	// Register built-in analyzers
	// Attribution analyzers
	a.Register(NewSyntheticMatchAnalyzer())
	a.Register(NewAccuracyTieAnalyzer())

	// Confidence analyzers
	a.Register(NewLowConfidenceAnalyzer(options.ConfidenceThreshold))
	a.Register(NewUnidentifiedHostAnalyzer())

	return a
}

// Register adds an analyzer to the list.
func (a *Analyzer) Register(analyzer CheckAnalyzer) {
	a.analyzers = append(a.analyzers, analyzer)
}

// Analyze runs all registered analyzers and aggregates findings.
func (a *Analyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	var allFindings []model.Finding

	for _, analyzer := range a.analyzers {
		select {
		case <-ctx.Done():
			return allFindings, ctx.Err()
		default:
		}

		findings, err := analyzer.Analyze(ctx, data)
		if err != nil {
			// Log error but continue with other analyzers
			// We want to collect as many findings as possible
			continue
		}

		allFindings = append(allFindings, findings...)
	}

	// Deduplicate findings
	allFindings = deduplicateFindings(allFindings)

	return allFindings, nil
}

// deduplicateFindings removes duplicate findings based on type and value.
//
// Design decision: We deduplicate by type+value because:
//  1. Multiple analyzers might flag the same condition
//  2. The report layer dedupes on the same key, so the coordinator's
//     output matches what a report would accept
//  3. We want to keep the most severe instance of each finding
func deduplicateFindings(findings []model.Finding) []model.Finding {
	seen := make(map[string]int) // key -> index in result
	result := make([]model.Finding, 0)

	for _, f := range findings {
		key := f.Type + "|" + f.Value
		if idx, exists := seen[key]; exists {
			// Keep the more severe finding
			if f.Severity > result[idx].Severity {
				result[idx] = f
			}
		} else {
			seen[key] = len(result)
			result = append(result, f)
		}
	}

	return result
}

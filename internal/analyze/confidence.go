package analyze

import (
	"context"
	"fmt"

	"github.com/scanforge/osfp/internal/model"
)

// LowConfidenceAnalyzer flags hosts whose best match falls below a
// configured accuracy threshold.
//
// Design decision: The threshold lives on the analyzer rather than in
// AnalysisData because:
//  1. It is operator policy, not a property of the scan
//  2. Per-host overrides can build a dedicated analyzer with that threshold
//  3. A threshold of zero turns the check off without a separate flag
type LowConfidenceAnalyzer struct {
	// threshold is the minimum acceptable best-match accuracy.
	// 0 disables the check.
	threshold int
}

// NewLowConfidenceAnalyzer creates a new LowConfidenceAnalyzer.
func NewLowConfidenceAnalyzer(threshold int) *LowConfidenceAnalyzer {
	return &LowConfidenceAnalyzer{threshold: threshold}
}

// Name returns the analyzer name.
func (a *LowConfidenceAnalyzer) Name() string {
	return "low_confidence"
}

// Category returns the analyzer category.
func (a *LowConfidenceAnalyzer) Category() string {
	return CategoryConfidence
}

// Analyze compares the best match accuracy against the threshold.
func (a *LowConfidenceAnalyzer) Analyze(_ context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)
	if data.Fingerprint == nil || a.threshold <= 0 {
		return findings, nil
	}

	best := data.Fingerprint.BestMatch()
	if best == nil || best.Accuracy() >= a.threshold {
		return findings, nil
	}

	info := model.GetFindingInfo(model.FindingLowConfidence)

	findings = append(findings, model.Finding{
		Type:  model.FindingLowConfidence,
		Title: "Best Match Below Confidence Threshold",
		Description: fmt.Sprintf(
			"The best match %q has accuracy %d, below the configured threshold of %d.",
			best.Name(), best.Accuracy(), a.threshold),
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		Value:          best.Name(),
	})

	return findings, nil
}

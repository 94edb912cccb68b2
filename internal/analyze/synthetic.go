package analyze

import (
	"context"
	"fmt"

	"github.com/scanforge/osfp/internal/model"
)

// SyntheticMatchAnalyzer flags matches that were fabricated during
// reconciliation to hold classes no declared match could claim.
//
// Design decision: We surface synthetic matches as findings because:
//  1. A synthetic match is a reconciliation artifact, not scanner output
//  2. Consumers ranking matches by accuracy may mistake it for a real candidate
//  3. Its presence means the scan emitted a class with no matching accuracy
type SyntheticMatchAnalyzer struct{}

// NewSyntheticMatchAnalyzer creates a new SyntheticMatchAnalyzer.
func NewSyntheticMatchAnalyzer() *SyntheticMatchAnalyzer {
	return &SyntheticMatchAnalyzer{}
}

// Name returns the analyzer name.
func (a *SyntheticMatchAnalyzer) Name() string {
	return "synthetic_match"
}

// Category returns the analyzer category.
func (a *SyntheticMatchAnalyzer) Category() string {
	return CategoryAttribution
}

// Analyze examines the reconciled matches for synthetic placeholders.
func (a *SyntheticMatchAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)
	if data.Fingerprint == nil {
		return findings, nil
	}

	info := model.GetFindingInfo(model.FindingSyntheticMatch)

	for _, match := range data.Fingerprint.Matches(0) {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		if !match.IsSynthetic() {
			continue
		}

		findings = append(findings, model.Finding{
			Type:  model.FindingSyntheticMatch,
			Title: "Synthetic Match Holds Orphaned Classes",
			Description: fmt.Sprintf(
				"The match was fabricated to hold %d class(es) whose accuracy matched no declared match.",
				len(match.Classes())),
			Severity:       info.Severity,
			SeverityText:   info.Severity.String(),
			Impact:         info.Impact,
			Recommendation: info.Recommendation,
			Value:          match.Name(),
		})
	}

	return findings, nil
}

package analyze

import (
	"context"
	"fmt"
	"strconv"

	"github.com/scanforge/osfp/internal/model"
)

// AccuracyTieAnalyzer flags groups of declared matches that share the
// same accuracy. Class attribution hands an orphaned class to the first
// match with an equal accuracy, so when several matches tie, the choice
// among them is positional rather than meaningful.
//
// Design decision: We flag every declared tie, not just ties that
// received orphaned classes, because:
//  1. After reconciliation there is no record of which classes were orphans
//  2. The ambiguity exists for consumers either way
//  3. A conservative flag is cheap to review and easy to dismiss
type AccuracyTieAnalyzer struct{}

// NewAccuracyTieAnalyzer creates a new AccuracyTieAnalyzer.
func NewAccuracyTieAnalyzer() *AccuracyTieAnalyzer {
	return &AccuracyTieAnalyzer{}
}

// Name returns the analyzer name.
func (a *AccuracyTieAnalyzer) Name() string {
	return "accuracy_tie"
}

// Category returns the analyzer category.
func (a *AccuracyTieAnalyzer) Category() string {
	return CategoryAttribution
}

// Analyze looks for declared matches sharing an accuracy value.
func (a *AccuracyTieAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)
	if data.Fingerprint == nil {
		return findings, nil
	}

	// Count declared matches per accuracy, remembering first-seen order
	// so the findings come out deterministic.
	counts := make(map[int]int)
	order := make([]int, 0)
	for _, match := range data.Fingerprint.Matches(0) {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		if match.IsSynthetic() {
			continue
		}
		if counts[match.Accuracy()] == 0 {
			order = append(order, match.Accuracy())
		}
		counts[match.Accuracy()]++
	}

	info := model.GetFindingInfo(model.FindingAccuracyTie)

	for _, accuracy := range order {
		if counts[accuracy] < 2 {
			continue
		}

		findings = append(findings, model.Finding{
			Type:  model.FindingAccuracyTie,
			Title: "Matches Tied On Accuracy",
			Description: fmt.Sprintf(
				"%d declared matches share accuracy %d. Orphaned classes at this accuracy attach to the first of them by position.",
				counts[accuracy], accuracy),
			Severity:       info.Severity,
			SeverityText:   info.Severity.String(),
			Impact:         info.Impact,
			Recommendation: info.Recommendation,
			Value:          strconv.Itoa(accuracy),
		})
	}

	return findings, nil
}

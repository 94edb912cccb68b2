package analyze

import (
	"context"
	"fmt"

	"github.com/scanforge/osfp/internal/model"
)

// UnidentifiedHostAnalyzer flags hosts where the scanner collected raw
// probe material but produced no match at all. Such hosts responded to
// probing yet stayed unidentified, which usually means an OS missing
// from the scanner's signature database or middleware mangling the
// probe responses.
type UnidentifiedHostAnalyzer struct{}

// NewUnidentifiedHostAnalyzer creates a new UnidentifiedHostAnalyzer.
func NewUnidentifiedHostAnalyzer() *UnidentifiedHostAnalyzer {
	return &UnidentifiedHostAnalyzer{}
}

// Name returns the analyzer name.
func (a *UnidentifiedHostAnalyzer) Name() string {
	return "unidentified_host"
}

// Category returns the analyzer category.
func (a *UnidentifiedHostAnalyzer) Category() string {
	return CategoryConfidence
}

// Analyze checks for probe material without any match.
func (a *UnidentifiedHostAnalyzer) Analyze(_ context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)
	if data.Fingerprint == nil {
		return findings, nil
	}

	if len(data.Fingerprint.Matches(0)) > 0 || len(data.Fingerprint.Probes()) == 0 {
		return findings, nil
	}

	info := model.GetFindingInfo(model.FindingUnidentifiedHost)

	findings = append(findings, model.Finding{
		Type:  model.FindingUnidentifiedHost,
		Title: "Host Probed But Not Identified",
		Description: fmt.Sprintf(
			"%d probe(s) were collected for the host but the scanner produced no OS match.",
			len(data.Fingerprint.Probes())),
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		Value:          data.Host,
	})

	return findings, nil
}

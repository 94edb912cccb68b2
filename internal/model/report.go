package model

import "time"

// Finding is one analysis observation about a reconciled fingerprint.
type Finding struct {
	// Type is the finding type identifier.
	// This maps to the findingInfoMapping in severity.go.
	Type string `json:"type"`

	// Severity is the risk level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Impact explains why this finding matters to consumers of the
	// reconciled result.
	Impact string `json:"impact,omitempty"`

	// Recommendation provides guidance on how to act on this finding.
	Recommendation string `json:"recommendation,omitempty"`

	// Value is the specific value involved (a match name, an accuracy,
	// etc.).
	Value string `json:"value,omitempty"`
}

// Report bundles everything one reconciliation produced for one host:
// the fingerprint, the analysis findings, and bookkeeping metadata. It
// is the unit the writers render and the history store persists.
type Report struct {
	// Host is the host label this reconciliation belongs to.
	Host string `json:"host"`

	// ReconciledAt is when the reconciliation ran.
	ReconciledAt time.Time `json:"reconciled_at"`

	// Fingerprint is the reconciled result.
	Fingerprint *OSFingerprint `json:"fingerprint"`

	// Findings contains the analysis observations.
	Findings []Finding `json:"findings,omitempty"`

	// === Severity Summary ===

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"critical_count"`

	// HighCount is the number of high severity findings.
	HighCount int `json:"high_count"`

	// MediumCount is the number of medium severity findings.
	MediumCount int `json:"medium_count"`

	// LowCount is the number of low severity findings.
	LowCount int `json:"low_count"`

	// InfoCount is the number of informational findings.
	InfoCount int `json:"info_count"`
}

// NewReport creates a report for the given host around a reconciled
// fingerprint.
func NewReport(host string, fingerprint *OSFingerprint) *Report {
	return &Report{
		Host:         host,
		ReconciledAt: time.Now().UTC(),
		Fingerprint:  fingerprint,
		Findings:     make([]Finding, 0),
	}
}

// AddFinding appends a finding and keeps the severity counters in sync.
// A finding with the same type and value as an existing one is dropped
// so repeated analysis passes stay idempotent.
func (r *Report) AddFinding(finding Finding) {
	for _, f := range r.Findings {
		if f.Type == finding.Type && f.Value == finding.Value {
			return
		}
	}

	r.Findings = append(r.Findings, finding)

	switch finding.Severity {
	case SeverityCritical:
		r.CriticalCount++
	case SeverityHigh:
		r.HighCount++
	case SeverityMedium:
		r.MediumCount++
	case SeverityLow:
		r.LowCount++
	case SeverityInfo:
		r.InfoCount++
	}
}

// TotalFindings returns the number of recorded findings.
func (r *Report) TotalFindings() int {
	return len(r.Findings)
}

// HasFindings reports whether any finding was recorded.
func (r *Report) HasFindings() bool {
	return len(r.Findings) > 0
}

// FindingsBySeverity returns the findings with the given severity, in
// recorded order.
func (r *Report) FindingsBySeverity(severity Severity) []Finding {
	findings := make([]Finding, 0)
	for _, f := range r.Findings {
		if f.Severity == severity {
			findings = append(findings, f)
		}
	}
	return findings
}

package model

import "time"

// Summary is the flattened, human-oriented view of one reconciliation.
//
// Design decision: We derive a separate summary type rather than
// printing parts of Report directly because:
// 1. It gives every writer one curated view of the important numbers
// 2. It serializes to JSON for tools that want structured but simple output
// 3. It keeps presentation concerns out of the record types
type Summary struct {
	// Host is the host label this reconciliation belongs to.
	Host string `json:"host"`

	// ReconciledAt is when the reconciliation ran.
	ReconciledAt time.Time `json:"reconciled_at"`

	// === Identification ===

	// BestMatch is the name of the highest-accuracy match, empty when
	// the result holds no matches.
	BestMatch string `json:"best_match,omitempty"`

	// BestAccuracy is the confidence of the best match.
	BestAccuracy int `json:"best_accuracy"`

	// === Counts ===

	// MatchCount is the total number of reconciled matches.
	MatchCount int `json:"match_count"`

	// SyntheticCount is how many of those were synthesized placeholders.
	SyntheticCount int `json:"synthetic_count"`

	// ClassCount is the total number of classes across all matches.
	ClassCount int `json:"class_count"`

	// ProbeCount is the number of raw fingerprint probe strings.
	ProbeCount int `json:"probe_count"`

	// PortCount is the number of port descriptors fingerprinting used.
	PortCount int `json:"port_count"`

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

	// === Detail rows ===

	// Matches holds one row per reconciled match, in order.
	Matches []MatchSummary `json:"matches,omitempty"`

	// Findings contains the analysis observations.
	Findings []Finding `json:"findings,omitempty"`
}

// MatchSummary is one match flattened into display-friendly fields.
type MatchSummary struct {
	// Name is the OS guess or the derived placeholder label.
	Name string `json:"name"`

	// Accuracy is the confidence percentage.
	Accuracy int `json:"accuracy"`

	// Line is the fingerprint-database line, SyntheticLine for
	// placeholders.
	Line int `json:"line"`

	// Synthetic marks matches fabricated during reconciliation.
	Synthetic bool `json:"synthetic"`

	// Classes holds the rendered class descriptions, in order.
	Classes []string `json:"classes,omitempty"`
}

// NewSummary flattens a report into its summary view.
func NewSummary(report *Report) *Summary {
	s := &Summary{
		Host:          report.Host,
		ReconciledAt:  report.ReconciledAt,
		CriticalCount: report.CriticalCount,
		HighCount:     report.HighCount,
		MediumCount:   report.MediumCount,
		LowCount:      report.LowCount,
		InfoCount:     report.InfoCount,
		Findings:      report.Findings,
	}

	if report.Fingerprint == nil {
		return s
	}

	fp := report.Fingerprint
	if best := fp.BestMatch(); best != nil {
		s.BestMatch = best.Name()
		s.BestAccuracy = best.Accuracy()
	}

	matches := fp.Matches(0)
	s.MatchCount = len(matches)
	s.ProbeCount = len(fp.Probes())
	s.PortCount = len(fp.PortsUsed())

	s.Matches = make([]MatchSummary, 0, len(matches))
	for _, match := range matches {
		row := MatchSummary{
			Name:      match.Name(),
			Accuracy:  match.Accuracy(),
			Line:      match.Line(),
			Synthetic: match.IsSynthetic(),
		}
		for _, class := range match.Classes() {
			row.Classes = append(row.Classes, classLabel(class))
			s.ClassCount++
		}
		if match.IsSynthetic() {
			s.SyntheticCount++
		}
		s.Matches = append(s.Matches, row)
	}

	return s
}

// classLabel renders one class as a single display line, without the
// multi-line CPE tail the full String() rendering carries.
func classLabel(class *OSClass) string {
	label := class.Vendor() + " " + class.OSFamily()
	if class.OSGen() != "" {
		label += " " + class.OSGen()
	}
	if class.Type() != "" {
		label += " (" + class.Type() + ")"
	}
	return label
}

// TotalFindings returns the number of findings in the summary.
func (s *Summary) TotalFindings() int {
	return len(s.Findings)
}

// HasFindings reports whether any finding is present.
func (s *Summary) HasFindings() bool {
	return len(s.Findings) > 0
}

// FindingsBySeverity returns the findings with the given severity, in
// recorded order.
func (s *Summary) FindingsBySeverity(severity Severity) []Finding {
	findings := make([]Finding, 0)
	for _, f := range s.Findings {
		if f.Severity == severity {
			findings = append(findings, f)
		}
	}
	return findings
}

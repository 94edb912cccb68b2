package model

import (
	"testing"
	"time"
)

// TestNewReport tests the Report constructor.
func TestNewReport(t *testing.T) {
	t.Parallel()

	fp, err := NewOSFingerprint(OSData{
		Matches: []OSMatchData{
			{Name: strPtr("Linux 3.X"), Line: strPtr("52000"), Accuracy: strPtr("95")},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report := NewReport("db01.internal", fp)

	t.Run("sets host label", func(t *testing.T) {
		t.Parallel()
		if report.Host != "db01.internal" {
			t.Errorf("got %q, expected %q", report.Host, "db01.internal")
		}
	})

	t.Run("sets reconciliation timestamp", func(t *testing.T) {
		t.Parallel()
		if report.ReconciledAt.IsZero() {
			t.Error("expected ReconciledAt to be set")
		}
		if time.Since(report.ReconciledAt) > time.Second {
			t.Error("ReconciledAt is too old")
		}
	})

	t.Run("keeps the fingerprint", func(t *testing.T) {
		t.Parallel()
		if report.Fingerprint != fp {
			t.Error("expected the report to hold the given fingerprint")
		}
	})

	t.Run("initializes Findings", func(t *testing.T) {
		t.Parallel()
		if report.Findings == nil {
			t.Error("expected Findings to be initialized")
		}
		if report.HasFindings() {
			t.Error("expected no findings on a fresh report")
		}
	})
}

// TestReportAddFinding tests the AddFinding method.
func TestReportAddFinding(t *testing.T) {
	t.Parallel()

	t.Run("appends findings and counts severities", func(t *testing.T) {
		t.Parallel()

		report := NewReport("db01.internal", nil)
		report.AddFinding(Finding{Type: FindingSyntheticMatch, Severity: SeverityInfo, Value: "router:Cisco:IOS"})
		report.AddFinding(Finding{Type: FindingAccuracyTie, Severity: SeverityMedium, Value: "95"})
		report.AddFinding(Finding{Type: FindingLowConfidence, Severity: SeverityLow, Value: "Linux 3.X"})

		if got := report.TotalFindings(); got != 3 {
			t.Errorf("got %d findings, expected 3", got)
		}
		if report.InfoCount != 1 {
			t.Errorf("got InfoCount %d, expected 1", report.InfoCount)
		}
		if report.MediumCount != 1 {
			t.Errorf("got MediumCount %d, expected 1", report.MediumCount)
		}
		if report.LowCount != 1 {
			t.Errorf("got LowCount %d, expected 1", report.LowCount)
		}
	})

	t.Run("drops a duplicate type and value pair", func(t *testing.T) {
		t.Parallel()

		report := NewReport("db01.internal", nil)
		report.AddFinding(Finding{Type: FindingSyntheticMatch, Severity: SeverityInfo, Value: "router:Cisco:IOS"})
		report.AddFinding(Finding{Type: FindingSyntheticMatch, Severity: SeverityInfo, Value: "router:Cisco:IOS"})

		if got := report.TotalFindings(); got != 1 {
			t.Errorf("got %d findings, expected 1", got)
		}
		if report.InfoCount != 1 {
			t.Errorf("got InfoCount %d, expected 1", report.InfoCount)
		}
	})

	t.Run("keeps findings with same type but different values", func(t *testing.T) {
		t.Parallel()

		report := NewReport("db01.internal", nil)
		report.AddFinding(Finding{Type: FindingSyntheticMatch, Severity: SeverityInfo, Value: "router:Cisco:IOS"})
		report.AddFinding(Finding{Type: FindingSyntheticMatch, Severity: SeverityInfo, Value: "switch:HP:ProCurve"})

		if got := report.TotalFindings(); got != 2 {
			t.Errorf("got %d findings, expected 2", got)
		}
	})
}

// TestReportFindingsBySeverity tests severity filtering.
func TestReportFindingsBySeverity(t *testing.T) {
	t.Parallel()

	report := NewReport("db01.internal", nil)
	report.AddFinding(Finding{Type: FindingAccuracyTie, Severity: SeverityMedium, Value: "95"})
	report.AddFinding(Finding{Type: FindingUnidentifiedHost, Severity: SeverityMedium, Value: "db01.internal"})
	report.AddFinding(Finding{Type: FindingSyntheticMatch, Severity: SeverityInfo, Value: "router:Cisco:IOS"})

	t.Run("returns matching findings in recorded order", func(t *testing.T) {
		t.Parallel()

		medium := report.FindingsBySeverity(SeverityMedium)
		if len(medium) != 2 {
			t.Fatalf("got %d findings, expected 2", len(medium))
		}
		if medium[0].Type != FindingAccuracyTie {
			t.Errorf("got first type %q, expected %q", medium[0].Type, FindingAccuracyTie)
		}
		if medium[1].Type != FindingUnidentifiedHost {
			t.Errorf("got second type %q, expected %q", medium[1].Type, FindingUnidentifiedHost)
		}
	})

	t.Run("returns empty slice when nothing matches", func(t *testing.T) {
		t.Parallel()

		critical := report.FindingsBySeverity(SeverityCritical)
		if len(critical) != 0 {
			t.Errorf("got %d findings, expected 0", len(critical))
		}
	})
}

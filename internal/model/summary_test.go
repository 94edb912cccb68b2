package model

import (
	"testing"
)

// TestNewSummary tests flattening a report into its summary view.
func TestNewSummary(t *testing.T) {
	t.Parallel()

	newReport := func(t *testing.T) *Report {
		t.Helper()
		fp, err := NewOSFingerprint(OSData{
			Matches: []OSMatchData{
				{
					Name:     strPtr("Linux 3.7 - 3.10"),
					Line:     strPtr("52000"),
					Accuracy: strPtr("95"),
					Classes: []OSClassData{
						{Vendor: strPtr("Linux"), OSFamily: strPtr("Linux"), OSGen: strPtr("3.X"), Type: strPtr("general purpose"), Accuracy: strPtr("95")},
					},
				},
			},
			Classes: []OSClassData{
				{Vendor: strPtr("Cisco"), OSFamily: strPtr("IOS"), Type: strPtr("router"), Accuracy: strPtr("70")},
			},
			Probes: []ProbeData{
				{Fingerprint: strPtr("SCAN(V=7.80%E=4)")},
			},
			PortsUsed: []PortUsed{
				{"state": "open", "proto": "tcp", "portid": "22"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		report := NewReport("db01.internal", fp)
		report.AddFinding(Finding{Type: FindingSyntheticMatch, Severity: SeverityInfo, Value: "router:Cisco:IOS"})
		return report
	}

	t.Run("carries host and timestamp", func(t *testing.T) {
		t.Parallel()

		report := newReport(t)
		summary := NewSummary(report)

		if summary.Host != "db01.internal" {
			t.Errorf("got %q, expected %q", summary.Host, "db01.internal")
		}
		if !summary.ReconciledAt.Equal(report.ReconciledAt) {
			t.Errorf("got %v, expected %v", summary.ReconciledAt, report.ReconciledAt)
		}
	})

	t.Run("identifies the best match", func(t *testing.T) {
		t.Parallel()

		summary := NewSummary(newReport(t))

		if summary.BestMatch != "Linux 3.7 - 3.10" {
			t.Errorf("got %q, expected %q", summary.BestMatch, "Linux 3.7 - 3.10")
		}
		if summary.BestAccuracy != 95 {
			t.Errorf("got best accuracy %d, expected 95", summary.BestAccuracy)
		}
	})

	t.Run("counts matches, classes, probes and ports", func(t *testing.T) {
		t.Parallel()

		summary := NewSummary(newReport(t))

		if summary.MatchCount != 2 {
			t.Errorf("got MatchCount %d, expected 2", summary.MatchCount)
		}
		if summary.SyntheticCount != 1 {
			t.Errorf("got SyntheticCount %d, expected 1", summary.SyntheticCount)
		}
		if summary.ClassCount != 2 {
			t.Errorf("got ClassCount %d, expected 2", summary.ClassCount)
		}
		if summary.ProbeCount != 1 {
			t.Errorf("got ProbeCount %d, expected 1", summary.ProbeCount)
		}
		if summary.PortCount != 1 {
			t.Errorf("got PortCount %d, expected 1", summary.PortCount)
		}
	})

	t.Run("builds one row per match in order", func(t *testing.T) {
		t.Parallel()

		summary := NewSummary(newReport(t))

		if len(summary.Matches) != 2 {
			t.Fatalf("got %d rows, expected 2", len(summary.Matches))
		}

		first := summary.Matches[0]
		if first.Name != "Linux 3.7 - 3.10" || first.Synthetic {
			t.Errorf("got row %+v, expected the declared Linux match", first)
		}
		if len(first.Classes) != 1 || first.Classes[0] != "Linux Linux 3.X (general purpose)" {
			t.Errorf("got classes %v, expected the single-line Linux label", first.Classes)
		}

		second := summary.Matches[1]
		if !second.Synthetic {
			t.Error("expected the second row to be synthetic")
		}
		if second.Line != SyntheticLine {
			t.Errorf("got line %d, expected %d", second.Line, SyntheticLine)
		}
		if len(second.Classes) != 1 || second.Classes[0] != "Cisco IOS (router)" {
			t.Errorf("got classes %v, expected the single-line Cisco label", second.Classes)
		}
	})

	t.Run("carries findings and severity counters", func(t *testing.T) {
		t.Parallel()

		summary := NewSummary(newReport(t))

		if summary.TotalFindings() != 1 {
			t.Errorf("got %d findings, expected 1", summary.TotalFindings())
		}
		if summary.InfoCount != 1 {
			t.Errorf("got InfoCount %d, expected 1", summary.InfoCount)
		}
		if !summary.HasFindings() {
			t.Error("expected HasFindings to be true")
		}
		info := summary.FindingsBySeverity(SeverityInfo)
		if len(info) != 1 || info[0].Type != FindingSyntheticMatch {
			t.Errorf("got info findings %v, expected the synthetic-match one", info)
		}
	})

	t.Run("handles a report without a fingerprint", func(t *testing.T) {
		t.Parallel()

		summary := NewSummary(NewReport("db01.internal", nil))

		if summary.BestMatch != "" {
			t.Errorf("got best match %q, expected empty", summary.BestMatch)
		}
		if summary.MatchCount != 0 {
			t.Errorf("got MatchCount %d, expected 0", summary.MatchCount)
		}
		if len(summary.Matches) != 0 {
			t.Errorf("got %d rows, expected 0", len(summary.Matches))
		}
	})
}

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/scanforge/osfp/internal/model"
)

// TextWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting and severity indicators.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type TextWriter struct {
	baseWriter

	// showEmpty controls whether sections with no content are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool

	// probeText enables the raw probe section when writing full reports.
	probeText bool

	// minAccuracy hides match rows below this accuracy. 0 shows all.
	minAccuracy int
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// WithProbeText includes the raw probe lines when writing full reports.
func WithProbeText(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.probeText = show
	}
}

// WithMinAccuracy hides match rows below the given accuracy.
func WithMinAccuracy(minAccuracy int) TextWriterOption {
	return func(w *TextWriter) {
		w.minAccuracy = minAccuracy
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *TextWriter) Write(report *model.Report) (int, error) {
	summary := model.NewSummary(report)

	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	w.writeMatches(&sb, summary)
	w.writeSeveritySummary(&sb, summary)
	w.writeFindings(&sb, summary)

	// The probe section needs the raw fingerprint, which the flattened
	// summary does not carry.
	if w.probeText && report.Fingerprint != nil {
		w.writeProbes(&sb, report.Fingerprint.Probes())
	}

	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteSummary outputs the summary in human-readable format.
func (w *TextWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	w.writeMatches(&sb, summary)
	w.writeSeveritySummary(&sb, summary)
	w.writeFindings(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with host identification.
func (w *TextWriter) writeHeader(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       OS FINGERPRINT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Host:        %s\n", summary.Host))
	sb.WriteString(fmt.Sprintf("Reconciled:  %s\n", summary.ReconciledAt.Format("2006-01-02 15:04:05 MST")))

	if summary.BestMatch != "" {
		sb.WriteString(fmt.Sprintf("Best Match:  %s (accuracy %d)\n", summary.BestMatch, summary.BestAccuracy))
	} else {
		sb.WriteString("Best Match:  (none)\n")
	}

	sb.WriteString("\n")
}

// writeCounts writes the reconciliation count section.
func (w *TextWriter) writeCounts(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RECONCILIATION SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Matches:    %d", summary.MatchCount))
	if summary.SyntheticCount > 0 {
		sb.WriteString(fmt.Sprintf(" (%d synthetic)", summary.SyntheticCount))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Classes:    %d\n", summary.ClassCount))
	sb.WriteString(fmt.Sprintf("  Probes:     %d\n", summary.ProbeCount))
	sb.WriteString(fmt.Sprintf("  Ports Used: %d\n", summary.PortCount))
	sb.WriteString("\n")
}

// writeMatches writes one row per match with its class lines.
func (w *TextWriter) writeMatches(sb *strings.Builder, summary *model.Summary) {
	rows := make([]model.MatchSummary, 0, len(summary.Matches))
	for _, row := range summary.Matches {
		if w.minAccuracy > 0 && row.Accuracy < w.minAccuracy {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("MATCHES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(rows) == 0 {
		sb.WriteString("  No matches\n\n")
		return
	}

	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("  * %s (accuracy %d)", row.Name, row.Accuracy))
		if row.Synthetic {
			sb.WriteString(" [synthetic]")
		}
		sb.WriteString("\n")

		for _, class := range row.Classes {
			sb.WriteString(fmt.Sprintf("      |__ %s\n", class))
		}
	}
	sb.WriteString("\n")
}

// writeSeveritySummary writes the severity summary section.
func (w *TextWriter) writeSeveritySummary(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SEVERITY SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  CRITICAL: %d\n", summary.CriticalCount))
	sb.WriteString(fmt.Sprintf("  HIGH:     %d\n", summary.HighCount))
	sb.WriteString(fmt.Sprintf("  MEDIUM:   %d\n", summary.MediumCount))
	sb.WriteString(fmt.Sprintf("  LOW:      %d\n", summary.LowCount))
	sb.WriteString(fmt.Sprintf("  INFO:     %d\n", summary.InfoCount))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  TOTAL:    %d findings\n", summary.TotalFindings()))
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by severity.
func (w *TextWriter) writeFindings(sb *strings.Builder, summary *model.Summary) {
	if !summary.HasFindings() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	// Write findings in order of severity (critical first)
	severities := []model.Severity{
		model.SeverityCritical,
		model.SeverityHigh,
		model.SeverityMedium,
		model.SeverityLow,
		model.SeverityInfo,
	}

	for _, severity := range severities {
		findings := summary.FindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// writeFindingsForSeverity writes findings of a specific severity level.
func (w *TextWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	// Severity header with visual indicator
	indicator := w.getSeverityIndicator(severity)
	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator, severity.String()))

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		sb.WriteString(fmt.Sprintf("  * %s\n", finding.Title))
		if finding.Value != "" {
			sb.WriteString(fmt.Sprintf("    Value: %s\n", finding.Value))
		}
		if w.verbose && finding.Description != "" {
			sb.WriteString(fmt.Sprintf("    Description: %s\n", finding.Description))
		}
		if w.verbose && finding.Recommendation != "" {
			sb.WriteString(fmt.Sprintf("    Recommendation: %s\n", finding.Recommendation))
		}
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *TextWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeProbes writes the raw probe lines.
func (w *TextWriter) writeProbes(sb *strings.Builder, probes []string) {
	if len(probes) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PROBE TEXT\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(probes) == 0 {
		sb.WriteString("  No probes collected\n\n")
		return
	}

	for _, probe := range probes {
		sb.WriteString(fmt.Sprintf("  %s\n", probe))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *TextWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by osfp\n")
	sb.WriteString("https://github.com/scanforge/osfp\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/scanforge/osfp/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	summary := model.NewSummary(report)

	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeMatches(md, summary)
	w.writeFindings(md, summary)

	// Raw probe material only exists on the full report.
	if report.Fingerprint != nil && len(report.Fingerprint.Probes()) > 0 {
		w.writeProbes(md, report.Fingerprint.Probes())
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeMatches(md, summary)
	w.writeFindings(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with host information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	md.H1("OS Fingerprint Report")
	md.PlainText("")

	matches := strconv.Itoa(summary.MatchCount)
	if summary.SyntheticCount > 0 {
		matches += fmt.Sprintf(" (%d synthetic)", summary.SyntheticCount)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Host", "`" + summary.Host + "`"},
			{"Reconciled", summary.ReconciledAt.Format("2006-01-02 15:04:05 MST")},
			{"Best Match", w.getBestMatchText(summary)},
			{"Matches", matches},
			{"Classes", strconv.Itoa(summary.ClassCount)},
			{"Probes", strconv.Itoa(summary.ProbeCount)},
			{"Ports Used", strconv.Itoa(summary.PortCount)},
		},
	})
	md.PlainText("")
}

// getBestMatchText returns the best match cell for the header table.
func (w *MarkdownWriter) getBestMatchText(summary *model.Summary) string {
	if summary.BestMatch == "" {
		return "❌ None"
	}
	return fmt.Sprintf("✅ %s (%d%%)", summary.BestMatch, summary.BestAccuracy)
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Severity Summary")
	md.PlainText("")

	// Summary table
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(summary.CriticalCount)},
			{"🟠 High", strconv.Itoa(summary.HighCount)},
			{"🟡 Medium", strconv.Itoa(summary.MediumCount)},
			{"🔵 Low", strconv.Itoa(summary.LowCount)},
			{"⚪ Info", strconv.Itoa(summary.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(summary.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	// Add pie chart if there are findings
	if summary.HasFindings() {
		w.writePieChart(md, summary)
	}

	// Add alert based on severity
	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	if summary.CriticalCount > 0 {
		chart.LabelAndIntValue("Critical", uint64(summary.CriticalCount))
	}
	if summary.HighCount > 0 {
		chart.LabelAndIntValue("High", uint64(summary.HighCount))
	}
	if summary.MediumCount > 0 {
		chart.LabelAndIntValue("Medium", uint64(summary.MediumCount))
	}
	if summary.LowCount > 0 {
		chart.LabelAndIntValue("Low", uint64(summary.LowCount))
	}
	if summary.InfoCount > 0 {
		chart.LabelAndIntValue("Info", uint64(summary.InfoCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on severity counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case summary.CriticalCount > 0:
		md.Cautionf(
			"Critical findings present! %d critical finding(s) require immediate attention.",
			summary.CriticalCount,
		)
	case summary.HighCount > 0:
		md.Warningf(
			"High severity findings present. %d finding(s) should be reviewed.",
			summary.HighCount,
		)
	case summary.MediumCount > 0:
		md.Importantf(
			"Medium severity findings present. %d finding(s) may indicate ambiguous identification.",
			summary.MediumCount,
		)
	case summary.TotalFindings() > 0:
		md.Note("Only low severity and informational findings recorded.")
	default:
		md.Tip("Reconciliation produced no findings.")
	}
	md.PlainText("")
}

// writeMatches writes the reconciled match table.
func (w *MarkdownWriter) writeMatches(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Matches")
	md.PlainText("")

	if len(summary.Matches) == 0 {
		md.PlainText("No OS matches were reconciled for this host.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.Matches))
	for i, row := range summary.Matches {
		synthetic := "-"
		if row.Synthetic {
			synthetic = "yes"
		}
		classes := "-"
		if len(row.Classes) > 0 {
			classes = truncateString(strings.Join(row.Classes, "; "), 60)
		}

		rows[i] = []string{
			row.Name,
			strconv.Itoa(row.Accuracy),
			strconv.Itoa(row.Line),
			synthetic,
			classes,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Name", "Accuracy", "Line", "Synthetic", "Classes"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, summary *model.Summary) {
	if !summary.HasFindings() {
		md.H2("Findings")
		md.PlainText("")
		md.PlainText("No findings were recorded for this reconciliation.")
		md.PlainText("")
		return
	}

	md.H2("Findings")
	md.PlainText("")

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityCritical, "### 🔴 Critical"},
		{model.SeverityHigh, "### 🟠 High"},
		{model.SeverityMedium, "### 🟡 Medium"},
		{model.SeverityLow, "### 🔵 Low"},
		{model.SeverityInfo, "### ⚪ Info"},
	}

	for _, sev := range severities {
		findings := summary.FindingsBySeverity(sev.level)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(sev.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	headers := []string{"Title", "Value", "Recommendation"}

	rows := make([][]string, len(findings))
	for i, f := range findings {
		title := f.Title
		if title == "" {
			title = titleize(f.Type)
		}
		value := f.Value
		if value == "" {
			value = "-"
		}
		rec := f.Recommendation
		if rec == "" {
			rec = "-"
		}

		rows[i] = []string{
			title,
			truncateString(value, 50),
			truncateString(rec, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")

	// Add detailed descriptions for all findings
	for _, f := range findings {
		if f.Description != "" {
			title := f.Title
			if title == "" {
				title = titleize(f.Type)
			}
			md.Details(title, f.Description)
		}
	}
	md.PlainText("")
}

// writeProbes writes the raw probe material as a code block.
func (w *MarkdownWriter) writeProbes(md *markdown.Markdown, probes []string) {
	md.H2("Probe Text")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightText, strings.Join(probes, "\n"))
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [osfp](https://github.com/scanforge/osfp)*")
}

// titleize renders a finding type identifier as a display title.
func titleize(findingType string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(findingType, "_", " "))
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/scanforge/osfp/internal/config"
	"github.com/scanforge/osfp/internal/database"
	"github.com/scanforge/osfp/internal/model"
	"github.com/spf13/cobra"
)

// Constants for identification direction.
const (
	identificationWorsened  = "worsened"
	identificationImproved  = "improved"
	identificationUnchanged = "unchanged"
)

// NewCompareCmd creates the compare command.
// This command diffs two reconciliation results stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [entry-id] [entry-id]",
		Short: "Compare two stored reconciliation results",
		Long: `Compare shows how a host's reconciled OS fingerprint changed between
two stored results.

Given two entry IDs it compares those entries (older first). Given
--host it compares the two most recent entries for that host. The diff
covers the content digest, the best-match accuracy, matches that were
added or removed, accuracy changes on surviving matches, and analysis
findings that appeared or resolved.

Use 'osfp history --host <host>' to see the available entry IDs.

Examples:
  # Compare the two most recent entries for a host
  osfp compare --host db01.internal

  # Compare two specific entries (older first)
  osfp compare 6b9f7f3e-2f0a-4a4e-9d2c-1f6f0a3b8c1d 9c2d81aa-5e3b-4f1c-8a7d-2b9e0c4d6f8a

  # Output comparison in JSON format
  osfp compare --json --host db01.internal

  # Output comparison in Markdown format
  osfp compare --markdown --host db01.internal`,
		Args: cobra.MaximumNArgs(2),
		RunE: runCompareCmd,
	}

	// Comparison target flags
	cmd.Flags().StringP("host", "H", "",
		"Compare the two most recent entries for this host")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	// Database location
	cmd.Flags().String("db-dir", "",
		"Directory for the history database (default: XDG data directory)")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database
	switch {
	case len(args) == 1:
		return errors.New("two entry IDs are required (or use --host to compare a host's latest entries)")
	case len(args) == 0 && host == "":
		return errors.New("two entry IDs or --host are required")
	case len(args) == 2 && host != "":
		return errors.New("--host cannot be combined with entry IDs")
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Open database
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	var previous, current *model.Report
	if len(args) == 2 {
		previous, current, err = loadReportsByID(ctx, db, args[0], args[1])
	} else {
		previous, current, err = loadLatestReports(ctx, db, model.NormalizeHost(host))
	}
	if err != nil {
		return err
	}

	// Generate comparison result
	comparison := compareReports(previous, current)

	// Output the result
	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// loadReportsByID loads two stored reports by their entry IDs.
// The first ID is treated as the older result.
func loadReportsByID(ctx context.Context, db *database.HistoryDB, previousID, currentID string) (*model.Report, *model.Report, error) {
	previous, err := db.GetReport(ctx, previousID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get entry %s: %w", previousID, err)
	}
	if previous == nil {
		return nil, nil, fmt.Errorf("no stored entry with ID %s", previousID)
	}

	current, err := db.GetReport(ctx, currentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get entry %s: %w", currentID, err)
	}
	if current == nil {
		return nil, nil, fmt.Errorf("no stored entry with ID %s", currentID)
	}

	// Diffing results from different hosts would compare noise
	if previous.Host != current.Host {
		return nil, nil, fmt.Errorf("entries belong to different hosts: %s and %s", previous.Host, current.Host)
	}

	return previous, current, nil
}

// loadLatestReports loads the two most recent stored reports for a host.
func loadLatestReports(ctx context.Context, db *database.HistoryDB, host string) (*model.Report, *model.Report, error) {
	entries, err := db.History(ctx, host, 2)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get history: %w", err)
	}

	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("no history found for %s", host)
	}
	if len(entries) < 2 {
		return nil, nil, fmt.Errorf("at least 2 stored entries are required for comparison (found %d)", len(entries))
	}

	// History is newest first
	current, err := db.GetReport(ctx, entries[0].ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get entry %s: %w", entries[0].ID, err)
	}

	previous, err := db.GetReport(ctx, entries[1].ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get entry %s: %w", entries[1].ID, err)
	}

	if current == nil || previous == nil {
		return nil, nil, fmt.Errorf("stored entries for %s disappeared during comparison", host)
	}

	return previous, current, nil
}

// ComparisonResult holds the result of comparing two stored reconciliations.
type ComparisonResult struct {
	// Host is the host label both reconciliations belong to.
	Host string `json:"host"`

	// Previous contains summary information about the older result.
	Previous ReconciliationInfo `json:"previous"`

	// Current contains summary information about the newer result.
	Current ReconciliationInfo `json:"current"`

	// DigestsEqual reports whether both fingerprints carry the same
	// content digest, i.e. reconciliation produced identical results.
	DigestsEqual bool `json:"digests_equal"`

	// AddedMatches contains matches present only in the current result.
	AddedMatches []MatchChange `json:"added_matches,omitempty"`

	// RemovedMatches contains matches present only in the previous result.
	RemovedMatches []MatchChange `json:"removed_matches,omitempty"`

	// AccuracyChanges contains matches present in both results whose
	// accuracy changed.
	AccuracyChanges []MatchChange `json:"accuracy_changes,omitempty"`

	// NewFindings contains findings that are new in the current result.
	NewFindings []model.Finding `json:"new_findings,omitempty"`

	// ResolvedFindings contains findings from the previous result that
	// are gone in the current one.
	ResolvedFindings []model.Finding `json:"resolved_findings,omitempty"`

	// UnchangedFindings is the number of findings present in both.
	UnchangedFindings int `json:"unchanged_findings"`

	// Identification describes the overall change in identification quality.
	Identification IdentificationChange `json:"identification"`
}

// ReconciliationInfo contains summary information about one stored
// reconciliation for comparison display.
type ReconciliationInfo struct {
	// ReconciledAt is when the reconciliation ran.
	ReconciledAt time.Time `json:"reconciled_at"`

	// BestMatch is the name of the highest-accuracy match.
	BestMatch string `json:"best_match,omitempty"`

	// BestAccuracy is the confidence of the best match.
	BestAccuracy int `json:"best_accuracy"`

	// MatchCount is the total number of reconciled matches.
	MatchCount int `json:"match_count"`

	// SyntheticCount is how many of those were synthesized placeholders.
	SyntheticCount int `json:"synthetic_count"`

	// TotalFindings is the number of analysis findings.
	TotalFindings int `json:"total_findings"`

	// Digest is the content digest of the reconciled fingerprint.
	Digest string `json:"digest,omitempty"`
}

// MatchChange describes one match that differs between two results.
type MatchChange struct {
	// Name is the OS guess or the derived placeholder label.
	Name string `json:"name"`

	// PreviousAccuracy is the accuracy in the older result, 0 for
	// added matches.
	PreviousAccuracy int `json:"previous_accuracy,omitempty"`

	// CurrentAccuracy is the accuracy in the newer result, 0 for
	// removed matches.
	CurrentAccuracy int `json:"current_accuracy,omitempty"`

	// Synthetic marks matches fabricated during reconciliation.
	Synthetic bool `json:"synthetic,omitempty"`
}

// IdentificationChange describes the change in identification quality
// between two results.
type IdentificationChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// BestAccuracyDelta is the change in best-match accuracy.
	BestAccuracyDelta int `json:"best_accuracy_delta"`

	// MatchCountDelta is the change in total match count.
	MatchCountDelta int `json:"match_count_delta"`

	// SyntheticCountDelta is the change in synthesized placeholder count.
	SyntheticCountDelta int `json:"synthetic_count_delta"`

	// FindingCountDelta is the change in analysis finding count.
	FindingCountDelta int `json:"finding_count_delta"`
}

// compareReports compares two stored reports and generates a comparison result.
func compareReports(previous, current *model.Report) *ComparisonResult {
	result := &ComparisonResult{
		Host:     current.Host,
		Previous: reconciliationInfo(previous),
		Current:  reconciliationInfo(current),
	}

	result.DigestsEqual = result.Previous.Digest != "" &&
		result.Previous.Digest == result.Current.Digest

	// Build match maps for comparison; slices keep report order for output
	previousMatches := matchAccuracies(previous)
	currentMatches := matchAccuracies(current)

	if current.Fingerprint != nil {
		for _, match := range current.Fingerprint.Matches(0) {
			previousAccuracy, exists := previousMatches[match.Name()]
			if !exists {
				result.AddedMatches = append(result.AddedMatches, MatchChange{
					Name:            match.Name(),
					CurrentAccuracy: match.Accuracy(),
					Synthetic:       match.IsSynthetic(),
				})
				continue
			}
			if previousAccuracy != match.Accuracy() {
				result.AccuracyChanges = append(result.AccuracyChanges, MatchChange{
					Name:             match.Name(),
					PreviousAccuracy: previousAccuracy,
					CurrentAccuracy:  match.Accuracy(),
					Synthetic:        match.IsSynthetic(),
				})
			}
		}
	}

	if previous.Fingerprint != nil {
		for _, match := range previous.Fingerprint.Matches(0) {
			if _, exists := currentMatches[match.Name()]; !exists {
				result.RemovedMatches = append(result.RemovedMatches, MatchChange{
					Name:             match.Name(),
					PreviousAccuracy: match.Accuracy(),
					Synthetic:        match.IsSynthetic(),
				})
			}
		}
	}

	// Diff findings by identity key
	previousFindings := make(map[string]bool, len(previous.Findings))
	for _, f := range previous.Findings {
		previousFindings[findingKey(f)] = true
	}
	currentFindings := make(map[string]bool, len(current.Findings))
	for _, f := range current.Findings {
		currentFindings[findingKey(f)] = true
	}

	for _, f := range current.Findings {
		if !previousFindings[findingKey(f)] {
			result.NewFindings = append(result.NewFindings, f)
		}
	}
	for _, f := range previous.Findings {
		if currentFindings[findingKey(f)] {
			result.UnchangedFindings++
		} else {
			result.ResolvedFindings = append(result.ResolvedFindings, f)
		}
	}

	result.Identification = classifyIdentification(result.Previous, result.Current)

	return result
}

// reconciliationInfo extracts comparison metadata from a stored report.
func reconciliationInfo(report *model.Report) ReconciliationInfo {
	info := ReconciliationInfo{
		ReconciledAt:  report.ReconciledAt,
		TotalFindings: len(report.Findings),
	}

	if report.Fingerprint == nil {
		return info
	}

	fp := report.Fingerprint
	info.Digest = fp.Digest()

	if best := fp.BestMatch(); best != nil {
		info.BestMatch = best.Name()
		info.BestAccuracy = best.Accuracy()
	}

	for _, match := range fp.Matches(0) {
		info.MatchCount++
		if match.IsSynthetic() {
			info.SyntheticCount++
		}
	}

	return info
}

// matchAccuracies maps match names to their accuracy for one report.
func matchAccuracies(report *model.Report) map[string]int {
	accuracies := make(map[string]int)
	if report.Fingerprint == nil {
		return accuracies
	}
	for _, match := range report.Fingerprint.Matches(0) {
		accuracies[match.Name()] = match.Accuracy()
	}
	return accuracies
}

// findingKey generates a unique key for a finding for comparison purposes.
func findingKey(f model.Finding) string {
	return f.Type + "|" + f.Value
}

// classifyIdentification computes deltas and the overall direction of
// the identification change. Higher best-match accuracy wins; on equal
// accuracy, fewer synthesized placeholders counts as an improvement.
func classifyIdentification(previous, current ReconciliationInfo) IdentificationChange {
	change := IdentificationChange{
		BestAccuracyDelta:   current.BestAccuracy - previous.BestAccuracy,
		MatchCountDelta:     current.MatchCount - previous.MatchCount,
		SyntheticCountDelta: current.SyntheticCount - previous.SyntheticCount,
		FindingCountDelta:   current.TotalFindings - previous.TotalFindings,
	}

	switch {
	case change.BestAccuracyDelta > 0:
		change.Direction = identificationImproved
	case change.BestAccuracyDelta < 0:
		change.Direction = identificationWorsened
	case change.SyntheticCountDelta < 0:
		change.Direction = identificationImproved
	case change.SyntheticCountDelta > 0:
		change.Direction = identificationWorsened
	default:
		change.Direction = identificationUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Reconciliation Comparison: %s\n\n", result.Host)

	// Identification change summary
	fmt.Println("## Summary")
	fmt.Printf("\n**Identification:** %s\n", formatIdentificationDirection(result.Identification.Direction))
	fmt.Printf("**Fingerprint digest:** %s\n\n", formatDigestStatus(result.DigestsEqual))

	// Metadata table
	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.Previous.ReconciledAt.Format("2006-01-02 15:04"),
		result.Current.ReconciledAt.Format("2006-01-02 15:04"))
	fmt.Printf("| Best match | %s | %s | - |\n",
		formatBestMatch(result.Previous.BestMatch, result.Previous.BestAccuracy),
		formatBestMatch(result.Current.BestMatch, result.Current.BestAccuracy))
	fmt.Printf("| Best accuracy | %d | %d | %s |\n",
		result.Previous.BestAccuracy,
		result.Current.BestAccuracy,
		formatDelta(result.Identification.BestAccuracyDelta))
	fmt.Printf("| Matches | %d | %d | %s |\n",
		result.Previous.MatchCount,
		result.Current.MatchCount,
		formatDelta(result.Identification.MatchCountDelta))
	fmt.Printf("| Synthetic | %d | %d | %s |\n",
		result.Previous.SyntheticCount,
		result.Current.SyntheticCount,
		formatDelta(result.Identification.SyntheticCountDelta))
	fmt.Printf("| Findings | %d | %d | %s |\n",
		result.Previous.TotalFindings,
		result.Current.TotalFindings,
		formatDelta(result.Identification.FindingCountDelta))

	// Added matches
	if len(result.AddedMatches) > 0 {
		fmt.Printf("\n## Added Matches (%d)\n\n", len(result.AddedMatches))
		for _, m := range result.AddedMatches {
			fmt.Printf("- **%s** (%d%%)%s\n", m.Name, m.CurrentAccuracy, markdownSyntheticNote(m.Synthetic))
		}
	}

	// Removed matches
	if len(result.RemovedMatches) > 0 {
		fmt.Printf("\n## Removed Matches (%d)\n\n", len(result.RemovedMatches))
		for _, m := range result.RemovedMatches {
			fmt.Printf("- ~~**%s** (%d%%)~~%s\n", m.Name, m.PreviousAccuracy, markdownSyntheticNote(m.Synthetic))
		}
	}

	// Accuracy changes
	if len(result.AccuracyChanges) > 0 {
		fmt.Printf("\n## Accuracy Changes (%d)\n\n", len(result.AccuracyChanges))
		for _, m := range result.AccuracyChanges {
			fmt.Printf("- **%s**: %d%% to %d%% (%s)\n",
				m.Name, m.PreviousAccuracy, m.CurrentAccuracy,
				formatDelta(m.CurrentAccuracy-m.PreviousAccuracy))
		}
	}

	// New findings
	if len(result.NewFindings) > 0 {
		fmt.Printf("\n## New Findings (%d)\n\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("- **[%s]** %s: %s\n", f.SeverityText, f.Title, f.Value)
		}
	}

	// Resolved findings
	if len(result.ResolvedFindings) > 0 {
		fmt.Printf("\n## Resolved Findings (%d)\n\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Printf("- ~~**[%s]** %s: %s~~\n", f.SeverityText, f.Title, f.Value)
		}
	}

	// Unchanged count
	if result.UnchangedFindings > 0 {
		fmt.Printf("\n---\n\n*%d findings unchanged*\n", result.UnchangedFindings)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Reconciliation Comparison: %s\n", result.Host)
	fmt.Println(strings.Repeat("=", 60))

	// Identification change summary
	fmt.Printf("\nIdentification: %s\n", formatIdentificationDirection(result.Identification.Direction))
	fmt.Printf("Fingerprint digest: %s\n", formatDigestStatus(result.DigestsEqual))

	// Reconciliation dates and best matches
	fmt.Printf("\nPrevious: %s  %s\n",
		result.Previous.ReconciledAt.Format("2006-01-02 15:04:05"),
		formatBestMatch(result.Previous.BestMatch, result.Previous.BestAccuracy))
	fmt.Printf("Current:  %s  %s\n",
		result.Current.ReconciledAt.Format("2006-01-02 15:04:05"),
		formatBestMatch(result.Current.BestMatch, result.Current.BestAccuracy))

	// Summary table
	fmt.Println("\nMatch Summary:")
	fmt.Printf("  %-15s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 50))
	fmt.Printf("  %-15s  %-10d  %-10d  %-10s\n", "Best accuracy",
		result.Previous.BestAccuracy, result.Current.BestAccuracy,
		formatDelta(result.Identification.BestAccuracyDelta))
	fmt.Printf("  %-15s  %-10d  %-10d  %-10s\n", "Matches",
		result.Previous.MatchCount, result.Current.MatchCount,
		formatDelta(result.Identification.MatchCountDelta))
	fmt.Printf("  %-15s  %-10d  %-10d  %-10s\n", "Synthetic",
		result.Previous.SyntheticCount, result.Current.SyntheticCount,
		formatDelta(result.Identification.SyntheticCountDelta))
	fmt.Printf("  %-15s  %-10d  %-10d  %-10s\n", "Findings",
		result.Previous.TotalFindings, result.Current.TotalFindings,
		formatDelta(result.Identification.FindingCountDelta))

	// Added matches
	if len(result.AddedMatches) > 0 {
		fmt.Printf("\nAdded Matches (%d):\n", len(result.AddedMatches))
		for _, m := range result.AddedMatches {
			fmt.Printf("  [+] %s (%d%%)%s\n", m.Name, m.CurrentAccuracy, textSyntheticNote(m.Synthetic))
		}
	}

	// Removed matches
	if len(result.RemovedMatches) > 0 {
		fmt.Printf("\nRemoved Matches (%d):\n", len(result.RemovedMatches))
		for _, m := range result.RemovedMatches {
			fmt.Printf("  [-] %s (%d%%)%s\n", m.Name, m.PreviousAccuracy, textSyntheticNote(m.Synthetic))
		}
	}

	// Accuracy changes
	if len(result.AccuracyChanges) > 0 {
		fmt.Printf("\nAccuracy Changes (%d):\n", len(result.AccuracyChanges))
		for _, m := range result.AccuracyChanges {
			fmt.Printf("  [~] %s: %d%% -> %d%%\n", m.Name, m.PreviousAccuracy, m.CurrentAccuracy)
		}
	}

	// New findings
	if len(result.NewFindings) > 0 {
		fmt.Printf("\nNew Findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("  [+] [%s] %s: %s\n", f.SeverityText, f.Title, f.Value)
		}
	}

	// Resolved findings
	if len(result.ResolvedFindings) > 0 {
		fmt.Printf("\nResolved Findings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Printf("  [-] [%s] %s: %s\n", f.SeverityText, f.Title, f.Value)
		}
	}

	// Unchanged count
	if result.UnchangedFindings > 0 {
		fmt.Printf("\nUnchanged: %d findings\n", result.UnchangedFindings)
	}

	return nil
}

// formatIdentificationDirection formats the identification change
// direction for display.
func formatIdentificationDirection(direction string) string {
	switch direction {
	case identificationImproved:
		return "IMPROVED (identification strengthened)"
	case identificationWorsened:
		return "WORSENED (identification weakened)"
	default:
		return "UNCHANGED"
	}
}

// formatDigestStatus describes whether the fingerprint content changed.
func formatDigestStatus(equal bool) string {
	if equal {
		return "unchanged"
	}
	return "changed"
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}

// markdownSyntheticNote annotates synthesized matches in Markdown output.
func markdownSyntheticNote(synthetic bool) string {
	if synthetic {
		return " *synthetic*"
	}
	return ""
}

// textSyntheticNote annotates synthesized matches in text output.
func textSyntheticNote(synthetic bool) string {
	if synthetic {
		return " [synthetic]"
	}
	return ""
}

// Package analyze inspects reconciled OS fingerprints for conditions
// that make the result less trustworthy than it looks.
//
// # Purpose
//
// Reconciliation never drops data, but it does make judgment calls:
// classes are attributed to matches by accuracy equality, unattributable
// classes get synthesized placeholder matches, and ties resolve by
// report order. This package surfaces those judgment calls as findings
// so consumers of a report know where to look twice.
//
// # Design Philosophy
//
// The analyze package follows a modular analyzer pattern where each
// check is implemented as a separate Analyzer. This design was chosen
// because:
//  1. Each check has unique logic and data requirements
//  2. Enables selective analysis based on configuration
//  3. Makes it easy to add new checks without modifying existing code
//  4. Simplifies testing of individual analysis components
//
// # Analyzer Categories
//
// ## Attribution
//   - Synthesized placeholder matches wrapping orphan class data
//   - Declared matches tied on accuracy, where attribution falls back
//     to report order
//
// ## Confidence
//   - Best match below the configured confidence threshold
//   - Hosts with probe data but no identification at all
//
// # Usage
//
//	analyzer := analyze.NewAnalyzer()
//	findings, err := analyzer.Analyze(ctx, &analyze.AnalysisData{
//	    Host:        "db01.internal",
//	    Fingerprint: fp,
//	})
//
// # Severity Levels
//
// Findings are assigned severity levels based on how badly they can
// mislead a consumer:
//   - Medium: attribution ambiguity, unidentified hosts
//   - Low: weak identifications
//   - Info: structural notes (placeholder matches)
package analyze

package model

// Severity represents how much attention a reconciliation finding
// deserves.
//
// Design decision: We use iota-based constants rather than string
// constants for efficiency in comparisons and sorting. The String()
// method provides human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates informational findings that need no action.
	// Example: a synthetic match exists because the report used the older
	// sibling schema.
	SeverityInfo Severity = iota

	// SeverityLow indicates findings worth a glance when reviewing a
	// host. Example: the best match sits below the confidence threshold.
	SeverityLow

	// SeverityMedium indicates findings that can mislead downstream
	// consumers. Examples: order-dependent class attribution, a host
	// with probe data but no identification.
	SeverityMedium

	// SeverityHigh indicates findings that make the reconciled result
	// unreliable for decisions.
	SeverityHigh

	// SeverityCritical indicates the result should not be consumed
	// without manual review.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Finding type identifiers produced by the analyze package.
const (
	// FindingSyntheticMatch flags placeholder matches in the result.
	FindingSyntheticMatch = "synthetic_match"
	// FindingAccuracyTie flags declared matches sharing an accuracy value.
	FindingAccuracyTie = "accuracy_tie"
	// FindingLowConfidence flags a best match below the confidence threshold.
	FindingLowConfidence = "low_confidence"
	// FindingUnidentifiedHost flags probe data with no matches at all.
	FindingUnidentifiedHost = "unidentified_host"
)

// FindingInfo contains metadata about a finding type including severity,
// impact description, and remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping maps finding types to their metadata.
// This centralized mapping keeps risk assessment consistent across the
// application.
//
// Design decision: We use a map rather than embedding severity in each
// finding type because:
// 1. It allows updating risk assessments without modifying type definitions
// 2. It provides a single source of truth for risk levels
// 3. It makes it easy to generate severity documentation
var findingInfoMapping = map[string]FindingInfo{
	FindingSyntheticMatch: {
		Severity:       SeverityInfo,
		Impact:         "OS class data arrived without a declared match and was wrapped in a synthesized placeholder; the OS guess carries a derived label, not a report-declared name.",
		Recommendation: "Treat the placeholder name as a display label. Prefer results whose classes attach to declared matches.",
	},
	FindingAccuracyTie: {
		Severity:       SeverityMedium,
		Impact:         "Two or more declared matches share one accuracy value, so orphan classes attach to whichever match comes first in report order and may be attributed to the wrong one.",
		Recommendation: "Verify class attribution manually when matches tie; the tie-break is list order, not semantics.",
	},
	FindingLowConfidence: {
		Severity:       SeverityLow,
		Impact:         "The best OS match falls below the confidence threshold; the identification is weak and alternatives are plausible.",
		Recommendation: "Rescan with more ports visible or corroborate the guess against service banners before trusting it.",
	},
	FindingUnidentifiedHost: {
		Severity:       SeverityMedium,
		Impact:         "Raw fingerprint probes were captured but no OS match was produced; the host's operating system is unknown.",
		Recommendation: "Review the host manually and consider submitting the raw fingerprint upstream so future scans can identify it.",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityInfo if the finding type is not in the mapping.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is not in
// the mapping.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown finding type. Review manually.",
		Recommendation: "Investigate the finding and assess risk.",
	}
}

package model

import "strings"

// formatUnknownStr is the string representation for unknown format values.
const formatUnknownStr = "unknown"

// Format selects how a report is rendered.
type Format string

// Report output format constants.
const (
	// FormatUnknown represents an unknown or unset format.
	FormatUnknown Format = ""
	// FormatJSON renders machine-readable JSON.
	FormatJSON Format = "json"
	// FormatMarkdown renders a Markdown document.
	FormatMarkdown Format = "markdown"
	// FormatText renders a sectioned plain-text report for terminals.
	FormatText Format = "text"
)

// String returns the string representation of the Format.
func (f Format) String() string {
	if f == FormatUnknown {
		return formatUnknownStr
	}
	return string(f)
}

// IsValid returns true if this is a known output format.
func (f Format) IsValid() bool {
	switch f {
	case FormatJSON, FormatMarkdown, FormatText:
		return true
	default:
		return false
	}
}

// ParseFormat converts a string to a Format, accepting common aliases.
// Unrecognized input yields FormatUnknown.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	case "text", "txt", "simple":
		return FormatText
	default:
		return FormatUnknown
	}
}

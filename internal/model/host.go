package model

import "strings"

// fallbackHostLabel stands in for hosts whose label is empty after
// normalization, so file names and database keys never end up blank.
const fallbackHostLabel = "unknown-host"

// NormalizeHost canonicalizes a host label: surrounding whitespace is
// trimmed and the label is lowercased. Labels are free-form (an address,
// a hostname, an inventory tag) and are compared byte-wise everywhere,
// so normalization keeps "Web01 " and "web01" from becoming two hosts.
func NormalizeHost(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}

// SafeFileName converts a host label into a form safe to embed in an
// output file name. Path separators and shell-hostile characters become
// underscores; an empty label falls back to a placeholder.
func SafeFileName(host string) string {
	host = NormalizeHost(host)
	if host == "" {
		return fallbackHostLabel
	}

	var sb strings.Builder
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

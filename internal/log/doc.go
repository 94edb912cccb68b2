// Package log provides logging for scan-report processing with automatic
// trimming of bulky payload values, built on top of the standard slog
// package.
//
// This package extends slog to provide:
//   - Automatic trimming of oversized attribute values (raw probe text,
//     decoded documents) before they reach the log output
//   - Single-line records: embedded CR/LF sequences in values are
//     collapsed so line-oriented log collectors stay parseable
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Why trimming
//
// Raw OS fingerprint probes are multi-kilobyte blobs with embedded
// CRLF separators. Logging them verbatim turns a one-line diagnostic
// into pages of noise and breaks tools that treat one line as one
// record. The TrimHandler keeps a short preview of such values and
// marks the cut.
//
// # Usage
//
//	// Create a logger that trims noisy values
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Debug("probe collected",
//	    "probe", probeText, // Trimmed to a short preview
//	    "host", "db01.internal",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log

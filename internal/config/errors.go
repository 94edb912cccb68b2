package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoSource is returned when no scan report file is specified.
	// This error occurs when the command line provides no positional
	// arguments to reconcile.
	ErrNoSource = errors.New("no input specified: provide at least one scan report file")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	// A concurrency of zero would mean no reconciliations run at all.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMinAccuracy is returned when the display filter is negative.
	// Use 0 to keep every match.
	ErrInvalidMinAccuracy = errors.New("invalid min accuracy: must be non-negative")

	// ErrInvalidConfidenceThreshold is returned when the analysis threshold
	// is negative. Use 0 to disable the low-confidence check.
	ErrInvalidConfidenceThreshold = errors.New("invalid confidence threshold: must be non-negative")

	// ErrUnknownFormat is returned when the output format is not one of
	// "text", "json", or "markdown" (or their aliases).
	ErrUnknownFormat = errors.New("unknown report format: use text, json, or markdown")
)

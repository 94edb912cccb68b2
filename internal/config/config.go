package config

import (
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/scanforge/osfp/internal/model"
)

// Default configuration values.
// These values match the behavior of common scan tooling where
// applicable.
const (
	// DefaultMinAccuracy of 0 keeps every reconciled match in query and
	// report output. Accuracy filtering is opt-in because dropping
	// low-confidence matches silently is the kind of surprise this tool
	// exists to avoid.
	DefaultMinAccuracy = 0

	// DefaultConfidenceThreshold is the best-match accuracy below which
	// the analysis flags a host as weakly identified. 80 reflects the
	// point where scan documentation itself starts calling a guess
	// unreliable.
	DefaultConfidenceThreshold = 80

	// DefaultConcurrency of 4 concurrent reconciliations balances
	// throughput with resource usage when processing report batches.
	// Reconciliation is CPU-light, so higher values mostly stress the
	// history database, not the cores.
	DefaultConcurrency = 4

	// DefaultFormat is the human-readable text report.
	DefaultFormat = "text"

	// AppName is the application name used for XDG directory paths.
	AppName = "osfp"
)

// Config holds all configuration options for osfp.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., AnalyzeConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Sources is the list of scan report files to reconcile.
	// Must contain at least one path; "-" reads from standard input.
	Sources []string

	// MinAccuracy filters reconciled matches below this confidence out
	// of report output. 0 keeps everything. The underlying result always
	// retains every match; this only narrows what gets rendered.
	MinAccuracy int

	// ConfidenceThreshold is the best-match accuracy below which the
	// analysis records a low-confidence finding.
	ConfidenceThreshold int

	// Format selects the report output format: "text", "json", or
	// "markdown". Empty means DefaultFormat.
	Format string

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// ShowProbes includes the raw fingerprint probe text in rendered
	// reports. Off by default because probe blobs dominate the output.
	ShowProbes bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// Concurrency is the number of concurrent reconciliations when
	// processing multiple report files.
	Concurrency int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .osfp in the current directory,
	// the XDG config directory, and then the user's home directory.
	ConfigFilePath string

	// HostConfigs holds host-specific configurations loaded from the
	// config file. This is populated by LoadConfigFile and consulted
	// when building reconciliation jobs.
	HostConfigs *File

	// DBDir is the directory path for storing the SQLite history
	// database. When empty, the XDG data directory is used.
	DBDir string

	// SaveToDB indicates whether to save reconciled results to the
	// history database. On by default; --no-save disables it.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because several defaults are non-zero (threshold,
// concurrency, format). This also serves as documentation of what the
// defaults are.
func NewConfig() *Config {
	return &Config{
		MinAccuracy:         DefaultMinAccuracy,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		Concurrency:         DefaultConcurrency,
		Format:              DefaultFormat,
		SaveToDB:            true,
	}
}

// XDGDataDir returns the XDG data directory for osfp.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/osfp
// On macOS: ~/Library/Application Support/osfp
// On Windows: %LOCALAPPDATA%\osfp
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for osfp.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/osfp
// On macOS: ~/Library/Application Support/osfp
// On Windows: %APPDATA%\osfp
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any reconciliation begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one report file to reconcile
	if len(c.Sources) == 0 {
		return ErrNoSource
	}

	// Concurrency must be positive; zero would mean no processing
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// A negative display filter has no meaning; 0 already keeps everything
	if c.MinAccuracy < 0 {
		return ErrInvalidMinAccuracy
	}

	// A negative threshold would flag nothing, silently
	if c.ConfidenceThreshold < 0 {
		return ErrInvalidConfidenceThreshold
	}

	// An unparseable format would only surface after reconciling
	if c.Format != "" && !model.ParseFormat(c.Format).IsValid() {
		return ErrUnknownFormat
	}

	return nil
}

// OutputFormat resolves the configured format string to its enum value,
// falling back to the default for an empty string. Validate has already
// rejected unknown names by the time this runs.
func (c *Config) OutputFormat() model.Format {
	if c.Format == "" {
		return model.ParseFormat(DefaultFormat)
	}
	return model.ParseFormat(c.Format)
}

// DatabaseDir returns the directory the history database lives in,
// falling back to the XDG data directory when unset.
func (c *Config) DatabaseDir() string {
	if c.DBDir != "" {
		return c.DBDir
	}
	return XDGDataDir()
}

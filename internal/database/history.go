package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scanforge/osfp/internal/model"
)

// dbFileName is the SQLite file name inside the database directory.
const dbFileName = "osfp.db"

// HistoryDB provides SQLite-based storage for reconciled fingerprint
// reports. It manages connection pooling and provides methods for CRUD
// operations.
//
// Design decision: We use a single database file for all hosts rather
// than one file per host. This keeps cross-host queries (listing,
// pruning) simple and makes backup/restore a single-file operation.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Fingerprint reports store complete reconciliation results as JSON,
	-- with denormalized metadata columns for cheap history listings.
	CREATE TABLE IF NOT EXISTS fingerprints (
		id TEXT PRIMARY KEY,
		host TEXT NOT NULL,
		digest TEXT NOT NULL,
		best_match TEXT,
		best_accuracy INTEGER DEFAULT 0,
		match_count INTEGER DEFAULT 0,
		synthetic_count INTEGER DEFAULT 0,
		finding_count INTEGER DEFAULT 0,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fingerprints_host ON fingerprints(host);
	CREATE INDEX IF NOT EXISTS idx_fingerprints_timestamp ON fingerprints(timestamp);
	CREATE INDEX IF NOT EXISTS idx_fingerprints_digest ON fingerprints(digest);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Entry contains summary information about a stored report.
// This is used for displaying history without loading the full report.
type Entry struct {
	// ID is the unique identifier of the report in the database.
	ID string `json:"id"`

	// Host is the host label the report belongs to.
	Host string `json:"host"`

	// ReconciledAt is when the report was stored.
	ReconciledAt time.Time `json:"reconciled_at"`

	// Digest is the content digest of the reconciled fingerprint.
	Digest string `json:"digest"`

	// BestMatch is the name of the highest-accuracy match.
	BestMatch string `json:"best_match,omitempty"`

	// BestAccuracy is the confidence of the best match.
	BestAccuracy int `json:"best_accuracy"`

	// MatchCount is the total number of reconciled matches.
	MatchCount int `json:"match_count"`

	// SyntheticCount is how many of those were synthesized placeholders.
	SyntheticCount int `json:"synthetic_count"`

	// FindingCount is the number of analysis findings.
	FindingCount int `json:"finding_count"`
}

// SaveReport stores a reconciled report and returns its generated ID.
func (hdb *HistoryDB) SaveReport(ctx context.Context, report *model.Report) (string, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to serialize report: %w", err)
	}

	var digest, bestMatch string
	var bestAccuracy, matchCount, syntheticCount int
	if report.Fingerprint != nil {
		digest = report.Fingerprint.Digest()
		if best := report.Fingerprint.BestMatch(); best != nil {
			bestMatch = best.Name()
			bestAccuracy = best.Accuracy()
		}
		for _, match := range report.Fingerprint.Matches(0) {
			matchCount++
			if match.IsSynthetic() {
				syntheticCount++
			}
		}
	}

	id := uuid.NewString()

	query := `
	INSERT INTO fingerprints (id, host, digest, best_match, best_accuracy, match_count, synthetic_count, finding_count, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = hdb.db.ExecContext(ctx, query,
		id,
		report.Host,
		digest,
		bestMatch,
		bestAccuracy,
		matchCount,
		syntheticCount,
		report.TotalFindings(),
		string(reportJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	return id, nil
}

// GetReport retrieves a report by its ID. Returns nil when no report
// with that ID exists.
func (hdb *HistoryDB) GetReport(ctx context.Context, id string) (*model.Report, error) {
	query := `
	SELECT report_json FROM fingerprints
	WHERE id = ?
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// LatestReport retrieves the most recent report for a host. Returns nil
// when the host has no stored reports.
func (hdb *HistoryDB) LatestReport(ctx context.Context, host string) (*model.Report, error) {
	query := `
	SELECT report_json FROM fingerprints
	WHERE host = ?
	ORDER BY timestamp DESC, rowid DESC
	LIMIT 1
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, host).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// LatestDigest returns the content digest of the most recent report for
// a host, or empty when the host has no stored reports. Callers use
// this to spot unchanged hosts without loading the report blob.
func (hdb *HistoryDB) LatestDigest(ctx context.Context, host string) (string, error) {
	query := `
	SELECT digest FROM fingerprints
	WHERE host = ?
	ORDER BY timestamp DESC, rowid DESC
	LIMIT 1
	`

	var digest string
	err := hdb.db.QueryRowContext(ctx, query, host).Scan(&digest)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get digest: %w", err)
	}

	return digest, nil
}

// History retrieves stored entries for a host, newest first. A limit of
// 0 returns every entry.
func (hdb *HistoryDB) History(ctx context.Context, host string, limit int) ([]Entry, error) {
	query := `
	SELECT id, host, timestamp, digest, best_match, best_accuracy, match_count, synthetic_count, finding_count
	FROM fingerprints
	WHERE host = ?
	ORDER BY timestamp DESC, rowid DESC
	`
	args := []any{host}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var results []Entry
	for rows.Next() {
		var entry Entry
		var timestamp string

		if err := rows.Scan(
			&entry.ID,
			&entry.Host,
			&timestamp,
			&entry.Digest,
			&entry.BestMatch,
			&entry.BestAccuracy,
			&entry.MatchCount,
			&entry.SyntheticCount,
			&entry.FindingCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}

		entry.ReconciledAt = parseTimestamp(timestamp)
		results = append(results, entry)
	}

	return results, rows.Err()
}

// ListHosts returns every host with at least one stored report, sorted.
func (hdb *HistoryDB) ListHosts(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT host FROM fingerprints
	ORDER BY host
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	var hosts []string
	for rows.Next() {
		var host string
		if err := rows.Scan(&host); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}

	return hosts, rows.Err()
}

// DeleteReport removes a stored report by ID. The returned bool reports
// whether a row was actually deleted.
func (hdb *HistoryDB) DeleteReport(ctx context.Context, id string) (bool, error) {
	result, err := hdb.db.ExecContext(ctx, `DELETE FROM fingerprints WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete report: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete report: %w", err)
	}

	return affected > 0, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	// Return zero time if no format matches
	// This is a fallback to avoid breaking functionality for edge cases
	return time.Time{}
}

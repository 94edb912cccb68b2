// Package database provides SQLite-based storage for osfp.
//
// This package implements the HistoryDB, which stores:
//   - Reconciled fingerprint reports for historical comparison
//   - Per-report metadata (best match, counts, content digest) so
//     history listings never load full report blobs
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database

package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scanforge/osfp/internal/database"
)

// writeScanReport writes a scan report fixture and returns its path.
func writeScanReport(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write report: %v", err)
	}
	return path
}

// runCommand executes the root command with the given arguments,
// capturing stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return captureOutput(t, cmd.Execute)
}

// TestReconcileIntegration drives the reconcile command end to end on
// real report files and a real history database.
// Note: Not using t.Parallel() because these tests capture os.Stdout.
func TestReconcileIntegration(t *testing.T) {
	ctx := context.Background()

	const singleHostReport = `{
	  "host": "db01.internal",
	  "os": {
	    "osmatches": [
	      {"name": "Linux 4.15 - 5.8", "line": "65224", "accuracy": "96",
	       "osclasses": [
	         {"vendor": "Linux", "osfamily": "Linux", "osgen": "4.X", "type": "general purpose",
	          "accuracy": "96", "cpe": ["cpe:/o:linux:linux_kernel:4"]}
	       ]}
	    ],
	    "osfingerprints": [
	      {"fingerprint": "SCAN(V=7.94%E=4%D=1/15)"}
	    ],
	    "portsused": [
	      {"state": "open", "proto": "tcp", "portid": "22"}
	    ]
	  }
	}`

	t.Run("reconciles report file end to end", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "db")
		reportFile := writeScanReport(t, tmpDir, "scan.json", singleHostReport)
		outputFile := filepath.Join(tmpDir, "result.json")

		output, err := runCommand(t,
			"reconcile", reportFile,
			"--db-dir", dbDir,
			"--format", "json",
			"--output", outputFile,
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "db01.internal") {
			t.Errorf("expected progress output to mention host, got %q", output)
		}
		if !strings.Contains(output, "Saved to history") {
			t.Errorf("expected save confirmation, got %q", output)
		}

		// The report file parses as the JSON envelope
		content, err := os.ReadFile(outputFile)
		if err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		var envelope map[string]interface{}
		if err := json.Unmarshal(content, &envelope); err != nil {
			t.Fatalf("failed to parse output JSON: %v", err)
		}
		if v, ok := envelope["version"].(string); !ok || v == "" {
			t.Error("expected version in JSON envelope")
		}

		// The result landed in the history database
		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		entries, err := db.History(ctx, "db01.internal", 0)
		if err != nil {
			t.Fatalf("failed to get history: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 history entry, got %d", len(entries))
		}
		if entries[0].BestMatch != "Linux 4.15 - 5.8" {
			t.Errorf("expected best match 'Linux 4.15 - 5.8', got %q", entries[0].BestMatch)
		}
		if entries[0].BestAccuracy != 96 {
			t.Errorf("expected best accuracy 96, got %d", entries[0].BestAccuracy)
		}
	})

	t.Run("no-save leaves the database empty", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "db")
		reportFile := writeScanReport(t, tmpDir, "scan.json", singleHostReport)

		output, err := runCommand(t,
			"reconcile", reportFile,
			"--db-dir", dbDir,
			"--no-save",
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(output, "Saved to history") {
			t.Errorf("expected no save confirmation, got %q", output)
		}

		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		hosts, err := db.ListHosts(ctx)
		if err != nil {
			t.Fatalf("failed to list hosts: %v", err)
		}
		if len(hosts) != 0 {
			t.Errorf("expected empty database, got hosts %v", hosts)
		}
	})

	t.Run("unchanged fingerprint is stored once", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "db")
		reportFile := writeScanReport(t, tmpDir, "scan.json", singleHostReport)

		if _, err := runCommand(t, "reconcile", reportFile, "--db-dir", dbDir); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output, err := runCommand(t, "reconcile", reportFile, "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "unchanged") {
			t.Errorf("expected unchanged notice on second run, got %q", output)
		}

		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		entries, err := db.History(ctx, "db01.internal", 0)
		if err != nil {
			t.Fatalf("failed to get history: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected 1 history entry after duplicate run, got %d", len(entries))
		}
	})

	t.Run("applies host alias from config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "db")
		reportFile := writeScanReport(t, tmpDir, "scan.json", singleHostReport)

		configFile := filepath.Join(tmpDir, "osfp.yaml")
		configContent := []byte("hosts:\n  db01.internal:\n    alias: primary-db.internal\n")
		if err := os.WriteFile(configFile, configContent, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if _, err := runCommand(t,
			"reconcile", reportFile,
			"--db-dir", dbDir,
			"--config", configFile,
		); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		hosts, err := db.ListHosts(ctx)
		if err != nil {
			t.Fatalf("failed to list hosts: %v", err)
		}
		if len(hosts) != 1 || hosts[0] != "primary-db.internal" {
			t.Errorf("expected aliased host, got %v", hosts)
		}
	})

	t.Run("reconciles multiple hosts from one report", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "db")
		reportFile := writeScanReport(t, tmpDir, "scan.json", testReportJSON)

		output, err := runCommand(t,
			"reconcile", reportFile,
			"--db-dir", dbDir,
			"--concurrency", "1",
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "db01.internal") || !strings.Contains(output, "edge-lb.internal") {
			t.Errorf("expected both hosts in output, got %q", output)
		}

		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		hosts, err := db.ListHosts(ctx)
		if err != nil {
			t.Fatalf("failed to list hosts: %v", err)
		}
		if len(hosts) != 2 {
			t.Errorf("expected 2 hosts, got %v", hosts)
		}
	})

	t.Run("batch mode reconciles all hosts", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "db")
		reportFile := writeScanReport(t, tmpDir, "scan.json", testReportJSON)

		output, err := runCommand(t,
			"reconcile", reportFile,
			"--db-dir", dbDir,
			"--concurrency", "2",
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "concurrency: 2") {
			t.Errorf("expected batch banner, got %q", output)
		}

		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		hosts, err := db.ListHosts(ctx)
		if err != nil {
			t.Fatalf("failed to list hosts: %v", err)
		}
		if len(hosts) != 2 {
			t.Errorf("expected 2 hosts, got %v", hosts)
		}
	})

	t.Run("returns error for missing report file", func(t *testing.T) {
		tmpDir := t.TempDir()

		_, err := runCommand(t,
			"reconcile", filepath.Join(tmpDir, "missing.json"),
			"--db-dir", filepath.Join(tmpDir, "db"),
		)
		if err == nil {
			t.Fatal("expected error for missing report file")
		}
		if !strings.Contains(err.Error(), "failed to read") {
			t.Errorf("expected 'failed to read' error, got %v", err)
		}
	})
}

// TestHistoryCompareIntegration reconciles twice and then walks the
// history and compare commands over the stored results.
// Note: Not using t.Parallel() because these tests capture os.Stdout.
func TestHistoryCompareIntegration(t *testing.T) {
	const firstScan = `{
	  "host": "db01.internal",
	  "os": {"osmatches": [{"name": "Linux 4.15 - 5.8", "line": "65224", "accuracy": "88"}]}
	}`
	const secondScan = `{
	  "host": "db01.internal",
	  "os": {"osmatches": [{"name": "Linux 4.15 - 5.8", "line": "65224", "accuracy": "96"}]}
	}`

	tmpDir := t.TempDir()
	dbDir := filepath.Join(tmpDir, "db")
	firstFile := writeScanReport(t, tmpDir, "first.json", firstScan)
	secondFile := writeScanReport(t, tmpDir, "second.json", secondScan)

	if _, err := runCommand(t, "reconcile", firstFile, "--db-dir", dbDir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := runCommand(t, "reconcile", secondFile, "--db-dir", dbDir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("history lists the host", func(t *testing.T) {
		output, err := runCommand(t, "history", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "db01.internal") {
			t.Errorf("expected host in listing, got %q", output)
		}
	})

	t.Run("history lists both entries", func(t *testing.T) {
		output, err := runCommand(t, "history", "--host", "db01.internal", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "History for db01.internal (2 entries)") {
			t.Errorf("expected 2 entries, got %q", output)
		}
	})

	t.Run("compare reports improved identification", func(t *testing.T) {
		output, err := runCommand(t, "compare", "--host", "db01.internal", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "IMPROVED") {
			t.Errorf("expected improved identification, got %q", output)
		}
		if !strings.Contains(output, "+8") {
			t.Errorf("expected accuracy delta +8, got %q", output)
		}
	})

	t.Run("compare accepts explicit entry IDs", func(t *testing.T) {
		ctx := context.Background()

		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		entries, err := db.History(ctx, "db01.internal", 0)
		if err != nil {
			t.Fatalf("failed to get history: %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}

		// Oldest first on the command line
		output, err := runCommand(t, "compare", entries[1].ID, entries[0].ID, "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "IMPROVED") {
			t.Errorf("expected improved identification, got %q", output)
		}
	})

	t.Run("delete removes an entry", func(t *testing.T) {
		ctx := context.Background()

		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		entries, err := db.History(ctx, "db01.internal", 1)
		if err != nil {
			t.Fatalf("failed to get history: %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(entries) == 0 {
			t.Fatal("expected at least one entry")
		}

		output, err := runCommand(t, "history", "--delete", entries[0].ID, "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "Deleted entry") {
			t.Errorf("expected delete confirmation, got %q", output)
		}
	})
}

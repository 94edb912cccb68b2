package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/scanforge/osfp/internal/config"
	"github.com/scanforge/osfp/internal/database"
	"github.com/scanforge/osfp/internal/model"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command inspects reconciliation results stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored reconciliation history",
		Long: `History lists reconciliation results stored in the local database.

Without flags it lists every host that has stored history. With --host
it lists the stored entries for that host, newest first, including the
entry IDs that the compare command and --delete take.

Examples:
  # List all hosts with stored history
  osfp history

  # List stored entries for a host
  osfp history --host db01.internal

  # Limit the listing to the five newest entries
  osfp history --host db01.internal --limit 5

  # Output entries in JSON format
  osfp history --host db01.internal --json

  # Delete a stored entry by ID
  osfp history --delete 6b9f7f3e-2f0a-4a4e-9d2c-1f6f0a3b8c1d`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	// Listing flags
	cmd.Flags().StringP("host", "H", "",
		"List stored entries for this host")
	cmd.Flags().IntP("limit", "n", 0,
		"Maximum number of entries to list (0 lists all)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output entries in JSON format")

	// Maintenance flags
	cmd.Flags().StringP("delete", "d", "",
		"Delete the stored entry with this ID")

	// Database location
	cmd.Flags().String("db-dir", "",
		"Directory for the history database (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	deleteID, err := cmd.Flags().GetString("delete")
	if err != nil {
		return err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Open database
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Handle --delete flag
	if deleteID != "" {
		return deleteHistoryEntry(ctx, db, deleteID)
	}

	// Without --host, list every host with stored history
	if host == "" {
		return listHosts(ctx, db)
	}

	return listHostHistory(ctx, db, model.NormalizeHost(host), limit, jsonOutput)
}

// deleteHistoryEntry removes one stored entry by ID.
func deleteHistoryEntry(ctx context.Context, db *database.HistoryDB, id string) error {
	deleted, err := db.DeleteReport(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if !deleted {
		return fmt.Errorf("no stored entry with ID %s", id)
	}

	fmt.Printf("Deleted entry %s\n", id)
	return nil
}

// listHosts lists every host that has stored reconciliation history.
func listHosts(ctx context.Context, db *database.HistoryDB) error {
	hosts, err := db.ListHosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list hosts: %w", err)
	}

	if len(hosts) == 0 {
		fmt.Println("No reconciliation history found in the database.")
		fmt.Println("\nUse 'osfp reconcile <report-file>' to reconcile and store a result.")
		return nil
	}

	fmt.Printf("Hosts with stored history (%d):\n\n", len(hosts))
	for _, host := range hosts {
		fmt.Printf("  • %s\n", host)
	}
	fmt.Println("\nUse 'osfp history --host <host>' to see the entries for a host.")

	return nil
}

// listHostHistory lists the stored entries for one host, newest first.
func listHostHistory(ctx context.Context, db *database.HistoryDB, host string, limit int, jsonOutput bool) error {
	entries, err := db.History(ctx, host, limit)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Printf("No history found for %s\n", host)
		fmt.Println("\nUse 'osfp reconcile' to reconcile and store a result for this host.")
		return nil
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	fmt.Printf("History for %s (%d entries):\n\n", host, len(entries))
	fmt.Printf("  %-36s  %-19s  %-26s  %-10s  %s\n",
		"ID", "Reconciled", "Best Match", "Matches", "Findings")
	fmt.Println("  " + strings.Repeat("-", 100))

	for _, entry := range entries {
		fmt.Printf("  %-36s  %-19s  %-26s  %-10s  %d\n",
			entry.ID,
			entry.ReconciledAt.Format("2006-01-02 15:04:05"),
			formatBestMatch(entry.BestMatch, entry.BestAccuracy),
			formatMatchCount(entry.MatchCount, entry.SyntheticCount),
			entry.FindingCount,
		)
	}

	fmt.Println("\nUse 'osfp compare <id> <id>' to diff two entries.")
	fmt.Println("Use 'osfp history --delete <id>' to remove an entry.")

	return nil
}

// formatBestMatch renders an entry's best match cell.
func formatBestMatch(name string, accuracy int) string {
	if name == "" {
		return "(none)"
	}
	if len(name) > 18 {
		name = name[:15] + "..."
	}
	return fmt.Sprintf("%s (%d%%)", name, accuracy)
}

// formatMatchCount renders an entry's match count cell.
func formatMatchCount(total, synthetic int) string {
	if synthetic > 0 {
		return fmt.Sprintf("%d (%d syn)", total, synthetic)
	}
	return strconv.Itoa(total)
}

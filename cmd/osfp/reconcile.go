package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/scanforge/osfp/internal/config"
	"github.com/scanforge/osfp/internal/database"
	"github.com/scanforge/osfp/internal/decode"
	"github.com/scanforge/osfp/internal/log"
	"github.com/scanforge/osfp/internal/model"
	"github.com/scanforge/osfp/internal/pipeline"
	"github.com/scanforge/osfp/internal/report"
	"github.com/spf13/cobra"
)

// NewReconcileCmd creates the reconcile command.
func NewReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [report-file...]",
		Short: "Reconcile OS fingerprint data from scan report files",
		Long: `Reconcile turns raw OS detection output into one queryable result per host.

For every host document in the given report files it:
- Resolves the scanner's declared OS matches in report order
- Attributes orphaned OS classes to matches with equal accuracy
- Synthesizes placeholder matches for classes nothing declared
- Collects raw fingerprint probes and the ports fingerprinting used
- Analyzes the result for identification weaknesses

Results render as text (default), JSON, or Markdown, and are saved to
the history database unless --no-save is given. Pass "-" as a file
argument to read a report from standard input.

Examples:
  # Reconcile a single report file
  osfp reconcile scan.json

  # Reconcile several report files concurrently
  osfp reconcile host1.json host2.json host3.json

  # Render Markdown and write it to a file
  osfp reconcile --format markdown --output report.md scan.json

  # Hide weak matches and include raw probe text
  osfp reconcile --min-accuracy 80 --show-probes scan.json

  # Reconcile without touching the history database
  osfp reconcile --no-save scan.json

Configuration file (.osfp) example:
  defaults:
    confidenceThreshold: 80
  hosts:
    "192.168.1.42":
      alias: db01.internal
    honeypot.internal:
      ignore: true`,
		Args: cobra.ArbitraryArgs,
		RunE: runReconcileCmd,
	}

	// Report output flags
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Report output format: text, json, or markdown")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().IntP("min-accuracy", "a", config.DefaultMinAccuracy,
		"Hide matches below this accuracy in rendered reports")
	cmd.Flags().BoolP("show-probes", "p", false,
		"Include raw fingerprint probe text in rendered reports")

	// Analysis flags
	cmd.Flags().IntP("threshold", "t", config.DefaultConfidenceThreshold,
		"Best-match accuracy below which a low-confidence finding is recorded")

	// Batch flags
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of concurrent reconciliations")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .osfp in current, XDG config, or home directory)")

	// History database flags
	cmd.Flags().Bool("no-save", false,
		"Do not save reconciled results to the history database")
	cmd.Flags().String("db-dir", "",
		"Directory for the history database (default: XDG data directory)")

	return cmd
}

// runReconcileCmd executes the reconcile command.
func runReconcileCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Cancel outstanding work on SIGINT/SIGTERM so partially processed
	// batches still report what they finished.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runReconcile(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.Format, err = cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.MinAccuracy, err = cmd.Flags().GetInt("min-accuracy")
	if err != nil {
		return nil, err
	}

	cfg.ShowProbes, err = cmd.Flags().GetBool("show-probes")
	if err != nil {
		return nil, err
	}

	cfg.ConfidenceThreshold, err = cmd.Flags().GetInt("threshold")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load host-specific configurations from config file
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.HostConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.HostConfigs = &config.File{
			Hosts: make(map[string]config.HostConfig),
		}
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Get positional arguments (report files)
	cfg.Sources = args

	return cfg, nil
}

// reconcileTarget pairs a pipeline job with the host options resolved
// from the configuration file.
type reconcileTarget struct {
	job       *pipeline.Job
	threshold int
}

// runReconcile executes the reconciliation.
func runReconcile(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting reconciliation",
		"sources", cfg.Sources,
		"format", string(cfg.OutputFormat()),
		"concurrency", cfg.Concurrency,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DatabaseDir(), database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DatabaseDir())
	}

	targets, err := buildTargets(cfg, logger)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errors.New("no host documents found in the given report files")
	}

	// Use batch processor for parallel reconciliation if multiple documents
	if len(targets) > 1 && cfg.Concurrency > 1 {
		return runBatchReconcile(ctx, cfg, targets, db, logger)
	}

	// Single document or sequential reconciliation
	return runSequentialReconcile(ctx, cfg, targets, db, logger)
}

// buildTargets decodes every source file into pipeline jobs, applying
// host aliases, ignores, and threshold overrides from the config file.
func buildTargets(cfg *config.Config, logger *slog.Logger) ([]reconcileTarget, error) {
	var targets []reconcileTarget

	for _, source := range cfg.Sources {
		documents, err := readSource(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, err)
		}

		for _, doc := range documents {
			host := model.NormalizeHost(doc.Host)

			hostCfg := config.HostConfig{}
			if cfg.HostConfigs != nil {
				hostCfg = cfg.HostConfigs.GetHostConfig(host)
			}

			if hostCfg.Ignore {
				logger.Info("skipping ignored host", "host", host, "source", source)
				continue
			}
			if hostCfg.Alias != "" {
				host = model.NormalizeHost(hostCfg.Alias)
			}

			threshold := cfg.ConfidenceThreshold
			if hostCfg.ConfidenceThreshold > 0 {
				threshold = hostCfg.ConfidenceThreshold
			}

			targets = append(targets, reconcileTarget{
				job: &pipeline.Job{
					Source: source,
					Host:   host,
					Data:   doc.Data,
				},
				threshold: threshold,
			})
		}
	}

	return targets, nil
}

// readSource decodes one report file; "-" reads standard input.
func readSource(source string) ([]decode.Document, error) {
	if source == "-" {
		return decode.Read(os.Stdin)
	}
	return decode.ReadFile(source)
}

// runSequentialReconcile processes host documents one at a time.
func runSequentialReconcile(ctx context.Context, cfg *config.Config, targets []reconcileTarget, db *database.HistoryDB, logger *slog.Logger) error {
	multi := len(targets) > 1

	for _, target := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Create pipeline with host-specific options
		p := createPipelineForTarget(db, logger, cfg, target.threshold)
		job := target.job

		fmt.Printf("Reconciling %s (%s)...\n", job.Host, job.Source)
		startTime := time.Now()

		// Execute the pipeline. Step failures are recorded in the job;
		// Execute itself only fails on cancellation here.
		if err := p.Execute(ctx, job); err != nil {
			return err
		}

		if job.Report == nil {
			logger.Error("reconciliation failed", "host", job.Host, "error", job.Err)
			fmt.Fprintf(os.Stderr, "Reconciliation error for %s: %v\n", job.Host, job.Err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Reconciled in %s\n\n", elapsed.Round(time.Millisecond))

		// Generate and output report
		if err := outputReport(cfg, job, multi); err != nil {
			logger.Error("report failed", "host", job.Host, "error", err)
		}

		printSaveStatus(job)
	}

	return nil
}

// runBatchReconcile processes host documents concurrently using BatchProcessor.
func runBatchReconcile(ctx context.Context, cfg *config.Config, targets []reconcileTarget, db *database.HistoryDB, logger *slog.Logger) error {
	fmt.Printf("Reconciling %d host documents (concurrency: %d)...\n\n",
		len(targets), cfg.Concurrency)

	startTime := time.Now()

	// Warn user about batch processing limitation
	if overridden := hostsWithThresholdOverride(cfg, targets); len(overridden) > 0 {
		logger.Warn("batch reconciliation uses the global confidence threshold; per-host overrides are ignored",
			"hosts", overridden)
		fmt.Fprintf(os.Stderr, "Warning: Host-specific confidence thresholds are ignored in batch mode. Use --concurrency 1 to apply per-host settings.\n\n")
	}

	// Create batch processor with pipeline factory
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return createPipelineForTarget(db, logger, cfg, cfg.ConfidenceThreshold)
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	jobs := make([]*pipeline.Job, len(targets))
	for i, target := range targets {
		jobs[i] = target.job
	}

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, jobs, func(job *pipeline.Job, index int) {
		mu.Lock()
		defer mu.Unlock()

		if job.Report == nil {
			fmt.Fprintf(os.Stderr, "[%d/%d] Reconciliation error for %s: %v\n",
				index+1, len(jobs), job.Host, job.Err)
			return
		}

		fmt.Printf("[%d/%d] Reconciled: %s\n", index+1, len(jobs), job.Host)

		// Generate and output report
		if err := outputReport(cfg, job, true); err != nil {
			logger.Error("report failed", "host", job.Host, "error", err)
		}

		printSaveStatus(job)
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch reconciliation completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// hostsWithThresholdOverride lists hosts whose resolved confidence
// threshold differs from the global one.
func hostsWithThresholdOverride(cfg *config.Config, targets []reconcileTarget) []string {
	var hosts []string
	for _, target := range targets {
		if target.threshold != cfg.ConfidenceThreshold {
			hosts = append(hosts, target.job.Host)
		}
	}
	return hosts
}

// createPipelineForTarget creates a pipeline for one host document.
func createPipelineForTarget(db *database.HistoryDB, logger *slog.Logger, cfg *config.Config, threshold int) *pipeline.Pipeline {
	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	}

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineConfidenceThreshold(threshold),
	}

	return pipeline.DefaultPipeline(db, pipelineOpts, configOpts...)
}

// outputReport renders the job's report in the configured format.
// When writing to a file while reconciling more than one host document,
// the host label is appended to the file name so reports don't
// overwrite each other.
func outputReport(cfg *config.Config, job *pipeline.Job, multi bool) error {
	if job.Report == nil {
		return nil
	}

	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		path := reportPath(cfg.ReportFile, job.Host, multi)

		// Create directories if they don't exist
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports can carry raw probe text, so keep them owner-readable only
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	switch cfg.OutputFormat() {
	case model.FormatJSON:
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(job.Report)
		return err
	case model.FormatMarkdown:
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(job.Report)
		return err
	default:
		writer := report.NewTextWriter(output,
			report.WithMinAccuracy(cfg.MinAccuracy),
			report.WithProbeText(cfg.ShowProbes),
			report.WithVerbose(cfg.Verbose),
		)
		_, err := writer.Write(job.Report)
		return err
	}
}

// reportPath derives the output path for one host's report.
func reportPath(base, host string, multi bool) string {
	if !multi {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return stem + "-" + model.SafeFileName(host) + ext
}

// printSaveStatus reports what the persistence step did with the job.
func printSaveStatus(job *pipeline.Job) {
	switch {
	case job.Unchanged:
		fmt.Println("Fingerprint unchanged since last save; history not updated.")
	case job.ReportID != "":
		fmt.Printf("Saved to history (id: %s)\n", job.ReportID)
	}
}

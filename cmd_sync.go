package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	syncDBURL      string
	syncDryRun     bool
	syncMaxRecords int
	syncWatch      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync <file> <config> [job]",
	Short: "Sync a CSV or CDF file into a database table",
	Long: `Sync one data file into the table a job describes. The job may be omitted
when the config declares exactly one. CDF files are converted to a merged
CSV table first; the largest table is synced.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncDBURL, "db-url", "", "database url (defaults to $DATABASE_URL)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "report planned changes without writing anything")
	syncCmd.Flags().IntVar(&syncMaxRecords, "max-records", 0, "limit the records read per CDF variable")
	syncCmd.Flags().BoolVar(&syncWatch, "watch", false, "keep running and re-sync whenever the file changes")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	filePath, configPath := args[0], args[1]
	jobName := ""
	if len(args) == 3 {
		jobName = args[2]
	}

	dbURL := syncDBURL
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	job, err := cfg.ResolveJob(jobName)
	if err != nil {
		return err
	}

	if !syncWatch {
		return syncOnce(cmd.Context(), cfg, job, filePath, dbURL)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := slog.Default()
	run := func() {
		if err := syncOnce(ctx, cfg, job, filePath, dbURL); err != nil {
			log.Error("sync failed", "file", filePath, "error", err)
		}
	}
	run()
	return watchFile(ctx, filePath, 500*time.Millisecond, run, log)
}

func syncOnce(ctx context.Context, cfg *Config, job *SyncJob, filePath, dbURL string) error {
	runID := uuid.New().String()
	log := slog.Default().With("run_id", runID, "job", job.Name)
	start := time.Now()

	table, sourceName, cleanup, err := loadSourceTable(filePath, log)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return err
	}
	fromCDF := strings.EqualFold(filepath.Ext(filePath), ".cdf")

	var filenameValues map[string]string
	if f := job.FilenameToColumn; f != nil {
		values, ok := f.Values(sourceName)
		switch {
		case ok:
			filenameValues = values
		case fromCDF:
			// Derived CSV names rarely match a pattern written for the
			// original file; sync without the filename metadata.
			log.Warn("filename does not match the configured pattern",
				"file", filepath.Base(sourceName),
				"pattern", f.Pattern())
		default:
			return f.describeNoMatch(sourceName)
		}
	}

	backend, err := openBackend(ctx, dbURL)
	if err != nil {
		return err
	}
	defer backend.Close()
	log.Info("connected", "backend", backend.Name(), "table", job.TargetTable)

	syncer := newSyncer(backend, log)
	if syncDryRun {
		summary, err := syncer.DryRun(ctx, job, table, filenameValues)
		if err != nil {
			return err
		}
		printDryRun(summary)
		return nil
	}

	result, err := syncer.Sync(ctx, job, table, filenameValues)
	if err != nil {
		return err
	}
	if err := runPostSyncScripts(ctx, backend, cfg, job, log); err != nil {
		return err
	}

	log.Info("sync complete",
		"table", job.TargetTable,
		"rows", result.RowsSynced,
		"deleted", result.RowsDeleted,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// loadSourceTable turns the input file into a CSV table. CDF files are
// extracted to a temporary directory first; the returned cleanup removes it.
func loadSourceTable(filePath string, log *slog.Logger) (table *csvTable, sourceName string, cleanup func(), err error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		table, err = readCSVFile(filePath)
		return table, filePath, nil, err

	case ".cdf":
		tmpDir, err := os.MkdirTemp("", "sciferry-")
		if err != nil {
			return nil, "", nil, fmt.Errorf("create temp directory: %w", err)
		}
		cleanup = func() { os.RemoveAll(tmpDir) }

		results, err := extractCDF(filePath, extractOptions{
			OutputDir:  tmpDir,
			Automerge:  true,
			MaxRecords: syncMaxRecords,
		}, log)
		if err != nil {
			return nil, "", cleanup, err
		}
		if len(results) == 0 {
			return nil, "", cleanup, sourceDataErrorf("no data could be extracted from cdf file %s", filePath)
		}
		log.Info("extracted cdf file",
			"tables", len(results),
			"syncing", filepath.Base(results[0].OutputFile),
			"rows", results[0].Rows)

		table, err = readCSVFile(results[0].OutputFile)
		return table, results[0].OutputFile, cleanup, err

	default:
		return nil, "", nil, fmt.Errorf("unsupported file extension %q (expected .csv or .cdf)", filepath.Ext(filePath))
	}
}

func printDryRun(s *DryRunSummary) {
	fmt.Printf("Dry run for table %q\n", s.TableName)
	if !s.TableExists {
		fmt.Println("  table does not exist and would be created")
	}
	for _, col := range s.ColumnsToAdd {
		fmt.Printf("  would add column %s %s\n", col.Name, col.SQLType)
	}
	for _, name := range s.IndexesToCreate {
		fmt.Printf("  would create index %s\n", name)
	}
	fmt.Printf("  rows to sync: %d\n", s.RowsToSync)
	if s.RowsToDelete > 0 {
		fmt.Printf("  stale rows to delete: %d\n", s.RowsToDelete)
	}
}

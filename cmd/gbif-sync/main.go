// Command gbif-sync copies GBIF registry dataset metadata into a collectory
// catalog, one dataset key at a time.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mkoziy/gbif-sync/internal/config"
	"github.com/mkoziy/gbif-sync/internal/database"
	"github.com/mkoziy/gbif-sync/internal/keys"
	"github.com/mkoziy/gbif-sync/internal/migrations"
	"github.com/mkoziy/gbif-sync/internal/models"
	"github.com/mkoziy/gbif-sync/internal/ratelimit"
	"github.com/mkoziy/gbif-sync/internal/report"
	"github.com/mkoziy/gbif-sync/internal/repositories"
	"github.com/mkoziy/gbif-sync/internal/sinks/collectory"
	"github.com/mkoziy/gbif-sync/internal/sources/gbif"
	"github.com/mkoziy/gbif-sync/internal/syncer"
)

type flags struct {
	configPath string
	envFile    string
	keysPath   string
	reportPath string
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "config.yaml", "YAML config file (empty to configure from the environment only)")
	flag.StringVar(&f.envFile, "env", ".env", ".env file loaded when present")
	flag.StringVar(&f.keysPath, "keys", "", "dataset key file (overrides keys_file)")
	flag.StringVar(&f.reportPath, "report", "", "CSV report path (overrides report.path)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f); err != nil {
		log.Printf("gbif-sync: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	if err := config.LoadDotEnv(f.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if f.keysPath != "" {
		cfg.KeysFile = f.keysPath
	}
	if f.reportPath != "" {
		cfg.Report.Path = f.reportPath
	}

	keyList, err := keys.ReadFile(cfg.KeysFile)
	if err != nil {
		return err
	}

	start := time.Now()
	runID := uuid.NewString()

	logPath := cfg.LogPath(start)
	logger, logFile, err := openRunLog(logPath, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		_ = logFile.Close()
	}()

	db, err := database.NewDB(ctx, cfg.Database.DSN, cfg.Database.Debug)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := migrations.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrate ledger: %w", err)
	}

	snapshot, err := cfg.Snapshot()
	if err != nil {
		return err
	}
	syncRun := &models.SyncRun{
		RunID:          runID,
		StartTime:      start,
		Status:         models.RunRunning,
		KeysTotal:      len(keyList),
		LogPath:        &logPath,
		ConfigSnapshot: &snapshot,
	}
	if err := repositories.CreateRun(ctx, db, syncRun); err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	logRunStart(logger, syncRun, cfg)

	registry := gbif.NewClient(cfg.Limiter(ratelimit.ServiceRegistry), cfg.Registry.BaseURL, cfg.HTTP.RequestTimeout)
	catalog := collectory.NewClient(cfg.Limiter(ratelimit.ServiceCatalog), cfg.Catalog.BaseURL, cfg.Catalog.APIKey, cfg.HTTP.RequestTimeout)
	s := syncer.New(
		registry,
		catalog,
		gbif.Mapper(cfg.MapOptions()),
		repositories.OutcomeWriter{DB: db},
		logger,
		syncer.Options{RunID: runID, SkipNotFound: cfg.SkipNotFound()},
	)

	summary, runErr := s.Run(ctx, keyList)
	for _, o := range summary.Outcomes {
		syncRun.Tally(o.State)
	}

	status := models.RunCompleted
	if runErr != nil {
		status = models.RunInterrupted
	}
	// The run row is closed out even when the run was cancelled.
	if err := repositories.FinishRun(context.WithoutCancel(ctx), db, syncRun, status); err != nil {
		logger.Printf("Failed to finish run %s: %v", runID, err)
	}
	logRunEnd(logger, syncRun)

	reportPath := cfg.ReportPath(start)
	if err := report.WriteFile(reportPath, summary.Outcomes); err != nil {
		logger.Printf("Failed to write report: %v", err)
	} else {
		logger.Printf("Report written to %s", reportPath)
	}

	return runErr
}

// openRunLog opens the per-run log file, creating its directory, and returns
// a logger writing to it and to mirror.
func openRunLog(path string, mirror io.Writer) (*log.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open run log: %w", err)
	}
	return log.New(io.MultiWriter(f, mirror), "", log.LstdFlags), f, nil
}

func logRunStart(logger *log.Logger, run *models.SyncRun, cfg *config.Config) {
	logPath := ""
	if run.LogPath != nil {
		logPath = *run.LogPath
	}
	logger.Printf("Starting run %s: keys=%d registry=%s catalog=%s log=%s",
		run.RunID, run.KeysTotal, cfg.Registry.BaseURL, cfg.Catalog.BaseURL, logPath)
}

func logRunEnd(logger *log.Logger, run *models.SyncRun) {
	logger.Printf("Run %s %s: processed %d/%d keys, created=%d updated=%d skipped=%d errors=%d",
		run.RunID, run.Status, run.Processed(), run.KeysTotal,
		run.Created, run.Updated, run.Skipped, run.Errors)
}

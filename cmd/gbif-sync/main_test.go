package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mkoziy/gbif-sync/internal/config"
	"github.com/mkoziy/gbif-sync/internal/models"
)

func TestRunLogCarriesHeaderAndSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gbif-sync-20250101-000000.log")
	var mirror bytes.Buffer

	logger, f, err := openRunLog(path, &mirror)
	if err != nil {
		t.Fatalf("open run log: %v", err)
	}

	cfg := &config.Config{
		Registry: config.RegistryConfig{BaseURL: "https://api.gbif.org"},
		Catalog:  config.CatalogConfig{BaseURL: "https://collectory.example.org"},
	}
	run := &models.SyncRun{RunID: "run-1", StartTime: time.Now(), Status: models.RunRunning, KeysTotal: 3, LogPath: &path}

	logRunStart(logger, run, cfg)
	run.Tally(models.OutcomeCreated)
	run.Tally(models.OutcomeUpdated)
	run.Tally(models.OutcomeErrorAmbiguous)
	run.Status = models.RunCompleted
	logRunEnd(logger, run)

	if err := f.Close(); err != nil {
		t.Fatalf("close run log: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"Starting run run-1: keys=3",
		"registry=https://api.gbif.org",
		"catalog=https://collectory.example.org",
		"log=" + path,
		"Run run-1 completed: processed 3/3 keys, created=1 updated=1 skipped=0 errors=1",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in run log, got:\n%s", want, content)
		}
	}
	if mirror.String() != content {
		t.Fatalf("expected stderr mirror to match the log file")
	}
}

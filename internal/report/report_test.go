package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mkoziy/gbif-sync/internal/models"
)

func TestWriteCSV(t *testing.T) {
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	outcomes := []models.KeyOutcome{
		{RunID: "run-1", Seq: 0, DatasetKey: "abc123", State: models.OutcomeCreated, StatusCode: 201, ResourceUID: "dr1", CreatedAt: at},
		{RunID: "run-1", Seq: 1, DatasetKey: "def456", State: models.OutcomeErrorAmbiguous, ErrorKind: "data_integrity", Message: "2 resources, dr1, dr2", CreatedAt: at},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, outcomes); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "run_id,seq,dataset_key,state,error_kind,status_code,resource_uid,message,recorded_at" {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "run-1,0,abc123,created,,201,dr1,,2026-10-18T12:00:00Z") {
		t.Fatalf("unexpected first row: %s", lines[1])
	}
	if !strings.Contains(lines[2], `"2 resources, dr1, dr2"`) {
		t.Fatalf("expected quoted message, got: %s", lines[2])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "run_id,seq,dataset_key") {
		t.Fatalf("expected header only, got %q", buf.String())
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.csv")
	if err := WriteFile(path, []models.KeyOutcome{{RunID: "r", DatasetKey: "k", State: models.OutcomeUpdated}}); err != nil {
		t.Fatalf("write file: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(raw), "r,0,k,updated") {
		t.Fatalf("unexpected file contents: %s", raw)
	}
}

// Package report exports a run's key outcomes as CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"

	"github.com/mkoziy/gbif-sync/internal/models"
)

// WriteCSV writes a header row followed by one row per outcome.
func WriteCSV(w io.Writer, outcomes []models.KeyOutcome) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if len(outcomes) == 0 {
		if err := enc.EncodeHeader(models.KeyOutcome{}); err != nil {
			return fmt.Errorf("encode header: %w", err)
		}
	}
	for i := range outcomes {
		if err := enc.Encode(outcomes[i]); err != nil {
			return fmt.Errorf("encode outcome %s: %w", outcomes[i].DatasetKey, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the report to path, creating parent directories.
func WriteFile(path string, outcomes []models.KeyOutcome) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteCSV(f, outcomes); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

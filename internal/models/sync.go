package models

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// SyncRun tracks one batch run and its per-state counters.
type SyncRun struct {
	bun.BaseModel `bun:"table:sync_runs,alias:sr"`

	ID             int64      `bun:"id,pk,autoincrement" json:"id"`
	RunID          string     `bun:"run_id,unique,notnull" json:"run_id"`
	StartTime      time.Time  `bun:"start_time,notnull" json:"start_time"`
	EndTime        *time.Time `bun:"end_time" json:"end_time,omitempty"`
	Status         string     `bun:"status,notnull" json:"status"`
	KeysTotal      int        `bun:"keys_total,default:0" json:"keys_total"`
	Created        int        `bun:"created,default:0" json:"created"`
	Updated        int        `bun:"updated,default:0" json:"updated"`
	Skipped        int        `bun:"skipped,default:0" json:"skipped"`
	Errors         int        `bun:"errors,default:0" json:"errors"`
	LogPath        *string    `bun:"log_path" json:"log_path,omitempty"`
	ConfigSnapshot *string    `bun:"config_snapshot" json:"config_snapshot,omitempty"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	Outcomes []*KeyOutcome `bun:"rel:has-many,join:run_id=run_id" json:"outcomes,omitempty"`
}

// Tally adds one outcome to the run counters.
func (r *SyncRun) Tally(state OutcomeState) {
	switch {
	case state == OutcomeCreated:
		r.Created++
	case state == OutcomeUpdated:
		r.Updated++
	case state == OutcomeSkippedNotFound:
		r.Skipped++
	case state.IsError():
		r.Errors++
	}
}

// Processed returns how many keys reached a terminal state.
func (r *SyncRun) Processed() int {
	return r.Created + r.Updated + r.Skipped + r.Errors
}

// Validate checks that required run fields are present.
func (r *SyncRun) Validate() error {
	if r.RunID == "" {
		return errors.New("run id is required")
	}
	if r.StartTime.IsZero() {
		return errors.New("start time is required")
	}
	if r.Status == "" {
		return errors.New("status is required")
	}
	return nil
}

// KeyOutcome records what happened to one dataset key during a run.
type KeyOutcome struct {
	bun.BaseModel `bun:"table:sync_outcomes,alias:o" csv:"-"`

	ID          int64        `bun:"id,pk,autoincrement" json:"id" csv:"-"`
	RunID       string       `bun:"run_id,notnull" json:"run_id" csv:"run_id"`
	Seq         int          `bun:"seq,notnull" json:"seq" csv:"seq"`
	DatasetKey  string       `bun:"dataset_key,notnull" json:"dataset_key" csv:"dataset_key"`
	State       OutcomeState `bun:"state,notnull" json:"state" csv:"state"`
	ErrorKind   string       `bun:"error_kind,nullzero" json:"error_kind,omitempty" csv:"error_kind"`
	StatusCode  int          `bun:"status_code" json:"status_code,omitempty" csv:"status_code,omitempty"`
	ResourceUID string       `bun:"resource_uid,nullzero" json:"resource_uid,omitempty" csv:"resource_uid"`
	Message     string       `bun:"message,nullzero" json:"message,omitempty" csv:"message"`
	CreatedAt   time.Time    `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at" csv:"recorded_at"`
}

// BeforeAppendModel stamps the record time on insert.
func (o *KeyOutcome) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	return nil
}

// Validate checks that required outcome fields are present.
func (o *KeyOutcome) Validate() error {
	if o.RunID == "" {
		return errors.New("run id is required")
	}
	if o.DatasetKey == "" {
		return errors.New("dataset key is required")
	}
	if o.State == "" {
		return errors.New("state is required")
	}
	return nil
}

// Package syncer drives dataset keys one at a time through fetch, lookup,
// map and create-or-update.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/mkoziy/gbif-sync/internal/models"
	"github.com/mkoziy/gbif-sync/internal/sources/gbif"
	"github.com/mkoziy/gbif-sync/internal/syncerr"
)

// Registry fetches source dataset records.
type Registry interface {
	Fetch(ctx context.Context, key string) (*gbif.Dataset, int, error)
}

// Catalog reads and writes sink data resources.
type Catalog interface {
	Lookup(ctx context.Context, key string) ([]models.DataResource, int, error)
	Create(ctx context.Context, payload *models.DataResource) (*models.DataResource, int, error)
	Update(ctx context.Context, uid string, payload *models.DataResource) (*models.DataResource, int, error)
}

// MapFunc turns a source dataset and the optional existing resource into a payload.
type MapFunc func(ds gbif.Dataset, existing *models.DataResource) (*models.DataResource, error)

// Recorder receives every outcome in processing order.
type Recorder interface {
	Record(ctx context.Context, o *models.KeyOutcome) error
}

// Options controls run-level behavior.
type Options struct {
	RunID string
	// SkipNotFound records registry 404s as skipped instead of errors.
	SkipNotFound bool
}

// Syncer processes dataset keys strictly in order, one at a time.
type Syncer struct {
	registry Registry
	catalog  Catalog
	mapFn    MapFunc
	recorder Recorder
	logger   *log.Logger
	opts     Options
}

// New creates a Syncer. recorder and logger may be nil.
func New(registry Registry, catalog Catalog, mapFn MapFunc, recorder Recorder, logger *log.Logger, opts Options) *Syncer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Syncer{
		registry: registry,
		catalog:  catalog,
		mapFn:    mapFn,
		recorder: recorder,
		logger:   logger,
		opts:     opts,
	}
}

// Summary is the result of a run.
type Summary struct {
	RunID       string
	Total       int
	Counts      map[models.OutcomeState]int
	Outcomes    []models.KeyOutcome
	Interrupted bool
}

// Errors returns how many keys ended in an error state.
func (s *Summary) Errors() int {
	n := 0
	for state, c := range s.Counts {
		if state.IsError() {
			n += c
		}
	}
	return n
}

// Run syncs every key in order. Key-level failures never stop the batch;
// only context cancellation or a failing recorder does.
func (s *Syncer) Run(ctx context.Context, keys []string) (*Summary, error) {
	summary := &Summary{
		RunID:    s.opts.RunID,
		Total:    len(keys),
		Counts:   make(map[models.OutcomeState]int),
		Outcomes: make([]models.KeyOutcome, 0, len(keys)),
	}
	s.logger.Printf("Run %s: %d keys to sync", s.opts.RunID, len(keys))

	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			summary.Interrupted = true
			s.logger.Printf("Run %s interrupted after %d/%d keys: %v", s.opts.RunID, i, len(keys), err)
			return summary, err
		}

		outcome := s.SyncKey(ctx, i, key)

		var recordErr error
		if s.recorder != nil {
			// Already-finished keys are still recorded if the run is being cancelled.
			recordErr = s.recorder.Record(context.WithoutCancel(ctx), &outcome)
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
		summary.Counts[outcome.State]++
		if recordErr != nil {
			return summary, fmt.Errorf("record outcome for %s: %w", key, recordErr)
		}
	}

	s.logger.Printf("Run %s finished: %d keys, created=%d updated=%d skipped=%d errors=%d",
		s.opts.RunID, len(keys),
		summary.Counts[models.OutcomeCreated], summary.Counts[models.OutcomeUpdated],
		summary.Counts[models.OutcomeSkippedNotFound], summary.Errors())
	return summary, nil
}

// SyncKey takes one key through fetch, lookup, map and upsert. seq is the
// key's 0-based position in the input.
func (s *Syncer) SyncKey(ctx context.Context, seq int, key string) models.KeyOutcome {
	out := models.KeyOutcome{RunID: s.opts.RunID, Seq: seq, DatasetKey: key}
	s.logger.Printf("%s: read key #%d", key, seq+1)

	ds, status, err := s.registry.Fetch(ctx, key)
	if err != nil {
		s.logger.Printf("%s: fetch failed status=%d: %v", key, status, err)
		if errors.Is(err, syncerr.ErrNotFound) && s.opts.SkipNotFound {
			return s.finish(out, models.OutcomeSkippedNotFound, status, err)
		}
		return s.finish(out, models.OutcomeErrorUpstream, status, err)
	}
	if ds.Key == "" {
		ds.Key = key
	}
	s.logger.Printf("%s: fetched %q type=%s status=%d", key, ds.Title, ds.Type, status)

	matches, status, err := s.catalog.Lookup(ctx, key)
	if err != nil {
		s.logger.Printf("%s: lookup failed status=%d: %v", key, status, err)
		return s.finish(out, models.OutcomeErrorUpstream, status, err)
	}
	s.logger.Printf("%s: lookup found %d resource(s) status=%d", key, len(matches), status)

	switch len(matches) {
	case 0:
		payload, err := s.mapFn(*ds, nil)
		if err != nil {
			s.logger.Printf("%s: mapping failed: %v", key, err)
			return s.finish(out, stateFor(err), 0, err)
		}
		created, status, err := s.catalog.Create(ctx, payload)
		if err != nil {
			s.logger.Printf("%s: create failed status=%d: %v", key, status, err)
			return s.finish(out, models.OutcomeErrorUpstream, status, err)
		}
		out.ResourceUID = created.UID
		s.logger.Printf("%s: created %s status=%d", key, created.UID, status)
		return s.finish(out, models.OutcomeCreated, status, nil)

	case 1:
		existing := matches[0]
		if existing.UID == "" {
			err := fmt.Errorf("lookup match for %s has no uid: %w", key, syncerr.ErrUpstream)
			s.logger.Printf("%s: %v", key, err)
			return s.finish(out, models.OutcomeErrorUpstream, status, err)
		}
		out.ResourceUID = existing.UID
		payload, err := s.mapFn(*ds, &existing)
		if err != nil {
			s.logger.Printf("%s: mapping failed: %v", key, err)
			return s.finish(out, stateFor(err), 0, err)
		}
		_, status, err := s.catalog.Update(ctx, existing.UID, payload)
		if err != nil {
			s.logger.Printf("%s: update of %s failed status=%d: %v", key, existing.UID, status, err)
			return s.finish(out, models.OutcomeErrorUpstream, status, err)
		}
		s.logger.Printf("%s: updated %s status=%d", key, existing.UID, status)
		return s.finish(out, models.OutcomeUpdated, status, nil)

	default:
		uids := make([]string, 0, len(matches))
		for _, m := range matches {
			uids = append(uids, m.UID)
		}
		err := fmt.Errorf("%d resources share guid %s (%s): %w",
			len(matches), key, strings.Join(uids, ", "), syncerr.ErrDataIntegrity)
		s.logger.Printf("%s: %v", key, err)
		return s.finish(out, models.OutcomeErrorAmbiguous, status, err)
	}
}

func (s *Syncer) finish(out models.KeyOutcome, state models.OutcomeState, status int, err error) models.KeyOutcome {
	out.State = state
	out.StatusCode = status
	if err != nil {
		out.ErrorKind = syncerr.Kind(err)
		out.Message = err.Error()
	}
	s.logger.Printf("%s: outcome=%s", out.DatasetKey, state)
	return out
}

func stateFor(err error) models.OutcomeState {
	if errors.Is(err, syncerr.ErrMalformedInput) {
		return models.OutcomeErrorMalformed
	}
	return models.OutcomeErrorUpstream
}

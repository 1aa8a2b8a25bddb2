package trace

import (
	"context"
	"fmt"

	"github.com/emonkak/barebind-sub006/internal/engine"
)

// WriteRun records run metadata. Uses ON CONFLICT(id) DO NOTHING for
// idempotency - appending to an existing run is a normal operation.
func (s *Store) WriteRun(ctx context.Context, runID, scenario string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, runID, scenario)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteEvents appends events to a run inside one transaction.
//
// Each event is persisted both as columns (for querying) and as its
// canonical JSON form (for stable diffing and replay). Duplicate
// (run_id, seq) pairs are silently ignored, so re-recording an identical
// run is idempotent.
func (s *Store) WriteEvents(ctx context.Context, runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write events: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events
		(run_id, seq, kind, token, priority, phase, op, key, detail, canonical)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write events: prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		canonical, err := MarshalCanonical(ev)
		if err != nil {
			return fmt.Errorf("write events: seq %d: %w", ev.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx,
			runID, ev.Seq, string(ev.Kind), ev.Token, ev.Priority,
			ev.Phase, ev.Op, ev.Key, ev.Detail, string(canonical),
		); err != nil {
			return fmt.Errorf("write events: seq %d: %w", ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write events: commit: %w", err)
	}
	return nil
}

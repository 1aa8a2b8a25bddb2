package trace

import (
	"context"
	"fmt"

	"github.com/emonkak/barebind-sub006/internal/engine"
)

// RunInfo summarizes one recorded run.
type RunInfo struct {
	ID       string
	Scenario string
	Events   int
	LastSeq  int64
}

// ReadRun returns every event of a run in logical-clock order.
//
// Deterministic ordering: ORDER BY seq ASC. Returns an empty slice (not
// nil) if the run has no events.
func (s *Store) ReadRun(ctx context.Context, runID string) ([]engine.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, token, priority, phase, op, key, detail
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []engine.Event{}
	for rows.Next() {
		var ev engine.Event
		var kind string
		if err := rows.Scan(&ev.Seq, &kind, &ev.Token, &ev.Priority,
			&ev.Phase, &ev.Op, &ev.Key, &ev.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = engine.EventKind(kind)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// LastSeq returns the highest sequence number recorded for a run, or 0
// when the run has no events. Callers appending to the run resume the
// trace clock from this value.
func (s *Store) LastSeq(ctx context.Context, runID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM events WHERE run_id = ?
	`, runID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq, nil
}

// Runs lists recorded runs with their event counts, ordered by run id for
// deterministic output.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.scenario,
		       COUNT(e.seq) AS events,
		       COALESCE(MAX(e.seq), 0) AS last_seq
		FROM runs r
		LEFT JOIN events e ON e.run_id = r.id
		GROUP BY r.id, r.scenario
		ORDER BY r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunInfo{}
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.ID, &info.Scenario, &info.Events, &info.LastSeq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

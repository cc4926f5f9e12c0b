package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/hindsight/internal/ir"
)

// Trace is the summary row of one stored reconstruction.
type Trace struct {
	ID            string `json:"id"`
	RunID         string `json:"run_id"`
	Name          string `json:"name,omitempty"`
	Seq           int64  `json:"seq"`
	EventCount    int    `json:"event_count"`
	EdgeCount     int    `json:"edge_count"`
	ThreadCount   int    `json:"thread_count"`
	MaxClock      int64  `json:"max_clock"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}

// NewTrace summarizes a reconstruction for storage. Seq is assigned on write.
func NewTrace(id, runID, name string, events []ir.Event, edges []ir.Edge) Trace {
	threads := make(map[string]bool)
	maxClock := int64(-1)
	for _, ev := range events {
		threads[ev.Thread.Key] = true
		if ev.Clock > maxClock {
			maxClock = ev.Clock
		}
	}
	return Trace{
		ID:            id,
		RunID:         runID,
		Name:          name,
		EventCount:    len(events),
		EdgeCount:     len(edges),
		ThreadCount:   len(threads),
		MaxClock:      maxClock,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.SchemaVersion,
	}
}

// WriteTrace stores a trace with its events and edges in one transaction.
//
// Uses ON CONFLICT(id) DO NOTHING on the trace row for idempotency: if the
// trace id is already stored nothing is written and created is false.
func (s *Store) WriteTrace(ctx context.Context, tr Trace, events []ir.Event, edges []ir.Edge) (created bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write trace: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO traces
		(id, run_id, name, seq, event_count, edge_count, thread_count, max_clock, engine_version, ir_version)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM traces), ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		tr.ID,
		tr.RunID,
		tr.Name,
		tr.EventCount,
		tr.EdgeCount,
		tr.ThreadCount,
		tr.MaxClock,
		tr.EngineVersion,
		tr.IRVersion,
	)
	if err != nil {
		return false, fmt.Errorf("write trace: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write trace: %w", err)
	}
	if n == 0 {
		return false, tx.Commit()
	}

	for _, ev := range events {
		if err := writeEvent(ctx, tx, tr.ID, ev); err != nil {
			return false, err
		}
	}
	for i, e := range edges {
		if err := writeEdge(ctx, tx, tr.ID, int64(i), e); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write trace: commit: %w", err)
	}
	return true, nil
}

func writeEvent(ctx context.Context, tx *sql.Tx, traceID string, ev ir.Event) error {
	vcJSON, err := marshalVectorClock(ev.VectorTimestamp)
	if err != nil {
		return fmt.Errorf("write event %s: %w", ev.ID, err)
	}
	depsJSON, err := marshalDependencies(ev.Dependencies)
	if err != nil {
		return fmt.Errorf("write event %s: %w", ev.ID, err)
	}
	fieldsJSON, err := marshalFields(ev.Fields)
	if err != nil {
		return fmt.Errorf("write event %s: %w", ev.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events
		(trace_id, id, idx, kind, thread, thread_name, process, clock, vector_clock, dependency, dependencies, fields)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		traceID,
		ev.ID,
		ev.Index,
		string(ev.Kind),
		ev.Thread.Key,
		ev.Thread.Thread,
		ev.Thread.Process,
		ev.Clock,
		vcJSON,
		ev.Dependency,
		depsJSON,
		fieldsJSON,
	)
	if err != nil {
		return fmt.Errorf("write event %s: %w", ev.ID, err)
	}
	return nil
}

func writeEdge(ctx context.Context, tx *sql.Tx, traceID string, seq int64, e ir.Edge) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO edges (trace_id, seq, from_id, to_id, is_primary)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, traceID, seq, e.From, e.To, e.Primary)
	if err != nil {
		return fmt.Errorf("write edge %s->%s: %w", e.From, e.To, err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/hindsight/internal/ir"
)

// ErrTraceNotFound is returned when a trace id is not stored.
var ErrTraceNotFound = errors.New("trace not found")

const traceColumns = `id, run_id, name, seq, event_count, edge_count, thread_count, max_clock, engine_version, ir_version`

const eventColumns = `id, idx, kind, thread, thread_name, process, clock, vector_clock, dependency, dependencies, fields`

// ReadTrace returns the summary row of a stored trace.
func (s *Store) ReadTrace(ctx context.Context, id string) (Trace, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+traceColumns+` FROM traces WHERE id = ?`, id)
	tr, err := scanTrace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Trace{}, fmt.Errorf("%w: %s", ErrTraceNotFound, id)
	}
	if err != nil {
		return Trace{}, err
	}
	return tr, nil
}

// ListTraces returns every stored trace in ingestion order.
// Returns an empty slice (not nil) if nothing is stored.
func (s *Store) ListTraces(ctx context.Context) ([]Trace, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+traceColumns+`
		FROM traces
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query traces: %w", err)
	}
	defer rows.Close()

	traces := []Trace{}
	for rows.Next() {
		tr, err := scanTrace(rows)
		if err != nil {
			return nil, err
		}
		traces = append(traces, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traces: %w", err)
	}
	return traces, nil
}

// ReadEvents returns every event of a trace ordered by clock, then input position.
func (s *Store) ReadEvents(ctx context.Context, traceID string) ([]ir.Event, error) {
	return s.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE trace_id = ?
		ORDER BY clock ASC, idx ASC
	`, traceID)
}

// ReadEdges returns the edges of a trace in insertion order.
func (s *Store) ReadEdges(ctx context.Context, traceID string) ([]ir.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_id, to_id, is_primary
		FROM edges
		WHERE trace_id = ?
		ORDER BY seq ASC
	`, traceID)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	edges := []ir.Edge{}
	for rows.Next() {
		var e ir.Edge
		if err := rows.Scan(&e.From, &e.To, &e.Primary); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}
	return edges, nil
}

// ReadParents returns the ids of the events eventID depends on, primary first.
func (s *Store) ReadParents(ctx context.Context, traceID, eventID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_id
		FROM edges
		WHERE trace_id = ? AND to_id = ?
		ORDER BY is_primary DESC, seq ASC
	`, traceID, eventID)
	if err != nil {
		return nil, fmt.Errorf("query parents: %w", err)
	}
	defer rows.Close()

	parents := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan parent: %w", err)
		}
		parents = append(parents, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parents: %w", err)
	}
	return parents, nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTrace(row scanner) (Trace, error) {
	var tr Trace
	err := row.Scan(
		&tr.ID,
		&tr.RunID,
		&tr.Name,
		&tr.Seq,
		&tr.EventCount,
		&tr.EdgeCount,
		&tr.ThreadCount,
		&tr.MaxClock,
		&tr.EngineVersion,
		&tr.IRVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Trace{}, err
	}
	if err != nil {
		return Trace{}, fmt.Errorf("scan trace: %w", err)
	}
	return tr, nil
}

func scanEvent(row scanner) (ir.Event, error) {
	var ev ir.Event
	var kind, vcJSON, depsJSON, fJSON string
	err := row.Scan(
		&ev.ID,
		&ev.Index,
		&kind,
		&ev.Thread.Key,
		&ev.Thread.Thread,
		&ev.Thread.Process,
		&ev.Clock,
		&vcJSON,
		&ev.Dependency,
		&depsJSON,
		&fJSON,
	)
	if err != nil {
		return ir.Event{}, fmt.Errorf("scan event: %w", err)
	}

	ev.Kind = ir.Kind(kind)
	if ev.VectorTimestamp, err = unmarshalVectorClock(ev.Thread.Key, vcJSON); err != nil {
		return ir.Event{}, fmt.Errorf("event %s: %w", ev.ID, err)
	}
	if ev.Dependencies, err = unmarshalDependencies(depsJSON); err != nil {
		return ir.Event{}, fmt.Errorf("event %s: %w", ev.ID, err)
	}
	if ev.Fields, err = ir.DecodeFields(ev.Kind, []byte(fJSON)); err != nil {
		return ir.Event{}, fmt.Errorf("event %s: %w", ev.ID, err)
	}
	return ev, nil
}

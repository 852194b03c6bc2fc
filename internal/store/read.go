package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/qgraph/internal/ir"
	"github.com/roach88/qgraph/internal/irxml"
)

// ErrNotFound is returned when no snapshot matches a lookup.
var ErrNotFound = errors.New("snapshot not found")

const snapshotColumns = `id, seq, label, fingerprint, notation_version, tool_version, node_count, body`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var snap Snapshot
	err := row.Scan(
		&snap.ID,
		&snap.Seq,
		&snap.Label,
		&snap.Fingerprint,
		&snap.NotationVersion,
		&snap.ToolVersion,
		&snap.NodeCount,
		&snap.Body,
	)
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Get returns the snapshot with the given id.
func (s *Store) Get(ctx context.Context, id string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, id)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("get snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	return snap, nil
}

// Load reads the snapshot with the given id back into a program built by f.
// The fingerprint of the rebuilt graph must match the stored one.
func (s *Store) Load(ctx context.Context, id string, f *ir.Factory) (*ir.Program, error) {
	snap, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prog, err := irxml.Read(bytes.NewReader(snap.Body), f)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	fp, err := ir.Fingerprint(prog)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	if fp != snap.Fingerprint {
		return nil, fmt.Errorf("load snapshot %s: fingerprint mismatch: stored %s, rebuilt %s", id, snap.Fingerprint, fp)
	}
	return prog, nil
}

// List returns all snapshots.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	return s.query(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// FindByFingerprint returns every snapshot of the graph with the given
// fingerprint, whatever its label, in seq order.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) ([]Snapshot, error) {
	return s.query(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE fingerprint = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, fingerprint)
}

func (s *Store) findOne(ctx context.Context, fingerprint, label string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE fingerprint = ? AND label = ?
	`, fingerprint, label)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("find snapshot: %w", err)
	}
	return snap, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	// Return empty slice instead of nil
	if snaps == nil {
		snaps = []Snapshot{}
	}
	return snaps, nil
}

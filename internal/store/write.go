package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/roach88/qgraph/internal/ir"
	"github.com/roach88/qgraph/internal/irxml"
)

// Snapshot is one stored program.
type Snapshot struct {
	ID              string
	Seq             int64
	Label           string
	Fingerprint     string
	NotationVersion string
	ToolVersion     string
	NodeCount       int

	// Body is the program in notation form, written without indentation.
	Body []byte
}

// Save serializes prog and records it under label.
// Uses ON CONFLICT DO NOTHING for idempotency - saving a graph with the same
// fingerprint under the same label returns the snapshot recorded first.
func (s *Store) Save(ctx context.Context, label string, prog *ir.Program) (Snapshot, error) {
	fp, err := ir.Fingerprint(prog)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	existing, err := s.findOne(ctx, fp, label)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	var body bytes.Buffer
	if err := irxml.Write(&body, prog, irxml.WithIndent("")); err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	snap := Snapshot{
		ID:              s.ids.Generate(),
		Seq:             s.clock.Next(),
		Label:           label,
		Fingerprint:     fp,
		NotationVersion: ir.NotationVersion,
		ToolVersion:     ir.ToolVersion,
		NodeCount:       ir.Count(prog),
		Body:            body.Bytes(),
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots
		(id, seq, label, fingerprint, notation_version, tool_version, node_count, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		snap.ID,
		snap.Seq,
		snap.Label,
		snap.Fingerprint,
		snap.NotationVersion,
		snap.ToolVersion,
		snap.NodeCount,
		snap.Body,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	if n == 0 {
		return s.findOne(ctx, fp, label)
	}
	return snap, nil
}

// Delete removes a snapshot. Deleting a missing id returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete snapshot %s: %w", id, ErrNotFound)
	}
	return nil
}

package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/provlab/traceline/internal/domain/provenance"
)

// Counter names in the counters table.
const (
	counterNode = "node"
	counterItem = "item"
	counterStep = "step"
)

// LedgerRepository stores ledger snapshots and applies per-record updates.
// Writes are expected to arrive from a single caller; the connection pool
// is capped at one connection anyway.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a LedgerRepository on an opened database.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Load reads the full persisted state. An empty database yields an empty
// snapshot with zero counters; callers treat that as a fresh ledger.
func (r *LedgerRepository) Load() (provenance.Snapshot, error) {
	var snap provenance.Snapshot

	rows, err := r.db.Query(`SELECT id, owner, file, active_steps, operators FROM nodes ORDER BY id`)
	if err != nil {
		return snap, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m NodeModel
		if err := rows.Scan(&m.ID, &m.Owner, &m.File, &m.ActiveSteps, &m.Operators); err != nil {
			return snap, fmt.Errorf("failed to scan node: %w", err)
		}
		rec, err := m.toRecord()
		if err != nil {
			return snap, err
		}
		snap.Nodes = append(snap.Nodes, rec)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("failed to iterate nodes: %w", err)
	}

	rows, err = r.db.Query(`SELECT id, origin, file, last_step FROM items ORDER BY id`)
	if err != nil {
		return snap, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m ItemModel
		if err := rows.Scan(&m.ID, &m.Origin, &m.File, &m.LastStep); err != nil {
			return snap, fmt.Errorf("failed to scan item: %w", err)
		}
		rec, err := m.toRecord()
		if err != nil {
			return snap, err
		}
		snap.Items = append(snap.Items, rec)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("failed to iterate items: %w", err)
	}

	rows, err = r.db.Query(`SELECT id, node, item, file, precedents, approved FROM steps ORDER BY id`)
	if err != nil {
		return snap, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m StepModel
		if err := rows.Scan(&m.ID, &m.Node, &m.Item, &m.File, &m.Precedents, &m.Approved); err != nil {
			return snap, fmt.Errorf("failed to scan step: %w", err)
		}
		rec, err := m.toRecord()
		if err != nil {
			return snap, err
		}
		snap.Steps = append(snap.Steps, rec)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("failed to iterate steps: %w", err)
	}

	counters, err := r.db.Query(`SELECT name, next FROM counters`)
	if err != nil {
		return snap, fmt.Errorf("failed to query counters: %w", err)
	}
	defer counters.Close()
	for counters.Next() {
		var name string
		var next int64
		if err := counters.Scan(&name, &next); err != nil {
			return snap, fmt.Errorf("failed to scan counter: %w", err)
		}
		switch name {
		case counterNode:
			snap.NextNode = provenance.NodeID(next)
		case counterItem:
			snap.NextItem = provenance.ItemID(next)
		case counterStep:
			snap.NextStep = provenance.StepID(next)
		}
	}
	if err := counters.Err(); err != nil {
		return snap, fmt.Errorf("failed to iterate counters: %w", err)
	}

	return snap, nil
}

// Replace atomically rewrites the whole persisted state from a snapshot.
func (r *LedgerRepository) Replace(snap provenance.Snapshot) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"nodes", "items", "steps", "counters"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, rec := range snap.Nodes {
		if err := upsertNode(tx, rec); err != nil {
			return err
		}
	}
	for _, rec := range snap.Items {
		if err := upsertItem(tx, rec); err != nil {
			return err
		}
	}
	for _, rec := range snap.Steps {
		if err := upsertStep(tx, rec); err != nil {
			return err
		}
	}
	if err := setCounters(tx, snap.NextNode, snap.NextItem, snap.NextStep); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}
	return nil
}

// execer abstracts *sql.DB and *sql.Tx for the upsert helpers.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsertNode(e execer, rec provenance.NodeRecord) error {
	m, err := toNodeModel(rec)
	if err != nil {
		return err
	}
	_, err = e.Exec(
		`INSERT INTO nodes (id, owner, file, active_steps, operators) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET owner = excluded.owner, file = excluded.file,
			active_steps = excluded.active_steps, operators = excluded.operators`,
		m.ID, m.Owner, m.File, m.ActiveSteps, m.Operators,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert node %d: %w", m.ID, err)
	}
	return nil
}

func upsertItem(e execer, rec provenance.ItemRecord) error {
	m := toItemModel(rec)
	_, err := e.Exec(
		`INSERT INTO items (id, origin, file, last_step) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET origin = excluded.origin, file = excluded.file,
			last_step = excluded.last_step`,
		m.ID, m.Origin, m.File, m.LastStep,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert item %d: %w", m.ID, err)
	}
	return nil
}

func upsertStep(e execer, rec provenance.StepRecord) error {
	m, err := toStepModel(rec)
	if err != nil {
		return err
	}
	_, err = e.Exec(
		`INSERT INTO steps (id, node, item, file, precedents, approved) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET node = excluded.node, item = excluded.item,
			file = excluded.file, precedents = excluded.precedents, approved = excluded.approved`,
		m.ID, m.Node, m.Item, m.File, m.Precedents, m.Approved,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert step %d: %w", m.ID, err)
	}
	return nil
}

func setCounters(e execer, node provenance.NodeID, item provenance.ItemID, step provenance.StepID) error {
	for _, c := range []struct {
		name string
		next int64
	}{
		{counterNode, int64(node)},
		{counterItem, int64(item)},
		{counterStep, int64(step)},
	} {
		_, err := e.Exec(
			`INSERT INTO counters (name, next) VALUES (?, ?)
			 ON CONFLICT(name) DO UPDATE SET next = excluded.next`,
			c.name, c.next,
		)
		if err != nil {
			return fmt.Errorf("failed to set %s counter: %w", c.name, err)
		}
	}
	return nil
}

// UpsertNode inserts or updates a single node row.
func (r *LedgerRepository) UpsertNode(rec provenance.NodeRecord) error {
	return upsertNode(r.db, rec)
}

// UpsertItem inserts or updates a single item row.
func (r *LedgerRepository) UpsertItem(rec provenance.ItemRecord) error {
	return upsertItem(r.db, rec)
}

// UpsertStep inserts or updates a single step row.
func (r *LedgerRepository) UpsertStep(rec provenance.StepRecord) error {
	return upsertStep(r.db, rec)
}

// DeleteNode removes a node row. Deleting an absent row is not an error.
func (r *LedgerRepository) DeleteNode(id provenance.NodeID) error {
	if _, err := r.db.Exec(`DELETE FROM nodes WHERE id = ?`, int64(id)); err != nil {
		return fmt.Errorf("failed to delete node %d: %w", id, err)
	}
	return nil
}

// DeleteItem removes an item row. Deleting an absent row is not an error.
func (r *LedgerRepository) DeleteItem(id provenance.ItemID) error {
	if _, err := r.db.Exec(`DELETE FROM items WHERE id = ?`, int64(id)); err != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	return nil
}

// DeleteStep removes a step row. Deleting an absent row is not an error.
func (r *LedgerRepository) DeleteStep(id provenance.StepID) error {
	if _, err := r.db.Exec(`DELETE FROM steps WHERE id = ?`, int64(id)); err != nil {
		return fmt.Errorf("failed to delete step %d: %w", id, err)
	}
	return nil
}

// SetCounters persists the next-id counters.
func (r *LedgerRepository) SetCounters(node provenance.NodeID, item provenance.ItemID, step provenance.StepID) error {
	return setCounters(r.db, node, item, step)
}

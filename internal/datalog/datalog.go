// Package datalog records received target batches and robot events in a
// sqlite database for post-match review.
package datalog

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"frc-targeting/internal/monitoring"
	"frc-targeting/internal/target"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open datalog %s: %w", path, err)
	}
	// Ingest connections write concurrently; serialize them on one handle.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS batches (
			batch_id INTEGER PRIMARY KEY AUTOINCREMENT,
			conn_id TEXT,
			received_at INTEGER,
			no_targets BOOLEAN
		);
		CREATE TABLE IF NOT EXISTS targets (
			batch_id INTEGER,
			side INTEGER,
			distance DOUBLE,
			angle DOUBLE,
			is_hot BOOLEAN,
			confidence DOUBLE,
			FOREIGN KEY(batch_id) REFERENCES batches(batch_id)
		);
		CREATE TABLE IF NOT EXISTS events (
			event_id INTEGER PRIMARY KEY AUTOINCREMENT,
			at INTEGER,
			name TEXT,
			value TEXT
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create datalog schema: %w", err)
	}

	return &DB{db}, nil
}

// RecordBatch stores one received batch. A sentinel batch is stored with
// no target rows.
func (db *DB) RecordBatch(ctx context.Context, connID string, at time.Time, batch []target.Target) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	sentinel := target.IsSentinel(batch)
	res, err := tx.ExecContext(ctx,
		"INSERT INTO batches (conn_id, received_at, no_targets) VALUES (?, ?, ?)",
		connID, at.UnixNano(), sentinel)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("batch id: %w", err)
	}

	if !sentinel {
		for _, t := range batch {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO targets (batch_id, side, distance, angle, is_hot, confidence) VALUES (?, ?, ?, ?, ?, ?)",
				id, int(t.Side), t.Distance, t.Angle, t.IsHot, t.Confidence)
			if err != nil {
				return fmt.Errorf("insert target: %w", err)
			}
		}
	}

	return tx.Commit()
}

// RecordEvent stores a named value, such as a script starting or a
// parameter in effect.
func (db *DB) RecordEvent(ctx context.Context, at time.Time, name string, value any) error {
	_, err := db.ExecContext(ctx, "INSERT INTO events (at, name, value) VALUES (?, ?, ?)",
		at.UnixNano(), name, fmt.Sprint(value))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Batch is a stored batch with its targets.
type Batch struct {
	ID         int64
	ConnID     string
	ReceivedAt time.Time
	Targets    []target.Target
}

// RecentBatches returns up to limit batches, newest first.
func (db *DB) RecentBatches(ctx context.Context, limit int) ([]Batch, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT batch_id, conn_id, received_at, no_targets FROM batches ORDER BY batch_id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []Batch
	var sentinel []bool
	for rows.Next() {
		var b Batch
		var at int64
		var none bool
		if err := rows.Scan(&b.ID, &b.ConnID, &at, &none); err != nil {
			return nil, err
		}
		b.ReceivedAt = time.Unix(0, at)
		batches = append(batches, b)
		sentinel = append(sentinel, none)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range batches {
		if sentinel[i] {
			batches[i].Targets = []target.Target{target.NoTargets()}
			continue
		}
		targets, err := db.batchTargets(ctx, batches[i].ID)
		if err != nil {
			return nil, err
		}
		batches[i].Targets = targets
	}
	return batches, nil
}

func (db *DB) batchTargets(ctx context.Context, id int64) ([]target.Target, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT side, distance, angle, is_hot, confidence FROM targets WHERE batch_id = ? ORDER BY rowid", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []target.Target
	for rows.Next() {
		var t target.Target
		var side int
		if err := rows.Scan(&side, &t.Distance, &t.Angle, &t.IsHot, &t.Confidence); err != nil {
			return nil, err
		}
		t.Side = target.Side(side)
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// Event is a stored named value.
type Event struct {
	At    time.Time
	Name  string
	Value string
}

// Events returns up to limit events, newest first.
func (db *DB) Events(ctx context.Context, limit int) ([]Event, error) {
	rows, err := db.QueryContext(ctx, "SELECT at, name, value FROM events ORDER BY event_id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var at int64
		if err := rows.Scan(&at, &e.Name, &e.Value); err != nil {
			return nil, err
		}
		e.At = time.Unix(0, at)
		events = append(events, e)
	}
	return events, rows.Err()
}

// AttachAdminRoutes adds a database backup download under /debug/.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.Handle("datalog-backup", "Create and download a backup of the datalog now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dir, err := os.MkdirTemp("", "datalog-backup")
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := os.RemoveAll(dir); err != nil {
				monitoring.Logf("datalog: failed to remove backup dir: %v", err)
			}
		}()

		name := fmt.Sprintf("datalog-%d.db", time.Now().Unix())
		backupPath := filepath.Join(dir, name)
		if _, err := db.ExecContext(r.Context(), "VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}

		f, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := io.Copy(w, f); err != nil {
			monitoring.Logf("datalog: backup download: %v", err)
		}
	}))
}

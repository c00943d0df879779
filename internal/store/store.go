// Package store persists the run history of the scheduled mode. The
// checkpoint fed back into the classifier is the newest stored
// trigger time; the classifier itself never touches this package.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zvitops/updmon/internal/model"

	_ "modernc.org/sqlite"
)

// Run is one recorded classifier invocation.
type Run struct {
	UUID          string
	TriggerTime   time.Time
	Status        model.Status
	ErrorID       model.ErrorID
	TargetVersion string
	Reason        string
}

// RunRow is a Run read back with its rowid and insertion time.
type RunRow struct {
	Run
	ID        int
	CreatedAt time.Time
}

func (r RunRow) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("uuid: %q, status: %s, error_id: %s", r.UUID, r.Status, r.ErrorID))
	if !r.TriggerTime.IsZero() {
		sb.WriteString(", trigger_time: " + r.TriggerTime.Format(time.RFC3339))
	}
	if r.TargetVersion != "" {
		sb.WriteString(fmt.Sprintf(", target_version: %q", r.TargetVersion))
	}
	if r.Reason != "" {
		sb.WriteString(fmt.Sprintf(", reason: %q", r.Reason))
	}
	return sb.String()
}

func InitDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uuid TEXT NOT NULL UNIQUE,
			trigger_time TEXT DEFAULT NULL,
			status INTEGER NOT NULL,
			error_id INTEGER NOT NULL,
			target_version TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// RecordRun persists one outcome. The generated run uuid is returned
// so notifications can reference the stored record.
func RecordRun(ctx context.Context, db *sql.DB, outcome model.Outcome) (string, error) {
	id := uuid.NewString()
	var triggerTime sql.NullString
	if !outcome.TriggerTime.IsZero() {
		triggerTime = sql.NullString{String: outcome.TriggerTime.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO runs (uuid, trigger_time, status, error_id, target_version, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, triggerTime, int(outcome.Status), int(outcome.ErrorID),
		outcome.TargetVersion, outcome.Reason, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

// Checkpoint returns the newest stored trigger time, or
// model.ErrNotFound when no run with a trigger was recorded yet.
func Checkpoint(ctx context.Context, db *sql.DB) (time.Time, error) {
	var raw sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT MAX(trigger_time) FROM runs WHERE trigger_time IS NOT NULL`,
	).Scan(&raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("loading checkpoint: %w", err)
	}
	if !raw.Valid {
		return time.Time{}, model.ErrNotFound
	}
	t, err := time.Parse(time.RFC3339, raw.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored checkpoint %q: %w", raw.String, err)
	}
	return t, nil
}

// LastRuns returns up to n most recent runs, newest first.
func LastRuns(ctx context.Context, db *sql.DB, n int) ([]RunRow, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, uuid, trigger_time, status, error_id, target_version, reason, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []RunRow
	for rows.Next() {
		var row RunRow
		var status, errorID int
		var triggerTime sql.NullString
		var createdAt string
		err := rows.Scan(&row.ID, &row.UUID, &triggerTime, &status, &errorID,
			&row.TargetVersion, &row.Reason, &createdAt)
		if err != nil {
			return nil, err
		}
		row.Status = model.Status(status)
		row.ErrorID = model.ErrorID(errorID)
		if triggerTime.Valid {
			if t, err := time.Parse(time.RFC3339, triggerTime.String); err == nil {
				row.TriggerTime = t
			}
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			row.CreatedAt = t
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

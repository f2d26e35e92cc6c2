// Package db provides SQLite and PostgreSQL storage for weekly schedules.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/campus/internal/dateutil"
	"github.com/javiermolinar/campus/internal/schedule"
)

// SQLite implements schedule.Repository using SQLite.
type SQLite struct {
	db *sql.DB
}

// New creates a new SQLite repository and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection serializes transactions; SQLite allows one writer anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Load retrieves the stored week for key.
func (s *SQLite) Load(ctx context.Context, key schedule.WeekKey) (schedule.Snapshot, bool, error) {
	key = key.Normalized()
	query := `
		SELECT data, revision, updated_at
		FROM schedules
		WHERE classroom_id = ? AND week_start = ?
	`

	var data, revision, updatedAt string
	err := s.db.QueryRowContext(ctx, query, key.ClassroomID, key.Date()).Scan(&data, &revision, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Snapshot{Key: key}, false, nil
	}
	if err != nil {
		return schedule.Snapshot{}, false, fmt.Errorf("querying schedule %s: %w", key, err)
	}

	snap, err := decodeSnapshot(key, data, revision, updatedAt)
	if err != nil {
		return schedule.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Save upserts snap, replacing any previous week for snap.Key.
func (s *SQLite) Save(ctx context.Context, snap schedule.Snapshot) error {
	key := snap.Key.Normalized()
	data, err := json.Marshal(snap.Week)
	if err != nil {
		return fmt.Errorf("encoding schedule %s: %w", key, err)
	}

	query := `
		INSERT INTO schedules (classroom_id, week_start, data, revision, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (classroom_id, week_start) DO UPDATE SET
			data = excluded.data,
			revision = excluded.revision,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query,
		key.ClassroomID,
		key.Date(),
		string(data),
		snap.Revision,
		formatTime(snap.UpdatedAt),
	); err != nil {
		return fmt.Errorf("saving schedule %s: %w", key, err)
	}

	return nil
}

// SaveIfRevision stores snap only if the stored revision still equals expected.
// Returns schedule.ErrStaleRevision otherwise.
func (s *SQLite) SaveIfRevision(ctx context.Context, snap schedule.Snapshot, expected string) error {
	key := snap.Key.Normalized()
	data, err := json.Marshal(snap.Week)
	if err != nil {
		return fmt.Errorf("encoding schedule %s: %w", key, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT revision FROM schedules WHERE classroom_id = ? AND week_start = ?`,
		key.ClassroomID, key.Date(),
	).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reading revision of %s: %w", key, err)
	}
	if current != expected {
		return fmt.Errorf("%s: %w", key, schedule.ErrStaleRevision)
	}

	if expected == "" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO schedules (classroom_id, week_start, data, revision, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, key.ClassroomID, key.Date(), string(data), snap.Revision, formatTime(snap.UpdatedAt))
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE schedules SET data = ?, revision = ?, updated_at = ?
			WHERE classroom_id = ? AND week_start = ?
		`, string(data), snap.Revision, formatTime(snap.UpdatedAt), key.ClassroomID, key.Date())
	}
	if err != nil {
		return fmt.Errorf("saving schedule %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// ListWeeks returns the stored week keys of a classroom, oldest first.
func (s *SQLite) ListWeeks(ctx context.Context, classroomID string) ([]schedule.WeekKey, error) {
	query := `
		SELECT week_start
		FROM schedules
		WHERE classroom_id = ?
		ORDER BY week_start
	`

	rows, err := s.db.QueryContext(ctx, query, classroomID)
	if err != nil {
		return nil, fmt.Errorf("querying weeks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []schedule.WeekKey
	for rows.Next() {
		var weekStart string
		if err := rows.Scan(&weekStart); err != nil {
			return nil, fmt.Errorf("scanning week: %w", err)
		}
		start, err := parseDate(weekStart)
		if err != nil {
			return nil, fmt.Errorf("parsing week start: %w", err)
		}
		keys = append(keys, schedule.WeekKey{ClassroomID: classroomID, WeekStart: start})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating weeks: %w", err)
	}

	return keys, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func decodeSnapshot(key schedule.WeekKey, data, revision, updatedAt string) (schedule.Snapshot, error) {
	var week schedule.Week
	if err := json.Unmarshal([]byte(data), &week); err != nil {
		return schedule.Snapshot{}, fmt.Errorf("decoding schedule %s: %w", key, err)
	}

	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return schedule.Snapshot{}, fmt.Errorf("parsing updated_at of %s: %w", key, err)
	}

	return schedule.Snapshot{
		Key:       key,
		Week:      week,
		Revision:  revision,
		UpdatedAt: ts,
		Exists:    true,
	}, nil
}

// parseDate parses a stored week_start. Week starts are UTC calendar dates.
func parseDate(s string) (time.Time, error) {
	if len(s) > 10 && s[10] == 'T' {
		s = s[:10]
	}
	t, err := time.Parse(dateutil.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
	}
	return t, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

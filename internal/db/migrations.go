package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS schedules (
			classroom_id TEXT NOT NULL,
			week_start   TEXT NOT NULL,
			data         TEXT NOT NULL,
			revision     TEXT NOT NULL,
			updated_at   TEXT NOT NULL,
			PRIMARY KEY (classroom_id, week_start)
		);

		CREATE INDEX IF NOT EXISTS idx_schedules_week ON schedules(week_start);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating schedules table: %w", err)
	}

	return nil
}

package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/javiermolinar/campus/internal/schedule"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Open returns the repository for driver. For sqlite, dsn is a file path
// whose parent directory is created if needed.
func Open(driver, dsn string) (schedule.Repository, error) {
	switch driver {
	case DriverSQLite, "":
		if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		repo, err := New(dsn)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case DriverPostgres:
		repo, err := NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q (supported: %s, %s, %s)", driver, DriverSQLite, DriverPostgres, DriverMemory)
	}
}

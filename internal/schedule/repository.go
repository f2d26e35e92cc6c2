package schedule

import "context"

// Repository defines the storage interface for weekly schedules.
// Implementations store whole weeks; a Save replaces the previous week atomically.
type Repository interface {
	// Load returns the stored snapshot for key. found is false when no
	// schedule was ever saved for key.
	Load(ctx context.Context, key WeekKey) (snap Snapshot, found bool, err error)

	// Save stores snap, replacing any previous week for snap.Key.
	Save(ctx context.Context, snap Snapshot) error

	// SaveIfRevision stores snap only if the currently stored revision equals
	// expected ("" means nothing stored yet). Returns ErrStaleRevision otherwise.
	SaveIfRevision(ctx context.Context, snap Snapshot, expected string) error

	// ListWeeks returns the week keys stored for a classroom, oldest first.
	ListWeeks(ctx context.Context, classroomID string) ([]WeekKey, error)

	// Close releases any resources held by the repository.
	Close() error
}

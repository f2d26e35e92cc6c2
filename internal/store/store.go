// Package store owns the authoritative weekly schedules. Every mutation goes
// through Replace, which validates the candidate before committing it.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/javiermolinar/campus/internal/schedule"
)

// Store is the single validated write gate for schedules.
type Store struct {
	repo      schedule.Repository
	validator *schedule.Validator
	logger    *slog.Logger

	now         func() time.Time
	newRevision func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRevisionFunc overrides revision token generation.
func WithRevisionFunc(fn func() string) Option {
	return func(s *Store) { s.newRevision = fn }
}

// New creates a Store over repo.
func New(repo schedule.Repository, v *schedule.Validator, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		repo:        repo,
		validator:   v,
		logger:      logger,
		now:         time.Now,
		newRevision: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validator returns the validator used by Replace.
func (s *Store) Validator() *schedule.Validator {
	return s.validator
}

// Get returns the current snapshot for key. When nothing was ever stored it
// returns an empty week with Exists set to false.
func (s *Store) Get(ctx context.Context, key schedule.WeekKey) (schedule.Snapshot, error) {
	if err := checkKey(key); err != nil {
		return schedule.Snapshot{}, err
	}
	key = key.Normalized()

	snap, found, err := s.repo.Load(ctx, key)
	if err != nil {
		return schedule.Snapshot{}, fmt.Errorf("loading %s: %w", key, err)
	}
	if !found {
		return schedule.Snapshot{Key: key, Week: schedule.EmptyWeek()}, nil
	}

	snap.Key = key
	snap.Week = snap.Week.Normalize()
	return snap, nil
}

// Replace validates candidate and, if valid, atomically swaps it in for key.
// On a validation failure the store is unchanged and a *schedule.ValidationError
// is returned.
func (s *Store) Replace(ctx context.Context, key schedule.WeekKey, candidate schedule.Week) (schedule.Snapshot, error) {
	return s.commit(ctx, key, candidate, nil)
}

// ReplaceIfRevision is Replace guarded by an optimistic-concurrency token.
// expected must be the Revision of the snapshot the candidate was derived
// from ("" for a week that did not exist). A mismatch returns
// schedule.ErrStaleRevision and leaves the store unchanged.
func (s *Store) ReplaceIfRevision(ctx context.Context, key schedule.WeekKey, candidate schedule.Week, expected string) (schedule.Snapshot, error) {
	return s.commit(ctx, key, candidate, &expected)
}

// Clear replaces the week for key with an empty week. Clearing twice yields
// the same result as clearing once.
func (s *Store) Clear(ctx context.Context, key schedule.WeekKey) (schedule.Snapshot, error) {
	return s.Replace(ctx, key, schedule.EmptyWeek())
}

// Validate runs the store's validation on candidate without committing.
func (s *Store) Validate(candidate schedule.Week) schedule.ValidationResult {
	return s.validator.Validate(candidate.Normalize())
}

// Refresh drops any cached copy of key and reloads it from storage.
func (s *Store) Refresh(ctx context.Context, key schedule.WeekKey) (schedule.Snapshot, error) {
	if inv, ok := s.repo.(invalidator); ok {
		if err := inv.Invalidate(ctx, key.Normalized()); err != nil {
			s.logger.Warn("cache invalidation failed", "key", key.String(), "error", err)
		}
	}
	return s.Get(ctx, key)
}

// ListWeeks returns the weeks stored for a classroom, oldest first.
func (s *Store) ListWeeks(ctx context.Context, classroomID string) ([]schedule.WeekKey, error) {
	if classroomID == "" {
		return nil, schedule.ErrEmptyClassroom
	}
	return s.repo.ListWeeks(ctx, classroomID)
}

// Close releases the underlying repository.
func (s *Store) Close() error {
	return s.repo.Close()
}

type invalidator interface {
	Invalidate(ctx context.Context, key schedule.WeekKey) error
}

func (s *Store) commit(ctx context.Context, key schedule.WeekKey, candidate schedule.Week, expected *string) (schedule.Snapshot, error) {
	if err := checkKey(key); err != nil {
		return schedule.Snapshot{}, err
	}
	key = key.Normalized()

	week := candidate.Normalize()
	if result := s.validator.Validate(week); !result.Valid {
		s.logger.Debug("rejected schedule",
			"key", key.String(),
			"violations", len(result.Violations),
		)
		return schedule.Snapshot{}, result.Err()
	}

	snap := schedule.Snapshot{
		Key:       key,
		Week:      week,
		Revision:  s.newRevision(),
		UpdatedAt: s.now().UTC(),
		Exists:    true,
	}

	var err error
	if expected != nil {
		err = s.repo.SaveIfRevision(ctx, snap, *expected)
	} else {
		err = s.repo.Save(ctx, snap)
	}
	if err != nil {
		if errors.Is(err, schedule.ErrStaleRevision) {
			return schedule.Snapshot{}, err
		}
		return schedule.Snapshot{}, fmt.Errorf("saving %s: %w", key, err)
	}

	s.logger.Info("schedule saved",
		"key", key.String(),
		"revision", snap.Revision,
		"entries", week.Len(),
	)

	snap.Week = week.Clone()
	return snap, nil
}

func checkKey(key schedule.WeekKey) error {
	if key.ClassroomID == "" {
		return schedule.ErrEmptyClassroom
	}
	if key.WeekStart.IsZero() {
		return schedule.ErrNoWeekStart
	}
	return nil
}

// Package weekops implements bulk operations over whole weeks: copying a
// week or a day and clearing a week.
package weekops

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/store"
)

// Operator runs copy and clear operations for a single classroom at a time.
type Operator struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates an Operator.
func New(s *store.Store, logger *slog.Logger) *Operator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Operator{store: s, logger: logger}
}

// CopyWeek overwrites the week containing to with the week containing from.
// Both weeks belong to classroomID. Copying a week onto itself returns the
// current snapshot without writing.
func (o *Operator) CopyWeek(ctx context.Context, classroomID string, from, to time.Time) (schedule.Snapshot, error) {
	src, err := schedule.NewWeekKey(classroomID, from)
	if err != nil {
		return schedule.Snapshot{}, err
	}
	dst, err := schedule.NewWeekKey(classroomID, to)
	if err != nil {
		return schedule.Snapshot{}, err
	}

	source, err := o.store.Get(ctx, src)
	if err != nil {
		return schedule.Snapshot{}, fmt.Errorf("reading source week: %w", err)
	}
	if src.Equal(dst) {
		return source, nil
	}

	snap, err := o.store.Replace(ctx, dst, source.Week.Clone())
	if err != nil {
		return schedule.Snapshot{}, fmt.Errorf("writing %s: %w", dst, err)
	}

	o.logger.Info("week copied", "from", src.String(), "to", dst.String(), "entries", snap.Week.Len())
	return snap, nil
}

// ClearWeek empties the week for key.
func (o *Operator) ClearWeek(ctx context.Context, key schedule.WeekKey) (schedule.Snapshot, error) {
	return o.store.Clear(ctx, key)
}

// CopyDay overwrites toDay with the entries of fromDay in the same week.
func (o *Operator) CopyDay(ctx context.Context, key schedule.WeekKey, fromDay, toDay string) (schedule.Snapshot, error) {
	c := o.store.Validator().Catalog()
	for _, d := range []string{fromDay, toDay} {
		if !c.IsValidDay(d) {
			return schedule.Snapshot{}, schedule.ValidationResult{Violations: []schedule.Violation{{
				Day:     d,
				Rule:    schedule.RuleUnknownDay,
				Message: fmt.Sprintf("'%s' is not a weekday name", d),
			}}}.Err()
		}
	}

	snap, err := o.store.Get(ctx, key)
	if err != nil {
		return schedule.Snapshot{}, err
	}
	if fromDay == toDay {
		return snap, nil
	}

	week := snap.Week.Clone()
	copied := make([]schedule.Entry, 0, len(week[fromDay]))
	for _, e := range week[fromDay] {
		e.Day = toDay
		copied = append(copied, e)
	}
	week[toDay] = copied

	return o.store.Replace(ctx, key, week)
}

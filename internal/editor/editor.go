// Package editor implements single-entry edits on top of the schedule store.
package editor

import (
	"context"
	"fmt"

	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/store"
)

// Editor performs read-modify-write edits of one entry at a time. Each edit
// reads the current snapshot and commits through store.Replace, so the last
// writer wins for concurrent edits of the same week.
type Editor struct {
	store *store.Store
}

// New creates an Editor.
func New(s *store.Store) *Editor {
	return &Editor{store: s}
}

// AddOrUpdate puts entry at (entry.Day, entry.TimeSlot). An entry already in
// that slot is replaced; otherwise entry is appended.
func (e *Editor) AddOrUpdate(ctx context.Context, key schedule.WeekKey, entry schedule.Entry) (schedule.Snapshot, error) {
	if err := e.checkDay(entry.Day); err != nil {
		return schedule.Snapshot{}, err
	}

	snap, err := e.store.Get(ctx, key)
	if err != nil {
		return schedule.Snapshot{}, err
	}

	week := snap.Week.Clone()
	week[entry.Day] = upsert(week[entry.Day], entry)
	return e.store.Replace(ctx, key, week)
}

// Remove deletes the entry at (day, slot). Removing an empty slot is not an
// error; the unchanged week is still committed.
func (e *Editor) Remove(ctx context.Context, key schedule.WeekKey, day, slot string) (schedule.Snapshot, error) {
	if err := e.checkDay(day); err != nil {
		return schedule.Snapshot{}, err
	}

	snap, err := e.store.Get(ctx, key)
	if err != nil {
		return schedule.Snapshot{}, err
	}

	week := snap.Week.Clone()
	week[day] = without(week[day], slot)
	return e.store.Replace(ctx, key, week)
}

// Move relocates the entry at (fromDay, fromSlot) to (toDay, toSlot),
// replacing whatever occupies the target. Returns schedule.ErrEntryNotFound
// when the source slot is empty.
func (e *Editor) Move(ctx context.Context, key schedule.WeekKey, fromDay, fromSlot, toDay, toSlot string) (schedule.Snapshot, error) {
	for _, d := range []string{fromDay, toDay} {
		if err := e.checkDay(d); err != nil {
			return schedule.Snapshot{}, err
		}
	}

	snap, err := e.store.Get(ctx, key)
	if err != nil {
		return schedule.Snapshot{}, err
	}

	entry, ok := snap.Week.Find(fromDay, fromSlot)
	if !ok {
		return schedule.Snapshot{}, fmt.Errorf("%s %s: %w", fromDay, fromSlot, schedule.ErrEntryNotFound)
	}
	if fromDay == toDay && fromSlot == toSlot {
		return snap, nil
	}

	week := snap.Week.Clone()
	week[fromDay] = without(week[fromDay], fromSlot)
	entry.Day = toDay
	entry.TimeSlot = toSlot
	week[toDay] = upsert(week[toDay], entry)
	return e.store.Replace(ctx, key, week)
}

// checkDay rejects a non-catalog day before touching the store.
func (e *Editor) checkDay(day string) error {
	if e.store.Validator().Catalog().IsValidDay(day) {
		return nil
	}
	return schedule.ValidationResult{Violations: []schedule.Violation{{
		Day:     day,
		Rule:    schedule.RuleUnknownDay,
		Message: fmt.Sprintf("'%s' is not a weekday name", day),
	}}}.Err()
}

func upsert(entries []schedule.Entry, entry schedule.Entry) []schedule.Entry {
	for i, existing := range entries {
		if existing.TimeSlot == entry.TimeSlot {
			entries[i] = entry
			return entries
		}
	}
	return append(entries, entry)
}

func without(entries []schedule.Entry, slot string) []schedule.Entry {
	out := entries[:0]
	for _, existing := range entries {
		if existing.TimeSlot != slot {
			out = append(out, existing)
		}
	}
	return out
}

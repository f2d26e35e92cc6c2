package editor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/db"
	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/store"
)

func newTestEditor(t *testing.T) (*Editor, *store.Store, schedule.WeekKey) {
	t.Helper()

	s := store.New(db.NewMemory(), schedule.NewValidator(catalog.Default()), slog.New(slog.NewTextHandler(io.Discard, nil)))
	key, err := schedule.NewWeekKey("room-1", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewWeekKey: %v", err)
	}
	return New(s), s, key
}

func TestAddOrUpdate_ReplaceOnConflict(t *testing.T) {
	ed, s, key := newTestEditor(t)
	ctx := context.Background()

	first := schedule.Entry{Day: "Monday", TimeSlot: "10:00-11:00", Type: schedule.TypeClass, Subject: "Biology"}
	second := schedule.Entry{Day: "Monday", TimeSlot: "10:00-11:00", Type: schedule.TypeClass, Subject: "Chemistry"}

	if _, err := ed.AddOrUpdate(ctx, key, first); err != nil {
		t.Fatalf("first AddOrUpdate failed: %v", err)
	}
	if _, err := ed.AddOrUpdate(ctx, key, second); err != nil {
		t.Fatalf("second AddOrUpdate failed: %v", err)
	}

	snap, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if n := len(snap.Week["Monday"]); n != 1 {
		t.Fatalf("Monday has %d entries, want 1", n)
	}
	if got := snap.Week["Monday"][0].Subject; got != "Chemistry" {
		t.Errorf("subject = %q, want Chemistry", got)
	}
}

func TestAddOrUpdate_Appends(t *testing.T) {
	ed, _, key := newTestEditor(t)
	ctx := context.Background()

	entries := []schedule.Entry{
		{Day: "Tuesday", TimeSlot: "08:00-09:00", Type: schedule.TypeClass, Subject: "Math"},
		{Day: "Tuesday", TimeSlot: "09:00-10:00", Type: schedule.TypeBreak},
		{Day: "Friday", TimeSlot: "12:00-13:00", Type: schedule.TypeLunch},
	}

	var snap schedule.Snapshot
	for _, e := range entries {
		var err error
		snap, err = ed.AddOrUpdate(ctx, key, e)
		if err != nil {
			t.Fatalf("AddOrUpdate(%+v) failed: %v", e, err)
		}
	}

	if snap.Week.Len() != 3 || len(snap.Week["Tuesday"]) != 2 {
		t.Errorf("week = %v", snap.Week)
	}
}

func TestAddOrUpdate_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		entry    schedule.Entry
		wantRule schedule.Rule
	}{
		{
			name:     "unknown day",
			entry:    schedule.Entry{Day: "Someday", TimeSlot: "08:00-09:00", Type: schedule.TypeBreak},
			wantRule: schedule.RuleUnknownDay,
		},
		{
			name:     "unknown slot",
			entry:    schedule.Entry{Day: "Monday", TimeSlot: "07:00-08:00", Type: schedule.TypeBreak},
			wantRule: schedule.RuleUnknownSlot,
		},
		{
			name:     "class without subject",
			entry:    schedule.Entry{Day: "Monday", TimeSlot: "08:00-09:00", Type: schedule.TypeClass},
			wantRule: schedule.RuleMissingSubject,
		},
		{
			name:     "unknown type",
			entry:    schedule.Entry{Day: "Monday", TimeSlot: "08:00-09:00", Type: "assembly"},
			wantRule: schedule.RuleUnknownType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed, s, key := newTestEditor(t)
			ctx := context.Background()

			_, err := ed.AddOrUpdate(ctx, key, tt.entry)
			var verr *schedule.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if !verr.Has(tt.wantRule) {
				t.Errorf("violations = %v, want %s", verr.Violations, tt.wantRule)
			}

			snap, _ := s.Get(ctx, key)
			if snap.Exists {
				t.Error("rejected edit created the week")
			}
		})
	}
}

func TestRemove(t *testing.T) {
	ed, _, key := newTestEditor(t)
	ctx := context.Background()

	if _, err := ed.AddOrUpdate(ctx, key, schedule.Entry{Day: "Monday", TimeSlot: "08:00-09:00", Type: schedule.TypeClass, Subject: "Math"}); err != nil {
		t.Fatalf("AddOrUpdate failed: %v", err)
	}
	if _, err := ed.AddOrUpdate(ctx, key, schedule.Entry{Day: "Monday", TimeSlot: "09:00-10:00", Type: schedule.TypeBreak}); err != nil {
		t.Fatalf("AddOrUpdate failed: %v", err)
	}

	snap, err := ed.Remove(ctx, key, "Monday", "08:00-09:00")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok := snap.Week.Find("Monday", "08:00-09:00"); ok {
		t.Error("entry still present after Remove")
	}
	if _, ok := snap.Week.Find("Monday", "09:00-10:00"); !ok {
		t.Error("Remove deleted the wrong entry")
	}
}

func TestRemove_AbsentIsNoop(t *testing.T) {
	ed, _, key := newTestEditor(t)
	ctx := context.Background()

	snap, err := ed.Remove(ctx, key, "Thursday", "15:00-16:00")
	if err != nil {
		t.Fatalf("Remove on empty slot failed: %v", err)
	}
	if !snap.Week.IsEmpty() {
		t.Errorf("week = %v, want empty", snap.Week)
	}
}

func TestMove(t *testing.T) {
	ed, _, key := newTestEditor(t)
	ctx := context.Background()

	math := schedule.Entry{Day: "Monday", TimeSlot: "08:00-09:00", Type: schedule.TypeClass, Subject: "Math", Room: "A101"}
	if _, err := ed.AddOrUpdate(ctx, key, math); err != nil {
		t.Fatalf("AddOrUpdate failed: %v", err)
	}
	if _, err := ed.AddOrUpdate(ctx, key, schedule.Entry{Day: "Wednesday", TimeSlot: "11:00-12:00", Type: schedule.TypeBreak}); err != nil {
		t.Fatalf("AddOrUpdate failed: %v", err)
	}

	snap, err := ed.Move(ctx, key, "Monday", "08:00-09:00", "Wednesday", "11:00-12:00")
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	if len(snap.Week["Monday"]) != 0 {
		t.Errorf("Monday = %v, want empty", snap.Week["Monday"])
	}
	got, ok := snap.Week.Find("Wednesday", "11:00-12:00")
	if !ok || got.Subject != "Math" || got.Room != "A101" || got.Day != "Wednesday" {
		t.Errorf("moved entry = %+v (found %v)", got, ok)
	}
	if len(snap.Week["Wednesday"]) != 1 {
		t.Errorf("Wednesday has %d entries, want 1", len(snap.Week["Wednesday"]))
	}
}

func TestMove_MissingSource(t *testing.T) {
	ed, _, key := newTestEditor(t)

	_, err := ed.Move(context.Background(), key, "Monday", "08:00-09:00", "Tuesday", "08:00-09:00")
	if !errors.Is(err, schedule.ErrEntryNotFound) {
		t.Errorf("error = %v, want ErrEntryNotFound", err)
	}
}

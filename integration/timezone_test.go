package integration

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/db"
	"github.com/javiermolinar/campus/internal/engine"
	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/store"
)

func TestResolveKey_UsesConfiguredTimezone(t *testing.T) {
	// Sunday 20:00 UTC is already Monday morning at UTC+12.
	instant := time.Date(2025, 3, 16, 20, 0, 0, 0, time.UTC)
	plus12 := time.FixedZone("UTC+12", 12*3600)

	tests := []struct {
		name string
		loc  *time.Location
		want string
	}{
		{"utc", time.UTC, "2025-03-10"},
		{"utc+12", plus12, "2025-03-17"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			s := store.New(db.NewMemory(), schedule.NewValidator(catalog.Default()), logger)
			e := engine.New(s, logger,
				engine.WithLocation(tc.loc),
				engine.WithClock(func() time.Time { return instant }),
			)

			key, err := e.ResolveKey("7a", "this")
			if err != nil {
				t.Fatalf("ResolveKey failed: %v", err)
			}
			if key.Date() != tc.want {
				t.Errorf("this week = %s, want %s", key.Date(), tc.want)
			}
		})
	}
}

func TestWeekKey_SameWeekAcrossZones(t *testing.T) {
	e, _ := openEngine(t, nil)
	ctx := context.Background()

	// The same calendar Wednesday expressed in two zones addresses one week.
	tokyo := time.Date(2025, 4, 16, 23, 30, 0, 0, time.FixedZone("JST", 9*3600))
	lima := time.Date(2025, 4, 16, 1, 0, 0, 0, time.FixedZone("PET", -5*3600))

	a, err := e.Key("7a", tokyo)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	b, err := e.Key("7a", lima)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	if !a.Equal(b) {
		t.Fatalf("keys differ: %s vs %s", a, b)
	}

	if _, err := e.AddOrUpdate(ctx, a, schedule.Entry{Day: "Thursday", TimeSlot: "11:00-12:00", Type: "break"}); err != nil {
		t.Fatalf("AddOrUpdate failed: %v", err)
	}
	got, err := e.Get(ctx, b)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Week.Len() != 1 {
		t.Errorf("entries seen through the other key = %d, want 1", got.Week.Len())
	}
}

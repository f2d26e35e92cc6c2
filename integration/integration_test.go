package integration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/javiermolinar/campus/internal/aimerge"
	"github.com/javiermolinar/campus/internal/config"
	"github.com/javiermolinar/campus/internal/engine"
	"github.com/javiermolinar/campus/internal/llm"
	"github.com/javiermolinar/campus/internal/schedule"
)

// scriptedClient replies with the next canned response on each call.
type scriptedClient struct {
	mu      sync.Mutex
	replies []string
}

func (c *scriptedClient) Chat(context.Context, []llm.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.replies) == 0 {
		return "", errors.New("no more replies")
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return r, nil
}

// openEngine opens an engine over a fresh sqlite file with automatic cleanup.
func openEngine(t *testing.T, client llm.Client) (*engine.Engine, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "campus.db")
	return reopen(t, dbPath, client), dbPath
}

func reopen(t *testing.T, dbPath string, client llm.Client) *engine.Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DBPath = dbPath
	cfg.Classrooms = []config.ClassroomConfig{
		{ID: "7a", Title: "Year 7A", Subject: "Science"},
		{ID: "8b", Title: "Year 8B", Subject: "History"},
	}

	var opts []engine.Option
	if client != nil {
		opts = append(opts, engine.WithClient(client))
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := engine.Open(context.Background(), cfg, logger, opts...)
	if err != nil {
		t.Fatalf("failed to open engine: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// mustKey builds a week key or fails the test.
func mustKey(t *testing.T, classroomID, date string) schedule.WeekKey {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", date, err)
	}
	key, err := schedule.NewWeekKey(classroomID, d)
	if err != nil {
		t.Fatalf("failed to build key: %v", err)
	}
	return key
}

func TestFullWorkflow(t *testing.T) {
	client := &scriptedClient{replies: []string{
		// Keeps Monday, adds Wednesday.
		"```json\n" + `{
		  "Monday": [
		    {"timeSlot": "08:00-09:00", "type": "class", "subject": "Physics", "room": "Lab 1"},
		    {"timeSlot": "12:00-13:00", "type": "lunch"}
		  ],
		  "Wednesday": [{"timeSlot": "10:00-11:00", "type": "class", "subject": "Chemistry", "room": "Lab 2"}]
		}` + "\n```",
		// Invalid: two entries in one slot.
		`{"Monday": [
		    {"timeSlot": "08:00-09:00", "type": "class", "subject": "Physics"},
		    {"timeSlot": "08:00-09:00", "type": "class", "subject": "Biology"}
		]}`,
	}}
	e, dbPath := openEngine(t, client)
	ctx := context.Background()
	key := mustKey(t, "7a", "2025-01-22")

	// Manual edits.
	if _, err := e.AddOrUpdate(ctx, key, schedule.Entry{Day: "Monday", TimeSlot: "08:00-09:00", Type: "class", Subject: "Physics", Room: "Lab 1"}); err != nil {
		t.Fatalf("AddOrUpdate failed: %v", err)
	}
	if _, err := e.AddOrUpdate(ctx, key, schedule.Entry{Day: "Monday", TimeSlot: "12:00-13:00", Type: "lunch"}); err != nil {
		t.Fatalf("AddOrUpdate failed: %v", err)
	}

	// Accepted generation.
	p, err := e.GenerateAndMerge(ctx, key, "Add Chemistry on Wednesday at 10 in Lab 2", "7a", "teacher-1")
	if err != nil {
		t.Fatalf("GenerateAndMerge failed: %v", err)
	}
	if len(p.Diff) != 1 || p.Diff[0].Kind != aimerge.ChangeAdded {
		t.Errorf("Diff = %v, want one addition", p.Diff)
	}

	// Rejected generation leaves the stored week alone.
	before, _ := e.Get(ctx, key)
	if _, err := e.GenerateAndMerge(ctx, key, "Add Biology on Monday at 8", "7a", "teacher-1"); !errors.Is(err, schedule.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	after, _ := e.Get(ctx, key)
	if after.Revision != before.Revision {
		t.Error("rejected generation changed the stored week")
	}

	// Copy to next week and clear the original.
	next := mustKey(t, "7a", "2025-01-27")
	if _, err := e.CopyWeek(ctx, "7a", key.WeekStart, next.WeekStart); err != nil {
		t.Fatalf("CopyWeek failed: %v", err)
	}
	if _, err := e.Clear(ctx, key); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	// Everything survives a restart.
	_ = e.Close()
	restarted := reopen(t, dbPath, nil)

	cleared, err := restarted.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !cleared.Exists || !cleared.Week.IsEmpty() {
		t.Errorf("original week = %+v, want stored and empty", cleared)
	}

	copied, err := restarted.Get(ctx, next)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if copied.Week.Len() != 3 {
		t.Errorf("copied week has %d entries, want 3", copied.Week.Len())
	}
	if e, ok := copied.Week.Find("Wednesday", "10:00-11:00"); !ok || e.Room != "Lab 2" {
		t.Errorf("Wednesday 10:00 = %+v, %v", e, ok)
	}

	weeks, err := restarted.ListWeeks(ctx, "7a")
	if err != nil {
		t.Fatalf("ListWeeks failed: %v", err)
	}
	if len(weeks) != 2 || weeks[0].Date() != "2025-01-20" || weeks[1].Date() != "2025-01-27" {
		t.Errorf("ListWeeks = %v", weeks)
	}
}

func TestClassroomsAreIsolated(t *testing.T) {
	e, _ := openEngine(t, nil)
	ctx := context.Background()
	a := mustKey(t, "7a", "2025-02-03")
	b := mustKey(t, "8b", "2025-02-03")

	if _, err := e.AddOrUpdate(ctx, a, schedule.Entry{Day: "Friday", TimeSlot: "15:00-16:00", Type: "class", Subject: "Music"}); err != nil {
		t.Fatalf("AddOrUpdate failed: %v", err)
	}

	other, err := e.Get(ctx, b)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if other.Exists || !other.Week.IsEmpty() {
		t.Errorf("8b sees 7a's schedule: %+v", other)
	}
}

func TestLastWriteWins(t *testing.T) {
	e, _ := openEngine(t, nil)
	ctx := context.Background()
	key := mustKey(t, "7a", "2025-03-03")

	var wg sync.WaitGroup
	subjects := []string{"Art", "Drama", "Music", "Dance"}
	for _, s := range subjects {
		wg.Add(1)
		go func(subject string) {
			defer wg.Done()
			w := schedule.EmptyWeek()
			w["Tuesday"] = []schedule.Entry{{TimeSlot: "09:00-10:00", Type: "class", Subject: subject}}
			if _, err := e.Replace(ctx, key, w); err != nil {
				t.Errorf("Replace(%s) failed: %v", subject, err)
			}
		}(s)
	}
	wg.Wait()

	got, err := e.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	entries := got.Week["Tuesday"]
	if len(entries) != 1 {
		t.Fatalf("Tuesday has %d entries, want exactly one winner", len(entries))
	}
	found := false
	for _, s := range subjects {
		if entries[0].Subject == s {
			found = true
		}
	}
	if !found {
		t.Errorf("winner %q is not one of the writers", entries[0].Subject)
	}
}

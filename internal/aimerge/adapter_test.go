package aimerge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/classroom"
	"github.com/javiermolinar/campus/internal/db"
	"github.com/javiermolinar/campus/internal/llm"
	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/store"
)

var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

// stubClient returns a canned reply or error. With block set it waits for
// the context to end.
type stubClient struct {
	reply string
	err   error
	block bool

	calls int
	last  []llm.Message

	// onChat runs before the reply is returned.
	onChat func()
}

func (s *stubClient) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	s.calls++
	s.last = messages
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.onChat != nil {
		s.onChat()
	}
	return s.reply, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAdapter(t *testing.T, client llm.Client, opts Options) (*Adapter, *store.Store) {
	t.Helper()
	s := store.New(db.NewMemory(), schedule.NewValidator(catalog.Default()), quietLogger())
	t.Cleanup(func() { _ = s.Close() })
	return New(client, s, opts, quietLogger()), s
}

func testKey(t *testing.T) schedule.WeekKey {
	t.Helper()
	key, err := schedule.NewWeekKey("room-1", monday)
	if err != nil {
		t.Fatalf("NewWeekKey: %v", err)
	}
	return key
}

func seed(t *testing.T, s *store.Store, key schedule.WeekKey) schedule.Snapshot {
	t.Helper()
	w := schedule.EmptyWeek()
	w["Monday"] = []schedule.Entry{
		{TimeSlot: "08:00-09:00", Type: schedule.TypeClass, Subject: "History", Room: "B2"},
	}
	w["Tuesday"] = []schedule.Entry{
		{TimeSlot: "10:00-11:00", Type: schedule.TypeClass, Subject: "Art"},
		{TimeSlot: "12:00-13:00", Type: schedule.TypeLunch},
	}
	snap, err := s.Replace(context.Background(), key, w)
	if err != nil {
		t.Fatalf("seed Replace: %v", err)
	}
	return snap
}

func request(key schedule.WeekKey, instruction string) Request {
	return Request{
		Key:         key,
		Instruction: instruction,
		Classroom:   classroom.Classroom{ID: key.ClassroomID, Title: "Year 7", Subject: "Science"},
		TeacherID:   "t-1",
	}
}

func TestMerge_PreservesUnmentionedDays(t *testing.T) {
	client := &stubClient{reply: `{
	  "Monday": [{"timeSlot": "08:00-09:00", "type": "class", "subject": "History", "room": "B2", "notes": ""}],
	  "Tuesday": [
	    {"timeSlot": "10:00-11:00", "type": "class", "subject": "Art", "room": "", "notes": ""},
	    {"timeSlot": "12:00-13:00", "type": "lunch", "subject": "", "room": "", "notes": ""}
	  ],
	  "Wednesday": [{"timeSlot": "09:00-10:00", "type": "class", "subject": "Biology", "room": "Lab", "notes": ""}],
	  "Thursday": [], "Friday": [], "Saturday": [], "Sunday": []
	}`}
	a, s := newTestAdapter(t, client, Options{PreserveCheck: true})
	key := testKey(t)
	before := seed(t, s, key)

	p, err := a.Merge(context.Background(), request(key, "Add Biology on Wednesday at 9 in the Lab"))
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !p.Accepted() || p.Committed == nil {
		t.Fatalf("Outcome = %s, Committed = %v", p.Outcome, p.Committed)
	}
	if len(p.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", p.Warnings)
	}

	got, err := s.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	for _, day := range []string{"Monday", "Tuesday"} {
		if len(got.Week[day]) != len(before.Week[day]) {
			t.Errorf("%s has %d entries, want %d", day, len(got.Week[day]), len(before.Week[day]))
		}
		for _, e := range before.Week[day] {
			if g, ok := got.Week.Find(day, e.TimeSlot); !ok || g != e {
				t.Errorf("%s %s = %+v, want %+v", day, e.TimeSlot, g, e)
			}
		}
	}
	if e, ok := got.Week.Find("Wednesday", "09:00-10:00"); !ok || e.Subject != "Biology" {
		t.Errorf("Wednesday 09:00-10:00 = %+v, %v", e, ok)
	}
	if len(p.Diff) != 1 || p.Diff[0].Kind != ChangeAdded {
		t.Errorf("Diff = %v, want one addition", p.Diff)
	}
}

func TestMerge_SingleClass(t *testing.T) {
	client := &stubClient{reply: "```json\n" +
		`{"Monday": [{"timeSlot": "09:00-10:00", "type": "class", "subject": "Mathematics", "room": "A101", "notes": ""}]}` +
		"\n```"}
	a, s := newTestAdapter(t, client, Options{})
	key := testKey(t)

	p, err := a.Merge(context.Background(), request(key, "Add Mathematics on Monday from 9 to 10 in room A101"))
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	got, _ := s.Get(context.Background(), key)
	want := schedule.Entry{Day: "Monday", TimeSlot: "09:00-10:00", Type: "class", Subject: "Mathematics", Room: "A101"}
	if e, ok := got.Week.Find("Monday", "09:00-10:00"); !ok || e != want {
		t.Errorf("stored entry = %+v, want %+v", e, want)
	}
	if got.Week.Len() != 1 {
		t.Errorf("stored %d entries, want 1", got.Week.Len())
	}
	if len(got.Week) != 7 {
		t.Errorf("stored week has %d days, want 7", len(got.Week))
	}
	if p.Committed.Revision != got.Revision {
		t.Errorf("Committed.Revision = %q, stored %q", p.Committed.Revision, got.Revision)
	}
}

func TestMerge_DuplicateSlotFailsClosed(t *testing.T) {
	client := &stubClient{reply: `{
	  "Monday": [
	    {"timeSlot": "08:00-09:00", "type": "class", "subject": "History"},
	    {"timeSlot": "08:00-09:00", "type": "class", "subject": "Geography"}
	  ]
	}`}
	a, s := newTestAdapter(t, client, Options{})
	key := testKey(t)
	before := seed(t, s, key)

	p, err := a.Merge(context.Background(), request(key, "Add Geography on Monday at 8"))
	if !errors.Is(err, schedule.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	var verr *schedule.ValidationError
	if !errors.As(err, &verr) || !verr.Has(schedule.RuleDuplicateSlot) {
		t.Errorf("err = %v, want duplicate slot violation", err)
	}
	if p.Outcome != OutcomeRejected {
		t.Errorf("Outcome = %s, want rejected", p.Outcome)
	}
	if !p.Candidate.Equal(before.Week) {
		t.Error("rejected proposal should fall back to the current week")
	}

	after, _ := s.Get(context.Background(), key)
	if after.Revision != before.Revision || !after.Week.Equal(before.Week) {
		t.Error("store changed after a rejected merge")
	}
}

func TestMerge_EmptyClassSubjectRejected(t *testing.T) {
	client := &stubClient{reply: `{"Friday": [{"timeSlot": "14:00-15:00", "type": "class", "subject": "  "}]}`}
	a, s := newTestAdapter(t, client, Options{})
	key := testKey(t)
	before := seed(t, s, key)

	_, err := a.Merge(context.Background(), request(key, "Add a class on Friday at 2"))
	var verr *schedule.ValidationError
	if !errors.As(err, &verr) || !verr.Has(schedule.RuleMissingSubject) {
		t.Fatalf("err = %v, want missing subject violation", err)
	}
	after, _ := s.Get(context.Background(), key)
	if after.Revision != before.Revision {
		t.Error("store changed after a rejected merge")
	}
}

func TestMerge_FiltersInvalidEntries(t *testing.T) {
	client := &stubClient{reply: `Here is the timetable:
	{
	  "monday": [
	    {"timeSlot": "09:00-10:00", "type": "class", "subject": "Chemistry"},
	    {"timeSlot": "23:00-24:00", "type": "class", "subject": "Astronomy"},
	    {"timeSlot": "10:00-11:00", "type": "assembly"},
	    {"type": "break"},
	    "not an entry"
	  ],
	  "TUESDAY": [{"timeSlot": "11:00", "type": "Break", "subject": "ignored"}],
	  "Wednesday": "none",
	  "Holiday": []
	}`}
	a, s := newTestAdapter(t, client, Options{})
	key := testKey(t)

	p, err := a.Merge(context.Background(), request(key, "Plan Monday and Tuesday"))
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if len(p.Dropped) != 4 {
		t.Errorf("Dropped = %v, want 4 entries", p.Dropped)
	}
	wantReasons := map[string]bool{"unknown timeSlot": true, "unknown type": true, "missing timeSlot": true, "not an object": true}
	for _, d := range p.Dropped {
		if !wantReasons[d.Reason] {
			t.Errorf("unexpected drop reason %q", d.Reason)
		}
	}
	if len(p.Warnings) != 1 || !strings.Contains(p.Warnings[0], "Holiday") {
		t.Errorf("Warnings = %v, want the ignored Holiday key", p.Warnings)
	}

	got, _ := s.Get(context.Background(), key)
	if e, ok := got.Week.Find("Monday", "09:00-10:00"); !ok || e.Subject != "Chemistry" {
		t.Errorf("Monday 09:00-10:00 = %+v, %v", e, ok)
	}
	if e, ok := got.Week.Find("Tuesday", "11:00-12:00"); !ok || e.Type != schedule.TypeBreak || e.Subject != "" {
		t.Errorf("Tuesday 11:00-12:00 = %+v, %v", e, ok)
	}
	if len(got.Week["Wednesday"]) != 0 {
		t.Errorf("Wednesday = %v, want empty", got.Week["Wednesday"])
	}
	if got.Week.Len() != 2 {
		t.Errorf("stored %d entries, want 2", got.Week.Len())
	}
}

func TestPropose_GenerationFailures(t *testing.T) {
	tests := []struct {
		name       string
		client     *stubClient
		fallback   Fallback
		wantReason string
		wantEmpty  bool
	}{
		{
			name:       "service error, empty fallback",
			client:     &stubClient{err: errors.New("connection refused")},
			wantReason: ReasonService,
			wantEmpty:  true,
		},
		{
			name:       "service error, current fallback",
			client:     &stubClient{err: errors.New("503")},
			fallback:   FallbackCurrent,
			wantReason: ReasonService,
		},
		{
			name:       "unparseable reply",
			client:     &stubClient{reply: "Sorry, I cannot help with that."},
			wantReason: ReasonUnparseable,
			wantEmpty:  true,
		},
		{
			name:       "top-level array",
			client:     &stubClient{reply: `[{"timeSlot": "09:00-10:00"}]`},
			fallback:   FallbackCurrent,
			wantReason: ReasonUnparseable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, s := newTestAdapter(t, tt.client, Options{Fallback: tt.fallback})
			key := testKey(t)
			before := seed(t, s, key)

			p, err := a.Merge(context.Background(), request(key, "Move Art to Friday"))
			if !errors.Is(err, ErrGeneration) {
				t.Fatalf("err = %v, want ErrGeneration", err)
			}
			if errors.Is(err, schedule.ErrValidation) {
				t.Error("generation failure must not look like a validation failure")
			}
			var gerr *GenerationError
			if !errors.As(err, &gerr) || gerr.Reason != tt.wantReason {
				t.Errorf("err = %v, want reason %s", err, tt.wantReason)
			}
			if p.Outcome != OutcomeGenerationFailed {
				t.Errorf("Outcome = %s", p.Outcome)
			}
			if tt.wantEmpty {
				if !p.Candidate.IsEmpty() || len(p.Candidate) != 7 {
					t.Errorf("Candidate = %v, want an empty week", p.Candidate)
				}
			} else if !p.Candidate.Equal(before.Week) {
				t.Errorf("Candidate = %v, want the current week", p.Candidate)
			}

			after, _ := s.Get(context.Background(), key)
			if after.Revision != before.Revision {
				t.Error("store changed after a failed generation")
			}
		})
	}
}

func TestPropose_Timeout(t *testing.T) {
	a, s := newTestAdapter(t, &stubClient{block: true}, Options{Timeout: 20 * time.Millisecond})
	key := testKey(t)
	seed(t, s, key)

	_, err := a.Propose(context.Background(), request(key, "Clear Monday"))
	var gerr *GenerationError
	if !errors.As(err, &gerr) || gerr.Reason != ReasonTimeout {
		t.Fatalf("err = %v, want timeout", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want to wrap context.DeadlineExceeded", err)
	}
}

func TestPropose_DoesNotCommit(t *testing.T) {
	client := &stubClient{reply: `{"Monday": []}`}
	a, s := newTestAdapter(t, client, Options{PreserveCheck: true})
	key := testKey(t)
	before := seed(t, s, key)

	p, err := a.Propose(context.Background(), request(key, "Clear Monday"))
	if err != nil {
		t.Fatalf("Propose failed: %v", err)
	}
	if p.Committed != nil {
		t.Error("Propose should not commit")
	}
	// Tuesday disappears although only Monday was named.
	if len(p.Warnings) != 2 {
		t.Errorf("Warnings = %v, want two Tuesday removals", p.Warnings)
	}
	after, _ := s.Get(context.Background(), key)
	if after.Revision != before.Revision {
		t.Error("Propose changed the store")
	}
}

func TestPropose_EmptyInstruction(t *testing.T) {
	client := &stubClient{}
	a, _ := newTestAdapter(t, client, Options{})

	if _, err := a.Propose(context.Background(), request(testKey(t), "   ")); err == nil {
		t.Fatal("expected error for a blank instruction")
	}
	if client.calls != 0 {
		t.Errorf("client called %d times, want 0", client.calls)
	}
}

func TestMerge_ConcurrentEditIsStale(t *testing.T) {
	client := &stubClient{reply: `{"Thursday": [{"timeSlot": "15:00-16:00", "type": "class", "subject": "Music"}]}`}
	a, s := newTestAdapter(t, client, Options{})
	key := testKey(t)
	seed(t, s, key)

	client.onChat = func() {
		if _, err := s.Clear(context.Background(), key); err != nil {
			t.Errorf("Clear: %v", err)
		}
	}

	_, err := a.Merge(context.Background(), request(key, "Add Music on Thursday at 3pm"))
	if !errors.Is(err, schedule.ErrStaleRevision) {
		t.Fatalf("err = %v, want ErrStaleRevision", err)
	}
	after, _ := s.Get(context.Background(), key)
	if !after.Week.IsEmpty() {
		t.Error("the concurrent clear should have been kept")
	}
}

func TestPropose_PromptCarriesContext(t *testing.T) {
	client := &stubClient{reply: `{}`}
	a, s := newTestAdapter(t, client, Options{})
	key := testKey(t)
	seed(t, s, key)

	if _, err := a.Propose(context.Background(), request(key, "Add Physics on Friday")); err != nil {
		t.Fatalf("Propose failed: %v", err)
	}
	if len(client.last) != 2 || client.last[0].Role != llm.RoleSystem || client.last[1].Role != llm.RoleUser {
		t.Fatalf("messages = %+v", client.last)
	}
	user := client.last[1].Content
	for _, want := range []string{"Year 7", "Science", "2025-03-10", `"History"`, "Add Physics on Friday", "08:00-09:00"} {
		if !strings.Contains(user, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestParseFallback(t *testing.T) {
	tests := []struct {
		in      string
		want    Fallback
		wantErr bool
	}{
		{"", FallbackEmpty, false},
		{"empty", FallbackEmpty, false},
		{" Current ", FallbackCurrent, false},
		{"previous", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFallback(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFallback(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFallback(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

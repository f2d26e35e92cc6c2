package ui

import (
	"strings"
	"testing"

	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/schedule"
)

func sampleWeek() schedule.Week {
	w := schedule.EmptyWeek()
	w["Monday"] = []schedule.Entry{
		{Day: "Monday", TimeSlot: "09:00-10:00", Type: "class", Subject: "Mathematics", Room: "A101"},
		{Day: "Monday", TimeSlot: "10:00-11:00", Type: "class", Subject: "Mathematics"},
		{Day: "Monday", TimeSlot: "12:00-13:00", Type: "lunch"},
	}
	w["Thursday"] = []schedule.Entry{
		{Day: "Thursday", TimeSlot: "08:00-09:00", Type: "class", Subject: "Art"},
		{Day: "Thursday", TimeSlot: "11:00-12:00", Type: "break"},
	}
	return w
}

func TestRenderWeekGrid(t *testing.T) {
	DisableColor()
	grid := RenderWeekGrid(catalog.Default(), sampleWeek(), 120)

	for _, want := range []string{"Mon", "Sun", "08:00-09:00", "17:00-18:00", "Lunch", "Break", "Art"} {
		if !strings.Contains(grid, want) {
			t.Errorf("grid missing %q:\n%s", want, grid)
		}
	}
	if lines := strings.Count(grid, "\n") + 1; lines < len(catalog.Default().AllSlots())+2 {
		t.Errorf("grid has %d lines", lines)
	}
}

func TestPrintWeekList(t *testing.T) {
	DisableColor()
	var sb strings.Builder
	PrintWeekList(&sb, catalog.Default(), sampleWeek())
	out := sb.String()

	if strings.Contains(out, "Tuesday") {
		t.Error("empty day listed")
	}
	if strings.Index(out, "Monday") > strings.Index(out, "Thursday") {
		t.Error("days out of order")
	}
	if strings.Index(out, "09:00-10:00") > strings.Index(out, "12:00-13:00") {
		t.Error("slots out of order")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Art", 5, "Art"},
		{"Mathematics", 5, "Math…"},
		{"Éducation", 3, "Éd…"},
		{"Music", 1, "M"},
	}
	for _, tc := range tests {
		if got := truncate(tc.in, tc.n); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestDecodeWeek(t *testing.T) {
	doc, err := decodeWeek([]byte(`{"classroom": "7a", "week": "2025-03-10", "schedule": {"Monday": [{"timeSlot": "09:00-10:00", "type": "lunch"}]}}`))
	if err != nil {
		t.Fatalf("decodeWeek: %v", err)
	}
	if doc.Classroom != "7a" || doc.Week != "2025-03-10" || doc.Schedule.Len() != 1 {
		t.Errorf("document = %+v", doc)
	}

	bare, err := decodeWeek([]byte(`{"Friday": [{"timeSlot": "10:00-11:00", "type": "break"}]}`))
	if err != nil || bare.Week != "" || bare.Schedule.Len() != 1 {
		t.Errorf("bare week = %+v, %v", bare, err)
	}

	if _, err := decodeWeek([]byte(`[1, 2]`)); err == nil {
		t.Error("expected error for a JSON array")
	}
}

func TestRedactDSN(t *testing.T) {
	tests := []struct{ in, want string }{
		{"postgres://campus:secret@db:5432/campus", "postgres://campus:***@db:5432/campus"},
		{"postgres://db:5432/campus", "postgres://db:5432/campus"},
		{"host=db user=campus", "host=db user=campus"},
	}
	for _, tc := range tests {
		if got := redactDSN(tc.in); got != tc.want {
			t.Errorf("redactDSN(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseClassrooms(t *testing.T) {
	got := parseClassrooms("7a:Year 7A:Biology, lab:Chemistry lab,  , 9c")
	if len(got) != 3 {
		t.Fatalf("parsed %d classrooms: %+v", len(got), got)
	}
	if got[0].ID != "7a" || got[0].Title != "Year 7A" || got[0].Subject != "Biology" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Subject != "" || got[2].ID != "9c" || got[2].Title != "" {
		t.Errorf("parsed = %+v", got)
	}
}

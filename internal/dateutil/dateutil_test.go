package dateutil

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "valid date", input: "2025-01-15", want: "2025-01-15"},
		{name: "leap day", input: "2024-02-29", want: "2024-02-29"},
		{name: "wrong separator", input: "2025/01/15", wantErr: ErrInvalidDateFormat},
		{name: "not a date", input: "tomorrow", wantErr: ErrInvalidDateFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseDate(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if got.Format(DateLayout) != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format(DateLayout), tt.want)
			}
		})
	}
}

func TestParseDate_EmptyIsToday(t *testing.T) {
	got, err := ParseDate("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(TruncateToDay(time.Now())) {
		t.Errorf("ParseDate(\"\") = %v, want today", got)
	}
}

func TestWeekRange(t *testing.T) {
	tests := []struct {
		name       string
		date       time.Time
		wantMonday string
		wantSunday string
	}{
		{"monday", time.Date(2025, 1, 6, 15, 0, 0, 0, time.UTC), "2025-01-06", "2025-01-12"},
		{"wednesday", time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC), "2025-01-06", "2025-01-12"},
		{"sunday", time.Date(2025, 1, 12, 23, 59, 0, 0, time.UTC), "2025-01-06", "2025-01-12"},
		{"across year", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "2024-12-30", "2025-01-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monday, sunday := WeekRange(tt.date)
			if got := monday.Format(DateLayout); got != tt.wantMonday {
				t.Errorf("monday = %s, want %s", got, tt.wantMonday)
			}
			if got := sunday.Format(DateLayout); got != tt.wantSunday {
				t.Errorf("sunday = %s, want %s", got, tt.wantSunday)
			}
		})
	}
}

func TestWeekStart_IdempotentAndLocationFree(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	inputs := []time.Time{
		time.Date(2025, 3, 12, 23, 30, 0, 0, loc),
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 16, 12, 0, 0, 0, time.Local),
	}
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, in := range inputs {
		got := WeekStart(in)
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Errorf("WeekStart(%v) = %v, want %v", in, got, want)
		}
		if again := WeekStart(got); !again.Equal(got) {
			t.Errorf("WeekStart not idempotent: %v -> %v", got, again)
		}
	}
}

func TestParseWeek(t *testing.T) {
	now := time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC) // Wednesday

	tests := []struct {
		input string
		want  string
	}{
		{"", "2025-01-06"},
		{"this", "2025-01-06"},
		{"NEXT", "2025-01-13"},
		{"last-week", "2024-12-30"},
		{"+2", "2025-01-20"},
		{"-1", "2024-12-30"},
		{"2025-02-14", "2025-02-10"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeek(tt.input, now)
			if err != nil {
				t.Fatalf("ParseWeek(%q) unexpected error: %v", tt.input, err)
			}
			if got.Format(DateLayout) != tt.want {
				t.Errorf("ParseWeek(%q) = %s, want %s", tt.input, got.Format(DateLayout), tt.want)
			}
		})
	}
}

func TestParseWeek_Errors(t *testing.T) {
	now := time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC)
	for _, input := range []string{"someday", "+", "+x", "2025-13-01", "+1000"} {
		if _, err := ParseWeek(input, now); !errors.Is(err, ErrInvalidWeek) {
			t.Errorf("ParseWeek(%q) error = %v, want ErrInvalidWeek", input, err)
		}
	}
}

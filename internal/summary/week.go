// Package summary provides shared week summary utilities.
package summary

import (
	"sort"
	"time"

	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/dateutil"
	"github.com/javiermolinar/campus/internal/schedule"
)

// Stats holds aggregated counts for a week.
type Stats struct {
	Classes  int
	Breaks   int
	Lunches  int
	Subjects map[string]int // class hours per subject
	DayHours map[string]int // occupied slots per day
}

// WeekSummary holds aggregated data for one stored week.
type WeekSummary struct {
	Key     schedule.WeekKey
	Start   time.Time
	End     time.Time
	Updated time.Time
	Stats   Stats
}

// Total returns the number of occupied slots.
func (s Stats) Total() int {
	return s.Classes + s.Breaks + s.Lunches
}

// BusiestDay returns the day with the most occupied slots, earliest first on ties.
func (s Stats) BusiestDay(c *catalog.Catalog) (day string, slots int) {
	for _, d := range c.AllDays() {
		if n := s.DayHours[d]; n > slots {
			day, slots = d, n
		}
	}
	return day, slots
}

// TopSubjects returns subjects ordered by hours, then name.
func (s Stats) TopSubjects() []string {
	subjects := make([]string, 0, len(s.Subjects))
	for name := range s.Subjects {
		subjects = append(subjects, name)
	}
	sort.Slice(subjects, func(i, j int) bool {
		a, b := subjects[i], subjects[j]
		if s.Subjects[a] != s.Subjects[b] {
			return s.Subjects[a] > s.Subjects[b]
		}
		return a < b
	})
	return subjects
}

// WeekStats aggregates a week.
func WeekStats(w schedule.Week) Stats {
	s := Stats{Subjects: map[string]int{}, DayHours: map[string]int{}}
	for day, entries := range w {
		for _, e := range entries {
			s.DayHours[day]++
			switch e.Type {
			case schedule.TypeClass:
				s.Classes++
				s.Subjects[e.Subject]++
			case schedule.TypeBreak:
				s.Breaks++
			case schedule.TypeLunch:
				s.Lunches++
			}
		}
	}
	return s
}

// SummarizeWeek builds the summary of a loaded week.
func SummarizeWeek(snap schedule.Snapshot) *WeekSummary {
	start, end := dateutil.WeekRange(snap.Key.WeekStart)
	return &WeekSummary{
		Key:     snap.Key,
		Start:   start,
		End:     end,
		Updated: snap.UpdatedAt,
		Stats:   WeekStats(snap.Week),
	}
}

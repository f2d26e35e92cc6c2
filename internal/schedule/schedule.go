// Package schedule defines the core domain types of the weekly classroom schedule.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/dateutil"
)

// Domain errors.
var (
	ErrEmptyClassroom = errors.New("classroom id cannot be empty")
	ErrNoWeekStart    = errors.New("week start is not set")
	ErrEntryNotFound  = errors.New("no entry at that day and slot")
	ErrStaleRevision  = errors.New("schedule was changed by someone else")
)

// Entry types, re-exported for callers that only import schedule.
const (
	TypeClass = catalog.TypeClass
	TypeBreak = catalog.TypeBreak
	TypeLunch = catalog.TypeLunch
)

// WeekKey identifies the schedule of one classroom for one week.
type WeekKey struct {
	ClassroomID string
	WeekStart   time.Time // Monday, UTC midnight
}

// NewWeekKey builds a key from any date in the week.
func NewWeekKey(classroomID string, date time.Time) (WeekKey, error) {
	classroomID = strings.TrimSpace(classroomID)
	if classroomID == "" {
		return WeekKey{}, ErrEmptyClassroom
	}
	return WeekKey{ClassroomID: classroomID, WeekStart: dateutil.WeekStart(date)}, nil
}

// Normalized returns the key with its week start re-aligned to Monday.
func (k WeekKey) Normalized() WeekKey {
	return WeekKey{ClassroomID: k.ClassroomID, WeekStart: dateutil.WeekStart(k.WeekStart)}
}

// Date returns the week start formatted as YYYY-MM-DD.
func (k WeekKey) Date() string {
	return k.WeekStart.Format(dateutil.DateLayout)
}

// String returns "classroom@YYYY-MM-DD".
func (k WeekKey) String() string {
	return k.ClassroomID + "@" + k.Date()
}

// Equal reports whether two keys address the same classroom week.
func (k WeekKey) Equal(other WeekKey) bool {
	a, b := k.Normalized(), other.Normalized()
	return a.ClassroomID == b.ClassroomID && a.WeekStart.Equal(b.WeekStart)
}

// Entry is one scheduled activity occupying a single (day, slot) pair.
type Entry struct {
	Day      string `json:"day,omitempty" validate:"omitempty,weekday"`
	TimeSlot string `json:"timeSlot" validate:"timeslot"`
	Type     string `json:"type" validate:"entrytype"`
	Subject  string `json:"subject"`
	Room     string `json:"room"`
	Notes    string `json:"notes"`
}

// IsClass reports whether the entry is a class.
func (e Entry) IsClass() bool {
	return e.Type == TypeClass
}

// Label returns the text shown for the entry in a grid cell.
func (e Entry) Label() string {
	switch e.Type {
	case TypeClass:
		if e.Room != "" {
			return fmt.Sprintf("%s (%s)", e.Subject, e.Room)
		}
		return e.Subject
	case TypeBreak:
		return "Break"
	case TypeLunch:
		return "Lunch"
	default:
		return e.Type
	}
}

// Week maps each weekday name to its entries.
// Entry order inside a day carries no meaning.
type Week map[string][]Entry

// EmptyWeek returns a complete week with all seven days present and empty.
func EmptyWeek() Week {
	w := make(Week, 7)
	for _, d := range catalog.Days() {
		w[d] = []Entry{}
	}
	return w
}

// Clone returns a deep copy of the week.
func (w Week) Clone() Week {
	if w == nil {
		return nil
	}
	out := make(Week, len(w))
	for day, entries := range w {
		out[day] = append([]Entry{}, entries...)
	}
	return out
}

// Normalize fills missing day keys, stamps day-less entries with their key,
// trims text fields and blanks the subject of non-class entries. Unknown day
// keys and mismatched entry days are kept so the validator can report them.
func (w Week) Normalize() Week {
	out := make(Week, 7)
	for day, entries := range w {
		list := make([]Entry, 0, len(entries))
		for _, e := range entries {
			e.Day = strings.TrimSpace(e.Day)
			if e.Day == "" {
				e.Day = day
			}
			e.TimeSlot = strings.TrimSpace(e.TimeSlot)
			e.Type = catalog.NormalizeType(e.Type)
			e.Subject = strings.TrimSpace(e.Subject)
			e.Room = strings.TrimSpace(e.Room)
			e.Notes = strings.TrimSpace(e.Notes)
			if e.Type != TypeClass {
				e.Subject = ""
			}
			list = append(list, e)
		}
		out[day] = list
	}
	for _, d := range catalog.Days() {
		if _, ok := out[d]; !ok {
			out[d] = []Entry{}
		}
	}
	return out
}

// Find returns the entry at (day, slot).
func (w Week) Find(day, slot string) (Entry, bool) {
	for _, e := range w[day] {
		if e.TimeSlot == slot {
			return e, true
		}
	}
	return Entry{}, false
}

// Len returns the number of entries across all days.
func (w Week) Len() int {
	n := 0
	for _, entries := range w {
		n += len(entries)
	}
	return n
}

// IsEmpty reports whether no day has any entry.
func (w Week) IsEmpty() bool {
	return w.Len() == 0
}

// Sorted returns the entries of day ordered by the catalog's slot order.
func (w Week) Sorted(c *catalog.Catalog, day string) []Entry {
	entries := append([]Entry(nil), w[day]...)
	sort.SliceStable(entries, func(i, j int) bool {
		return c.SlotIndex(entries[i].TimeSlot) < c.SlotIndex(entries[j].TimeSlot)
	})
	return entries
}

// Equal reports whether two weeks hold the same entries per day,
// ignoring entry order.
func (w Week) Equal(other Week) bool {
	keys := make(map[string]struct{}, len(w)+len(other))
	for d := range w {
		keys[d] = struct{}{}
	}
	for d := range other {
		keys[d] = struct{}{}
	}
	for d := range keys {
		a, b := w[d], other[d]
		if len(a) != len(b) {
			return false
		}
		counts := make(map[Entry]int, len(a))
		for _, e := range a {
			counts[e]++
		}
		for _, e := range b {
			counts[e]--
			if counts[e] < 0 {
				return false
			}
		}
	}
	return true
}

// Snapshot is a consistent view of a stored week.
type Snapshot struct {
	Key       WeekKey
	Week      Week
	Revision  string
	UpdatedAt time.Time
	// Exists is false when no schedule was ever stored for Key.
	Exists bool
}

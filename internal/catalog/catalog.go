// Package catalog defines the fixed vocabulary of a weekly classroom schedule:
// weekday names, hourly time slots and entry types.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Construction errors.
var (
	ErrInvalidBounds = errors.New("day bounds must be whole hours in HH:00 format")
	ErrEmptyRange    = errors.New("day_start must be before day_end")
)

// Entry types.
const (
	TypeClass = "class"
	TypeBreak = "break"
	TypeLunch = "lunch"
)

// Default day bounds used by Default().
const (
	DefaultDayStart = "08:00"
	DefaultDayEnd   = "18:00"
)

var days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var types = []string{TypeClass, TypeBreak, TypeLunch}

// Catalog holds the valid days, slots and entry types.
// A Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	slots     []string
	slotIndex map[string]int
	dayIndex  map[string]int
}

// New builds a catalog of contiguous one-hour slots between dayStart and dayEnd.
func New(dayStart, dayEnd string) (*Catalog, error) {
	start, err := parseHour(dayStart)
	if err != nil {
		return nil, fmt.Errorf("day_start: %w", err)
	}
	end, err := parseHour(dayEnd)
	if err != nil {
		return nil, fmt.Errorf("day_end: %w", err)
	}
	if start >= end {
		return nil, ErrEmptyRange
	}

	c := &Catalog{
		slotIndex: make(map[string]int, end-start),
		dayIndex:  make(map[string]int, len(days)),
	}
	for h := start; h < end; h++ {
		slot := fmt.Sprintf("%02d:00-%02d:00", h, h+1)
		c.slotIndex[slot] = len(c.slots)
		c.slots = append(c.slots, slot)
	}
	for i, d := range days {
		c.dayIndex[d] = i
	}
	return c, nil
}

// Default returns the catalog for 08:00-18:00.
func Default() *Catalog {
	c, err := New(DefaultDayStart, DefaultDayEnd)
	if err != nil {
		panic(err) // constant bounds
	}
	return c
}

func parseHour(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 || t.Minute() != 0 {
		return 0, ErrInvalidBounds
	}
	return t.Hour(), nil
}

// IsValidDay reports whether x is one of the seven canonical weekday names.
func (c *Catalog) IsValidDay(x string) bool {
	_, ok := c.dayIndex[x]
	return ok
}

// IsValidSlot reports whether x is a canonical slot string.
func (c *Catalog) IsValidSlot(x string) bool {
	_, ok := c.slotIndex[x]
	return ok
}

// IsValidType reports whether x is a recognized entry type.
func (c *Catalog) IsValidType(x string) bool {
	for _, t := range types {
		if t == x {
			return true
		}
	}
	return false
}

// AllDays returns the weekday names, Monday first.
func (c *Catalog) AllDays() []string {
	return Days()
}

// Days returns the weekday names, Monday first. Days do not depend on the
// configured day bounds.
func Days() []string {
	return append([]string(nil), days...)
}

// AllSlots returns the slot strings in display order.
func (c *Catalog) AllSlots() []string {
	return append([]string(nil), c.slots...)
}

// AllTypes returns the recognized entry types.
func (c *Catalog) AllTypes() []string {
	return append([]string(nil), types...)
}

// DayIndex returns the position of day in the week (0=Monday), or -1.
func (c *Catalog) DayIndex(day string) int {
	if i, ok := c.dayIndex[day]; ok {
		return i
	}
	return -1
}

// SlotIndex returns the display position of slot, or -1.
func (c *Catalog) SlotIndex(slot string) int {
	if i, ok := c.slotIndex[slot]; ok {
		return i
	}
	return -1
}

// ParseDay resolves user input ("mon", "monday", "MONDAY") to a canonical day name.
func (c *Catalog) ParseDay(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return "", false
	}
	for _, d := range days {
		if strings.HasPrefix(strings.ToLower(d), s) {
			return d, true
		}
	}
	return "", false
}

// ParseSlot resolves user input to a canonical slot. It accepts the full
// range ("09:00-10:00"), a start time ("09:00", "9:00") or a bare hour ("9").
// A range must match a catalog slot exactly.
func (c *Catalog) ParseSlot(s string) (string, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if c.IsValidSlot(s) {
		return s, true
	}
	if strings.Contains(s, "-") {
		return "", false
	}
	start := s
	if !strings.Contains(start, ":") {
		start += ":00"
	}
	t, err := time.Parse("15:04", start)
	if err != nil {
		return "", false
	}
	slot := fmt.Sprintf("%02d:%02d-%02d:%02d", t.Hour(), t.Minute(), t.Hour()+1, t.Minute())
	if !c.IsValidSlot(slot) {
		return "", false
	}
	return slot, true
}

// NormalizeType lower-cases and trims an entry type.
func NormalizeType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

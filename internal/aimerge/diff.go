package aimerge

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/schedule"
)

// ChangeKind classifies a slot-level difference between two weeks.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeChanged ChangeKind = "changed"
	ChangeRemoved ChangeKind = "removed"
)

// Change is one slot that differs between the current and candidate weeks.
type Change struct {
	Kind     ChangeKind
	Day      string
	TimeSlot string
	Before   *schedule.Entry
	After    *schedule.Entry
}

func (c Change) String() string {
	switch c.Kind {
	case ChangeAdded:
		return fmt.Sprintf("+ %s %s %s", c.Day, c.TimeSlot, c.After.Label())
	case ChangeRemoved:
		return fmt.Sprintf("- %s %s %s", c.Day, c.TimeSlot, c.Before.Label())
	default:
		return fmt.Sprintf("~ %s %s %s -> %s", c.Day, c.TimeSlot, c.Before.Label(), c.After.Label())
	}
}

// Diff lists slot-level changes from before to after in catalog order.
// Both weeks are assumed valid, so each (day, slot) holds at most one entry.
func Diff(c *catalog.Catalog, before, after schedule.Week) []Change {
	var changes []Change
	for _, day := range c.AllDays() {
		old := slotMap(before[day])
		cur := slotMap(after[day])

		slots := make([]string, 0, len(old)+len(cur))
		for s := range old {
			slots = append(slots, s)
		}
		for s := range cur {
			if _, ok := old[s]; !ok {
				slots = append(slots, s)
			}
		}
		sort.Slice(slots, func(i, j int) bool { return c.SlotIndex(slots[i]) < c.SlotIndex(slots[j]) })

		for _, s := range slots {
			b, hadBefore := old[s]
			a, hasAfter := cur[s]
			switch {
			case hadBefore && !hasAfter:
				changes = append(changes, Change{Kind: ChangeRemoved, Day: day, TimeSlot: s, Before: &b})
			case !hadBefore && hasAfter:
				changes = append(changes, Change{Kind: ChangeAdded, Day: day, TimeSlot: s, After: &a})
			case b != a:
				changes = append(changes, Change{Kind: ChangeChanged, Day: day, TimeSlot: s, Before: &b, After: &a})
			}
		}
	}
	return changes
}

func slotMap(entries []schedule.Entry) map[string]schedule.Entry {
	m := make(map[string]schedule.Entry, len(entries))
	for _, e := range entries {
		m[e.TimeSlot] = e
	}
	return m
}

var wholeWeekWords = regexp.MustCompile(`(?i)\b(every|all|each|daily|week|weekdays?|weekends?)\b`)

// preserveWarnings flags removals and changes of existing entries on days the
// instruction never names. The check is advisory and does not affect acceptance.
func preserveWarnings(c *catalog.Catalog, instruction string, diff []Change) []string {
	if wholeWeekWords.MatchString(instruction) {
		return nil
	}

	mentioned := mentionedDays(c, instruction)
	var warnings []string
	for _, ch := range diff {
		if ch.Kind == ChangeAdded || mentioned[ch.Day] {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("%s %s was %s although the instruction does not mention %s",
			ch.Day, ch.TimeSlot, ch.Kind, ch.Day))
	}
	return warnings
}

// mentionedDays finds weekday names, their plurals and abbreviations of at
// least three letters used as words.
func mentionedDays(c *catalog.Catalog, instruction string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(instruction), func(r rune) bool {
		return !('a' <= r && r <= 'z')
	})

	found := make(map[string]bool)
	for _, w := range words {
		if day, ok := c.ParseDay(w); ok {
			found[day] = true
			continue
		}
		if day, ok := c.ParseDay(strings.TrimSuffix(w, "s")); ok && strings.TrimSuffix(w, "s") == strings.ToLower(day) {
			found[day] = true
		}
	}
	return found
}

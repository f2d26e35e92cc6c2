package aimerge

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/llm"
	"github.com/javiermolinar/campus/internal/schedule"
)

// Dropped describes a generated entry that was filtered out during decoding.
type Dropped struct {
	Day      string
	Index    int // position in the generated day list
	TimeSlot string
	Type     string
	Reason   string
}

func (d Dropped) String() string {
	return fmt.Sprintf("%s #%d (%q, %q): %s", d.Day, d.Index+1, d.TimeSlot, d.Type, d.Reason)
}

// decoded is the outcome of turning raw generator text into a week.
type decoded struct {
	week        schedule.Week
	dropped     []Dropped
	ignoredKeys []string
}

// decodeResponse finds the first JSON object in raw that names at least one
// weekday and coerces it into a complete week. A bare {} counts as an empty
// week when nothing better is found. ok is false when no object qualifies.
func decodeResponse(c *catalog.Catalog, raw string) (decoded, bool) {
	sawEmpty := false
	for _, candidate := range llm.ObjectCandidates(raw) {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
			continue
		}
		if len(fields) == 0 {
			sawEmpty = true
			continue
		}
		if !hasDayKey(c, fields) {
			continue
		}
		return coerceWeek(c, fields), true
	}
	if sawEmpty {
		return decoded{week: schedule.EmptyWeek()}, true
	}
	return decoded{}, false
}

func hasDayKey(c *catalog.Catalog, fields map[string]json.RawMessage) bool {
	for k := range fields {
		if dayKey(c, k) != "" {
			return true
		}
	}
	return false
}

// dayKey matches a response key to a weekday name, ignoring case.
func dayKey(c *catalog.Catalog, key string) string {
	key = strings.TrimSpace(key)
	for _, d := range c.AllDays() {
		if strings.EqualFold(d, key) {
			return d
		}
	}
	return ""
}

// coerceWeek builds a seven-day week from the decoded top-level fields.
// Day keys match case-insensitively. A day whose value is not an array
// becomes empty. Entries without a catalog slot or type are dropped.
func coerceWeek(c *catalog.Catalog, fields map[string]json.RawMessage) decoded {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := decoded{week: schedule.EmptyWeek()}
	for _, key := range keys {
		raw := fields[key]
		day := dayKey(c, key)
		if day == "" {
			out.ignoredKeys = append(out.ignoredKeys, key)
			continue
		}

		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			continue
		}

		entries := out.week[day]
		for i, item := range items {
			entry, reason := coerceEntry(c, day, item)
			if reason != "" {
				out.dropped = append(out.dropped, Dropped{
					Day:      day,
					Index:    i,
					TimeSlot: entry.TimeSlot,
					Type:     entry.Type,
					Reason:   reason,
				})
				continue
			}
			entries = append(entries, entry)
		}
		out.week[day] = entries
	}
	return out
}

// coerceEntry converts one generated item. A non-empty reason means the
// item must be dropped.
func coerceEntry(c *catalog.Catalog, day string, raw json.RawMessage) (schedule.Entry, string) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return schedule.Entry{}, "not an object"
	}

	entry := schedule.Entry{
		Day:      day,
		TimeSlot: field(obj, "timeSlot", "time_slot", "timeslot", "slot"),
		Type:     catalog.NormalizeType(field(obj, "type")),
		Subject:  field(obj, "subject"),
		Room:     field(obj, "room"),
		Notes:    field(obj, "notes"),
	}

	if entry.TimeSlot == "" {
		return entry, "missing timeSlot"
	}
	slot, ok := c.ParseSlot(entry.TimeSlot)
	if !ok {
		return entry, "unknown timeSlot"
	}
	entry.TimeSlot = slot

	if !c.IsValidType(entry.Type) {
		return entry, "unknown type"
	}
	if entry.Type != schedule.TypeClass {
		entry.Subject = ""
	}
	return entry, ""
}

// field returns the first present key as a trimmed string. Numbers and
// booleans are formatted; null, arrays and objects become "".
func field(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		switch x := v.(type) {
		case string:
			return strings.TrimSpace(x)
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(x)
		default:
			return ""
		}
	}
	return ""
}

package aimerge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/classroom"
	"github.com/javiermolinar/campus/internal/llm"
	"github.com/javiermolinar/campus/internal/schedule"
)

const systemPrompt = `You edit weekly classroom timetables. You receive the current timetable as JSON and one instruction from a teacher. You return the complete updated timetable as JSON and nothing else.`

const userPromptTemplate = `Classroom: %s
Classroom subject: %s
Week starting: %s (Monday)

Current timetable:
%s

Instruction: "%s"

Rules:
1. Keep every entry the instruction does not mention exactly as it is.
2. Only add, change or remove entries the instruction asks for.
3. Never put two entries in the same day and time slot.
4. Days must be exactly: %s
5. timeSlot must be one of: %s
6. type must be one of: %s
7. Entries of type "class" need a subject. Use "" for unknown room or notes.
8. Return all seven days, using [] for days without entries.

Respond ONLY with valid JSON (no markdown, no explanation) shaped like:
{
  "Monday": [
    {"timeSlot": "%s", "type": "class", "subject": "string", "room": "string", "notes": "string"}
  ],
  "Tuesday": [],
  ...
}`

// wireEntry is the entry shape exchanged with the generator. Day is implied
// by the enclosing key.
type wireEntry struct {
	TimeSlot string `json:"timeSlot"`
	Type     string `json:"type"`
	Subject  string `json:"subject"`
	Room     string `json:"room"`
	Notes    string `json:"notes"`
}

// buildMessages renders the generation request for req against current.
func buildMessages(c *catalog.Catalog, room classroom.Classroom, key schedule.WeekKey, current schedule.Week, instruction string) ([]llm.Message, error) {
	body, err := serializeWeek(c, current)
	if err != nil {
		return nil, err
	}

	title := room.Title
	if title == "" {
		title = room.ID
	}
	subject := room.Subject
	if subject == "" {
		subject = "(not specified)"
	}

	slots := c.AllSlots()
	user := fmt.Sprintf(userPromptTemplate,
		title,
		subject,
		key.Date(),
		body,
		strings.TrimSpace(instruction),
		strings.Join(c.AllDays(), ", "),
		strings.Join(slots, ", "),
		strings.Join(c.AllTypes(), ", "),
		slots[0],
	)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: user},
	}, nil
}

// serializeWeek renders all seven days in catalog order with entries sorted by slot.
func serializeWeek(c *catalog.Catalog, w schedule.Week) (string, error) {
	var sb strings.Builder
	sb.WriteString("{\n")
	days := c.AllDays()
	for i, day := range days {
		entries := w.Sorted(c, day)
		wire := make([]wireEntry, 0, len(entries))
		for _, e := range entries {
			wire = append(wire, wireEntry{
				TimeSlot: e.TimeSlot,
				Type:     e.Type,
				Subject:  e.Subject,
				Room:     e.Room,
				Notes:    e.Notes,
			})
		}
		data, err := json.Marshal(wire)
		if err != nil {
			return "", fmt.Errorf("encoding %s: %w", day, err)
		}
		fmt.Fprintf(&sb, "  %q: %s", day, data)
		if i < len(days)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String(), nil
}

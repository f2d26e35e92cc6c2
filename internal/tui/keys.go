package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/tui/commands"
	"github.com/javiermolinar/campus/internal/tui/input"
)

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.stopGeneration()
		return m, tea.Quit
	}
	switch m.mode {
	case ModePrompt:
		return m.handlePromptKeys(msg)
	case ModeProposal:
		return m.handleProposalKeys(msg)
	case ModeConfirm:
		return m.handleConfirmKeys(msg)
	default:
		return m.handleNormalKeys(msg)
	}
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	days, slots := len(m.catalog.AllDays()), len(m.catalog.AllSlots())

	switch msg.String() {
	case "q":
		m.stopGeneration()
		return m, tea.Quit

	// Navigation
	case "h", "left":
		if m.cursor.Day > 0 {
			m.cursor.Day--
		}
	case "l", "right":
		if m.cursor.Day < days-1 {
			m.cursor.Day++
		}
	case "k", "up":
		if m.cursor.Slot > 0 {
			m.cursor.Slot--
		}
	case "j", "down":
		if m.cursor.Slot < slots-1 {
			m.cursor.Slot++
		}
	case "g", "home":
		m.cursor.Slot = 0
	case "G", "end":
		m.cursor.Slot = max(slots-1, 0)
	case "H", "pgup":
		return m.shiftWeek(-1)
	case "L", "pgdown":
		return m.shiftWeek(1)
	case "t":
		key, err := m.engine.ResolveKey(m.classroomID, "this")
		if err != nil {
			m.setError(err)
			return m, nil
		}
		next, cmd := m.showWeek(key)
		next.cursor = next.todayPosition()
		return next, cmd
	case "tab":
		return m.switchClassroom(m.nextClassroomID())
	case "r":
		m.loading = true
		return m, commands.LoadWeek(m.engine, m.key)

	// Editing
	case "a", "/":
		return m.openPrompt("")
	case "e":
		day, slot := m.cursorSlot()
		if e, ok := m.snap.Week.Find(day, slot); ok && e.IsClass() {
			text := input.CmdClass + " " + e.Subject
			if e.Room != "" {
				text += " @" + e.Room
			}
			return m.openPrompt(text)
		}
		return m.openPrompt(input.CmdClass + " ")
	case "b":
		return m.setEntry(schedule.TypeBreak)
	case "u":
		return m.setEntry(schedule.TypeLunch)
	case "x", "d", "delete":
		day, slot := m.cursorSlot()
		if _, ok := m.snap.Week.Find(day, slot); !ok {
			m.setStatus(fmt.Sprintf("%s %s is already empty", day, slot))
			return m, nil
		}
		return m, commands.Remove(m.engine, m.key, day, slot)
	case "m", "enter":
		return m.toggleMove()
	case "esc":
		switch {
		case m.busy:
			m.stopGeneration()
			m.setStatus("Generation cancelled")
		case m.moving != nil:
			m.moving = nil
			m.setStatus("Move cancelled")
		}
	case "y":
		data, err := json.MarshalIndent(m.snap.Week.Normalize(), "", "  ")
		if err != nil {
			m.setError(err)
			return m, nil
		}
		return m, commands.CopyToClipboard(string(data), "week of "+m.key.Date())
	case "C":
		return m, commands.CopyWeek(m.engine, m.key, m.key.WeekStart.AddDate(0, 0, 7))
	case "X":
		return m.askClear(), nil
	}

	return m, nil
}

// handlePromptKeys handles keys while the prompt is focused.
func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePrompt()
		return m, nil
	case "enter":
		value := m.prompt.Value()
		m.closePrompt()
		return m.submitPrompt(value)
	case "tab":
		if completed, ok := input.PromptAutocomplete(m.prompt.Value(), input.Commands); ok {
			m.prompt.SetValue(completed)
			m.prompt.CursorEnd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// handleProposalKeys handles keys while a generated week is under review.
func (m Model) handleProposalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "a", "y":
		p := m.proposal
		m.mode = ModeNormal
		m.clearProposal()
		if p == nil || !p.Accepted() || len(p.Diff) == 0 {
			return m, nil
		}
		return m, commands.Commit(m.engine, p)
	case "m":
		m.clearProposal()
		m.mode = ModeNormal
		return m.openPrompt(input.CmdAsk + " " + m.lastAsk + ". Also: ")
	case "esc", "c", "n", "q":
		m.mode = ModeNormal
		m.clearProposal()
		m.setStatus("Proposal discarded")
	}
	return m, nil
}

// handleConfirmKeys handles the answer to a yes/no question.
func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	onYes := m.onYes
	m.mode = ModeNormal
	m.confirm, m.onYes = "", nil

	switch msg.String() {
	case "y", "Y":
		if onYes != nil {
			return m, onYes()
		}
	default:
		m.setStatus("Cancelled")
	}
	return m, nil
}

func (m Model) submitPrompt(value string) (tea.Model, tea.Cmd) {
	cmd, arg := input.ParsePrompt(value)

	switch cmd {
	case input.CmdAsk:
		if arg == "" {
			return m, nil
		}
		if m.busy {
			m.setStatus("Still generating, please wait")
			return m, nil
		}
		ctx, cancel := context.WithCancel(context.Background())
		m.busy = true
		m.cancelAsk = cancel
		m.lastAsk = arg
		m.moving = nil
		m.logger.Info("generation requested", "key", m.key.String(), "teacher", m.teacherID)
		return m, tea.Batch(commands.Propose(ctx, m.engine, m.key, arg, m.teacherID), m.spinner.Tick)

	case input.CmdClass:
		subject, room := input.ParseClass(arg)
		day, slot := m.cursorSlot()
		entry := schedule.Entry{Day: day, TimeSlot: slot, Type: schedule.TypeClass, Subject: subject, Room: room}
		if prev, ok := m.snap.Week.Find(day, slot); ok && prev.IsClass() {
			entry.Notes = prev.Notes
		}
		return m, commands.AddOrUpdate(m.engine, m.key, entry)

	case input.CmdWeek:
		key, err := m.engine.ResolveKey(m.classroomID, orDefault(arg, "this"))
		if err != nil {
			m.setError(err)
			return m, nil
		}
		return m.showWeek(key)

	case input.CmdCopy:
		target, err := m.engine.ResolveKey(m.classroomID, orDefault(arg, "next"))
		if err != nil {
			m.setError(err)
			return m, nil
		}
		if target.Equal(m.key) {
			m.setError(errors.New("cannot copy a week onto itself"))
			return m, nil
		}
		return m, commands.CopyWeek(m.engine, m.key, target.WeekStart)

	case input.CmdClear:
		return m.askClear(), nil

	case input.CmdRoom:
		if arg == "" {
			arg = m.nextClassroomID()
		}
		return m.switchClassroom(arg)
	}

	m.setError(fmt.Errorf("unknown command %s", cmd))
	return m, nil
}

func (m Model) openPrompt(text string) (tea.Model, tea.Cmd) {
	m.mode = ModePrompt
	m.prompt.SetValue(text)
	m.prompt.CursorEnd()
	return m, m.prompt.Focus()
}

func (m *Model) closePrompt() {
	m.mode = ModeNormal
	m.prompt.Blur()
	m.prompt.Reset()
}

func (m Model) setEntry(entryType string) (tea.Model, tea.Cmd) {
	day, slot := m.cursorSlot()
	return m, commands.AddOrUpdate(m.engine, m.key, schedule.Entry{Day: day, TimeSlot: slot, Type: entryType})
}

func (m Model) toggleMove() (tea.Model, tea.Cmd) {
	if m.moving == nil {
		day, slot := m.cursorSlot()
		if _, ok := m.snap.Week.Find(day, slot); !ok {
			m.setStatus("Nothing to move here")
			return m, nil
		}
		from := m.cursor
		m.moving = &from
		m.setStatus(fmt.Sprintf("Moving %s %s: pick a slot and press m", day, slot))
		return m, nil
	}

	from := *m.moving
	m.moving = nil
	if from == m.cursor {
		m.setStatus("Move cancelled")
		return m, nil
	}
	fromDay, fromSlot := m.slotAt(from)
	toDay, toSlot := m.cursorSlot()
	return m, commands.Move(m.engine, m.key, fromDay, fromSlot, toDay, toSlot)
}

func (m Model) askClear() Model {
	if m.snap.Week.IsEmpty() {
		m.setStatus("Week is already empty")
		return m
	}
	key, eng := m.key, m.engine
	m.mode = ModeConfirm
	m.confirm = fmt.Sprintf("Remove all %d entries of the week of %s? [y/N]", m.snap.Week.Len(), key.Date())
	m.onYes = func() tea.Cmd { return commands.Clear(eng, key) }
	return m
}

func (m Model) shiftWeek(weeks int) (tea.Model, tea.Cmd) {
	key, err := schedule.NewWeekKey(m.classroomID, m.key.WeekStart.AddDate(0, 0, 7*weeks))
	if err != nil {
		m.setError(err)
		return m, nil
	}
	return m.showWeek(key)
}

func (m Model) switchClassroom(id string) (tea.Model, tea.Cmd) {
	id = strings.TrimSpace(id)
	if id == "" || id == m.classroomID {
		return m, nil
	}
	key, err := schedule.NewWeekKey(id, m.key.WeekStart)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.classroomID = id
	m.setStatus("Switched to " + m.engine.Classroom(id).Label())
	return m.showWeek(key)
}

// stopGeneration cancels the generation in flight, if any.
func (m *Model) stopGeneration() {
	if m.cancelAsk != nil {
		m.cancelAsk()
		m.cancelAsk = nil
	}
	m.busy = false
}

// showWeek switches the grid to key and loads it.
func (m Model) showWeek(key schedule.WeekKey) (Model, tea.Cmd) {
	m.stopGeneration()
	m.key = key
	m.snap = schedule.Snapshot{Key: key, Week: schedule.EmptyWeek()}
	m.loading = true
	m.moving = nil
	return m, commands.LoadWeek(m.engine, key)
}

func (m Model) nextClassroomID() string {
	if len(m.rooms) == 0 {
		return m.classroomID
	}
	for i, r := range m.rooms {
		if r.ID == m.classroomID {
			return m.rooms[(i+1)%len(m.rooms)].ID
		}
	}
	return m.rooms[0].ID
}

func (m Model) cursorSlot() (day, slot string) {
	return m.slotAt(m.cursor)
}

func (m Model) slotAt(p Position) (day, slot string) {
	days, slots := m.catalog.AllDays(), m.catalog.AllSlots()
	if p.Day >= 0 && p.Day < len(days) {
		day = days[p.Day]
	}
	if p.Slot >= 0 && p.Slot < len(slots) {
		slot = slots[p.Slot]
	}
	return day, slot
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

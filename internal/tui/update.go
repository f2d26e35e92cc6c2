package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/campus/internal/aimerge"
	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/tui/commands"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.expireStatus()
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.prompt.Width = max(msg.Width-8, 10)
		return m, nil

	case commands.WeekLoadedMsg:
		if !msg.Snapshot.Key.Equal(m.key) {
			// A response for a week we already navigated away from.
			return m, nil
		}
		m.snap = msg.Snapshot
		m.loading = false
		if msg.Status != "" {
			m.setStatus(msg.Status)
		}
		m.logger.Debug("week loaded", "key", msg.Snapshot.Key.String(), "entries", msg.Snapshot.Week.Len(), "revision", msg.Snapshot.Revision)
		return m, nil

	case commands.ErrMsg:
		if errors.Is(msg.Err, context.Canceled) {
			return m, nil
		}
		m.loading = false
		m.busy = false
		m.setError(msg.Err)
		m.logger.Warn("tui command failed", "key", m.key.String(), "error", msg.Err)
		if errors.Is(msg.Err, schedule.ErrStaleRevision) {
			m.mode = ModeNormal
			m.clearProposal()
			return m, commands.LoadWeek(m.engine, m.key)
		}
		return m, nil

	case commands.StatusMsg:
		m.setStatus(msg.Msg)
		return m, nil

	case commands.ProposalMsg:
		if errors.Is(msg.Err, context.Canceled) {
			// Abandoned with esc or by leaving the week.
			return m, nil
		}
		m.stopGeneration()
		if !msg.Proposal.Key.Equal(m.key) {
			return m, nil
		}
		m.proposal = msg.Proposal
		m.changed = changedCells(m, msg.Proposal.Diff)
		m.mode = ModeProposal
		m.statusMsg = ""
		if msg.Err != nil {
			m.setError(msg.Err)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.mode == ModePrompt {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

// changedCells maps proposal changes to grid positions.
func changedCells(m Model, diff []aimerge.Change) map[Position]bool {
	cells := make(map[Position]bool, len(diff))
	for _, c := range diff {
		day, slot := m.catalog.DayIndex(c.Day), m.catalog.SlotIndex(c.TimeSlot)
		if day >= 0 && slot >= 0 {
			cells[Position{Day: day, Slot: slot}] = true
		}
	}
	return cells
}

func (m *Model) clearProposal() {
	m.proposal = nil
	m.changed = nil
}

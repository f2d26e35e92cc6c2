// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/campus/internal/aimerge"
	"github.com/javiermolinar/campus/internal/schedule"
)

// Scheduler is the part of the schedule engine the TUI drives.
type Scheduler interface {
	Get(ctx context.Context, key schedule.WeekKey) (schedule.Snapshot, error)
	AddOrUpdate(ctx context.Context, key schedule.WeekKey, entry schedule.Entry) (schedule.Snapshot, error)
	Remove(ctx context.Context, key schedule.WeekKey, day, slot string) (schedule.Snapshot, error)
	Move(ctx context.Context, key schedule.WeekKey, fromDay, fromSlot, toDay, toSlot string) (schedule.Snapshot, error)
	CopyWeek(ctx context.Context, classroomID string, from, to time.Time) (schedule.Snapshot, error)
	Clear(ctx context.Context, key schedule.WeekKey) (schedule.Snapshot, error)
	Propose(ctx context.Context, key schedule.WeekKey, instruction, classroomID, teacherID string) (*aimerge.Proposal, error)
	Commit(ctx context.Context, p *aimerge.Proposal) (schedule.Snapshot, error)
}

// WeekLoadedMsg is sent when a week is loaded or changed by an edit.
type WeekLoadedMsg struct {
	Snapshot schedule.Snapshot
	Status   string // Optional status line for the edit that produced it
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsg is sent for temporary status messages.
type StatusMsg struct {
	Msg string
}

// ProposalMsg is sent when a generation request finishes. Err is set for
// rejected and failed proposals; Proposal still carries the fallback week.
type ProposalMsg struct {
	Proposal *aimerge.Proposal
	Err      error
}

// LoadWeek loads the week for key.
func LoadWeek(s Scheduler, key schedule.WeekKey) tea.Cmd {
	return func() tea.Msg {
		snap, err := s.Get(context.Background(), key)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return WeekLoadedMsg{Snapshot: snap}
	}
}

// AddOrUpdate places entry in its slot.
func AddOrUpdate(s Scheduler, key schedule.WeekKey, entry schedule.Entry) tea.Cmd {
	return edit(fmt.Sprintf("Set %s %s", entry.Day, entry.TimeSlot), func(ctx context.Context) (schedule.Snapshot, error) {
		return s.AddOrUpdate(ctx, key, entry)
	})
}

// Remove empties a slot.
func Remove(s Scheduler, key schedule.WeekKey, day, slot string) tea.Cmd {
	return edit(fmt.Sprintf("Removed %s %s", day, slot), func(ctx context.Context) (schedule.Snapshot, error) {
		return s.Remove(ctx, key, day, slot)
	})
}

// Move relocates an entry within the week.
func Move(s Scheduler, key schedule.WeekKey, fromDay, fromSlot, toDay, toSlot string) tea.Cmd {
	status := fmt.Sprintf("Moved %s %s to %s %s", fromDay, fromSlot, toDay, toSlot)
	return edit(status, func(ctx context.Context) (schedule.Snapshot, error) {
		return s.Move(ctx, key, fromDay, fromSlot, toDay, toSlot)
	})
}

// Clear removes every entry of the week.
func Clear(s Scheduler, key schedule.WeekKey) tea.Cmd {
	return edit("Week cleared", func(ctx context.Context) (schedule.Snapshot, error) {
		return s.Clear(ctx, key)
	})
}

// CopyWeek copies the week of key onto the week starting at to. The shown
// week does not change, so only a status message is returned.
func CopyWeek(s Scheduler, key schedule.WeekKey, to time.Time) tea.Cmd {
	return func() tea.Msg {
		snap, err := s.CopyWeek(context.Background(), key.ClassroomID, key.WeekStart, to)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("copying week: %w", err)}
		}
		return StatusMsg{Msg: fmt.Sprintf("Copied to week of %s", snap.Key.Date())}
	}
}

// Propose runs a generation request without committing it. Cancelling ctx
// abandons the request.
func Propose(ctx context.Context, s Scheduler, key schedule.WeekKey, instruction, teacherID string) tea.Cmd {
	return func() tea.Msg {
		p, err := s.Propose(ctx, key, instruction, key.ClassroomID, teacherID)
		if p == nil {
			if err == nil {
				err = fmt.Errorf("no proposal returned")
			}
			return ErrMsg{Err: err}
		}
		return ProposalMsg{Proposal: p, Err: err}
	}
}

// Commit stores an accepted proposal.
func Commit(s Scheduler, p *aimerge.Proposal) tea.Cmd {
	return edit(fmt.Sprintf("Saved %d changes", len(p.Diff)), func(ctx context.Context) (schedule.Snapshot, error) {
		return s.Commit(ctx, p)
	})
}

// CopyToClipboard writes text to the system clipboard.
func CopyToClipboard(text, what string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying to clipboard: %w", err)}
		}
		return StatusMsg{Msg: "Copied " + what + " to clipboard"}
	}
}

func edit(status string, fn func(ctx context.Context) (schedule.Snapshot, error)) tea.Cmd {
	return func() tea.Msg {
		snap, err := fn(context.Background())
		if err != nil {
			return ErrMsg{Err: err}
		}
		return WeekLoadedMsg{Snapshot: snap, Status: status}
	}
}

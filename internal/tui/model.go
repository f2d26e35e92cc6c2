// Package tui provides the terminal user interface for campus.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/campus/internal/aimerge"
	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/classroom"
	"github.com/javiermolinar/campus/internal/config"
	"github.com/javiermolinar/campus/internal/engine"
	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/tui/commands"
	"github.com/javiermolinar/campus/internal/tui/theme"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal   Mode = iota
	ModePrompt        // Typing into the prompt line
	ModeProposal      // Reviewing a generated week
	ModeConfirm       // Waiting for y/n
)

const (
	statusDuration = 3 * time.Second
	errorDuration  = 5 * time.Second
)

// Engine is what the TUI needs from the schedule engine.
type Engine interface {
	commands.Scheduler
	Catalog() *catalog.Catalog
	Classrooms() []classroom.Classroom
	Classroom(id string) classroom.Classroom
	ResolveKey(classroomID, week string) (schedule.WeekKey, error)
}

// Position represents a cursor position in the grid.
type Position struct {
	Day  int // Index into the catalog days
	Slot int // Index into the catalog slots
}

// Options configures a TUI session.
type Options struct {
	ClassroomID string
	TeacherID   string
	Logger      *slog.Logger
	Now         func() time.Time
}

// Model is the main TUI model.
type Model struct {
	engine  Engine
	catalog *catalog.Catalog
	config  *config.Config
	logger  *slog.Logger

	theme  *theme.Theme
	styles *Styles

	classroomID string
	teacherID   string
	rooms       []classroom.Classroom

	// State
	key     schedule.WeekKey
	snap    schedule.Snapshot
	cursor  Position
	mode    Mode
	loading bool // Waiting for the week to load
	busy    bool // Waiting for a generation request

	moving   *Position         // Source slot of a move in progress
	proposal *aimerge.Proposal // Proposal under review
	changed  map[Position]bool // Cells the proposal touches
	confirm  string            // Question shown in ModeConfirm
	onYes    func() tea.Cmd    // Action run on confirmation
	lastAsk  string            // Last instruction sent for generation

	cancelAsk context.CancelFunc // Abandons the generation in flight

	// Components
	prompt  textinput.Model
	spinner spinner.Model

	width  int
	height int

	statusMsg  string
	statusErr  bool
	statusTime time.Time // When the message expires

	now func() time.Time
}

// New creates a new TUI model showing key.
func New(eng Engine, cfg *config.Config, key schedule.WeekKey, opts Options) Model {
	themeName := "mocha"
	if cfg != nil && cfg.UI.Theme != "" {
		themeName = cfg.UI.Theme
	}
	t, err := theme.Load(themeName)
	if err != nil {
		t, _ = theme.Load("mocha")
	}
	styles := NewStyles(t)

	ti := textinput.New()
	ti.Placeholder = "/ask move Monday's maths to Friday"
	ti.Prompt = "> "
	ti.CharLimit = 512
	ti.TextStyle = styles.PromptStyle
	ti.PromptStyle = styles.PromptStyle
	ti.PlaceholderStyle = styles.HelpStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StatusStyle

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := Model{
		engine:      eng,
		catalog:     eng.Catalog(),
		config:      cfg,
		logger:      logger,
		theme:       t,
		styles:      styles,
		classroomID: key.ClassroomID,
		teacherID:   opts.TeacherID,
		rooms:       eng.Classrooms(),
		key:         key,
		snap:        schedule.Snapshot{Key: key, Week: schedule.EmptyWeek()},
		mode:        ModeNormal,
		loading:     true,
		prompt:      ti,
		spinner:     sp,
		now:         now,
	}
	m.cursor = m.todayPosition()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return commands.LoadWeek(m.engine, m.key)
}

// Run starts the TUI on the current week of the selected classroom.
func Run(eng *engine.Engine, cfg *config.Config, opts Options) error {
	id := opts.ClassroomID
	if id == "" {
		rooms := eng.Classrooms()
		if len(rooms) == 0 {
			return errors.New("no classroom selected: pass --classroom or add one with 'campus config'")
		}
		id = rooms[0].ID
	}

	key, err := eng.ResolveKey(id, "this")
	if err != nil {
		return err
	}

	model := New(eng, cfg, key, opts)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}

// todayPosition returns the cursor position of today in the shown week, or
// Monday when today is outside it, at the slot holding the current hour.
func (m Model) todayPosition() Position {
	now := m.now()
	pos := Position{}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if offset := int(today.Sub(m.key.WeekStart).Hours() / 24); offset >= 0 && offset < len(m.catalog.AllDays()) {
		pos.Day = offset
	}
	if slot, ok := m.catalog.ParseSlot(fmt.Sprintf("%02d", now.Hour())); ok {
		pos.Slot = m.catalog.SlotIndex(slot)
	}
	return pos
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusErr = false
	m.statusTime = m.now().Add(statusDuration)
}

func (m *Model) setError(err error) {
	m.statusMsg = "Error: " + err.Error()
	m.statusErr = true
	m.statusTime = m.now().Add(errorDuration)
}

// expireStatus drops a status message whose time has passed.
func (m *Model) expireStatus() {
	if m.statusMsg != "" && m.now().After(m.statusTime) {
		m.statusMsg = ""
		m.statusErr = false
	}
}

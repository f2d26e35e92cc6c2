package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/campus/internal/config"
	"github.com/javiermolinar/campus/internal/engine"
	"github.com/javiermolinar/campus/internal/logging"
	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	engine   *engine.Engine
	config   *config.Config
	root     *cobra.Command
	in       io.Reader
	out      io.Writer
	logger   *slog.Logger
	closeLog func() error
	ownsEng  bool

	debug       bool   // Enable debug logging
	classroomID string // --classroom
	teacherID   string // --teacher
}

// NewApp creates a new CLI application with the given engine and config.
// A nil engine is opened from cfg on first use.
func NewApp(eng *engine.Engine, cfg *config.Config) *App {
	a := &App{engine: eng, config: cfg, in: os.Stdin, out: os.Stdout}

	a.root = &cobra.Command{
		Use:   "campus",
		Short: "A weekly classroom schedule planner",
		Long: `Campus keeps the weekly timetable of each classroom.

Edit slots by hand, copy weeks around, or describe a change in plain
language and let the configured model rewrite the week for you.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureEngine(cmd.Context()); err != nil {
				return err
			}
			return tui.Run(a.engine, a.config, tui.Options{
				ClassroomID: a.classroomID,
				TeacherID:   a.teacherID,
				Logger:      a.logger,
			})
		},
	}

	// Add global flags
	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (logs to "+logging.DebugLogPath+")")
	a.root.PersistentFlags().StringVarP(&a.classroomID, "classroom", "c", os.Getenv("CAMPUS_CLASSROOM"), "Classroom id (default: first configured classroom)")
	a.root.PersistentFlags().StringVar(&a.teacherID, "teacher", os.Getenv("USER"), "Teacher id passed to schedule generation")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.classroomsCmd())
	a.root.AddCommand(a.showCmd())
	a.root.AddCommand(a.setCmd())
	a.root.AddCommand(a.removeCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.copyCmd())
	a.root.AddCommand(a.copyDayCmd())
	a.root.AddCommand(a.clearCmd())
	a.root.AddCommand(a.askCmd())
	a.root.AddCommand(a.exportCmd())
	a.root.AddCommand(a.importCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "campus %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// Close releases the engine when the App opened it, and the log file.
func (a *App) Close() error {
	var errs []error
	if a.ownsEng && a.engine != nil {
		errs = append(errs, a.engine.Close())
	}
	if a.closeLog != nil {
		errs = append(errs, a.closeLog())
	}
	return errors.Join(errs...)
}

// ensureEngine sets up logging and opens the engine on first use.
func (a *App) ensureEngine(ctx context.Context) error {
	if a.logger == nil {
		logCfg := a.config.Log
		if a.debug {
			logCfg.Level = "debug"
			if logCfg.File == "" {
				logCfg.File = logging.DebugLogPath
			}
		}
		logger, closeLog, err := logging.New(logCfg)
		if err != nil {
			return err
		}
		a.logger, a.closeLog = logger, closeLog
	}
	if a.engine != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	eng, err := engine.Open(ctx, a.config, a.logger)
	if err != nil {
		return fmt.Errorf("opening schedule store: %w", err)
	}
	a.engine, a.ownsEng = eng, true
	return nil
}

// classroom returns the selected classroom id.
func (a *App) classroom() (string, error) {
	if a.classroomID != "" {
		return a.classroomID, nil
	}
	if rooms := a.engine.Classrooms(); len(rooms) > 0 {
		return rooms[0].ID, nil
	}
	return "", fmt.Errorf("no classroom selected: pass --classroom or add one under [[classrooms]] in %s", config.DefaultConfigPath())
}

// weekKey resolves the classroom and week reference for a command.
func (a *App) weekKey(ctx context.Context, week string) (schedule.WeekKey, error) {
	if err := a.ensureEngine(ctx); err != nil {
		return schedule.WeekKey{}, err
	}
	id, err := a.classroom()
	if err != nil {
		return schedule.WeekKey{}, err
	}
	return a.engine.ResolveKey(id, week)
}

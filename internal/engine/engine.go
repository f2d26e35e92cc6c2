// Package engine exposes the schedule mutation API. It composes the store,
// the entry editor, the week operator and the merge adapter behind one type
// that callers (CLI, TUI) hold for the lifetime of the process.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/javiermolinar/campus/internal/aimerge"
	"github.com/javiermolinar/campus/internal/cache"
	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/classroom"
	"github.com/javiermolinar/campus/internal/config"
	"github.com/javiermolinar/campus/internal/dateutil"
	"github.com/javiermolinar/campus/internal/db"
	"github.com/javiermolinar/campus/internal/editor"
	"github.com/javiermolinar/campus/internal/llm"
	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/store"
	"github.com/javiermolinar/campus/internal/weekops"
)

// ErrClassroomMismatch is returned when a generation request names a
// classroom other than the one that owns the week.
var ErrClassroomMismatch = errors.New("classroom does not match the week")

// ClientFactory creates the generation client on first use.
type ClientFactory func(ctx context.Context) (llm.Client, error)

// Engine is the mutation API over weekly classroom schedules.
type Engine struct {
	store      *store.Store
	editor     *editor.Editor
	weeks      *weekops.Operator
	classrooms *classroom.Directory
	aiOpts     aimerge.Options
	location   *time.Location
	now        func() time.Time
	logger     *slog.Logger

	mu         sync.Mutex
	newClient  ClientFactory
	client     llm.Client
	adapter    *aimerge.Adapter
	closeStore bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClient sets a fixed generation client.
func WithClient(c llm.Client) Option {
	return func(e *Engine) {
		e.newClient = func(context.Context) (llm.Client, error) { return c, nil }
	}
}

// WithClientFactory sets how the generation client is created.
func WithClientFactory(f ClientFactory) Option {
	return func(e *Engine) { e.newClient = f }
}

// WithClassrooms sets the classroom directory.
func WithClassrooms(d *classroom.Directory) Option {
	return func(e *Engine) { e.classrooms = d }
}

// WithAIOptions sets the merge adapter options.
func WithAIOptions(o aimerge.Options) Option {
	return func(e *Engine) { e.aiOpts = o }
}

// WithLocation sets the timezone used to resolve relative weeks.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.location = loc }
}

// WithClock overrides the clock used to resolve relative weeks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine over s.
func New(s *store.Store, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:    s,
		editor:   editor.New(s),
		weeks:    weekops.New(s, logger),
		location: time.Local,
		now:      time.Now,
		logger:   logger,
		newClient: func(context.Context) (llm.Client, error) {
			return nil, errors.New("no generation client configured")
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.classrooms == nil {
		e.classrooms, _ = classroom.NewDirectory(nil)
	}
	return e
}

// Open builds an Engine from configuration: catalog, storage driver, the
// optional Redis cache and a lazily created generation client. opts are
// applied after the configured ones.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	dir, err := cfg.Directory()
	if err != nil {
		return nil, err
	}
	aiOpts, err := cfg.AIOptions()
	if err != nil {
		return nil, err
	}

	dsn := cfg.Storage.DBPath
	if cfg.Storage.Driver == db.DriverPostgres {
		dsn = cfg.Storage.DSN
	}
	repo, err := db.Open(cfg.Storage.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	if cfg.Cache.RedisAddr != "" {
		ttl, err := cfg.CacheTTL()
		if err != nil {
			_ = repo.Close()
			return nil, err
		}
		cached, err := cache.Connect(ctx, repo, cfg.Cache.RedisAddr, ttl, logger)
		if err != nil {
			// The cache is an optimization; run without it.
			logger.Warn("redis unavailable, continuing without cache", "addr", cfg.Cache.RedisAddr, "error", err)
		} else {
			repo = cached
		}
	}

	s := store.New(repo, schedule.NewValidator(c), logger)
	llmCfg := cfg.LLM
	base := []Option{
		WithClassrooms(dir),
		WithAIOptions(aiOpts),
		WithLocation(loc),
		WithClientFactory(func(ctx context.Context) (llm.Client, error) {
			return llm.NewClient(ctx, llmCfg.Provider, llmCfg.Model, llmCfg.BaseURL)
		}),
	}
	e := New(s, logger, append(base, opts...)...)
	e.closeStore = true

	logger.Debug("engine opened",
		"driver", cfg.Storage.Driver,
		"cache", cfg.Cache.RedisAddr != "",
		"provider", llm.NormalizeProvider(cfg.LLM.Provider),
		"slots", len(c.AllSlots()),
	)
	return e, nil
}

// Close releases the storage opened by Open and any generation client.
func (e *Engine) Close() error {
	e.mu.Lock()
	client := e.client
	e.client, e.adapter = nil, nil
	e.mu.Unlock()

	var errs []error
	if closer, ok := client.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if e.closeStore {
		errs = append(errs, e.store.Close())
	}
	return errors.Join(errs...)
}

// Catalog returns the slot catalog in use.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.store.Validator().Catalog()
}

// Classrooms lists the configured classrooms.
func (e *Engine) Classrooms() []classroom.Classroom {
	return e.classrooms.All()
}

// Classroom returns the configured classroom, or one carrying only the id.
func (e *Engine) Classroom(id string) classroom.Classroom {
	return e.classrooms.LookupOrBare(id)
}

// Key returns the week key for classroomID containing date.
func (e *Engine) Key(classroomID string, date time.Time) (schedule.WeekKey, error) {
	return schedule.NewWeekKey(classroomID, date)
}

// ResolveKey resolves a week reference ("this", "next", "+2", a date) for
// classroomID in the configured timezone.
func (e *Engine) ResolveKey(classroomID, week string) (schedule.WeekKey, error) {
	monday, err := dateutil.ParseWeek(week, e.now().In(e.location))
	if err != nil {
		return schedule.WeekKey{}, err
	}
	return schedule.NewWeekKey(classroomID, monday)
}

// Get returns the schedule for key, empty when it was never stored.
func (e *Engine) Get(ctx context.Context, key schedule.WeekKey) (schedule.Snapshot, error) {
	return e.store.Get(ctx, key)
}

// Replace validates and stores candidate as the whole week.
func (e *Engine) Replace(ctx context.Context, key schedule.WeekKey, candidate schedule.Week) (schedule.Snapshot, error) {
	return e.store.Replace(ctx, key, candidate)
}

// Validate checks candidate without storing it.
func (e *Engine) Validate(candidate schedule.Week) schedule.ValidationResult {
	return e.store.Validate(candidate)
}

// Clear stores an empty week for key.
func (e *Engine) Clear(ctx context.Context, key schedule.WeekKey) (schedule.Snapshot, error) {
	return e.weeks.ClearWeek(ctx, key)
}

// AddOrUpdate places entry at its (day, slot), replacing any occupant.
func (e *Engine) AddOrUpdate(ctx context.Context, key schedule.WeekKey, entry schedule.Entry) (schedule.Snapshot, error) {
	return e.editor.AddOrUpdate(ctx, key, entry)
}

// Remove deletes the entry at (day, slot). Removing nothing is not an error.
func (e *Engine) Remove(ctx context.Context, key schedule.WeekKey, day, slot string) (schedule.Snapshot, error) {
	return e.editor.Remove(ctx, key, day, slot)
}

// Move relocates an entry within the week.
func (e *Engine) Move(ctx context.Context, key schedule.WeekKey, fromDay, fromSlot, toDay, toSlot string) (schedule.Snapshot, error) {
	return e.editor.Move(ctx, key, fromDay, fromSlot, toDay, toSlot)
}

// CopyWeek overwrites the week containing to with the week containing from.
func (e *Engine) CopyWeek(ctx context.Context, classroomID string, from, to time.Time) (schedule.Snapshot, error) {
	return e.weeks.CopyWeek(ctx, classroomID, from, to)
}

// CopyDay overwrites toDay with the entries of fromDay.
func (e *Engine) CopyDay(ctx context.Context, key schedule.WeekKey, fromDay, toDay string) (schedule.Snapshot, error) {
	return e.weeks.CopyDay(ctx, key, fromDay, toDay)
}

// ListWeeks returns the stored weeks of classroomID, oldest first.
func (e *Engine) ListWeeks(ctx context.Context, classroomID string) ([]schedule.WeekKey, error) {
	return e.store.ListWeeks(ctx, classroomID)
}

// Refresh drops cached state for key and reloads it from storage.
func (e *Engine) Refresh(ctx context.Context, key schedule.WeekKey) (schedule.Snapshot, error) {
	return e.store.Refresh(ctx, key)
}

// Propose runs instruction against the stored week without committing.
func (e *Engine) Propose(ctx context.Context, key schedule.WeekKey, instruction, classroomID, teacherID string) (*aimerge.Proposal, error) {
	req, err := e.request(key, instruction, classroomID, teacherID)
	if err != nil {
		return nil, err
	}
	a, err := e.aiAdapter(ctx)
	if err != nil {
		return nil, err
	}
	return a.Propose(ctx, req)
}

// GenerateAndMerge rewrites the stored week from instruction and commits the
// result when it validates. On any failure the stored week is unchanged and
// the returned proposal carries the fallback week for display.
func (e *Engine) GenerateAndMerge(ctx context.Context, key schedule.WeekKey, instruction, classroomID, teacherID string) (*aimerge.Proposal, error) {
	req, err := e.request(key, instruction, classroomID, teacherID)
	if err != nil {
		return nil, err
	}
	a, err := e.aiAdapter(ctx)
	if err != nil {
		return nil, err
	}
	return a.Merge(ctx, req)
}

// Commit stores an accepted proposal, failing when the week changed since
// the proposal was made.
func (e *Engine) Commit(ctx context.Context, p *aimerge.Proposal) (schedule.Snapshot, error) {
	if p == nil || !p.Accepted() {
		return schedule.Snapshot{}, errors.New("only accepted proposals can be committed")
	}
	snap, err := e.store.ReplaceIfRevision(ctx, p.Key, p.Candidate, p.Current.Revision)
	if err != nil {
		return schedule.Snapshot{}, err
	}
	p.Committed = &snap
	return snap, nil
}

// request builds a generation request for key. An empty classroomID means
// the week's own classroom.
func (e *Engine) request(key schedule.WeekKey, instruction, classroomID, teacherID string) (aimerge.Request, error) {
	if classroomID != "" && classroomID != key.ClassroomID {
		return aimerge.Request{}, fmt.Errorf("%w: %s is not %s", ErrClassroomMismatch, classroomID, key)
	}
	return aimerge.Request{
		Key:         key,
		Instruction: instruction,
		Classroom:   e.classrooms.LookupOrBare(key.ClassroomID),
		TeacherID:   teacherID,
	}, nil
}

// aiAdapter creates the generation client on first use so that commands
// that never generate do not need credentials.
func (e *Engine) aiAdapter(ctx context.Context) (*aimerge.Adapter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.adapter != nil {
		return e.adapter, nil
	}
	client, err := e.newClient(ctx)
	if err != nil {
		return nil, &aimerge.GenerationError{
			Reason: aimerge.ReasonService,
			Err:    fmt.Errorf("creating generation client: %w", err),
		}
	}
	e.client = client
	e.adapter = aimerge.New(client, e.store, e.aiOpts, e.logger)
	return e.adapter, nil
}

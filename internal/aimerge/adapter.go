// Package aimerge merges natural-language edit instructions into a stored
// weekly schedule through an external text generator. Generated output is
// untrusted: it is decoded leniently, filtered entry by entry and validated
// before anything reaches the store.
package aimerge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/classroom"
	"github.com/javiermolinar/campus/internal/llm"
	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/store"
)

// Fallback selects what a failed generation shows instead of a candidate.
type Fallback string

const (
	FallbackEmpty   Fallback = "empty"
	FallbackCurrent Fallback = "current"
)

// ParseFallback validates a configured fallback name.
func ParseFallback(s string) (Fallback, error) {
	switch f := Fallback(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FallbackEmpty, nil
	case FallbackEmpty, FallbackCurrent:
		return f, nil
	default:
		return "", fmt.Errorf("unknown generation fallback %q (use %q or %q)", s, FallbackEmpty, FallbackCurrent)
	}
}

// Outcome summarizes a proposal.
type Outcome string

const (
	OutcomeAccepted         Outcome = "accepted"
	OutcomeRejected         Outcome = "rejected"
	OutcomeGenerationFailed Outcome = "generation_failed"
)

// DefaultTimeout bounds a generation call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Options configures an Adapter.
type Options struct {
	Timeout       time.Duration
	Fallback      Fallback
	PreserveCheck bool
}

// Request is one instruction for one classroom week.
type Request struct {
	Key         schedule.WeekKey
	Instruction string
	Classroom   classroom.Classroom
	TeacherID   string
}

// Proposal is the result of running an instruction. Candidate is the accepted
// week when Outcome is accepted and the fallback week otherwise.
type Proposal struct {
	Key        schedule.WeekKey
	Current    schedule.Snapshot
	Candidate  schedule.Week
	Outcome    Outcome
	Dropped    []Dropped
	Diff       []Change
	Violations []schedule.Violation
	Warnings   []string
	Raw        string

	// Committed is set by Merge once the candidate is stored.
	Committed *schedule.Snapshot
}

// Accepted reports whether the candidate passed validation.
func (p *Proposal) Accepted() bool {
	return p.Outcome == OutcomeAccepted
}

// Adapter runs generation requests against a store.
type Adapter struct {
	client  llm.Client
	store   *store.Store
	catalog *catalog.Catalog
	opts    Options
	logger  *slog.Logger
}

// New creates an Adapter.
func New(client llm.Client, s *store.Store, opts Options, logger *slog.Logger) *Adapter {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Fallback == "" {
		opts.Fallback = FallbackEmpty
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		client:  client,
		store:   s,
		catalog: s.Validator().Catalog(),
		opts:    opts,
		logger:  logger,
	}
}

// Propose runs the instruction against the current week without committing.
// On failure it returns both the proposal (carrying the fallback week) and
// an error: *GenerationError or *schedule.ValidationError.
func (a *Adapter) Propose(ctx context.Context, req Request) (*Proposal, error) {
	if strings.TrimSpace(req.Instruction) == "" {
		return nil, errors.New("instruction cannot be empty")
	}

	current, err := a.store.Get(ctx, req.Key)
	if err != nil {
		return nil, err
	}
	if req.Classroom.ID == "" {
		req.Classroom.ID = current.Key.ClassroomID
	}

	return a.propose(ctx, req, current)
}

// Merge runs Propose and commits an accepted candidate with the revision the
// proposal was computed against. The store is never modified on failure; a
// concurrent edit made while generating yields schedule.ErrStaleRevision.
func (a *Adapter) Merge(ctx context.Context, req Request) (*Proposal, error) {
	p, err := a.Propose(ctx, req)
	if err != nil {
		return p, err
	}

	committed, err := a.store.ReplaceIfRevision(ctx, p.Key, p.Candidate, p.Current.Revision)
	if err != nil {
		return p, err
	}
	p.Committed = &committed
	return p, nil
}

func (a *Adapter) propose(ctx context.Context, req Request, current schedule.Snapshot) (*Proposal, error) {
	p := &Proposal{Key: current.Key, Current: current}

	msgs, err := buildMessages(a.catalog, req.Classroom, current.Key, current.Week, req.Instruction)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, genErr := a.generate(ctx, msgs)
	p.Raw = raw
	if genErr != nil {
		return a.fail(p, genErr)
	}

	dec, ok := decodeResponse(a.catalog, raw)
	if !ok {
		return a.fail(p, &GenerationError{Reason: ReasonUnparseable, Err: errors.New("no JSON object in response")})
	}
	p.Dropped = dec.dropped
	for _, k := range dec.ignoredKeys {
		p.Warnings = append(p.Warnings, fmt.Sprintf("ignored unknown day %q in response", k))
	}

	result := a.store.Validate(dec.week)
	if !result.Valid {
		p.Outcome = OutcomeRejected
		p.Violations = result.Violations
		p.Candidate = current.Week.Clone()
		a.logger.Warn("generated schedule rejected",
			"key", p.Key.String(),
			"violations", len(result.Violations),
			"dropped", len(p.Dropped),
		)
		return p, result.Err()
	}

	p.Outcome = OutcomeAccepted
	p.Candidate = dec.week.Normalize()
	p.Diff = Diff(a.catalog, current.Week, p.Candidate)
	if a.opts.PreserveCheck {
		p.Warnings = append(p.Warnings, preserveWarnings(a.catalog, req.Instruction, p.Diff)...)
	}

	a.logger.Info("generated schedule accepted",
		"key", p.Key.String(),
		"teacher", req.TeacherID,
		"changes", len(p.Diff),
		"dropped", len(p.Dropped),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
	return p, nil
}

// generate calls the client under the configured timeout.
func (a *Adapter) generate(ctx context.Context, msgs []llm.Message) (string, *GenerationError) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	raw, err := a.client.Chat(ctx, msgs)
	if err == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return raw, &GenerationError{Reason: ReasonTimeout, Err: ctxErr}
		}
		return raw, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return raw, &GenerationError{Reason: ReasonTimeout, Err: ctxErr}
	}
	return raw, &GenerationError{Reason: ReasonService, Err: err}
}

func (a *Adapter) fail(p *Proposal, err *GenerationError) (*Proposal, error) {
	p.Outcome = OutcomeGenerationFailed
	if a.opts.Fallback == FallbackCurrent {
		p.Candidate = p.Current.Week.Clone()
	} else {
		p.Candidate = schedule.EmptyWeek()
	}
	a.logger.Warn("schedule generation failed",
		"key", p.Key.String(),
		"reason", err.Reason,
		"error", err.Err,
	)
	return p, err
}

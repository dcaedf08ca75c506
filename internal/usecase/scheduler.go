package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"wikibot/internal/domain"
	"wikibot/internal/ports"
)

// Mode is the loop termination policy.
type Mode string

const (
	// ModeFirstSuccess stops after the first committed edit.
	ModeFirstSuccess Mode = "first-success"
	// ModeBounded runs a fixed number of attempts regardless of outcomes.
	ModeBounded Mode = "bounded"
)

// PageRunner is the per-title workflow the scheduler drives.
type PageRunner interface {
	Run(ctx context.Context, title string) (domain.Result, error)
}

// SchedulerDeps wires collaborators; Tracker and Journal are optional.
type SchedulerDeps struct {
	Workflow PageRunner
	Tracker  ports.Tracker
	Journal  ports.Journal
	Selector ports.Selector
	Sleeper  ports.Sleeper
	Logger   *slog.Logger
}

// SchedulerOptions selects the termination policy and pacing.
type SchedulerOptions struct {
	Mode        Mode
	MaxAttempts int
	Pause       time.Duration
	RunID       string
}

// Summary reports what one scheduler run did.
type Summary struct {
	RunID     string
	Attempts  int
	Counts    map[domain.Outcome]int
	Committed []string
}

// Skipped counts attempts that ended before any write.
func (s Summary) Skipped() int {
	n := 0
	for outcome, count := range s.Counts {
		if outcome.Skipped() {
			n += count
		}
	}
	return n
}

// Scheduler repeatedly draws a random candidate and runs the workflow on it.
type Scheduler struct {
	workflow PageRunner
	tracker  ports.Tracker
	journal  ports.Journal
	selector ports.Selector
	sleeper  ports.Sleeper
	logger   *slog.Logger
	opts     SchedulerOptions
}

// NewScheduler fills in a time-seeded selector and a real sleeper when absent.
func NewScheduler(deps SchedulerDeps, opts SchedulerOptions) *Scheduler {
	if deps.Selector == nil {
		deps.Selector = NewRandomSelector(0)
	}
	if deps.Sleeper == nil {
		deps.Sleeper = TimerSleeper{}
	}
	if opts.Mode == "" {
		opts.Mode = ModeBounded
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Scheduler{
		workflow: deps.Workflow,
		tracker:  deps.Tracker,
		journal:  deps.Journal,
		selector: deps.Selector,
		sleeper:  deps.Sleeper,
		logger:   deps.Logger,
		opts:     opts,
	}
}

// Run drives the loop over an immutable candidate list. It returns on the
// first commit in first-success mode, after MaxAttempts (when set), or on
// the first error that is not a missing page.
func (s *Scheduler) Run(ctx context.Context, titles []string) (Summary, error) {
	summary := Summary{RunID: s.opts.RunID, Counts: map[domain.Outcome]int{}}

	if len(titles) == 0 {
		return summary, errors.New("no candidate titles")
	}
	if s.opts.Mode == ModeBounded && s.opts.MaxAttempts <= 0 {
		return summary, errors.New("bounded mode requires a positive attempt cap")
	}
	if s.opts.Mode != ModeBounded && s.opts.Mode != ModeFirstSuccess {
		return summary, fmt.Errorf("unknown scheduler mode %q", s.opts.Mode)
	}

	for s.opts.MaxAttempts == 0 || summary.Attempts < s.opts.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		title := titles[s.selector.Pick(len(titles))]
		summary.Attempts++

		result, err := s.workflow.Run(ctx, title)
		if err != nil {
			var missing *domain.ContentMissingError
			if !errors.As(err, &missing) {
				return summary, fmt.Errorf("attempt %d: %w", summary.Attempts, err)
			}
			result = domain.Result{Title: title, Outcome: domain.OutcomeSkippedMissing, Detail: missing.Code}
		}

		summary.Counts[result.Outcome]++
		s.info("page processed",
			"attempt", summary.Attempts,
			"title", result.Title,
			"outcome", result.Outcome,
			"detail", result.Detail,
		)
		s.record(ctx, result)

		if result.Outcome != domain.OutcomeCommitted {
			continue
		}

		summary.Committed = append(summary.Committed, result.Title)
		s.notify(ctx, result.Title)

		if err := s.sleeper.Sleep(ctx, s.opts.Pause); err != nil {
			return summary, err
		}
		if s.opts.Mode == ModeFirstSuccess {
			return summary, nil
		}
	}

	return summary, nil
}

// notify is best effort: a tracker failure never undoes the commit.
func (s *Scheduler) notify(ctx context.Context, title string) {
	if s.tracker == nil {
		return
	}
	if err := s.tracker.MarkDone(ctx, title); err != nil {
		s.warn("tracker notification failed", "title", title, "error", err)
	}
}

func (s *Scheduler) record(ctx context.Context, result domain.Result) {
	if s.journal == nil {
		return
	}
	err := s.journal.Record(ctx, domain.JournalEntry{
		RunID:    s.opts.RunID,
		Title:    result.Title,
		Outcome:  result.Outcome,
		Detail:   result.Detail,
		NewRevID: result.NewRevID,
	})
	if err != nil {
		s.warn("journal write failed", "title", result.Title, "error", err)
	}
}

func (s *Scheduler) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Scheduler) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// RandomSelector samples uniformly. A zero seed is replaced by the clock.
type RandomSelector struct {
	rng *rand.Rand
}

var _ ports.Selector = (*RandomSelector)(nil)

// NewRandomSelector builds a PCG-backed selector.
func NewRandomSelector(seed uint64) *RandomSelector {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandomSelector{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Pick returns an index in [0, n).
func (r *RandomSelector) Pick(n int) int {
	return r.rng.IntN(n)
}

// TimerSleeper waits on a timer and honours cancellation.
type TimerSleeper struct{}

var _ ports.Sleeper = TimerSleeper{}

// Sleep returns early with ctx.Err() when the context ends.
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

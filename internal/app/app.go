package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"wikibot/internal/candidates"
	"wikibot/internal/config"
	"wikibot/internal/domain"
	"wikibot/internal/infrastructure/mediawiki"
	"wikibot/internal/infrastructure/parser"
	"wikibot/internal/infrastructure/status"
	"wikibot/internal/infrastructure/storage"
	"wikibot/internal/infrastructure/tracker"
	"wikibot/internal/infrastructure/transform"
	"wikibot/internal/logging"
	"wikibot/internal/usecase"
)

// ErrJournalDisabled is returned by History when no journal DSN is configured.
var ErrJournalDisabled = errors.New("outcome journal is not configured")

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	session *mediawiki.Session
	gate    *mediawiki.ModerationGate
	pages   *mediawiki.Pages
	source  *parser.StrategySource
	journal *storage.Journal
}

// New builds the application. The journal is opened eagerly when a DSN is set;
// everything else stays lazy until a command needs it.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	session := mediawiki.NewSession(mediawiki.Config{
		Endpoint:       cfg.Wiki.Endpoint,
		UserAgent:      cfg.Wiki.UserAgent,
		Username:       cfg.Wiki.Username,
		Password:       cfg.Wiki.Password,
		LoginReturnURL: cfg.Wiki.LoginReturnURL,
		Timeout:        cfg.Wiki.Timeout,
	}, nil, logging.Component(baseLogger, "session"))

	registry := candidates.NewRegistry()
	registry.Register(parser.NewFileList())
	registry.Register(parser.NewHTMLList(&http.Client{Timeout: cfg.Wiki.Timeout}, cfg.Wiki.UserAgent))

	a := &Application{
		cfg:     cfg,
		logger:  baseLogger,
		session: session,
		gate:    mediawiki.NewModerationGate(session),
		pages:   mediawiki.NewPages(session),
		source:  parser.NewStrategySource(registry, cfg.Candidates, logging.Component(baseLogger, "source")),
	}

	if cfg.Journal.DSN != "" {
		journal, err := storage.Open(ctx, cfg.Journal.DSN)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		a.journal = journal
	}

	return a, nil
}

// Close releases the journal connection.
func (a *Application) Close() error {
	if a.journal == nil {
		return nil
	}
	return a.journal.Close()
}

// Run loads candidates, logs in once and drives the scheduler until its
// termination policy is met.
func (a *Application) Run(ctx context.Context) (usecase.Summary, error) {
	if err := a.cfg.Validate(); err != nil {
		return usecase.Summary{}, err
	}

	titles, err := a.source.Load(ctx)
	if err != nil {
		return usecase.Summary{}, err
	}

	if err := a.login(ctx); err != nil {
		return usecase.Summary{}, err
	}

	if a.cfg.Status.Addr != "" {
		statusCtx, stopStatus := context.WithCancel(ctx)
		defer stopStatus()
		status.NewServer(a.cfg.Status.Addr, a.statusRouter(), logging.Component(a.logger, "status")).Start(statusCtx)
	}

	scheduler := usecase.NewScheduler(a.schedulerDeps(), usecase.SchedulerOptions{
		Mode:        usecase.Mode(a.cfg.Scheduler.Mode),
		MaxAttempts: a.cfg.Scheduler.MaxAttempts,
		Pause:       a.cfg.Scheduler.Pause,
	})

	a.logger.Info("run starting",
		"candidates", len(titles),
		"mode", a.cfg.Scheduler.Mode,
		"max_attempts", a.cfg.Scheduler.MaxAttempts,
	)
	summary, err := scheduler.Run(ctx, titles)
	a.logger.Info("run finished",
		"run_id", summary.RunID,
		"attempts", summary.Attempts,
		"committed", len(summary.Committed),
	)
	return summary, err
}

// Stable reports the moderation state of one title. It logs in first when
// credentials are configured, so wikis that deny anonymous reads still answer.
func (a *Application) Stable(ctx context.Context, title string) (domain.ModerationState, error) {
	if creds := a.cfg.Wiki.Credentials(); creds.Username != "" && creds.Password != "" {
		if err := a.login(ctx); err != nil {
			return domain.ModerationState{}, err
		}
	}
	return a.gate.Moderation(ctx, title)
}

// Patrol logs in and marks one revision as patrolled.
func (a *Application) Patrol(ctx context.Context, revID int64) (domain.PatrolResult, error) {
	if revID <= 0 {
		return domain.PatrolResult{}, fmt.Errorf("revision id must be positive, got %d", revID)
	}
	if err := a.login(ctx); err != nil {
		return domain.PatrolResult{}, err
	}
	return a.pages.Patrol(ctx, revID)
}

// History returns the most recent journal entries, newest first.
func (a *Application) History(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if a.journal == nil {
		return nil, ErrJournalDisabled
	}
	return a.journal.Recent(ctx, limit)
}

func (a *Application) login(ctx context.Context) error {
	if a.session.State() == mediawiki.StateAuthenticated {
		return nil
	}
	creds := a.cfg.Wiki.Credentials()
	a.logger.Info("logging in", "credentials", creds)
	result, err := a.session.Login(ctx)
	if err != nil {
		return fmt.Errorf("login as %s: %w", creds.Username, err)
	}
	a.logger.Info("logged in", "username", result.Username)
	return nil
}

func (a *Application) schedulerDeps() usecase.SchedulerDeps {
	workflow := usecase.NewWorkflow(usecase.WorkflowDeps{
		Gate:        a.gate,
		Reader:      a.pages,
		Editor:      a.pages,
		Patroller:   a.pages,
		Transformer: transform.NewCommand(a.cfg.Transform.Command, a.cfg.Transform.Args, a.cfg.Transform.Timeout),
		Logger:      logging.Component(a.logger, "workflow"),
	}, usecase.WorkflowOptions{
		Summaries:           a.cfg.Workflow.Summaries,
		Minor:               a.cfg.Workflow.MinorEdit(),
		Bot:                 a.cfg.Workflow.Bot,
		SkipModerationCheck: a.cfg.Workflow.SkipModerationCheck,
		PatrolAfterEdit:     a.cfg.Workflow.PatrolAfterEdit,
	})

	deps := usecase.SchedulerDeps{
		Workflow: workflow,
		Selector: usecase.NewRandomSelector(a.cfg.Scheduler.Seed),
		Logger:   logging.Component(a.logger, "scheduler"),
	}
	// Optional collaborators stay nil interfaces when unconfigured.
	if a.cfg.Tracker.URL != "" {
		t := a.cfg.Tracker
		deps.Tracker = tracker.NewNotifier(t.URL, t.Project, t.View, t.Task, a.cfg.Wiki.UserAgent)
	}
	if a.journal != nil {
		deps.Journal = a.journal
	}
	return deps
}

func (a *Application) statusRouter() http.Handler {
	var reader status.JournalReader
	if a.journal != nil {
		reader = a.journal
	}
	return status.NewRouter(reader, logging.Component(a.logger, "status"))
}

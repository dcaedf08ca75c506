package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "WIKIBOT_CONFIG"
	usernameEnv    = "WIKIBOT_USERNAME"
	passwordEnv    = "WIKIBOT_PASSWORD"
	endpointEnv    = "WIKIBOT_ENDPOINT"
	journalDSNEnv  = "WIKIBOT_JOURNAL_DSN"
	defaultSummary = "Automated wikitext cleanup"
)

// Scheduler modes.
const (
	ModeFirstSuccess = "first-success"
	ModeBounded      = "bounded"
)

// Config holds high-level settings required across the application.
type Config struct {
	Wiki       WikiConfig       `yaml:"wiki"`
	Workflow   WorkflowConfig   `yaml:"workflow"`
	Transform  TransformConfig  `yaml:"transform"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Candidates CandidatesConfig `yaml:"candidates"`
	Tracker    TrackerConfig    `yaml:"tracker"`
	Journal    JournalConfig    `yaml:"journal"`
	Status     StatusConfig     `yaml:"status"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// WikiConfig describes the API endpoint and the bot identity.
type WikiConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	UserAgent      string        `yaml:"userAgent"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	LoginReturnURL string        `yaml:"loginReturnUrl"`
	Timeout        time.Duration `yaml:"timeout"`
}

// Credentials returns the login pair in a log-safe wrapper.
func (w WikiConfig) Credentials() Credentials {
	return Credentials{Username: w.Username, Password: w.Password}
}

// Credentials is a username/password pair that never prints the password.
type Credentials struct {
	Username string
	Password string
}

// LogValue implements slog.LogValuer.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("password", "[redacted]"),
	)
}

func (c Credentials) String() string {
	return c.Username + ":[redacted]"
}

// WorkflowConfig tunes the per-page pipeline.
type WorkflowConfig struct {
	Summaries           []string `yaml:"summaries"`
	Minor               *bool    `yaml:"minor"`
	Bot                 bool     `yaml:"bot"`
	SkipModerationCheck bool     `yaml:"skipModerationCheck"`
	PatrolAfterEdit     bool     `yaml:"patrolAfterEdit"`
}

// MinorEdit resolves the minor flag, defaulting to true.
func (w WorkflowConfig) MinorEdit() bool {
	if w.Minor == nil {
		return true
	}
	return *w.Minor
}

// TransformConfig points at the external rewrite command.
type TransformConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args"`
	Timeout time.Duration `yaml:"timeout"`
}

// SchedulerConfig selects the loop termination policy.
type SchedulerConfig struct {
	Mode        string        `yaml:"mode"`
	MaxAttempts int           `yaml:"maxAttempts"`
	Pause       time.Duration `yaml:"pause"`
	Seed        uint64        `yaml:"seed"`
}

// CandidatesConfig names the worklist of titles.
type CandidatesConfig struct {
	Source   string `yaml:"source"`
	Selector string `yaml:"selector"`
}

// TrackerConfig wires the external completion tracker.
type TrackerConfig struct {
	URL     string `yaml:"url"`
	Project string `yaml:"project"`
	View    string `yaml:"view"`
	Task    string `yaml:"task"`
}

// JournalConfig selects the outcome journal backend.
type JournalConfig struct {
	DSN string `yaml:"dsn"`
}

// StatusConfig enables the read-only status endpoint.
type StatusConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if a path is given) and applies environment
// overrides. An explicit path wins over WIKIBOT_CONFIG. A named file that
// cannot be read or parsed is an error: running on defaults would point the
// bot at the default wiki.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		var present fileKeys
		if err := yaml.Unmarshal(raw, &present); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg, present)
	}

	cfg.applyEnvOverrides()

	if len(cfg.Workflow.Summaries) == 0 {
		cfg.Workflow.Summaries = defaultConfig().Workflow.Summaries
	}

	return cfg, nil
}

// fileKeys records scheduler keys whose zero value is meaningful, so an
// explicit `maxAttempts: 0` or `pause: 0s` is not mistaken for an absent key.
type fileKeys struct {
	Scheduler struct {
		MaxAttempts *int           `yaml:"maxAttempts"`
		Pause       *time.Duration `yaml:"pause"`
	} `yaml:"scheduler"`
}

// Validate reports settings that would make a run impossible.
func (c Config) Validate() error {
	var errs []error
	if c.Wiki.Endpoint == "" {
		errs = append(errs, errors.New("wiki.endpoint must not be empty"))
	}
	if c.Wiki.Username == "" || c.Wiki.Password == "" {
		errs = append(errs, fmt.Errorf("wiki credentials are required (set %s and %s)", usernameEnv, passwordEnv))
	}
	if c.Scheduler.Mode != ModeFirstSuccess && c.Scheduler.Mode != ModeBounded {
		errs = append(errs, fmt.Errorf("scheduler.mode must be %q or %q, got %q", ModeFirstSuccess, ModeBounded, c.Scheduler.Mode))
	}
	if c.Scheduler.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("scheduler.maxAttempts must not be negative, got %d", c.Scheduler.MaxAttempts))
	}
	if c.Scheduler.Mode == ModeBounded && c.Scheduler.MaxAttempts == 0 {
		errs = append(errs, errors.New("scheduler.maxAttempts is required in bounded mode"))
	}
	if c.Scheduler.Pause < 0 {
		errs = append(errs, fmt.Errorf("scheduler.pause must not be negative, got %s", c.Scheduler.Pause))
	}
	if c.Transform.Command == "" {
		errs = append(errs, errors.New("transform.command must not be empty"))
	}
	if c.Candidates.Source == "" {
		errs = append(errs, errors.New("candidates.source must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(usernameEnv); v != "" {
		c.Wiki.Username = v
	}

	if v := os.Getenv(passwordEnv); v != "" {
		c.Wiki.Password = v
	}

	if v := os.Getenv(endpointEnv); v != "" {
		c.Wiki.Endpoint = v
	}

	if v := os.Getenv(journalDSNEnv); v != "" {
		c.Journal.DSN = v
	}
}

func mergeConfig(base, override Config, present fileKeys) Config {
	if override.Wiki.Endpoint != "" {
		base.Wiki.Endpoint = override.Wiki.Endpoint
	}
	if override.Wiki.UserAgent != "" {
		base.Wiki.UserAgent = override.Wiki.UserAgent
	}
	if override.Wiki.Username != "" {
		base.Wiki.Username = override.Wiki.Username
	}
	if override.Wiki.Password != "" {
		base.Wiki.Password = override.Wiki.Password
	}
	if override.Wiki.LoginReturnURL != "" {
		base.Wiki.LoginReturnURL = override.Wiki.LoginReturnURL
	}
	if override.Wiki.Timeout != 0 {
		base.Wiki.Timeout = override.Wiki.Timeout
	}

	if len(override.Workflow.Summaries) > 0 {
		base.Workflow.Summaries = override.Workflow.Summaries
	}
	if override.Workflow.Minor != nil {
		base.Workflow.Minor = override.Workflow.Minor
	}
	base.Workflow.Bot = base.Workflow.Bot || override.Workflow.Bot
	base.Workflow.SkipModerationCheck = base.Workflow.SkipModerationCheck || override.Workflow.SkipModerationCheck
	base.Workflow.PatrolAfterEdit = base.Workflow.PatrolAfterEdit || override.Workflow.PatrolAfterEdit

	if override.Transform.Command != "" {
		base.Transform.Command = override.Transform.Command
		base.Transform.Args = override.Transform.Args
	}
	if override.Transform.Timeout != 0 {
		base.Transform.Timeout = override.Transform.Timeout
	}

	if override.Scheduler.Mode != "" {
		base.Scheduler.Mode = override.Scheduler.Mode
	}
	if present.Scheduler.MaxAttempts != nil {
		base.Scheduler.MaxAttempts = *present.Scheduler.MaxAttempts
	}
	if present.Scheduler.Pause != nil {
		base.Scheduler.Pause = *present.Scheduler.Pause
	}
	if override.Scheduler.Seed != 0 {
		base.Scheduler.Seed = override.Scheduler.Seed
	}

	if override.Candidates.Source != "" {
		base.Candidates.Source = override.Candidates.Source
	}
	if override.Candidates.Selector != "" {
		base.Candidates.Selector = override.Candidates.Selector
	}

	if override.Tracker.URL != "" {
		base.Tracker.URL = override.Tracker.URL
	}
	if override.Tracker.Project != "" {
		base.Tracker.Project = override.Tracker.Project
	}
	if override.Tracker.View != "" {
		base.Tracker.View = override.Tracker.View
	}
	if override.Tracker.Task != "" {
		base.Tracker.Task = override.Tracker.Task
	}

	if override.Journal.DSN != "" {
		base.Journal = override.Journal
	}

	if override.Status.Addr != "" {
		base.Status = override.Status
	}

	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Wiki: WikiConfig{
			Endpoint:       "https://ru.wikipedia.org/w/api.php",
			UserAgent:      "wikibot/1.0 (https://ru.wikipedia.org/wiki/User:Wikibot)",
			LoginReturnURL: "http://127.0.0.1:5000/",
			Timeout:        30 * time.Second,
		},
		Workflow: WorkflowConfig{
			Summaries: []string{defaultSummary},
		},
		Transform: TransformConfig{Timeout: 2 * time.Minute},
		Scheduler: SchedulerConfig{
			Mode:        ModeBounded,
			MaxAttempts: 10,
			Pause:       10 * time.Second,
		},
		Candidates: CandidatesConfig{
			Source:   "titles.txt",
			Selector: `a[href*="/wiki/"]`,
		},
		Tracker: TrackerConfig{
			Project: "ruwiki",
			View:    "only",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

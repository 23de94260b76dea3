package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig    `toml:"logging"`
	Search      SearchConfig     `toml:"search"`
	Scope       ScopeConfig      `toml:"scope"`
	Providers   ProvidersConfig  `toml:"providers"`
	Storage     StorageConfig    `toml:"storage"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
	Vocabulary  VocabularyConfig `toml:"vocabulary"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for log lines
}

// SearchConfig controls query composition and orchestration thresholds
type SearchConfig struct {
	Augment           bool   `toml:"augment"`              // Augmentation feature flag (default: off)
	Locale            string `toml:"locale"`               // Scaffold locale, e.g. "de"
	City              string `toml:"city"`                 // Optional city appended when augmenting
	MinResultsTierA   int    `toml:"min_results_tier_a"`   // Stop calling providers within a tier at this count
	MinKeepAfterPrior int    `toml:"min_keep_after_prior"` // Escalate to the next tier below this count
	MinFinalResults   int    `toml:"min_final_results"`    // Stop the whole run at this count
	PerProviderLimit  int    `toml:"per_provider_limit"`   // Max items requested from each provider call
	RunDeadline       string `toml:"run_deadline"`         // Overall deadline for one run, e.g. "45s"
}

// RunDeadlineDuration returns the parsed run deadline, falling back to 45s.
func (c *SearchConfig) RunDeadlineDuration() time.Duration {
	return parseDurationOr(c.RunDeadline, 45*time.Second)
}

// ScopeConfig configures the geographic/temporal admission gate
type ScopeConfig struct {
	CountryCode      string `toml:"country_code" validate:"required,len=2"` // Target country, ISO 3166-1 alpha-2
	DateFrom         string `toml:"date_from"`                              // Window start, yyyy-mm-dd ("" = no window)
	DateTo           string `toml:"date_to"`                                // Window end, yyyy-mm-dd
	AllowUndated     bool   `toml:"allow_undated"`                          // Pass candidates whose date cannot be parsed
	AllowGlobalLists bool   `toml:"allow_global_lists"`                     // Pass generic listing-index pages
}

// Window returns the configured date window. Both values are nil when no
// window is configured; a malformed bound is reported as an error.
func (c *ScopeConfig) Window() (from, to *time.Time, err error) {
	if c.DateFrom != "" {
		t, perr := time.Parse("2006-01-02", c.DateFrom)
		if perr != nil {
			return nil, nil, fmt.Errorf("invalid scope.date_from %q: %w", c.DateFrom, perr)
		}
		from = &t
	}
	if c.DateTo != "" {
		t, perr := time.Parse("2006-01-02", c.DateTo)
		if perr != nil {
			return nil, nil, fmt.Errorf("invalid scope.date_to %q: %w", c.DateTo, perr)
		}
		to = &t
	}
	return from, to, nil
}

// ProviderPolicy carries the per-provider resilience parameters. Each
// provider has its own copy so a slow backend cannot borrow another's budget.
type ProviderPolicy struct {
	Enabled          bool    `toml:"enabled"`
	Timeout          string  `toml:"timeout"`           // Per-attempt timeout, e.g. "10s"
	MaxRetries       int     `toml:"max_retries"`       // Retries after the first attempt
	Backoff          string  `toml:"backoff"`           // Initial backoff, doubled per attempt
	RateLimit        float64 `toml:"rate_limit"`        // Requests per second (0 = unlimited)
	FailureThreshold int     `toml:"failure_threshold"` // Consecutive failures before the breaker opens
	Cooldown         string  `toml:"cooldown"`          // Open-state cool-down before a trial call
}

func (p *ProviderPolicy) TimeoutDuration() time.Duration {
	return parseDurationOr(p.Timeout, 10*time.Second)
}

func (p *ProviderPolicy) BackoffDuration() time.Duration {
	return parseDurationOr(p.Backoff, 500*time.Millisecond)
}

func (p *ProviderPolicy) CooldownDuration() time.Duration {
	return parseDurationOr(p.Cooldown, 30*time.Second)
}

type ProvidersConfig struct {
	WebSearch  WebSearchConfig  `toml:"websearch"`
	Structured StructuredConfig `toml:"structured"`
	LocalDB    LocalDBConfig    `toml:"localdb"`
}

// WebSearchConfig configures the crawl/SERP-backed provider
type WebSearchConfig struct {
	ProviderPolicy
	BaseURL         string `toml:"base_url"`   // SERP endpoint, query appended as ?q=
	UserAgent       string `toml:"user_agent"` // Request user agent
	BrowserFallback bool   `toml:"browser_fallback"`
	BrowserTimeout  string `toml:"browser_timeout"` // Headless render budget
}

func (c *WebSearchConfig) BrowserTimeoutDuration() time.Duration {
	return parseDurationOr(c.BrowserTimeout, 20*time.Second)
}

// StructuredConfig configures the structured search API provider
type StructuredConfig struct {
	ProviderPolicy
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// LocalDBConfig configures the local event database fallback provider
type LocalDBConfig struct {
	Enabled bool `toml:"enabled"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents embedded candidate store configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// SchedulerConfig configures recurring discovery runs
type SchedulerConfig struct {
	Enabled  bool              `toml:"enabled"`
	Searches []ScheduledSearch `toml:"searches"`
}

// ScheduledSearch is one recurring discovery run
type ScheduledSearch struct {
	Name     string `toml:"name" validate:"required"`
	Query    string `toml:"query" validate:"required"`
	City     string `toml:"city"`
	Schedule string `toml:"schedule" validate:"required"` // Cron schedule format
}

// VocabularyConfig points at the external vocabulary data file (scaffolds,
// denylist, city list). Empty path falls back to the built-in tables.
type VocabularyConfig struct {
	Path string `toml:"path"`
}

// NewDefaultConfig returns the default configuration
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Search: SearchConfig{
			Augment:           false,
			Locale:            "de",
			MinResultsTierA:   8,
			MinKeepAfterPrior: 5,
			MinFinalResults:   20,
			PerProviderLimit:  20,
			RunDeadline:       "45s",
		},
		Scope: ScopeConfig{
			CountryCode:      "DE",
			AllowUndated:     false,
			AllowGlobalLists: false,
		},
		Providers: ProvidersConfig{
			WebSearch: WebSearchConfig{
				ProviderPolicy: ProviderPolicy{
					Enabled:          true,
					Timeout:          "10s",
					MaxRetries:       2,
					Backoff:          "500ms",
					RateLimit:        1,
					FailureThreshold: 5,
					Cooldown:         "30s",
				},
				BaseURL:   "https://html.duckduckgo.com/html/",
				UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			},
			Structured: StructuredConfig{
				ProviderPolicy: ProviderPolicy{
					Enabled:          true,
					Timeout:          "8s",
					MaxRetries:       2,
					Backoff:          "400ms",
					RateLimit:        2,
					FailureThreshold: 3,
					Cooldown:         "60s",
				},
			},
			LocalDB: LocalDBConfig{Enabled: true},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{Path: "./data/invenio"},
		},
		Scheduler: SchedulerConfig{Enabled: false},
	}
}

// LoadFromFile loads configuration from a TOML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple TOML files. Later files
// override earlier ones; missing files are an error, an empty list returns
// the defaults. Environment overrides apply last.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies INVENIO_* environment variables on top of the
// loaded configuration.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("INVENIO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("INVENIO_COUNTRY_CODE"); v != "" {
		config.Scope.CountryCode = v
	}
	if v := os.Getenv("INVENIO_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("INVENIO_STRUCTURED_API_KEY"); v != "" {
		config.Providers.Structured.APIKey = v
	}
	if v := os.Getenv("INVENIO_AUGMENT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Search.Augment = b
		}
	}
}

// Validate checks structural validity, duration strings, and cron schedules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, _, err := c.Scope.Window(); err != nil {
		return err
	}

	for _, s := range c.Scheduler.Searches {
		if err := ValidateSchedule(s.Schedule); err != nil {
			return fmt.Errorf("scheduled search %q: %w", s.Name, err)
		}
	}

	return nil
}

// ValidateSchedule checks a cron schedule expression.
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("schedule is required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// IsProduction returns true when running with the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

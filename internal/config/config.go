// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/campus/internal/aimerge"
	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/classroom"
	"github.com/javiermolinar/campus/internal/db"
	"github.com/javiermolinar/campus/internal/llm"
	"github.com/javiermolinar/campus/internal/tui/theme"
)

// Config holds the application configuration.
type Config struct {
	Schedule   ScheduleConfig    `toml:"schedule"`
	LLM        LLMConfig         `toml:"llm"`
	AI         AIConfig          `toml:"ai"`
	Storage    StorageConfig     `toml:"storage"`
	Cache      CacheConfig       `toml:"cache"`
	Log        LogConfig         `toml:"log"`
	UI         UIConfig          `toml:"ui"`
	Classrooms []ClassroomConfig `toml:"classrooms"`
}

// ScheduleConfig holds the slot catalog bounds.
type ScheduleConfig struct {
	DayStart string `toml:"day_start"` // e.g., "08:00"
	DayEnd   string `toml:"day_end"`   // e.g., "18:00"
	Timezone string `toml:"timezone"`  // IANA name used to resolve "this week"; empty means local
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	Provider string `toml:"provider"` // "copilot", "openai", "lmstudio", "ollama", "gemini"
	Model    string `toml:"model"`    // e.g., "gpt-4o"
	BaseURL  string `toml:"base_url"` // e.g., "http://localhost:11434"
}

// AIConfig holds schedule generation settings.
type AIConfig struct {
	Timeout            string `toml:"timeout"`             // Go duration, e.g. "60s"
	GenerationFallback string `toml:"generation_fallback"` // "empty" or "current"
	PreserveCheck      bool   `toml:"preserve_check"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	Driver string `toml:"driver"` // "sqlite", "postgres", "memory"
	DBPath string `toml:"db_path"`
	DSN    string `toml:"dsn,omitempty"`
}

// CacheConfig holds the optional Redis cache settings.
type CacheConfig struct {
	RedisAddr string `toml:"redis_addr"` // empty disables the cache
	TTL       string `toml:"ttl"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "text" or "json"
	File   string `toml:"file"`   // empty logs to stderr
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "macchiato", "frappe", "latte"
}

// ClassroomConfig describes one classroom.
type ClassroomConfig struct {
	ID      string `toml:"id"`
	Title   string `toml:"title"`
	Subject string `toml:"subject"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Schedule: ScheduleConfig{
			DayStart: catalog.DefaultDayStart,
			DayEnd:   catalog.DefaultDayEnd,
		},
		LLM: LLMConfig{
			Provider: llm.ProviderCopilot,
			Model:    "gpt-4o",
			BaseURL:  "http://localhost:11434",
		},
		AI: AIConfig{
			Timeout:            aimerge.DefaultTimeout.String(),
			GenerationFallback: string(aimerge.FallbackEmpty),
			PreserveCheck:      true,
		},
		Storage: StorageConfig{
			Driver: db.DriverSQLite,
			DBPath: defaultDBPath(),
		},
		Cache: CacheConfig{
			TTL: "10m",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		UI: UIConfig{
			Theme: "mocha",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "campus.db"
	}
	return filepath.Join(home, ".local", "share", "campus", "campus.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "campus", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	str := map[string]*string{
		"CAMPUS_DAY_START":           &cfg.Schedule.DayStart,
		"CAMPUS_DAY_END":             &cfg.Schedule.DayEnd,
		"CAMPUS_TIMEZONE":            &cfg.Schedule.Timezone,
		"CAMPUS_LLM_PROVIDER":        &cfg.LLM.Provider,
		"CAMPUS_LLM_MODEL":           &cfg.LLM.Model,
		"CAMPUS_LLM_BASE_URL":        &cfg.LLM.BaseURL,
		"CAMPUS_AI_TIMEOUT":          &cfg.AI.Timeout,
		"CAMPUS_GENERATION_FALLBACK": &cfg.AI.GenerationFallback,
		"CAMPUS_STORAGE_DRIVER":      &cfg.Storage.Driver,
		"CAMPUS_DB_PATH":             &cfg.Storage.DBPath,
		"CAMPUS_DB_DSN":              &cfg.Storage.DSN,
		"CAMPUS_REDIS_ADDR":          &cfg.Cache.RedisAddr,
		"CAMPUS_CACHE_TTL":           &cfg.Cache.TTL,
		"CAMPUS_LOG_LEVEL":           &cfg.Log.Level,
		"CAMPUS_LOG_FORMAT":          &cfg.Log.Format,
		"CAMPUS_LOG_FILE":            &cfg.Log.File,
		"CAMPUS_UI_THEME":            &cfg.UI.Theme,
	}
	for name, field := range str {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("CAMPUS_PRESERVE_CHECK"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CAMPUS_PRESERVE_CHECK: %w", err)
		}
		cfg.AI.PreserveCheck = b
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.Catalog(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if !slices.Contains(llm.Providers(), llm.NormalizeProvider(c.LLM.Provider)) {
		return fmt.Errorf("unknown llm provider %q (use one of %s)", c.LLM.Provider, strings.Join(llm.Providers(), ", "))
	}
	if _, err := c.AITimeout(); err != nil {
		return err
	}
	if _, err := aimerge.ParseFallback(c.AI.GenerationFallback); err != nil {
		return err
	}

	switch c.Storage.Driver {
	case db.DriverSQLite:
		if c.Storage.DBPath == "" {
			return errors.New("db_path must be set")
		}
	case db.DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("dsn must be set for the postgres driver")
		}
	case db.DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Cache.RedisAddr != "" {
		if _, err := c.CacheTTL(); err != nil {
			return err
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}

	if c.UI.Theme != "" && !theme.IsAvailable(c.UI.Theme) {
		return fmt.Errorf("unknown theme %q (use one of %s)", c.UI.Theme, strings.Join(theme.Available(), ", "))
	}

	if _, err := c.Directory(); err != nil {
		return err
	}
	return nil
}

// Catalog builds the slot catalog from the schedule bounds.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	return catalog.New(c.Schedule.DayStart, c.Schedule.DayEnd)
}

// Location returns the configured timezone, or time.Local when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// AITimeout parses ai.timeout. Empty means the adapter default.
func (c *Config) AITimeout() (time.Duration, error) {
	return parseDuration(c.AI.Timeout, "ai.timeout", aimerge.DefaultTimeout)
}

// CacheTTL parses cache.ttl. Empty means ten minutes.
func (c *Config) CacheTTL() (time.Duration, error) {
	return parseDuration(c.Cache.TTL, "cache.ttl", 10*time.Minute)
}

// AIOptions returns the merge adapter options.
func (c *Config) AIOptions() (aimerge.Options, error) {
	timeout, err := c.AITimeout()
	if err != nil {
		return aimerge.Options{}, err
	}
	fallback, err := aimerge.ParseFallback(c.AI.GenerationFallback)
	if err != nil {
		return aimerge.Options{}, err
	}
	return aimerge.Options{
		Timeout:       timeout,
		Fallback:      fallback,
		PreserveCheck: c.AI.PreserveCheck,
	}, nil
}

// Directory builds the classroom directory.
func (c *Config) Directory() (*classroom.Directory, error) {
	rooms := make([]classroom.Classroom, 0, len(c.Classrooms))
	for _, r := range c.Classrooms {
		rooms = append(rooms, classroom.Classroom{ID: r.ID, Title: r.Title, Subject: r.Subject})
	}
	return classroom.NewDirectory(rooms)
}

func parseDuration(s, field string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", field, s)
	}
	return d, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/javiermolinar/campus/internal/aimerge"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Schedule.DayStart != "08:00" {
		t.Errorf("expected day_start 08:00, got %s", cfg.Schedule.DayStart)
	}
	if cfg.Schedule.DayEnd != "18:00" {
		t.Errorf("expected day_end 18:00, got %s", cfg.Schedule.DayEnd)
	}
	if cfg.LLM.Provider != "copilot" {
		t.Errorf("expected provider copilot, got %s", cfg.LLM.Provider)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("expected driver sqlite, got %s", cfg.Storage.Driver)
	}
	if cfg.AI.GenerationFallback != "empty" {
		t.Errorf("expected generation_fallback empty, got %s", cfg.AI.GenerationFallback)
	}
	if !cfg.AI.PreserveCheck {
		t.Error("expected preserve_check enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFrom_FileNotExists(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule.DayStart != "08:00" {
		t.Errorf("expected default day_start, got %s", cfg.Schedule.DayStart)
	}
}

func TestLoadFrom_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[schedule]
day_start = "07:00"
day_end = "15:00"
timezone = "Europe/Madrid"

[llm]
provider = "openai"
model = "gpt-4o-mini"
base_url = "http://localhost:11435"

[ai]
timeout = "30s"
generation_fallback = "current"
preserve_check = false

[storage]
driver = "sqlite"
db_path = "/tmp/test.db"

[cache]
redis_addr = "localhost:6379"
ttl = "5m"

[log]
level = "debug"
format = "json"

[ui]
theme = "latte"

[[classrooms]]
id = "7a"
title = "Year 7A"
subject = "Science"

[[classrooms]]
id = "8b"
title = "Year 8B"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule.DayStart != "07:00" || cfg.Schedule.DayEnd != "15:00" {
		t.Errorf("schedule bounds = %s-%s, want 07:00-15:00", cfg.Schedule.DayStart, cfg.Schedule.DayEnd)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected provider openai, got %s", cfg.LLM.Provider)
	}
	if cfg.Storage.DBPath != "/tmp/test.db" {
		t.Errorf("expected db_path /tmp/test.db, got %s", cfg.Storage.DBPath)
	}
	if cfg.UI.Theme != "latte" {
		t.Errorf("expected theme latte, got %s", cfg.UI.Theme)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected log format json, got %s", cfg.Log.Format)
	}

	opts, err := cfg.AIOptions()
	if err != nil {
		t.Fatalf("AIOptions: %v", err)
	}
	want := aimerge.Options{Timeout: 30 * time.Second, Fallback: aimerge.FallbackCurrent, PreserveCheck: false}
	if opts != want {
		t.Errorf("AIOptions = %+v, want %+v", opts, want)
	}

	ttl, err := cfg.CacheTTL()
	if err != nil || ttl != 5*time.Minute {
		t.Errorf("CacheTTL = %v, %v, want 5m", ttl, err)
	}

	c, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if slots := c.AllSlots(); len(slots) != 8 || slots[0] != "07:00-08:00" {
		t.Errorf("slots = %v", slots)
	}

	dir, err := cfg.Directory()
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if room, err := dir.Lookup("7a"); err != nil || room.Subject != "Science" {
		t.Errorf("Lookup(7a) = %+v, %v", room, err)
	}
	if len(dir.All()) != 2 {
		t.Errorf("expected 2 classrooms, got %d", len(dir.All()))
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[schedule]
day_start = "08:00"
day_end = "16:00"

[storage]
db_path = "/tmp/test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("CAMPUS_DAY_START", "10:00")
	t.Setenv("CAMPUS_LLM_MODEL", "gpt-3.5-turbo")
	t.Setenv("CAMPUS_STORAGE_DRIVER", "memory")
	t.Setenv("CAMPUS_PRESERVE_CHECK", "false")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Env should override file
	if cfg.Schedule.DayStart != "10:00" {
		t.Errorf("expected day_start 10:00 from env, got %s", cfg.Schedule.DayStart)
	}
	// File value should be kept when no env override
	if cfg.Schedule.DayEnd != "16:00" {
		t.Errorf("expected day_end 16:00 from file, got %s", cfg.Schedule.DayEnd)
	}
	if cfg.LLM.Model != "gpt-3.5-turbo" {
		t.Errorf("expected model gpt-3.5-turbo from env, got %s", cfg.LLM.Model)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("expected driver memory from env, got %s", cfg.Storage.Driver)
	}
	if cfg.AI.PreserveCheck {
		t.Error("expected preserve_check disabled from env")
	}
}

func TestLoadFrom_BadEnvBool(t *testing.T) {
	t.Setenv("CAMPUS_PRESERVE_CHECK", "sometimes")

	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for a non-boolean CAMPUS_PRESERVE_CHECK")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"day_start without leading zero", func(c *Config) { c.Schedule.DayStart = "9:00" }},
		{"day_start not whole hour", func(c *Config) { c.Schedule.DayStart = "08:30" }},
		{"day_start after day_end", func(c *Config) { c.Schedule.DayStart, c.Schedule.DayEnd = "18:00", "09:00" }},
		{"unknown timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "eliza" }},
		{"bad timeout", func(c *Config) { c.AI.Timeout = "soon" }},
		{"negative timeout", func(c *Config) { c.AI.Timeout = "-5s" }},
		{"bad fallback", func(c *Config) { c.AI.GenerationFallback = "previous" }},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }},
		{"sqlite without path", func(c *Config) { c.Storage.DBPath = "" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"bad cache ttl", func(c *Config) { c.Cache.RedisAddr, c.Cache.TTL = "localhost:6379", "forever" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"unknown theme", func(c *Config) { c.UI.Theme = "solarized" }},
		{"duplicate classroom", func(c *Config) {
			c.Classrooms = []ClassroomConfig{{ID: "7a"}, {ID: "7a"}}
		}},
		{"blank classroom id", func(c *Config) { c.Classrooms = []ClassroomConfig{{Title: "Nameless"}} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_Accepts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"provider alias", func(c *Config) { c.LLM.Provider = "lm-studio" }},
		{"empty provider", func(c *Config) { c.LLM.Provider = "" }},
		{"memory driver without path", func(c *Config) { c.Storage.Driver, c.Storage.DBPath = "memory", "" }},
		{"postgres with dsn", func(c *Config) { c.Storage.Driver, c.Storage.DSN = "postgres", "postgres://localhost/campus" }},
		{"ttl ignored without redis", func(c *Config) { c.Cache.TTL = "forever" }},
		{"utc timezone", func(c *Config) { c.Schedule.Timezone = "UTC" }},
		{"theme case-insensitive", func(c *Config) { c.UI.Theme = "Latte" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/test.db", filepath.Join(home, "test.db")},
		{"/absolute/path.db", "/absolute/path.db"},
		{"relative/path.db", "relative/path.db"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got := expandPath(tc.input)
			if got != tc.want {
				t.Errorf("expandPath(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.toml")

	cfg := Default()
	cfg.Schedule.DayStart = "07:00"
	cfg.Schedule.DayEnd = "15:00"
	cfg.Storage.DBPath = filepath.Join(tmpDir, "campus.db")
	cfg.Classrooms = []ClassroomConfig{{ID: "lab", Title: "Chemistry lab", Subject: "Chemistry"}}

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loaded.Schedule.DayStart != "07:00" {
		t.Errorf("expected day_start 07:00, got %s", loaded.Schedule.DayStart)
	}
	if loaded.Schedule.DayEnd != "15:00" {
		t.Errorf("expected day_end 15:00, got %s", loaded.Schedule.DayEnd)
	}
	if len(loaded.Classrooms) != 1 || loaded.Classrooms[0].Subject != "Chemistry" {
		t.Errorf("classrooms = %+v", loaded.Classrooms)
	}
}

package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/campus/internal/config"
	"github.com/javiermolinar/campus/internal/llm"
	"github.com/javiermolinar/campus/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  campus config`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInteractive()
		},
	}
}

func runConfigInteractive() error {
	configPath := config.DefaultConfigPath()
	fmt.Printf("Config file: %s\n\n", configPath)

	// Load existing config or create defaults
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Check if file exists
	_, fileErr := os.Stat(configPath)
	isNew := os.IsNotExist(fileErr)

	if isNew {
		fmt.Println("No config file found. Creating with default values...")
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Created %s\n\n", configPath)
	}

	// Display current config
	printConfig(cfg)

	// Ask if user wants to edit
	if !promptYesNo("\nWould you like to edit the configuration?") {
		return nil
	}

	// Interactive editing
	reader := bufio.NewReader(os.Stdin)

	cfg.Schedule.DayStart = promptValue(reader, "Day start", cfg.Schedule.DayStart)
	cfg.Schedule.DayEnd = promptValue(reader, "Day end", cfg.Schedule.DayEnd)
	cfg.Schedule.Timezone = promptValue(reader, "Timezone (empty for local)", cfg.Schedule.Timezone)
	cfg.LLM.Provider = promptChoice(reader, "LLM provider", cfg.LLM.Provider, llm.Providers())
	cfg.LLM.Model = promptValue(reader, "LLM model", cfg.LLM.Model)
	cfg.LLM.BaseURL = promptValue(reader, "LLM base URL (Ollama/LM Studio)", cfg.LLM.BaseURL)
	cfg.AI.Timeout = promptValue(reader, "Generation timeout", cfg.AI.Timeout)
	cfg.AI.GenerationFallback = promptChoice(reader, "Shown on generation failure", cfg.AI.GenerationFallback, []string{"empty", "current"})
	cfg.Storage.Driver = promptChoice(reader, "Storage driver", cfg.Storage.Driver, []string{"sqlite", "postgres", "memory"})
	switch cfg.Storage.Driver {
	case "sqlite":
		cfg.Storage.DBPath = promptValue(reader, "Database path", cfg.Storage.DBPath)
	case "postgres":
		cfg.Storage.DSN = promptValue(reader, "Postgres DSN", cfg.Storage.DSN)
	}
	cfg.Cache.RedisAddr = promptValue(reader, "Redis address (empty to disable)", cfg.Cache.RedisAddr)
	cfg.UI.Theme = promptChoice(reader, "UI theme", cfg.UI.Theme, theme.Available())
	cfg.Classrooms = promptClassrooms(reader, cfg.Classrooms)

	// Validate before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Save
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println("\nConfiguration saved!")
	return nil
}

func printConfig(cfg *config.Config) {
	fmt.Println("Current configuration:")
	fmt.Println("──────────────────────")
	fmt.Println("[schedule]")
	fmt.Printf("  day_start           = %s\n", cfg.Schedule.DayStart)
	fmt.Printf("  day_end             = %s\n", cfg.Schedule.DayEnd)
	if cfg.Schedule.Timezone != "" {
		fmt.Printf("  timezone            = %s\n", cfg.Schedule.Timezone)
	}
	fmt.Println("\n[llm]")
	fmt.Printf("  provider            = %s\n", cfg.LLM.Provider)
	fmt.Printf("  model               = %s\n", cfg.LLM.Model)
	fmt.Printf("  base_url            = %s\n", cfg.LLM.BaseURL)
	fmt.Println("\n[ai]")
	fmt.Printf("  timeout             = %s\n", cfg.AI.Timeout)
	fmt.Printf("  generation_fallback = %s\n", cfg.AI.GenerationFallback)
	fmt.Printf("  preserve_check      = %t\n", cfg.AI.PreserveCheck)
	fmt.Println("\n[storage]")
	fmt.Printf("  driver              = %s\n", cfg.Storage.Driver)
	switch cfg.Storage.Driver {
	case "sqlite":
		fmt.Printf("  db_path             = %s\n", cfg.Storage.DBPath)
	case "postgres":
		fmt.Printf("  dsn                 = %s\n", redactDSN(cfg.Storage.DSN))
	}
	if cfg.Cache.RedisAddr != "" {
		fmt.Println("\n[cache]")
		fmt.Printf("  redis_addr          = %s\n", cfg.Cache.RedisAddr)
		fmt.Printf("  ttl                 = %s\n", cfg.Cache.TTL)
	}
	fmt.Println("\n[ui]")
	fmt.Printf("  theme               = %s\n", cfg.UI.Theme)
	for _, r := range cfg.Classrooms {
		fmt.Println("\n[[classrooms]]")
		fmt.Printf("  id                  = %s\n", r.ID)
		fmt.Printf("  title               = %s\n", r.Title)
		if r.Subject != "" {
			fmt.Printf("  subject             = %s\n", r.Subject)
		}
	}
}

// redactDSN hides the password of a URL-style DSN.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	userinfo := dsn[scheme+3 : at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		return dsn[:scheme+3] + userinfo[:colon] + ":***" + dsn[at:]
	}
	return dsn
}

func promptYesNo(question string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(reader *bufio.Reader, label, current string) string {
	if current == "" {
		fmt.Printf("  %s: ", label)
	} else {
		fmt.Printf("  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptChoice(reader *bufio.Reader, label, current string, options []string) string {
	joined := strings.Join(options, ", ")
	full := fmt.Sprintf("%s (%s)", label, joined)
	for {
		value := strings.ToLower(promptValue(reader, full, current))
		for _, o := range options {
			if value == o {
				return value
			}
		}
		fmt.Printf("  Invalid value %q. Available: %s\n", value, joined)
	}
}

// promptClassrooms edits the classroom list as "id:title:subject" items.
func promptClassrooms(reader *bufio.Reader, current []config.ClassroomConfig) []config.ClassroomConfig {
	items := make([]string, len(current))
	for i, r := range current {
		items[i] = strings.TrimRight(strings.Join([]string{r.ID, r.Title, r.Subject}, ":"), ":")
	}
	fmt.Printf("  Classrooms as id:title:subject, comma-separated [%s]: ", strings.Join(items, ", "))
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return parseClassrooms(input)
}

func parseClassrooms(input string) []config.ClassroomConfig {
	var rooms []config.ClassroomConfig
	for _, item := range strings.Split(input, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, ":", 3)
		r := config.ClassroomConfig{ID: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			r.Title = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			r.Subject = strings.TrimSpace(parts[2])
		}
		rooms = append(rooms, r)
	}
	return rooms
}

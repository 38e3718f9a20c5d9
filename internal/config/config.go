package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	AI       AIConfig       `toml:"ai"`
	Student  StudentConfig  `toml:"student"`
	Reminder ReminderConfig `toml:"reminder"`
	Calendar CalendarConfig `toml:"calendar"`
}

type AIConfig struct {
	Provider        string  `toml:"provider"` // "openai" or "claude-cli"
	Model           string  `toml:"model"`
	BaseURL         string  `toml:"base_url"`
	APIKey          string  `toml:"api_key"`
	Temperature     float64 `toml:"temperature"`
	PlanTemperature float64 `toml:"plan_temperature"`
	MaxTokens       int     `toml:"max_tokens"`
	PlanMaxTokens   int     `toml:"plan_max_tokens"`
	HistoryTurns    int     `toml:"history_turns"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	Stream          bool    `toml:"stream"`
}

func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

type StudentConfig struct {
	UserID  string             `toml:"user_id"`
	Track   string             `toml:"track"`
	Targets map[string]float64 `toml:"targets"` // exam kind -> target net
}

type ReminderConfig struct {
	Enabled bool   `toml:"enabled"`
	At      string `toml:"at"` // HH:MM local time
}

type CalendarConfig struct {
	StudyStart string `toml:"study_start"` // HH:MM first task of the day starts at
	Busy       string `toml:"busy"`        // ICS URL or file path of blocks to study around
}

func DefaultConfig() Config {
	return Config{
		AI: AIConfig{
			Provider:        "openai",
			Model:           "gpt-4o-mini",
			Temperature:     0.7,
			PlanTemperature: 0.2,
			MaxTokens:       800,
			PlanMaxTokens:   2000,
			HistoryTurns:    16,
			TimeoutSeconds:  60,
			Stream:          true,
		},
		Student: StudentConfig{
			UserID: "local",
		},
		Reminder: ReminderConfig{
			Enabled: true,
			At:      "08:30",
		},
		Calendar: CalendarConfig{
			StudyStart: "16:00",
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "studylab"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := os.Getenv("STUDYLAB_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("STUDYLAB_USER"); v != "" {
		cfg.Student.UserID = v
	}
}

// Validate checks the values the rest of the program relies on.
func (c Config) Validate() error {
	switch c.AI.Provider {
	case "openai", "claude-cli":
	default:
		return fmt.Errorf("ai.provider must be \"openai\" or \"claude-cli\", got %q", c.AI.Provider)
	}
	if c.Student.UserID == "" {
		return fmt.Errorf("student.user_id must not be empty")
	}
	if _, _, err := ParseClock(c.Reminder.At); err != nil {
		return fmt.Errorf("reminder.at: %w", err)
	}
	if _, _, err := ParseClock(c.Calendar.StudyStart); err != nil {
		return fmt.Errorf("calendar.study_start: %w", err)
	}
	return nil
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (hour, minute int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	hour, err = strconv.Atoi(s[:2])
	if err != nil || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(s[3:])
	if err != nil || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// SaveTargets persists the student's target nets using a read-modify-write
// approach to preserve other settings.
func SaveTargets(path string, targets map[string]float64) error {
	cfg := make(map[string]any)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	student, ok := cfg["student"].(map[string]any)
	if !ok {
		student = make(map[string]any)
	}
	student["targets"] = targets
	cfg["student"] = student

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	out, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, out, 0644)
}

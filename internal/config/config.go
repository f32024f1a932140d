package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moorebrett0/tamapet/internal/pet"
	"github.com/moorebrett0/tamapet/internal/screentime"
)

type Config struct {
	Discord    DiscordConfig    `yaml:"discord"`
	Pet        PetConfig        `yaml:"pet"`
	Engine     EngineConfig     `yaml:"engine"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Claude     ClaudeConfig     `yaml:"claude"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Store      StoreConfig      `yaml:"store"`
	ScreenTime ScreenTimeConfig `yaml:"screen_time"`
	Settings   SettingsConfig   `yaml:"settings"`
	Proactive  ProactiveConfig  `yaml:"proactive"`
	Log        LogConfig        `yaml:"log"`
}

// DiscordConfig is optional; without a token the pet runs headless.
type DiscordConfig struct {
	BotToken           string   `yaml:"bot_token"`
	ChannelID          string   `yaml:"channel_id"`
	OwnerIDs           []string `yaml:"owner_ids"`
	AllowSpectatorCare bool     `yaml:"allow_spectator_care"`
}

type PetConfig struct {
	Name           string        `yaml:"name"`
	InitialStats   pet.Stats     `yaml:"initial_stats"`
	ActionDuration time.Duration `yaml:"action_duration"`
}

type EngineConfig struct {
	Width                      float64       `yaml:"width"`
	Height                     float64       `yaml:"height"`
	Padding                    float64       `yaml:"padding"`
	WalkSpeed                  float64       `yaml:"walk_speed"`
	DirectionChangeProbability float64       `yaml:"direction_change_probability"`
	ActionChangeProbability    float64       `yaml:"action_change_probability"`
	MotionInterval             time.Duration `yaml:"motion_interval"`
	DecayInterval              time.Duration `yaml:"decay_interval"`
	DecayRates                 pet.Stats     `yaml:"decay_rates"`
	RecoveryThreshold          float64       `yaml:"recovery_threshold"`
	RecoveryLevel              float64       `yaml:"recovery_level"`
	RecoverySleepBoost         float64       `yaml:"recovery_sleep_boost"`
	RecoveryMargin             float64       `yaml:"recovery_margin"` // energy above threshold that re-arms rest; 0 = every dip
}

type ClassifierConfig struct {
	Provider   string        `yaml:"provider"` // "http", "claude", "gemini", or "" (auto-detect)
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxTokens  int64         `yaml:"max_tokens"`
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

type ClaudeConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type StoreConfig struct {
	Driver       string        `yaml:"driver"` // "file" or "sqlite"
	Path         string        `yaml:"path"`
	SaveInterval time.Duration `yaml:"save_interval"`
}

type ScreenTimeConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// SettingsConfig mirrors the user settings form of the mobile client.
type SettingsConfig struct {
	SleepTime          string `yaml:"sleep_time"` // HH:MM
	WakeTime           string `yaml:"wake_time"`  // HH:MM
	ScreenTimeLimit    int    `yaml:"screen_time_limit"`
	UnhealthyFoodLimit int    `yaml:"unhealthy_food_limit"`
}

type ProactiveConfig struct {
	Enabled            bool          `yaml:"enabled"`
	CheckInterval      time.Duration `yaml:"check_interval"`
	DistressThreshold  float64       `yaml:"distress_threshold"`
	DistressCooldown   time.Duration `yaml:"distress_cooldown"`
	BoredomMinutes     int           `yaml:"boredom_minutes"`
	ScreenTimeCooldown time.Duration `yaml:"screen_time_cooldown"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	// Load .env file first (from same directory as binary, or working dir)
	loadDotEnv(".env")

	// Load YAML config if it exists
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// File doesn't exist — use defaults + env vars
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv lets env vars override the config file (secrets live in .env or
// the environment).
func applyEnv(cfg *Config) {
	if env := os.Getenv("DISCORD_BOT_TOKEN"); env != "" {
		cfg.Discord.BotToken = env
	}
	if env := os.Getenv("DISCORD_CHANNEL_ID"); env != "" {
		cfg.Discord.ChannelID = env
	}
	if env := os.Getenv("DISCORD_OWNER_IDS"); env != "" {
		// Comma-separated list of IDs
		var cleaned []string
		for _, id := range strings.Split(env, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				cleaned = append(cleaned, id)
			}
		}
		if len(cleaned) > 0 {
			cfg.Discord.OwnerIDs = cleaned
		}
	}
	if env := os.Getenv("ANTHROPIC_API_KEY"); env != "" {
		cfg.Claude.APIKey = env
	}
	if env := os.Getenv("GOOGLE_API_KEY"); env != "" {
		cfg.Gemini.APIKey = env
	}
	if env := os.Getenv("CLASSIFIER_PROVIDER"); env != "" {
		cfg.Classifier.Provider = env
	}
	if env := os.Getenv("CLASSIFIER_URL"); env != "" {
		cfg.Classifier.URL = env
	}
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		cfg.Log.Level = env
	}
	if env := os.Getenv("LOG_FORMAT"); env != "" {
		cfg.Log.Format = env
	}
}

// loadDotEnv reads a .env file and sets env vars that aren't already set.
func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return // no .env, that's fine
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		// Strip surrounding quotes
		if len(val) >= 2 {
			if (val[0] == '"' && val[len(val)-1] == '"') ||
				(val[0] == '\'' && val[len(val)-1] == '\'') {
				val = val[1 : len(val)-1]
			}
		}

		// Only set if not already in environment
		if os.Getenv(key) == "" && val != "" {
			os.Setenv(key, val)
		}
	}
}

func defaults() *Config {
	eng := pet.DefaultConfig()
	return &Config{
		Pet: PetConfig{
			Name:           "Tama",
			InitialStats:   pet.Stats{Energy: 80, Diet: 65, Sleep: 90, Exercise: 70},
			ActionDuration: 5 * time.Second,
		},
		Engine: EngineConfig{
			Width:                      eng.Width,
			Height:                     eng.Height,
			Padding:                    eng.Padding,
			WalkSpeed:                  eng.WalkSpeed,
			DirectionChangeProbability: eng.DirectionChangeProbability,
			ActionChangeProbability:    eng.ActionChangeProbability,
			MotionInterval:             eng.MotionInterval,
			DecayInterval:              eng.DecayInterval,
			DecayRates:                 eng.DecayRates,
			RecoveryThreshold:          eng.RecoveryThreshold,
			RecoveryLevel:              eng.RecoveryLevel,
			RecoverySleepBoost:         eng.RecoverySleepBoost,
			RecoveryMargin:             eng.RecoveryMargin,
		},
		Classifier: ClassifierConfig{
			Timeout:    30 * time.Second,
			MaxTokens:  512,
			RateLimit:  10,
			RateWindow: time.Minute,
		},
		Claude: ClaudeConfig{
			Model: "claude-sonnet-4-5-20250929",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Store: StoreConfig{
			Driver:       "file",
			Path:         "state.json",
			SaveInterval: 5 * time.Minute,
		},
		ScreenTime: ScreenTimeConfig{
			Enabled:  true,
			Interval: time.Minute,
		},
		Settings: SettingsConfig{
			SleepTime:          "22:00",
			WakeTime:           "07:00",
			ScreenTimeLimit:    240,
			UnhealthyFoodLimit: 2,
		},
		Proactive: ProactiveConfig{
			Enabled:            true,
			CheckInterval:      60 * time.Second,
			DistressThreshold:  25,
			DistressCooldown:   30 * time.Minute,
			BoredomMinutes:     120,
			ScreenTimeCooldown: time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// PetEngine converts the engine section into engine settings.
func (c *Config) PetEngine() pet.Config {
	e := c.Engine
	return pet.Config{
		Width:                      e.Width,
		Height:                     e.Height,
		Padding:                    e.Padding,
		WalkSpeed:                  e.WalkSpeed,
		DirectionChangeProbability: e.DirectionChangeProbability,
		ActionChangeProbability:    e.ActionChangeProbability,
		MotionInterval:             e.MotionInterval,
		DecayInterval:              e.DecayInterval,
		DecayRates:                 e.DecayRates,
		RecoveryThreshold:          e.RecoveryThreshold,
		RecoveryLevel:              e.RecoveryLevel,
		RecoverySleepBoost:         e.RecoverySleepBoost,
		RecoveryMargin:             e.RecoveryMargin,
	}
}

func validate(cfg *Config) error {
	if cfg.Discord.BotToken != "" {
		if cfg.Discord.ChannelID == "" {
			return fmt.Errorf("missing DISCORD_CHANNEL_ID (required with DISCORD_BOT_TOKEN)")
		}
		if len(cfg.Discord.OwnerIDs) == 0 {
			return fmt.Errorf("missing DISCORD_OWNER_IDS (required with DISCORD_BOT_TOKEN)")
		}
	}

	e := cfg.Engine
	if e.Width <= 0 || e.Height <= 0 {
		return fmt.Errorf("engine: width and height must be positive, got %vx%v", e.Width, e.Height)
	}
	if e.Padding < 0 || e.WalkSpeed < 0 {
		return fmt.Errorf("engine: padding and walk_speed must not be negative")
	}
	for name, p := range map[string]float64{
		"direction_change_probability": e.DirectionChangeProbability,
		"action_change_probability":    e.ActionChangeProbability,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("engine: %s must be within [0,1], got %v", name, p)
		}
	}
	if e.MotionInterval <= 0 || e.DecayInterval <= 0 {
		return fmt.Errorf("engine: motion_interval and decay_interval must be positive")
	}
	if e.DecayRates.Energy < 0 || e.DecayRates.Diet < 0 || e.DecayRates.Sleep < 0 || e.DecayRates.Exercise < 0 {
		return fmt.Errorf("engine: decay_rates must not be negative")
	}
	if e.RecoveryMargin < 0 {
		return fmt.Errorf("engine: recovery_margin must not be negative")
	}

	s := cfg.Settings
	if _, err := screentime.ParseClock(s.SleepTime); err != nil {
		return fmt.Errorf("settings: sleep_time: %w", err)
	}
	if _, err := screentime.ParseClock(s.WakeTime); err != nil {
		return fmt.Errorf("settings: wake_time: %w", err)
	}
	if s.ScreenTimeLimit < 0 {
		return fmt.Errorf("settings: screen_time_limit must not be negative, got %d", s.ScreenTimeLimit)
	}
	if s.UnhealthyFoodLimit < 0 {
		return fmt.Errorf("settings: unhealthy_food_limit must not be negative, got %d", s.UnhealthyFoodLimit)
	}

	if cfg.ScreenTime.Enabled && cfg.ScreenTime.Interval <= 0 {
		return fmt.Errorf("screen_time: interval must be positive")
	}
	if cfg.Proactive.Enabled && cfg.Proactive.CheckInterval <= 0 {
		return fmt.Errorf("proactive: check_interval must be positive")
	}
	if cfg.Store.SaveInterval <= 0 {
		return fmt.Errorf("store: save_interval must be positive")
	}
	switch cfg.Store.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log: unknown format %q", cfg.Log.Format)
	}
	return nil
}

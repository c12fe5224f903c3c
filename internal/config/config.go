// Package config loads the application configuration from the environment
// and an optional .env file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/example/wordmaster/internal/database"
	"github.com/example/wordmaster/internal/progress"
	"github.com/example/wordmaster/internal/quiz"
	"github.com/example/wordmaster/pkg/models"
)

// EnvPrefix prefixes every environment variable, e.g. WORDMASTER_DB_TYPE
const EnvPrefix = "WORDMASTER"

// Config represents the configuration of the application
type Config struct {
	DBType      string
	DatabaseURL string
	HTTPAddr    string
	// Empty uses the embedded corpus
	CorpusPath string

	LogLevel  string
	LogFormat string // text or json

	// Default daily goal of new learners
	DailyGoal int
	// Test results kept per learner by the maintenance job
	KeepTestResults     int
	MaintenanceInterval time.Duration
	// In-memory learner state unused this long is dropped
	IdleTrainerTTL time.Duration

	PassThresholds         map[models.Level]float64
	TestExperiencePerPoint int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_type", database.TypeSQLite)
	v.SetDefault("database_url", "data/wordmaster.db")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("corpus_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("daily_goal", 20)
	v.SetDefault("keep_test_results", 100)
	v.SetDefault("maintenance_interval", "24h")
	v.SetDefault("idle_trainer_ttl", "1h")
	v.SetDefault("pass_beginner", 70)
	v.SetDefault("pass_intermediate", 75)
	v.SetDefault("pass_advanced", 80)
	v.SetDefault("pass_master", 85)
	v.SetDefault("test_experience_per_point", 5)
}

// Load reads .env (if present) and WORDMASTER_* variables
func Load() (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		DBType:              strings.ToLower(v.GetString("db_type")),
		DatabaseURL:         v.GetString("database_url"),
		HTTPAddr:            v.GetString("http_addr"),
		CorpusPath:          v.GetString("corpus_path"),
		LogLevel:            v.GetString("log_level"),
		LogFormat:           strings.ToLower(v.GetString("log_format")),
		DailyGoal:           v.GetInt("daily_goal"),
		KeepTestResults:     v.GetInt("keep_test_results"),
		MaintenanceInterval: v.GetDuration("maintenance_interval"),
		IdleTrainerTTL:      v.GetDuration("idle_trainer_ttl"),
		PassThresholds: map[models.Level]float64{
			models.Beginner:     v.GetFloat64("pass_beginner"),
			models.Intermediate: v.GetFloat64("pass_intermediate"),
			models.Advanced:     v.GetFloat64("pass_advanced"),
			models.Master:       v.GetFloat64("pass_master"),
		},
		TestExperiencePerPoint: v.GetInt("test_experience_per_point"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch c.DBType {
	case database.TypeSQLite, database.TypeSQLitePure, database.TypePostgres:
	default:
		return fmt.Errorf("invalid DB_TYPE %q", c.DBType)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.DailyGoal <= 0 {
		return fmt.Errorf("DAILY_GOAL must be positive")
	}
	if c.MaintenanceInterval <= 0 {
		return fmt.Errorf("MAINTENANCE_INTERVAL must be positive")
	}
	if c.IdleTrainerTTL <= 0 {
		return fmt.Errorf("IDLE_TRAINER_TTL must be positive")
	}
	for level, threshold := range c.PassThresholds {
		if threshold < 0 || threshold > 100 {
			return fmt.Errorf("pass threshold for %s must be within 0-100, got %v", level, threshold)
		}
	}
	return nil
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}

// Logger builds the structured logger described by the configuration
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := c.level()
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Quiz returns the test configuration
func (c *Config) Quiz() quiz.Config {
	qc := quiz.DefaultConfig()
	for level, threshold := range c.PassThresholds {
		qc.PassThresholds[level] = threshold
	}
	if c.TestExperiencePerPoint > 0 {
		qc.ExperiencePerPoint = c.TestExperiencePerPoint
	}
	return qc
}

// Rules returns the learner profile rules
func (c *Config) Rules() progress.Rules {
	r := progress.DefaultRules()
	if c.DailyGoal > 0 {
		r.DailyGoal = c.DailyGoal
	}
	return r
}

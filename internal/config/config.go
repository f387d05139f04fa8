// Package config loads knolbox settings from defaults, an optional YAML file,
// KNOLBOX_ environment variables and command-line flags, in that order.
package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Store  StoreConfig  `koanf:"store"`
	Study  StudyConfig  `koanf:"study"`
	Stats  StatsConfig  `koanf:"stats"`
	Sync   SyncConfig   `koanf:"sync"`
	Server ServerConfig `koanf:"server"`
	Log    LogConfig    `koanf:"log"`
}

// StoreConfig holds SQLite settings.
type StoreConfig struct {
	Path         string        `koanf:"path"           validate:"required"`
	BusyTimeout  time.Duration `koanf:"busy_timeout"   validate:"gte=0s"`
	MaxOpenConns int           `koanf:"max_open_conns" validate:"gte=1"`
	// OpTimeout bounds every write once it has started.
	OpTimeout time.Duration `koanf:"op_timeout" validate:"gt=0s"`
}

// StudyConfig holds due-queue limits.
type StudyConfig struct {
	DailyGoal    int `koanf:"daily_goal"     validate:"gte=1,ltefield=MaxDailyGoal"`
	MaxDailyGoal int `koanf:"max_daily_goal" validate:"gte=1"`
}

// StatsConfig holds aggregate settings.
type StatsConfig struct {
	// Timezone is the IANA zone whose calendar days count for streaks.
	Timezone string `koanf:"timezone" validate:"required"`
}

// Location returns the loaded streak timezone. Validate has already checked
// that the name resolves.
func (s StatsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SyncConfig holds Content Catalog settings.
type SyncConfig struct {
	// Catalog is a git URL or a local directory.
	Catalog  string `koanf:"catalog"`
	ReposDir string `koanf:"repos_dir" validate:"required"`
	// Owners limits `knolbox sync` to these decks; empty means every known owner.
	Owners      []string `koanf:"owners"`
	Parallelism int      `koanf:"parallelism" validate:"gte=1,lte=64"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `koanf:"addr"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"gt=0s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"gt=0s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Path:         "knolbox.db",
			BusyTimeout:  5 * time.Second,
			MaxOpenConns: 1,
			OpTimeout:    5 * time.Second,
		},
		Study: StudyConfig{
			DailyGoal:    50,
			MaxDailyGoal: 500,
		},
		Stats: StatsConfig{
			Timezone: "UTC",
		},
		Sync: SyncConfig{
			ReposDir:    "repos",
			Parallelism: 4,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

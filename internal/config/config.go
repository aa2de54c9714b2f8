package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pairSwap/internal/amm"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Backend      string
	PGDSN        string
	ProgramID    string
	FeeNumerator uint64
	EventsOut    string
	Listen       string
	LogLevel     string

	Replay ReplayConfig
}

// ReplayConfig holds the settings of the replay command.
type ReplayConfig struct {
	In                string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	Workers           int
}

// defaults apply to keys that no flag, environment variable, or config file sets.
var defaults = map[string]interface{}{
	"backend":            BackendMemory,
	"fee-numerator":      amm.DefaultFeeNumerator,
	"listen":             ":8080",
	"log-level":          "info",
	"checkpoint":         "./data/replay_checkpoint.json",
	"checkpoint-enabled": true,
	"max-retries":        5,
	"retry-backoff":      500 * time.Millisecond,
	"workers":            4,
}

// Load resolves every key from, in decreasing precedence, flags, PAIRSWAP_*
// environment variables, the config file, and defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PAIRSWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	if err := readConfigFile(v, cfgFile); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Backend:      strings.ToLower(strings.TrimSpace(v.GetString("backend"))),
		PGDSN:        v.GetString("pg-dsn"),
		ProgramID:    strings.TrimSpace(v.GetString("program-id")),
		FeeNumerator: v.GetUint64("fee-numerator"),
		EventsOut:    v.GetString("events-out"),
		Listen:       v.GetString("listen"),
		LogLevel:     v.GetString("log-level"),
		Replay: ReplayConfig{
			In:                v.GetString("in"),
			Checkpoint:        v.GetString("checkpoint"),
			CheckpointEnabled: v.GetBool("checkpoint-enabled"),
			MaxRetries:        v.GetInt("max-retries"),
			RetryBackoff:      v.GetDuration("retry-backoff"),
			Workers:           v.GetInt("workers"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that every command depends on.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Replay.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}

// readConfigFile reads cfgFile, or ./config.* when no file is named. Only a
// named file is required to exist.
func readConfigFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && (cfgFile != "" || !errors.As(err, &notFound)) {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

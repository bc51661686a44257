package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	OpsPath           string
	Out               string
	PgDSN             string
	BatchSize         int
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AMM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("batch-size", 500)
	v.SetDefault("out", "./data/events.jsonl")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		OpsPath:           v.GetString("ops"),
		Out:               v.GetString("out"),
		PgDSN:             v.GetString("pg-dsn"),
		BatchSize:         v.GetInt("batch-size"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

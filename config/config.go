// Package config loads accelbench settings from an optional config file,
// a .env file and ACCELBENCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/weiihann/accelbench/harness"
	"github.com/weiihann/accelbench/periph"
	"github.com/weiihann/accelbench/workload"
)

const EnvPrefix = "ACCELBENCH"

// Benchmark names accepted in the benchmarks key.
const (
	BenchAES = "aes"
	BenchSHA = "sha"
	BenchRSA = "rsa"
)

// Config is the resolved run configuration.
type Config struct {
	Sizes       []int    `mapstructure:"sizes"`
	Iterations  int      `mapstructure:"iterations"`
	WarmupSize  int      `mapstructure:"warmup_size"`
	MaxSize     int      `mapstructure:"max_size"`
	HeapSize    int      `mapstructure:"heap_size"`
	CPUClock    string   `mapstructure:"cpu_clock"`
	Benchmarks  []string `mapstructure:"benchmarks"`
	Pattern     string   `mapstructure:"pattern"`
	Seed        int64    `mapstructure:"seed"`
	Detailed    bool     `mapstructure:"detailed"`
	Heartbeat   bool     `mapstructure:"heartbeat"`
	History     bool     `mapstructure:"history"`
	HistoryDB   string   `mapstructure:"history_db"`
	MetricsAddr string   `mapstructure:"metrics_addr"`
	LogLevel    string   `mapstructure:"log_level"`
	JSON        bool     `mapstructure:"json"`
}

// New returns a viper instance with defaults and environment binding set.
func New() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("sizes", workload.DefaultSizes())
	v.SetDefault("iterations", 0)
	v.SetDefault("warmup_size", harness.DefaultWarmupSize)
	v.SetDefault("max_size", harness.MaxBufferSize)
	v.SetDefault("heap_size", periph.DefaultHeapSize)
	v.SetDefault("cpu_clock", "max")
	v.SetDefault("benchmarks", []string{BenchAES, BenchSHA, BenchRSA})
	v.SetDefault("pattern", workload.PatternFill)
	v.SetDefault("seed", 0)
	v.SetDefault("detailed", false)
	v.SetDefault("heartbeat", true)
	v.SetDefault("history", true)
	v.SetDefault("history_db", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("json", false)

	return v
}

// Load reads cfgFile (if set) and the environment into v and decodes the
// result. A .env file in the working directory is loaded first when present.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	// ACCELBENCH_LOG is the short form of ACCELBENCH_LOG_LEVEL.
	if lvl := os.Getenv(EnvPrefix + "_LOG"); lvl != "" {
		v.SetDefault("log_level", lvl)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)

		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks values that viper cannot type-check.
func (c Config) Validate() error {
	if _, err := periph.ParseCPUClock(c.CPUClock); err != nil {
		return err
	}

	if err := harness.ValidateSizes(c.Sizes); err != nil {
		return err
	}

	if c.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative, got %d", c.Iterations)
	}

	if c.HeapSize <= 0 {
		return fmt.Errorf("heap_size must be positive, got %d", c.HeapSize)
	}

	for _, b := range c.Benchmarks {
		switch b {
		case BenchAES, BenchSHA, BenchRSA:
		default:
			return fmt.Errorf("unknown benchmark %q", b)
		}
	}

	return nil
}

// Enabled reports whether the named benchmark should run.
func (c Config) Enabled(name string) bool {
	for _, b := range c.Benchmarks {
		if b == name {
			return true
		}
	}

	return false
}

// Package main provides the CLI entry point for accelbench, a benchmark
// harness for cryptographic accelerator engines.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/weiihann/accelbench/config"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(logger, level)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("accelbench failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

type app struct {
	logger  *slog.Logger
	level   *slog.LevelVar
	v       *viper.Viper
	cfgFile string
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	a := &app{
		logger: logger,
		level:  level,
		v:      config.New(),
	}

	root := &cobra.Command{
		Use:   "accelbench",
		Short: "Benchmark harness for cryptographic accelerators",
		Long: `Accelbench drives the AES (CTR over DMA), SHA-256 and RSA-2048
modular exponentiation engines of a board through a sweep of data sizes and
reports throughput and latency for each size.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "",
		"Path to a config file (yaml, json or toml)")
	flags.String("log-level", "info",
		"Log level: debug, info, warn, error")
	flags.String("history-db", "",
		"Path to the SQLite run history")

	a.bind(flags.Lookup("log-level"), "log_level")
	a.bind(flags.Lookup("history-db"), "history_db")

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newCompareCmd(a))

	return root
}

// load resolves the configuration and applies the log level.
func (a *app) load() (config.Config, error) {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return config.Config{}, err
	}

	lvl, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, err
	}

	a.level.Set(lvl)

	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}

	return lvl, nil
}

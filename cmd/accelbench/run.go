package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/weiihann/accelbench/config"
	"github.com/weiihann/accelbench/harness"
	"github.com/weiihann/accelbench/history"
	"github.com/weiihann/accelbench/metrics"
	"github.com/weiihann/accelbench/periph"
	"github.com/weiihann/accelbench/report"
	"github.com/weiihann/accelbench/timing"
	"github.com/weiihann/accelbench/workload"
)

const heartbeatInterval = 500 * time.Millisecond

func (a *app) bind(f *pflag.Flag, key string) {
	if err := a.v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", f.Name, err))
	}
}

func newRunCmd(a *app) *cobra.Command {
	var (
		once  bool
		label string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the accelerator benchmarks",
		Long: `Initialise the board, then run the AES-CTR throughput sweep, the
SHA-256 latency sweep and a single RSA-2048 exponentiation. After the run the
process idles with a heartbeat until interrupted, unless --once is set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}

			return runBenchmarks(cmd.Context(), a.logger, runConfig{
				Config: cfg,
				once:   once,
				label:  label,
			})
		},
	}

	flags := cmd.Flags()
	flags.IntSlice("sizes", workload.DefaultSizes(),
		"Data sizes in bytes, in sweep order")
	flags.Int("iterations", 0,
		"Iterations per size for throughput benchmarks (0 = 100)")
	flags.Int("warmup-size", harness.DefaultWarmupSize,
		"Pre-warm size in bytes")
	flags.Int("max-size", harness.MaxBufferSize,
		"Largest data size; bigger sizes are clamped")
	flags.Int("heap-size", periph.DefaultHeapSize,
		"Board heap budget in bytes")
	flags.String("cpu-clock", "max",
		"CPU clock: max, default, 80, 160, 240")
	flags.StringSlice("benchmarks",
		[]string{config.BenchAES, config.BenchSHA, config.BenchRSA},
		"Benchmarks to run: aes, sha, rsa")
	flags.String("pattern", workload.PatternFill,
		"Input pattern: fill, counter, random")
	flags.Int64("seed", 0,
		"Seed for the random pattern")
	flags.Bool("detailed", false,
		"Record per-iteration samples and print statistics")
	flags.Bool("history", true,
		"Save the run to the history database")
	flags.String("metrics-addr", "",
		"Serve Prometheus metrics on this address while idling")
	flags.Bool("json", false,
		"Output results as JSON instead of table")
	flags.BoolVar(&once, "once", false,
		"Exit after the run instead of idling")
	flags.StringVar(&label, "label", "",
		"Label stored with the run in the history")

	for flag, key := range map[string]string{
		"sizes":        "sizes",
		"iterations":   "iterations",
		"warmup-size":  "warmup_size",
		"max-size":     "max_size",
		"heap-size":    "heap_size",
		"cpu-clock":    "cpu_clock",
		"benchmarks":   "benchmarks",
		"pattern":      "pattern",
		"seed":         "seed",
		"detailed":     "detailed",
		"history":      "history",
		"metrics-addr": "metrics_addr",
		"json":         "json",
	} {
		a.bind(flags.Lookup(flag), key)
	}

	return cmd
}

type runConfig struct {
	config.Config
	once  bool
	label string
}

func runBenchmarks(
	ctx context.Context,
	logger *slog.Logger,
	cfg runConfig,
) error {
	clock, err := periph.ParseCPUClock(cfg.CPUClock)
	if err != nil {
		return err
	}

	board, err := periph.Init(periph.Config{
		CPUClock: clock,
		HeapSize: cfg.HeapSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("init board: %w", err)
	}

	clk := timing.System{}

	// The first read pays for lazy setup.
	timing.Overhead(clk)
	logger.InfoContext(ctx, "timestamp overhead",
		slog.Int64("overhead_us", timing.Overhead(clk).Microseconds()),
	)

	gen := workload.NewGenerator(workload.Config{
		Pattern: cfg.Pattern,
		Fill:    workload.DefaultFill,
		Seed:    cfg.Seed,
	})

	recorder := metrics.NewRecorder()

	opts := harness.Options{
		Iterations: cfg.Iterations,
		WarmupSize: cfg.WarmupSize,
		MaxSize:    cfg.MaxSize,
		Detailed:   cfg.Detailed,
		Clock:      clk,
		Sink:       harness.MultiSink{report.NewLogSink(logger), recorder},
		Logger:     logger,
	}

	logger.InfoContext(ctx, "starting benchmarks",
		slog.Int("cpu_clock_mhz", int(board.CPUClock())),
		slog.Any("benchmarks", cfg.Benchmarks),
		slog.Any("sizes", cfg.Sizes),
		slog.String("pattern", cfg.Pattern),
		slog.Bool("detailed", cfg.Detailed),
	)

	var results []harness.Result

	if cfg.Enabled(config.BenchAES) {
		res, err := runAES(ctx, board, gen, opts, cfg.Sizes)
		if err != nil {
			return err
		}

		results = append(results, res...)
	}

	if cfg.Enabled(config.BenchSHA) {
		res, err := runSHA(ctx, board, gen, opts, cfg.Sizes)
		if err != nil {
			return err
		}

		results = append(results, res...)
	}

	if cfg.Enabled(config.BenchRSA) {
		res, err := runRSA(ctx, board, opts)
		if err != nil {
			return err
		}

		results = append(results, res)
	}

	if cfg.JSON {
		if err := report.GenerateJSON(os.Stdout, results); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(os.Stdout, results); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	if cfg.History {
		path := historyPath(cfg.Config)
		if err := saveRun(ctx, logger, path, cfg.label, results); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "benchmarks complete")

	if cfg.once || !cfg.Heartbeat {
		return nil
	}

	return idle(ctx, logger, recorder, cfg.MetricsAddr)
}

func runAES(
	ctx context.Context,
	board *periph.Board,
	gen *workload.Generator,
	opts harness.Options,
	sizes []int,
) ([]harness.Result, error) {
	engine, err := board.TakeAES()
	if err != nil {
		return nil, err
	}

	ch, err := board.TakeDMAChannel()
	if err != nil {
		return nil, err
	}

	dma, err := engine.WithDMA(ch)
	if err != nil {
		return nil, err
	}

	session, err := harness.NewAESSession(board, dma, gen, harness.MaxBufferSize)
	if err != nil {
		return nil, err
	}

	_, results, err := harness.RunAES(ctx, opts, session, sizes)
	if err != nil {
		return nil, fmt.Errorf("aes benchmark: %w", err)
	}

	return results, nil
}

func runSHA(
	ctx context.Context,
	board *periph.Board,
	gen *workload.Generator,
	opts harness.Options,
	sizes []int,
) ([]harness.Result, error) {
	engine, err := board.TakeSHA()
	if err != nil {
		return nil, err
	}

	session, err := harness.NewSHASession(engine, gen, harness.MaxBufferSize)
	if err != nil {
		return nil, err
	}

	_, results, err := harness.RunSHA(ctx, opts, session, sizes)
	if err != nil {
		return nil, fmt.Errorf("sha benchmark: %w", err)
	}

	return results, nil
}

func runRSA(
	ctx context.Context,
	board *periph.Board,
	opts harness.Options,
) (harness.Result, error) {
	engine, err := board.TakeRSA()
	if err != nil {
		return harness.Result{}, err
	}

	ops, err := harness.PlaceholderOperands()
	if err != nil {
		return harness.Result{}, err
	}

	session, err := harness.NewRSASession(engine, ops)
	if err != nil {
		return harness.Result{}, err
	}
	defer session.Close()

	_, result, err := harness.RunRSA(ctx, opts, session)
	if err != nil {
		return harness.Result{}, fmt.Errorf("rsa benchmark: %w", err)
	}

	return result, nil
}

func saveRun(
	ctx context.Context,
	logger *slog.Logger,
	path, label string,
	results []harness.Result,
) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	run := &history.Run{Label: label, Results: results}
	if err := store.Save(ctx, run); err != nil {
		return err
	}

	logger.InfoContext(ctx, "run saved",
		slog.String("id", run.ID),
		slog.String("path", path),
	)

	return nil
}

// idle keeps the process alive after the run until ctx is cancelled.
func idle(
	ctx context.Context,
	logger *slog.Logger,
	recorder *metrics.Recorder,
	addr string,
) error {
	errCh := make(chan error, 1)

	if addr != "" {
		go func() {
			errCh <- recorder.Serve(ctx, addr, logger)
		}()
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if addr != "" {
				return <-errCh
			}

			return nil

		case err := <-errCh:
			return err

		case <-ticker.C:
			logger.DebugContext(ctx, "heartbeat")
		}
	}
}

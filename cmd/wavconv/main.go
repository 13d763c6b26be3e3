// Command wavconv batch-converts audio folders with ffmpeg: CAF takes to
// WAV (optionally trimming leading silence), or 32-bit WAV masters down to
// 24 and/or 16 bit. With --serve it exposes the same runner over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/audio"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/check"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/config"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/display"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/ffmpeg"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/logging"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/metrics"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/pipeline"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/probe"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/report"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/server"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/term"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: bootstrap. Errors go straight to stderr until the logger exists.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, os.Args[1:], version); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "wavconv: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "wavconv: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wavconv: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: signals. The first interrupt lets the current file finish.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.CheckOnly {
		display.PrintBanner(os.Stdout, version)
		if check.RunCheck(ctx, &cfg, log) > 0 {
			return 1
		}
		return 0
	}

	cls := newClassifier(&cfg)
	enc := newEncoder(&cfg, log)

	switch {
	case cfg.ServeAddr != "":
		return serve(ctx, &cfg, enc, cls, log)
	case cfg.ListOnly:
		rows, err := pipeline.Inventory(ctx, &cfg, cls, log)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("%v", err)
			return 1
		}
		pipeline.PrintInventory(os.Stdout, log, rows)
		return 0
	}

	// Phase 3: a single batch from the command line.
	display.PrintBanner(os.Stdout, version)
	log.Info("=== wavconv v%s (%s) ===", version, commit)
	log.Info("Mode:   %s (%s)", cfg.Mode, cfg.Traversal)
	log.Info("Source: %s", cfg.SourceDir)
	if cfg.OutputDir != "" {
		log.Info("Output: %s", cfg.OutputDir)
	}
	if cfg.DryRun {
		log.Warn("DRY RUN: no files will be written")
	}
	log.Info("")

	if !cfg.DryRun {
		if err := check.CheckDeps(ctx, &cfg); err != nil {
			log.Error("%v", err)
			log.Error("Run 'wavconv --check' for details")
			return 1
		}
	}

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		m = metrics.NewMetrics(reg)
		go serveMetrics(ctx, cfg.MetricsAddr, reg, log)
	}

	console := report.NewConsole(log)
	sinks := []pipeline.Sink{console}
	if !cfg.NoProgress && term.IsTerminal(os.Stderr) && !term.Dumb() {
		bar := report.NewBar(os.Stderr, term.Enabled())
		console.Quiet = true
		console.Before = bar.Clear
		sinks = append([]pipeline.Sink{bar}, sinks...)
	}
	if m != nil {
		sinks = append(sinks, report.NewMetricsSink(m))
	}
	out := pipeline.NewAsyncSink(pipeline.Multi(sinks...))

	runner := pipeline.NewRunner(enc, cls, out, log)
	sum, err := runner.Run(ctx, &cfg)
	out.Close()
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if sum.Errored > 0 {
		return 1
	}
	return 0
}

// serve runs the control server until interrupted. Run events are logged
// to the console as well as streamed to clients.
func serve(ctx context.Context, cfg *config.Config, enc pipeline.Encoder, cls pipeline.Classifier, log *logging.Logger) int {
	display.PrintBanner(os.Stdout, version)

	if !cfg.DryRun {
		if err := check.CheckDeps(ctx, cfg); err != nil {
			log.Warn("%v (runs will fail until this is fixed)", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	bus := pipeline.NewEventBus(0)
	hub := server.NewHub(log)
	console := report.NewConsole(log)
	console.Quiet = !cfg.Verbose
	out := pipeline.NewAsyncSink(pipeline.Multi(console, report.NewMetricsSink(m)))
	defer out.Close()

	runner := pipeline.NewRunner(enc, cls, pipeline.Multi(server.Publisher(bus, hub), out), log)
	srv := server.New(server.Options{
		Runner:   runner,
		Bus:      bus,
		Hub:      hub,
		Base:     *cfg,
		Version:  version,
		Metrics:  m,
		Gatherer: reg,
		Log:      log,
	})
	if err := srv.Run(ctx, cfg.ServeAddr); err != nil {
		log.Error("Control server: %v", err)
		return 1
	}
	return 0
}

// serveMetrics exposes reg on addr for the lifetime of a CLI run.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Debug("Metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn("Metrics listener: %v", err)
	}
}

func newClassifier(cfg *config.Config) *audio.Classifier {
	cls := &audio.Classifier{}
	if cfg.ProbeFallback {
		cls.Fallback = probe.Prober{Bin: cfg.FFprobeBin}
	}
	return cls
}

func newEncoder(cfg *config.Config, log *logging.Logger) pipeline.Encoder {
	if cfg.DryRun {
		return ffmpeg.DryRun{Bin: cfg.FFmpegBin}
	}
	var tee io.Writer
	if cfg.Verbose {
		tee = log.Writer("FFMPEG")
	}
	return ffmpeg.NewEncoder(cfg, tee)
}

//go:build cgo && (linux || darwin)

// Command oclstat builds the preloadable leak tracker:
//
//	go build -buildmode=c-shared -o liboclstat.so ./cmd/oclstat
//	LD_PRELOAD=./liboclstat.so ./app
//
// The library exports the OpenCL object lifecycle entry points, forwards
// them to the real implementation and prints a report when the process
// exits or receives the dump signal. Settings come from OCLSTAT_*
// environment variables, see oclstat.LoadConfig.
package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zimwip/oclstat"
	"github.com/zimwip/oclstat/native"
)

var (
	setupOnce sync.Once
	tracker   *oclstat.Tracker
)

// shim returns the process-wide tracker, setting it up on the first
// intercepted call.
func shim() *oclstat.Tracker {
	setupOnce.Do(setup)
	return tracker
}

func setup() {
	cfg, err := oclstat.ConfigFromEnv()
	if err != nil {
		oclstat.Fatal(err)
	}
	oclstat.SetLogger(oclstat.NewLogger(cfg, os.Stderr))
	log := oclstat.Logger()

	out, err := openOutput(cfg.Output)
	if err != nil {
		oclstat.Fatal(err)
	}

	res := native.NewResolver(cfg.Library)
	if err := res.Open(); err != nil {
		oclstat.Fatal(err)
	}

	var stacks oclstat.StackSnapshotter = oclstat.NoStacks{}
	if cfg.StackTrace && cfg.StackDepth > 0 {
		s := native.Stacks{Depth: cfg.StackDepth}
		s.Enable()
		stacks = s
	}
	t := oclstat.New(native.NewBackend(res, oclstat.Fatal),
		oclstat.WithConfig(cfg),
		oclstat.WithStacks(stacks),
		oclstat.WithOutput(out),
	)

	rep := oclstat.NewReporter(t, out, oclstat.WithReporterConfig(cfg))
	rep.Start()
	err = native.AtExit(func() {
		rep.Close()
		if err := rep.Dump(oclstat.TriggerExit); err != nil {
			log.Warn("exit report failed", "err", err)
		}
	})
	if err != nil {
		log.Warn("no exit report", "err", err)
	}

	if cfg.MetricsAddr != "" {
		serveMetrics(cfg.MetricsAddr, t)
	}

	log.Info("tracking", "library", res.Path(), "retention", cfg.Retention.String(), "on_violation", cfg.OnViolation.String())
	tracker = t
}

func openOutput(name string) (io.Writer, error) {
	switch name {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open report output: %w", err)
	}
	return f, nil
}

func serveMetrics(addr string, t *oclstat.Tracker) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		oclstat.NewCollector(t),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			oclstat.Logger().Warn("metrics endpoint stopped", "addr", addr, "err", err)
		}
	}()
}

func main() {}

// Command reefmapd serves the coral survey dashboard API. It loads the
// dataset from the source selected via REEFMAP_DATASET_SOURCE, aggregates it
// into colony timelines, and exposes queries, view controls, and Prometheus
// metrics over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reefmap/internal/core"
	"reefmap/internal/httpapi"
	"reefmap/internal/parse"
	"reefmap/internal/source"
)

func main() {
	os.Exit(cli(os.Args[1:], os.Stdout, os.Stderr))
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reefmapd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		addr     string
		interval time.Duration
	)
	fs.StringVar(&addr, "addr", ":8080", "listen address")
	fs.DurationVar(&interval, "animation-interval", time.Second, "year advance cadence while playing")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := run(addr, interval, stdout); err != nil {
		fmt.Fprintf(stderr, "reefmapd: %v\n", err)
		return 1
	}
	return 0
}

type stdLogger struct {
	l *log.Logger
}

func (s stdLogger) Infof(format string, args ...any)  { s.l.Printf("INFO "+format, args...) }
func (s stdLogger) Warnf(format string, args ...any)  { s.l.Printf("WARN "+format, args...) }
func (s stdLogger) Errorf(format string, args ...any) { s.l.Printf("ERROR "+format, args...) }

func run(addr string, interval time.Duration, stdout io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := stdLogger{l: log.New(stdout, "", log.LstdFlags|log.LUTC)}

	src, err := source.OpenFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("open dataset source: %w", err)
	}
	doc, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset (%s): %w", src.Driver(), err)
	}
	ds, report := parse.Dataset(doc)
	if len(report.Skipped) > 0 {
		logger.Warnf("parser skipped %d records", len(report.Skipped))
	}
	if report.GenusFallbacks > 0 {
		logger.Warnf("genus fallback applied to %d records", report.GenusFallbacks)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := core.NewPrometheusMetricsRecorder(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	svc := core.NewService(ds, interval,
		core.WithLogger(logger),
		core.WithMetrics(recorder),
	)
	defer svc.Close()

	mux := http.NewServeMux()
	mux.Handle("/", httpapi.NewHandler(svc))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// Command snapshot runs the reservoir pipeline once, without a cache or
// server, and writes the resulting series as indented JSON.
//
// Usage:
//
//	go run ./cmd/snapshot -years 3 -out data/reservoirs_3y.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/reservoir-levels-service/internal/adapter/eydap"
	"github.com/couchcryptid/reservoir-levels-service/internal/domain"
	"github.com/couchcryptid/reservoir-levels-service/internal/observability"
	"github.com/couchcryptid/reservoir-levels-service/internal/pipeline"
)

// maxYears mirrors the service's default MAX_YEARS.
const maxYears = 10

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	years := fs.Int("years", 1, "number of years to load (1-10)")
	out := fs.String("out", "", "output path; stdout when empty")
	baseURL := fs.String("base-url", eydap.DefaultBaseURL, "EYDAP savings API base URL")
	timeout := fs.Duration("timeout", 15*time.Second, "per-request timeout")
	tz := fs.String("tz", "Local", "IANA zone that defines calendar days")
	if err := fs.Parse(args); err != nil {
		return err
	}

	loc := time.Local
	if *tz != "Local" {
		var err error
		if loc, err = time.LoadLocation(*tz); err != nil {
			return fmt.Errorf("invalid -tz: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetricsForTesting()

	client := eydap.NewClient(*baseURL, *timeout, metrics, logger)
	orch := pipeline.NewOrchestrator(client, 0, loc, logger)
	svc := pipeline.NewService(orch, pipeline.NewSeriesCache(), nil,
		pipeline.ServiceConfig{MaxYears: maxYears, Location: loc}, logger, metrics)

	res, err := svc.Load(ctx, *years, pipeline.LoadOptions{
		Progress: func(p int) { log.Printf("progress: %d%%", p) },
	})
	switch {
	case errors.Is(err, domain.ErrNoData):
		return fmt.Errorf("no reservoir data for the last %d year(s): %w", *years, err)
	case err != nil:
		return err
	}

	data, err := json.MarshalIndent(domain.NewSnapshot(*years, res.Series, loc), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	if *out == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Printf("wrote %d points to %s", res.Series.Len(), *out)
	return nil
}

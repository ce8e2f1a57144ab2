package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/reservoir-levels-service/internal/domain"
	"github.com/couchcryptid/reservoir-levels-service/internal/observability"
	"github.com/couchcryptid/reservoir-levels-service/internal/pipeline"
)

// today is Saturday 17 Oct 2026.
var today = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(today.Add(9 * time.Hour)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFetcher serves canned datasets keyed by anchor date and records every call.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   []time.Time
	respond func(ctx context.Context, anchor time.Time) ([]domain.RawRecord, error)
}

func (f *fakeFetcher) FetchYear(ctx context.Context, anchor time.Time) ([]domain.RawRecord, error) {
	f.mu.Lock()
	f.calls = append(f.calls, anchor)
	f.mu.Unlock()
	return f.respond(ctx, anchor)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// record builds a raw record with a Mornos reading and fixed values for the
// other three reservoirs (total = mornos + 60).
func record(date string, mornos float64) domain.RawRecord {
	return domain.RawRecord{
		"date":     date,
		"Mornos":   mornos,
		"Evinos":   10.0,
		"yliki":    "20",
		"Marathon": 30.0,
	}
}

// yearOf returns the day before the anchor (a Friday in 2026) and the anchor itself.
func yearOf(mornos float64) func(context.Context, time.Time) ([]domain.RawRecord, error) {
	return func(_ context.Context, anchor time.Time) ([]domain.RawRecord, error) {
		return []domain.RawRecord{
			record(anchor.AddDate(0, 0, -1).Format("2006-01-02"), mornos),
			record(anchor.Format("02/01/2006"), 0),
		}, nil
	}
}

type recordingPublisher struct {
	mu        sync.Mutex
	published map[int]domain.Series
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, years int, s domain.Series) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.published == nil {
		p.published = make(map[int]domain.Series)
	}
	p.published[years] = s
	return p.err
}

func newService(f pipeline.YearFetcher, pub pipeline.Publisher) (*pipeline.Service, *pipeline.SeriesCache, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	cache := pipeline.NewSeriesCache()
	orch := pipeline.NewOrchestrator(f, 0, time.UTC, discardLogger())
	svc := pipeline.NewService(orch, cache, pub, pipeline.ServiceConfig{MaxYears: 10, Location: time.UTC}, discardLogger(), metrics)
	return svc, cache, metrics
}

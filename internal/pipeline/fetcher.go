package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/reservoir-levels-service/internal/domain"
)

// YearFetcher retrieves the raw records of the yearly dataset anchored at a date.
type YearFetcher interface {
	FetchYear(ctx context.Context, anchor time.Time) ([]domain.RawRecord, error)
}

// yearOutcome is what one request settled to. A failed request keeps its
// error and contributes no records.
type yearOutcome struct {
	offset  int
	anchor  time.Time
	records []domain.RawRecord
	err     error
}

// FetchResult is the aggregate of one fan-out.
type FetchResult struct {
	Records  []domain.RawRecord
	Requests int
	Failed   int
}

// Orchestrator issues one request per year offset and aggregates whatever succeeds.
type Orchestrator struct {
	fetcher     YearFetcher
	concurrency int
	loc         *time.Location
	logger      *slog.Logger
}

// NewOrchestrator creates an Orchestrator. concurrency bounds the number of
// in-flight requests; 0 runs every offset at once.
func NewOrchestrator(fetcher YearFetcher, concurrency int, loc *time.Location, logger *slog.Logger) *Orchestrator {
	if loc == nil {
		loc = time.Local
	}
	return &Orchestrator{
		fetcher:     fetcher,
		concurrency: concurrency,
		loc:         loc,
		logger:      logger,
	}
}

// Fetch requests the datasets for offsets 0..years-1, anchored at today minus
// each offset. Individual failures are logged and counted but never returned;
// the only error is the context's, when the caller gives up. progress, if set,
// reaches 100 when the last request settles.
func (o *Orchestrator) Fetch(ctx context.Context, years int, progress ProgressFunc) (FetchResult, error) {
	anchors := domain.AnchorDates(years, o.loc)
	outcomes := make([]yearOutcome, len(anchors))
	counter := newProgressCounter(len(anchors), progress)

	var g errgroup.Group
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	for i, anchor := range anchors {
		g.Go(func() error {
			defer counter.complete()
			outcomes[i] = o.fetchOne(ctx, i, anchor)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return FetchResult{}, err
	}

	result := FetchResult{Requests: len(anchors)}
	for _, out := range outcomes {
		if out.err != nil {
			result.Failed++
			continue
		}
		result.Records = append(result.Records, out.records...)
	}
	return result, nil
}

func (o *Orchestrator) fetchOne(ctx context.Context, offset int, anchor time.Time) yearOutcome {
	out := yearOutcome{offset: offset, anchor: anchor}
	if err := ctx.Err(); err != nil {
		out.err = err
		return out
	}

	out.records, out.err = o.fetcher.FetchYear(ctx, anchor)
	if out.err != nil {
		out.records = nil
		o.logger.Warn("yearly fetch failed, continuing without it",
			"year_offset", offset,
			"anchor", anchor.Format("2006-01-02"),
			"error", out.err,
		)
	}
	return out
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/reservoir-levels-service/internal/domain"
	"github.com/couchcryptid/reservoir-levels-service/internal/observability"
)

// MaxWindowMonths is the longest month window served from the one-year series.
const MaxWindowMonths = 12

const publishTimeout = 10 * time.Second

var (
	// ErrInvalidDepth is returned for a year depth outside [1, MaxYears].
	ErrInvalidDepth = errors.New("invalid depth in years")
	// ErrInvalidWindow is returned for a month window outside [1, MaxWindowMonths].
	ErrInvalidWindow = errors.New("invalid window in months")
)

// Publisher receives every freshly computed series.
type Publisher interface {
	Publish(ctx context.Context, years int, series domain.Series) error
}

// LoadOptions controls a single load.
type LoadOptions struct {
	// Force bypasses the cache and overwrites the entry with the new result.
	Force bool
	// Progress is called with the load's percentage. Optional.
	Progress ProgressFunc
}

// Result is a processed series together with how it was obtained.
type Result struct {
	Series     domain.Series
	Years      int
	Months     int
	Cached     bool
	Invocation string
}

// ServiceConfig bounds what a Service accepts.
type ServiceConfig struct {
	MaxYears int
	Location *time.Location
}

// Service ties the cache, the fetch orchestrator, and the processing stages
// together. Concurrent loads for the same depth are ordered by generation;
// only the newest may write the cache, the shared progress record, or publish.
type Service struct {
	orchestrator *Orchestrator
	cache        *SeriesCache
	tracker      *ProgressTracker
	publisher    Publisher
	maxYears     int
	loc          *time.Location
	logger       *slog.Logger
	metrics      *observability.Metrics
	ready        atomic.Bool

	mu          sync.Mutex
	generations map[int]uint64
}

// NewService creates a Service. publisher may be nil.
func NewService(orch *Orchestrator, cache *SeriesCache, publisher Publisher, cfg ServiceConfig, logger *slog.Logger, metrics *observability.Metrics) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		orchestrator: orch,
		cache:        cache,
		tracker:      NewProgressTracker(),
		publisher:    publisher,
		maxYears:     cfg.MaxYears,
		loc:          loc,
		logger:       logger,
		metrics:      metrics,
		generations:  make(map[int]uint64),
	}
}

// CheckReadiness returns nil once any load has produced a series.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no reservoir series has been loaded yet")
	}
	return nil
}

// Location is the zone that defines calendar days for this service.
func (s *Service) Location() *time.Location { return s.loc }

// Progress returns the latest progress of the newest load for years.
func (s *Service) Progress(years int) (ProgressSnapshot, bool) {
	return s.tracker.Get(years)
}

// Load returns the weekly series covering the last years years. A cached
// series is returned without network activity unless opts.Force is set.
// Failures are ErrInvalidDepth, domain.ErrNoData, an error wrapping
// domain.ErrProcessing, or the context's error.
func (s *Service) Load(ctx context.Context, years int, opts LoadOptions) (Result, error) {
	if years < 1 || years > s.maxYears {
		return Result{}, fmt.Errorf("%w: %d (allowed 1-%d)", ErrInvalidDepth, years, s.maxYears)
	}

	if !opts.Force {
		if series, ok := s.cache.Get(years); ok {
			s.metrics.CacheLookups.WithLabelValues("hit").Inc()
			if opts.Progress != nil {
				opts.Progress(100)
			}
			return Result{Series: series, Years: years, Cached: true}, nil
		}
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
	} else {
		s.metrics.CacheLookups.WithLabelValues("refresh").Inc()
	}

	gen, invocation := s.begin(years)
	logger := s.logger.With("invocation", invocation, "years", years)
	logger.Info("loading reservoir series", "force", opts.Force)

	report := func(percent int) {
		if opts.Progress != nil {
			opts.Progress(percent)
		}
		s.tracker.update(years, gen, percent)
	}

	start := time.Now()
	fetched, err := s.orchestrator.Fetch(ctx, years, report)
	if err != nil {
		s.metrics.Loads.WithLabelValues("canceled").Inc()
		logger.Info("load abandoned", "error", err)
		return Result{Invocation: invocation}, err
	}
	if fetched.Failed > 0 {
		logger.Warn("some yearly requests failed", "failed", fetched.Failed, "requests", fetched.Requests)
	}

	series, stats, err := domain.BuildSeries(fetched.Records, s.loc)
	s.metrics.RecordsFetched.Add(float64(stats.Records))
	s.metrics.RecordsRejected.Add(float64(stats.Rejected))
	s.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := "processing_error"
		if errors.Is(err, domain.ErrNoData) {
			outcome = "no_data"
		}
		s.metrics.Loads.WithLabelValues(outcome).Inc()
		logger.Error("load failed", "error", err, "records", stats.Records, "rejected", stats.Rejected)
		return Result{Invocation: invocation}, err
	}

	s.metrics.Loads.WithLabelValues("success").Inc()
	s.ready.Store(true)
	logger.Info("reservoir series loaded",
		"records", stats.Records,
		"rejected", stats.Rejected,
		"points", stats.Points,
		"duration", time.Since(start),
	)

	if s.commit(years, gen, series) {
		s.metrics.SeriesPoints.WithLabelValues(strconv.Itoa(years)).Set(float64(series.Len()))
		s.publish(ctx, logger, years, series)
	} else {
		s.metrics.LoadsSuperseded.Inc()
		logger.Info("newer load started for this depth, result not cached")
	}

	return Result{Series: series, Years: years, Invocation: invocation}, nil
}

// Invalidate drops the cached series for years so the next load refetches it.
func (s *Service) Invalidate(years int) error {
	if years < 1 || years > s.maxYears {
		return fmt.Errorf("%w: %d (allowed 1-%d)", ErrInvalidDepth, years, s.maxYears)
	}
	s.cache.Invalidate(years)
	s.logger.Info("series cache entry invalidated", "years", years)
	return nil
}

// LoadWindow returns the last months months of the one-year series. The
// cached one-year entry is shared and never trimmed in place.
func (s *Service) LoadWindow(ctx context.Context, months int, opts LoadOptions) (Result, error) {
	if months < 1 || months > MaxWindowMonths {
		return Result{}, fmt.Errorf("%w: %d (allowed 1-%d)", ErrInvalidWindow, months, MaxWindowMonths)
	}

	res, err := s.Load(ctx, 1, opts)
	if err != nil {
		return res, err
	}

	cutoff := domain.SubMonths(domain.Today(s.loc), months)
	res.Series = res.Series.Since(cutoff)
	res.Months = months
	if res.Series.Len() == 0 {
		return Result{Invocation: res.Invocation}, domain.ErrNoData
	}
	return res, nil
}

// begin allocates the next generation for years and resets its shared progress.
func (s *Service) begin(years int) (uint64, string) {
	invocation := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generations[years]++
	gen := s.generations[years]
	s.tracker.start(years, gen, invocation)
	return gen, invocation
}

// commit stores series if gen is still the newest load for years.
func (s *Service) commit(years int, gen uint64, series domain.Series) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generations[years] != gen {
		return false
	}
	s.cache.Set(years, series)
	return true
}

func (s *Service) publish(ctx context.Context, logger *slog.Logger, years int, series domain.Series) {
	if s.publisher == nil {
		return
	}
	// The snapshot outlives the request that triggered the load.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, years, series); err != nil {
		s.metrics.PublishErrors.Inc()
		logger.Error("publish series snapshot failed", "error", err)
	}
}

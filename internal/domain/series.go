package domain

import (
	"fmt"
	"slices"
	"time"
)

// rangeLabelLayout renders e.g. "Oct 2025".
const rangeLabelLayout = "Jan 2006"

// Series is the chronologically ordered weekly output of the pipeline.
type Series struct {
	Points []SampledPoint
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Points) }

// Latest returns the most recent point.
func (s Series) Latest() (SampledPoint, bool) {
	if len(s.Points) == 0 {
		return SampledPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// RangeLabel renders "<first month> - <last month>", e.g. "Oct 2025 - Oct 2026".
// An empty series yields "".
func (s Series) RangeLabel(loc *time.Location) string {
	if len(s.Points) == 0 {
		return ""
	}
	first := s.Points[0].Time(loc).Format(rangeLabelLayout)
	last := s.Points[len(s.Points)-1].Time(loc).Format(rangeLabelLayout)
	return first + " - " + last
}

// Since returns a copy holding only points at or after cutoff.
func (s Series) Since(cutoff time.Time) Series {
	ms := cutoff.UnixMilli()
	i, _ := slices.BinarySearchFunc(s.Points, ms, func(p SampledPoint, target int64) int {
		switch {
		case p.Timestamp < target:
			return -1
		case p.Timestamp > target:
			return 1
		default:
			return 0
		}
	})
	return Series{Points: slices.Clone(s.Points[i:])}
}

// BuildStats counts what happened to the raw input during BuildSeries.
type BuildStats struct {
	Records  int
	Rejected int
	Points   int
}

// BuildSeries runs the processing stages over an aggregated batch of raw
// records: parse, stable chronological sort, forward fill, weekly sampling.
// It fails with ErrNoData when no point survives, and with an error wrapping
// ErrProcessing if any stage faults.
func BuildSeries(records []RawRecord, loc *time.Location) (series Series, stats BuildStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			series = Series{}
			err = fmt.Errorf("%w: %v", ErrProcessing, r)
		}
	}()

	stats.Records = len(records)

	observations := make([]Observation, 0, len(records))
	for _, rec := range records {
		obs, ok := ParseRecord(rec, loc)
		if !ok {
			stats.Rejected++
			continue
		}
		observations = append(observations, obs)
	}

	slices.SortStableFunc(observations, func(a, b Observation) int {
		return a.Date.Compare(b.Date)
	})

	points := SampleWeekly(ForwardFill(observations))
	stats.Points = len(points)
	if len(points) == 0 {
		return Series{}, stats, ErrNoData
	}
	return Series{Points: points}, stats, nil
}

// Snapshot is the serialized form of a computed series, as published to
// Kafka and written by the snapshot command.
type Snapshot struct {
	Years       int            `json:"years"`
	GeneratedAt time.Time      `json:"generated_at"`
	RangeLabel  string         `json:"range_label"`
	Latest      *SampledPoint  `json:"latest,omitempty"`
	Points      []SampledPoint `json:"points"`
}

// NewSnapshot captures s at the current package-clock time.
func NewSnapshot(years int, s Series, loc *time.Location) Snapshot {
	snap := Snapshot{
		Years:       years,
		GeneratedAt: Now().UTC(),
		RangeLabel:  s.RangeLabel(loc),
		Points:      s.Points,
	}
	if latest, ok := s.Latest(); ok {
		snap.Latest = &latest
	}
	return snap
}

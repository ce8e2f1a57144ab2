package domain

import "time"

// WeeklyAnchor is the weekday kept by the weekly sampler.
const WeeklyAnchor = time.Friday

// SampledPoint is one point of the output series.
type SampledPoint struct {
	Timestamp  int64   `json:"timestamp"`
	Mornos     float64 `json:"Mornos"`
	Eyinos     float64 `json:"Eyinos"`
	Yliko      float64 `json:"Yliko"`
	Marathonas float64 `json:"Marathonas"`
	Total      float64 `json:"total"`
}

// Time returns the point's timestamp as a time in loc.
func (p SampledPoint) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(p.Timestamp).In(loc)
}

func newSampledPoint(obs Observation) SampledPoint {
	rd := obs.Readings
	return SampledPoint{
		Timestamp:  obs.TimestampMillis(),
		Mornos:     rd[Mornos],
		Eyinos:     rd[Eyinos],
		Yliko:      rd[Yliko],
		Marathonas: rd[Marathonas],
		Total:      rd.Total(),
	}
}

// SampleWeekly keeps every observation that falls on WeeklyAnchor plus the
// last observation, then collapses equal timestamps. For a duplicated
// timestamp the later observation's values win while the first occurrence
// keeps its position, so ascending order is preserved.
func SampleWeekly(observations []Observation) []SampledPoint {
	points := make([]SampledPoint, 0, len(observations)/7+1)
	index := make(map[int64]int)

	last := len(observations) - 1
	for i, obs := range observations {
		if obs.Date.Weekday() != WeeklyAnchor && i != last {
			continue
		}
		p := newSampledPoint(obs)
		if at, seen := index[p.Timestamp]; seen {
			points[at] = p
			continue
		}
		index[p.Timestamp] = len(points)
		points = append(points, p)
	}
	return points
}

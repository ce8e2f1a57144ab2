package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-contrib/sse"

	"github.com/couchcryptid/reservoir-levels-service/internal/domain"
	"github.com/couchcryptid/reservoir-levels-service/internal/pipeline"
)

// seriesRequest is the parsed query of a series request.
type seriesRequest struct {
	years    int
	months   int
	windowed bool
	refresh  bool
}

type seriesResponse struct {
	Data       []domain.SampledPoint `json:"data"`
	Latest     *domain.SampledPoint  `json:"latest"`
	RangeLabel string                `json:"range_label"`
	Years      int                   `json:"years"`
	Months     int                   `json:"months,omitempty"`
	Cached     bool                  `json:"cached"`
	Invocation string                `json:"invocation,omitempty"`
}

type progressEvent struct {
	Percent int `json:"percent"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newSeriesResponse(res pipeline.Result, loc *time.Location) seriesResponse {
	resp := seriesResponse{
		Data:       res.Series.Points,
		RangeLabel: res.Series.RangeLabel(loc),
		Years:      res.Years,
		Months:     res.Months,
		Cached:     res.Cached,
		Invocation: res.Invocation,
	}
	if latest, ok := res.Series.Latest(); ok {
		resp.Latest = &latest
	}
	return resp
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseSeriesRequest(r)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := s.load(r.Context(), req, nil)
	if err != nil {
		status, msg := s.classify(err)
		sharedobs.WriteJSON(w, status, errorResponse{Error: msg})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, newSeriesResponse(res, s.series.Location()))
}

// handleStream runs a load and reports it as server-sent events: progress
// events while requests settle, then a single series or error event.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseSeriesRequest(r)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	rc := http.NewResponseController(w)
	// A long fan-out must not be cut off by the server-wide write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", sse.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event string, data any) {
		if err := sse.Encode(w, sse.Event{Event: event, Data: data}); err != nil {
			s.logger.Warn("sse write failed", "event", event, "error", err)
			return
		}
		_ = rc.Flush()
	}

	res, err := s.load(r.Context(), req, func(percent int) {
		send("progress", progressEvent{Percent: percent})
	})
	if err != nil {
		_, msg := s.classify(err)
		send("error", errorResponse{Error: msg})
		return
	}
	send("series", newSeriesResponse(res, s.series.Location()))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	years, err := intParam(r, "years", s.defaultYears)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	snap, ok := s.series.Progress(years)
	if !ok {
		sharedobs.WriteJSON(w, http.StatusNotFound, errorResponse{
			Error: fmt.Sprintf("no load has started for years=%d", years),
		})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	years, err := intParam(r, "years", s.defaultYears)
	if err == nil {
		err = s.series.Invalidate(years)
	}
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleCatalog(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"reservoirs": domain.Catalog()})
}

func (s *Server) load(ctx context.Context, req seriesRequest, progress pipeline.ProgressFunc) (pipeline.Result, error) {
	opts := pipeline.LoadOptions{Force: req.refresh, Progress: progress}
	if req.windowed {
		return s.series.LoadWindow(ctx, req.months, opts)
	}
	return s.series.Load(ctx, req.years, opts)
}

// classify maps a load error to a status code and a client-facing message.
func (s *Server) classify(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrInvalidDepth), errors.Is(err, pipeline.ErrInvalidWindow):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNoData):
		return http.StatusNotFound, domain.ErrNoData.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request canceled before the data was loaded"
	default:
		s.logger.Error("series load failed", "error", err)
		return http.StatusInternalServerError, domain.ErrProcessing.Error()
	}
}

func (s *Server) parseSeriesRequest(r *http.Request) (seriesRequest, error) {
	var req seriesRequest
	var err error

	if req.years, err = intParam(r, "years", s.defaultYears); err != nil {
		return req, err
	}
	if r.URL.Query().Has("months") {
		req.windowed = true
		if req.months, err = intParam(r, "months", 0); err != nil {
			return req, err
		}
	}
	if v := r.URL.Query().Get("refresh"); v != "" {
		if req.refresh, err = strconv.ParseBool(v); err != nil {
			return req, fmt.Errorf("invalid refresh: %q", v)
		}
	}
	return req, nil
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return n, nil
}

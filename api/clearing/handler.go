// Package clearing exposes the batch runner and the clearing log store over
// HTTP.
package clearing

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/gridmatch/core/batch"
	"github.com/kilianp07/gridmatch/core/model"
	"github.com/kilianp07/gridmatch/core/store"
)

// MaxBodyBytes bounds the size of a match request.
const MaxBodyBytes = 32 << 20

// RunnerFactory returns a runner for the named strategy. An empty name
// selects the configured default.
type RunnerFactory func(strategy string) (*batch.Runner, error)

// ErrUnknownStrategy is returned by a RunnerFactory for unregistered names.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Handler serves the clearing endpoints.
type Handler struct {
	runners    RunnerFactory
	store      store.Store
	strategies []string
}

// NewHandler creates a Handler. A nil store disables the logs endpoint.
func NewHandler(runners RunnerFactory, s store.Store, strategies []string) *Handler {
	return &Handler{runners: runners, store: s, strategies: strategies}
}

// MatchResponse is the body returned by POST /api/clearing/match.
type MatchResponse struct {
	RunID           string                 `json:"run_id"`
	Strategy        string                 `json:"strategy"`
	Recommendations []model.Recommendation `json:"recommendations"`
	Rejected        []batch.RejectedOrder  `json:"rejected"`
	Failures        []string               `json:"failures"`
	Skipped         int                    `json:"skipped"`
}

func newMatchResponse(res batch.Result) MatchResponse {
	out := MatchResponse{
		RunID:           res.RunID,
		Strategy:        res.Strategy,
		Recommendations: res.Recommendations,
		Rejected:        res.Rejected,
		Failures:        make([]string, len(res.Failures)),
		Skipped:         res.Skipped,
	}
	for i, f := range res.Failures {
		out.Failures[i] = f.Error()
	}
	if out.Recommendations == nil {
		out.Recommendations = []model.Recommendation{}
	}
	if out.Rejected == nil {
		out.Rejected = []batch.RejectedOrder{}
	}
	return out
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// Match handles POST /api/clearing/match. The body is MatchingData in JSON,
// or YAML when the content type says so. Slot failures do not fail the
// request: they are listed in the response.
func (h *Handler) Match(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBodyBytes+1))
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if len(body) > MaxBodyBytes {
		abort(c, http.StatusRequestEntityTooLarge, errors.New("request body too large"))
		return
	}
	var data model.MatchingData
	if strings.Contains(c.ContentType(), "yaml") {
		data, err = model.ParseMatchingDataYAML(body)
	} else {
		data, err = model.ParseMatchingData(body)
	}
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	runner, err := h.runners(c.Query("strategy"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrUnknownStrategy) {
			status = http.StatusBadRequest
		}
		abort(c, status, err)
		return
	}
	res, err := runner.Run(c.Request.Context(), data)
	if err != nil && res.Skipped > 0 {
		// the client went away before every slot was cleared
		abort(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, newMatchResponse(res))
}

// Logs handles GET /api/clearing/logs.
func (h *Handler) Logs(c *gin.Context) {
	if h.store == nil {
		abort(c, http.StatusNotFound, errors.New("clearing log store disabled"))
		return
	}
	q := store.Query{
		RunID:    c.Query("run_id"),
		MarketID: c.Query("market_id"),
		TimeSlot: c.Query("time_slot"),
		Strategy: c.Query("strategy"),
	}
	if s := c.Query("start"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.Start = t
		}
	}
	if s := c.Query("end"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.End = t
		}
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			abort(c, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		q.Limit = n
	}
	records, err := h.store.Query(c.Request.Context(), q)
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []store.SlotRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// Strategies handles GET /api/clearing/strategies.
func (h *Handler) Strategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": h.strategies})
}

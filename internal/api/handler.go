package api

import (
	"net/http"
	"strconv"
	"time"

	"bayesim/app"
	"bayesim/domain/core"
	"bayesim/domain/sampling"
	"bayesim/domain/scenario"
	"bayesim/domain/stats"
	"bayesim/internal"
	"bayesim/internal/errors"
	"bayesim/internal/report"
	"bayesim/ports"

	"github.com/gin-gonic/gin"
)

// Defaults fill in whatever a simulate request leaves out
type Defaults struct {
	Inputs  scenario.Inputs
	Samples int
	Seed    int64
	Workers int
}

// SimulateRequest is the body of POST /api/simulate. Either the full
// inputs record or all three scalars may be given; neither selects the
// configured defaults.
type SimulateRequest struct {
	Inputs         *scenario.Inputs `json:"inputs"`
	Smoking        *float64         `json:"smoking"`
	Cancer         *float64         `json:"cancer"`
	Breath         *float64         `json:"breath"`
	Samples        *int             `json:"samples"`
	Seed           *int64           `json:"seed"`
	Workers        int              `json:"workers"`
	IncludeSamples bool             `json:"include_samples"`
}

// SimulateResponse is returned by POST /api/simulate
type SimulateResponse struct {
	RunID   core.RunID      `json:"run_id"`
	Record  ports.RunRecord `json:"record"`
	Summary stats.Summary   `json:"summary"`
	Samples *sampling.Batch `json:"samples,omitempty"`
}

// SimulationHandler serves the JSON simulation endpoints
type SimulationHandler struct {
	service  *app.SimulationService
	hub      *SSEHub
	defaults Defaults
	logger   *internal.Logger
}

// NewSimulationHandler creates a handler. hub may be nil.
func NewSimulationHandler(service *app.SimulationService, hub *SSEHub, defaults Defaults, logger *internal.Logger) *SimulationHandler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SimulationHandler{service: service, hub: hub, defaults: defaults, logger: logger.With("api")}
}

func (h *SimulationHandler) request(body SimulateRequest) (app.SimulationRequest, error) {
	req := app.SimulationRequest{
		Inputs:  h.defaults.Inputs,
		Samples: h.defaults.Samples,
		Seed:    h.defaults.Seed,
		Workers: h.defaults.Workers,
	}

	scalars := 0
	for _, p := range []*float64{body.Smoking, body.Cancer, body.Breath} {
		if p != nil {
			scalars++
		}
	}
	switch {
	case body.Inputs != nil && scalars > 0:
		return req, errors.InvalidInput("give either inputs or smoking/cancer/breath, not both")
	case body.Inputs != nil:
		req.Inputs = *body.Inputs
	case scalars == 3:
		req.Inputs = scenario.FromScalars(*body.Smoking, *body.Cancer, *body.Breath)
	case scalars > 0:
		return req, errors.InvalidInput("smoking, cancer and breath must be given together")
	}

	if body.Samples != nil {
		req.Samples = *body.Samples
	}
	if body.Seed != nil {
		req.Seed = *body.Seed
	}
	if body.Workers < 0 {
		return req, errors.InvalidInput("workers must be positive")
	}
	if body.Workers > 0 {
		req.Workers = body.Workers
	}
	return req, nil
}

// Simulate runs one simulation and records it
func (h *SimulationHandler) Simulate(c *gin.Context) {
	var body SimulateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			h.fail(c, errors.InvalidInput("malformed JSON body: "+err.Error()))
			return
		}
	}

	req, err := h.request(body)
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(RunEvent{
			EventType:   "run.completed",
			RunID:       result.RunID.String(),
			SampleCount: result.Record.SampleCount,
			Seed:        result.Record.Seed,
			Fingerprint: result.Record.Fingerprint.String(),
			Rates:       result.Record.Rates,
			Timestamp:   time.Now().UTC(),
		})
	}

	resp := SimulateResponse{RunID: result.RunID, Record: result.Record, Summary: result.Summary}
	if body.IncludeSamples {
		resp.Samples = &result.Batch
	}
	c.JSON(http.StatusOK, resp)
}

// ListRuns returns recorded runs, newest first
func (h *SimulationHandler) ListRuns(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.fail(c, errors.InvalidInput("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	runs, err := h.service.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// GetRun returns one recorded run
func (h *SimulationHandler) GetRun(c *gin.Context) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		h.fail(c, errors.InvalidInput(err.Error()))
		return
	}

	run, err := h.service.GetRun(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetReport replays a run and returns its markdown report
func (h *SimulationHandler) GetReport(c *gin.Context) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		h.fail(c, errors.InvalidInput(err.Error()))
		return
	}

	result, err := h.service.Replay(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	md := report.Markdown(report.Header{
		RunID:       result.RunID.String(),
		Seed:        result.Record.Seed,
		Workers:     result.Record.Workers,
		Fingerprint: result.Record.Fingerprint.Short(),
		Inputs:      result.Record.Inputs,
	}, result.Summary)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

func (h *SimulationHandler) fail(c *gin.Context, err error) {
	appErr := errors.FromDomain(err)
	code := errors.GetCode(appErr)
	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": appErr.Error(), "code": code})
}

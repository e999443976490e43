package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loanportfolio/internal/domain/risk"
)

const checkTimeout = 2 * time.Second

// Reusable error payload
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// Check is one dependency probed by the readiness endpoint.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Fund identifies a fund simulated on schedule.
type Fund struct {
	TenantID string `json:"tenant_id"`
	FundID   string `json:"fund_id"`
}

type Handler struct {
	checks []Check
	runs   risk.Repository
	funds  []Fund
}

func NewHandler(checks []Check, runs risk.Repository, funds []Fund) *Handler {
	return &Handler{checks: checks, runs: runs, funds: funds}
}

// Register mounts the ops routes.
func Register(e *echo.Echo, h *Handler, g prometheus.Gatherer) {
	e.GET("/health", h.Health)
	e.GET("/ready", h.Ready)
	e.GET("/status", h.Status)
	e.GET("/metrics", Metrics(g))
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Ready probes every dependency and answers 503 naming the failing ones.
func (h *Handler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), checkTimeout)
	defer cancel()
	var failed []string
	for _, chk := range h.checks {
		if err := chk.Ping(ctx); err != nil {
			failed = append(failed, chk.Name+": "+err.Error())
		}
	}
	if len(failed) > 0 {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "not ready", Details: failed})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

type fundStatus struct {
	Fund
	RunID          string     `json:"run_id,omitempty"`
	AsOf           *time.Time `json:"as_of,omitempty"`
	Trials         int        `json:"trials,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ExpectedLoss   string     `json:"expected_loss,omitempty"`
	LossVaR99      string     `json:"loss_var99,omitempty"`
	DefaultFreq    float64    `json:"default_frequency"`
	NeverSimulated bool       `json:"never_simulated,omitempty"`
}

// Status reports the latest stored run of every scheduled fund.
func (h *Handler) Status(c echo.Context) error {
	ctx := c.Request().Context()
	out := make([]fundStatus, 0, len(h.funds))
	for _, f := range h.funds {
		runs, err := h.runs.ListByFund(ctx, f.TenantID, f.FundID, 1)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		st := fundStatus{Fund: f}
		if len(runs) == 0 {
			st.NeverSimulated = true
			out = append(out, st)
			continue
		}
		r := runs[0]
		st.RunID = r.RunID
		st.AsOf = &r.AsOf
		st.Trials = r.Trials
		st.CompletedAt = &r.CreatedAt
		st.ExpectedLoss = r.ExpectedLoss.StringFixed(2)
		st.LossVaR99 = r.LossVaR99.StringFixed(2)
		st.DefaultFreq = r.DefaultFrequency
		out = append(out, st)
	}
	return c.JSON(http.StatusOK, out)
}

// Metrics exposes g in the Prometheus text format.
func Metrics(g prometheus.Gatherer) echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

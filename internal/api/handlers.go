package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pfsim/portfolio-simulator/internal/domain"
	"github.com/pfsim/portfolio-simulator/internal/simulation"
)

// SimulationHandler exposes the Monte Carlo engine over HTTP.
type SimulationHandler struct {
	logger simulation.Logger
	orch   *simulation.Orchestrator
}

func NewSimulationHandler(logger simulation.Logger, orch *simulation.Orchestrator) *SimulationHandler {
	if logger == nil {
		logger = simulation.NopLogger{}
	}
	return &SimulationHandler{logger: logger, orch: orch}
}

func (h *SimulationHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api/v1")
	g.POST("/simulate/accumulation", h.Accumulation)
	g.POST("/simulate/withdrawal", h.Withdrawal)
	g.POST("/simulate/comprehensive", h.Comprehensive)
}

func (h *SimulationHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Accumulation runs the contribution phase only.
func (h *SimulationHandler) Accumulation(c echo.Context) error {
	params, verr := h.bindParams(c, domain.ModeAccumulation)
	if verr != nil {
		return c.JSON(http.StatusBadRequest, verr)
	}

	report, err := h.orch.RunAccumulation(c.Request().Context(), params)
	if err != nil {
		return h.engineError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// Withdrawal runs the decumulation phase from the supplied initial amount.
func (h *SimulationHandler) Withdrawal(c echo.Context) error {
	params, verr := h.bindParams(c, domain.ModeWithdrawal)
	if verr != nil {
		return c.JSON(http.StatusBadRequest, verr)
	}

	report, err := h.orch.RunWithdrawal(c.Request().Context(), params, params.InitialAmount)
	if err != nil {
		return h.engineError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// Comprehensive runs the phases requested by the mode field, including the
// chained mixed mode, and returns the nested lifecycle report.
func (h *SimulationHandler) Comprehensive(c echo.Context) error {
	params, verr := h.bindParams(c, "")
	if verr != nil {
		return c.JSON(http.StatusBadRequest, verr)
	}

	report, err := h.orch.RunComprehensive(c.Request().Context(), params)
	if err != nil {
		return h.engineError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// bindParams decodes, defaults and validates the request body. A forced mode
// overrides whatever the body carries, so the phase endpoints stay honest.
func (h *SimulationHandler) bindParams(c echo.Context, forceMode domain.CalculationMode) (*domain.Parameters, interface{}) {
	req := &SimulationRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return nil, verr
	}
	if forceMode != "" {
		req.Mode = string(forceMode)
	}

	params, err := req.ToParameters()
	if err != nil {
		h.logger.Warnf("rejected simulation request: %v", err)
		return nil, []ValidationError{{Code: "ERR_INVALID_PARAMETERS", Message: err.Error()}}
	}
	return params, nil
}

func (h *SimulationHandler) engineError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrResourceExhausted):
		h.logger.Warnf("simulation rejected: %v", err)
		return c.JSON(http.StatusUnprocessableEntity, []ValidationError{{
			Code:    "ERR_RESOURCE_EXHAUSTED",
			Message: err.Error(),
		}})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Infof("simulation abandoned: %v", err)
		return c.NoContent(http.StatusRequestTimeout)
	default:
		h.logger.Errorf("simulation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, []ValidationError{{
			Code:    "ERR_INTERNAL",
			Message: "simulation failed",
		}})
	}
}

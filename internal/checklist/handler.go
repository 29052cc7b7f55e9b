package checklist

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"alarmcheck-backend/internal/rules"
	"alarmcheck-backend/internal/shared/metrics"
	"alarmcheck-backend/internal/shared/server/respond"
)

// Handler exposes the checklist endpoint.
type Handler struct {
	Planner *Planner
}

// NewHandler constructs a Handler.
func NewHandler(planner *Planner) *Handler {
	return &Handler{Planner: planner}
}

// RegisterRoutes attaches checklist routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/checklist", h.createChecklist)
}

func (h *Handler) createChecklist(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	profile, err := req.Profile()
	if err != nil {
		var fieldErr *FieldError
		if errors.As(err, &fieldErr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", fieldErr.Message, gin.H{"field": fieldErr.Field})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	start := time.Now()
	plan, err := h.Planner.Plan(profile)
	if err != nil {
		metrics.IncPlanFailed()
		var parseErr *rules.ParseError
		switch {
		case errors.Is(err, rules.ErrJurisdictionNotFound):
			respond.Error(c, http.StatusNotFound, "jurisdiction_not_found", "no rule documents for jurisdiction "+profile.State, nil)
		case errors.As(err, &parseErr):
			respond.Error(c, http.StatusInternalServerError, "rule_parse_error", "jurisdiction rules could not be loaded", gin.H{"document": parseErr.Document})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to build checklist", nil)
		}
		return
	}
	metrics.IncPlanGenerated()
	metrics.ObservePlanDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)

	c.Set("jurisdiction", strings.Join(plan.JurisdictionChain, ","))
	respond.OK(c, plan)
}

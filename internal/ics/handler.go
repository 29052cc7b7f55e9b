package ics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"alarmcheck-backend/internal/shared/metrics"
	"alarmcheck-backend/internal/shared/server/respond"
)

// Handler exposes the calendar feed endpoint.
type Handler struct{}

// NewHandler constructs a Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes attaches calendar routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ics", h.getCalendar)
}

func (h *Handler) getCalendar(c *gin.Context) {
	cfg := Config{
		Frequency:   strings.TrimSpace(c.Query("frequency")),
		Title:       c.Query("title"),
		Description: c.Query("description"),
	}
	// email is accepted for form compatibility but unused.
	_ = c.Query("email")

	if raw := strings.TrimSpace(c.Query("months")); raw != "" {
		months, err := strconv.Atoi(raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "months must be an integer", gin.H{"field": "months"})
			return
		}
		cfg.Months = months
	}
	if raw := strings.TrimSpace(c.Query("start_date")); raw != "" {
		start, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "start_date must be an ISO date (YYYY-MM-DD)", gin.H{"field": "start_date"})
			return
		}
		cfg.Start = start
	}

	doc, err := Generate(cfg)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	metrics.IncCalendarGenerated()

	c.Header("Content-Disposition", `attachment; filename="alarm-reminders.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(doc))
}

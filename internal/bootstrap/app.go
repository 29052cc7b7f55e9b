package bootstrap

import (
	"io/fs"
	"os"

	"github.com/gin-gonic/gin"

	"alarmcheck-backend/internal/checklist"
	"alarmcheck-backend/internal/ics"
	"alarmcheck-backend/internal/rules"
	"alarmcheck-backend/internal/services/health"
	"alarmcheck-backend/internal/shared/config"
	"alarmcheck-backend/internal/shared/server"
	"alarmcheck-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	Store            *rules.Store
	Planner          *checklist.Planner
	ChecklistHandler *checklist.Handler
	CalendarHandler  *ics.Handler
	HealthService    *health.Service
}

// Build prepares shared dependencies and wires routes, reading rule
// documents from the configured rules directory.
func Build(cfg config.Config) (*App, error) {
	return BuildWithRules(cfg, os.DirFS(rulesDir(cfg)))
}

// BuildWithRules is Build with an explicit rule filesystem, used by tests.
func BuildWithRules(cfg config.Config, rulesFS fs.FS) (*App, error) {
	store := rules.NewStore(rulesFS)

	// Resolve the baseline eagerly so a malformed default document fails
	// at startup instead of on the first request.
	defaultJurisdiction := cfg.DefaultJurisdiction
	if defaultJurisdiction == "" {
		defaultJurisdiction = "US"
	}
	if err := store.Preload(defaultJurisdiction); err != nil {
		return nil, err
	}
	telemetry.Info("rules.preloaded", map[string]any{"jurisdiction": defaultJurisdiction})

	planner := checklist.NewPlanner(store)
	app := &App{
		Config:           cfg,
		Store:            store,
		Planner:          planner,
		ChecklistHandler: checklist.NewHandler(planner),
		CalendarHandler:  ics.NewHandler(),
		HealthService:    health.NewService(),
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		ChecklistHandler: app.ChecklistHandler,
		CalendarHandler:  app.CalendarHandler,
		HealthService:    app.HealthService,
	})

	return app, nil
}

func rulesDir(cfg config.Config) string {
	if cfg.RulesDir == "" {
		return "./rules"
	}
	return cfg.RulesDir
}

package app

import (
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/tahlil-portal/internal/client"
	common "github.com/bobmcallan/tahlil-portal/internal/common"
	"github.com/bobmcallan/tahlil-portal/internal/config"
	"github.com/bobmcallan/tahlil-portal/internal/handlers"
	"github.com/bobmcallan/tahlil-portal/internal/mcp"
	"github.com/bobmcallan/tahlil-portal/internal/report"
	"github.com/bobmcallan/tahlil-portal/internal/session"
)

// sweepInterval is how often expired report sessions are dropped.
const sweepInterval = time.Minute

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Client   *client.AnalysisClient
	Renderer *report.Renderer
	Sessions *session.Store

	// HTTP handlers
	PageHandler         *handlers.PageHandler
	ReportHandler       *handlers.ReportHandler
	HealthHandler       *handlers.HealthHandler
	VersionHandler      *handlers.VersionHandler
	ServerHealthHandler *handlers.ServerHealthHandler
	MCPHandler          *mcp.Handler

	stopSweep chan struct{}
	closeOnce sync.Once
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config:    cfg,
		Logger:    logger,
		stopSweep: make(chan struct{}),
	}

	// Validate environment setting
	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.IsDevMode() {
		logger.Warn().Msg("running in dev mode: template errors are written to responses")
	} else if env != "prod" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}

	a.initServices()
	a.initHandlers()

	go a.sweepSessions()

	logger.Info().
		Str("api_url", cfg.API.URL).
		Str("analyze_path", cfg.API.AnalyzePath).
		Msg("application initialization complete")

	return a, nil
}

// initServices builds the backend client, renderer and session store.
func (a *App) initServices() {
	a.Client = client.NewAnalysisClient(client.Options{
		BaseURL:     a.Config.API.URL,
		AnalyzePath: a.Config.API.AnalyzePath,
		Timeout:     a.Config.APITimeout(),
		RateLimit:   a.Config.API.RateLimit,
	})

	a.Renderer = report.NewRenderer(a.Logger, a.Config.RenderCacheTTL())

	a.Sessions = session.NewStore(a.Config.SessionTTL(), a.Config.Session.MaxEntries, func() *session.Machine {
		return session.NewMachine(a.Client, a.Logger)
	})
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	devMode := a.Config.IsDevMode()

	a.PageHandler = handlers.NewPageHandler(a.Logger, devMode)
	a.ReportHandler = handlers.NewReportHandler(a.Logger, a.PageHandler, a.Sessions, a.Renderer, devMode)
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.ServerHealthHandler = handlers.NewServerHealthHandler(a.Logger, a.Client)
	a.MCPHandler = mcp.NewHandler(a.Client, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

func (a *App) sweepSessions() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := a.Sessions.Sweep(); n > 0 {
				a.Logger.Debug().Int("expired", n).Int("remaining", a.Sessions.Len()).Msg("report sessions swept")
			}
		case <-a.stopSweep:
			return
		}
	}
}

// Close stops background work.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		close(a.stopSweep)
	})
	return nil
}

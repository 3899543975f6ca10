// Package app holds process-wide state for the service.
package app

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"ai-meeting-insights-service/internal/config"
	"ai-meeting-insights-service/internal/observability/logging"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Config) *Application {
	a := &Application{
		Cfg: cfg,
	}
	a.setupLogger()

	a.Logger.Info().Msg("Meeting insights application created")
	return a
}

// setupLogger configures zerolog for the service. Console output in dev,
// JSON otherwise.
func (a *Application) setupLogger() {
	logCfg := logging.DefaultConfig()
	logCfg.Level = a.Cfg.Observability.LogLevel
	if os.Getenv("ENV") == "dev" || a.Cfg.Observability.LogFormat == "console" {
		logCfg.Format = "console"
	}

	a.Logger = logging.Init(logCfg).With().
		Str("service", "ai-meeting-insights-service").
		Logger()

	a.Logger.Info().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("environment", os.Getenv("ENV")).
		Msg("Logger setup completed")
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Meeting insights service starting")
	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("Meeting insights service shutting down")
}

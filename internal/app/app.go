package app

import (
	"io"
	"log/slog"

	"github.com/vk/flowrungo/internal/jobservice"
	"github.com/vk/flowrungo/internal/jobtable"
)

// App encapsulates one flowrun invocation: its configuration, logger, job
// service client and progress tracking.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	client jobservice.Client
	loader *jobtable.Loader
	status *statusTracker
}

// Option adjusts an App under construction.
type Option func(*App)

// WithClient substitutes the job-service client, mainly for tests.
func WithClient(c jobservice.Client) Option {
	return func(a *App) { a.client = c }
}

// NewApp builds a fully initialized App with its own isolated logger. When
// no client is injected, an HTTP client is built from the config.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) *App {
	a := &App{
		outW:   outW,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, outW),
		config: cfg,
		loader: jobtable.NewLoader(),
		status: &statusTracker{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.client == nil {
		a.client = jobservice.NewHTTPClient(jobservice.Config{
			BaseURL:      cfg.BaseURL,
			Token:        cfg.Token,
			PollInterval: cfg.PollInterval,
			WaitTimeout:  cfg.WaitTimeout,
		})
	}
	a.logger.Debug("Logger configured successfully.")
	return a
}

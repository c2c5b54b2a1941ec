package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/eugenenazirov/envsettings/internal/config"
	"github.com/eugenenazirov/envsettings/internal/handler"
	"github.com/eugenenazirov/envsettings/internal/handlers"
	"github.com/eugenenazirov/envsettings/internal/registry"
	"github.com/eugenenazirov/envsettings/internal/settings"
	"github.com/eugenenazirov/envsettings/internal/table"
)

const progressInterval = 2 * time.Second

// App encapsulates the application dependencies.
type App struct {
	cfg     config.Config
	catalog *handler.Catalog
	loader  *settings.Loader
	logger  *zap.Logger

	progress rate.Sometimes
}

// Option configures an App.
type Option func(*App)

// WithCatalog replaces the built-in handler catalog, primarily for tests.
func WithCatalog(catalog *handler.Catalog) Option {
	return func(a *App) {
		a.catalog = catalog
	}
}

// New initializes the application with all dependencies from the provided
// configuration. Variables from the configured env file are exported to the
// process environment before any placeholder is resolved.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	app := &App{
		cfg:      cfg,
		logger:   logger,
		progress: rate.Sometimes{First: 1, Interval: progressInterval},
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.catalog == nil {
		app.catalog = handler.NewCatalog()
		handlers.Register(app.catalog)
	}

	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %q: %w", cfg.EnvFile, err)
		}
		logger.Debug("env file loaded", zap.String("path", cfg.EnvFile))
	}

	app.loader = settings.NewLoader(app.catalog,
		settings.WithLogger(logger),
		settings.WithDefaultEnvironment(cfg.DefaultEnvironment),
		settings.WithTableOptions(table.Options{Comma: cfg.DelimiterRune()}),
	)

	return app, nil
}

// Load reads the configured settings table into a fresh registry.
func (a *App) Load() (*registry.Registry, error) {
	runID := uuid.New().String()
	logger := a.logger.With(zap.String("run_id", runID))

	logger.Info("loading settings",
		zap.String("settings_file", a.cfg.SettingsFile),
		zap.String("environment", a.cfg.Environment),
	)
	reg, err := a.loader.LoadFile(a.cfg.SettingsFile, a.cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return reg, nil
}

// Run loads the settings table and applies every handler in registration
// order. In dry-run mode handlers are only logged. Apply failures do not stop
// the run; they are reported together once every handler was attempted.
func (a *App) Run(ctx context.Context) error {
	reg, err := a.Load()
	if err != nil {
		return err
	}
	return a.Apply(ctx, reg)
}

// Apply runs every handler in reg.
func (a *App) Apply(ctx context.Context, reg *registry.Registry) error {
	var (
		errs    error
		applied int
		total   = reg.Len()
	)

	for h := range reg.All() {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, fmt.Errorf("apply interrupted after %d of %d handlers: %w", applied, total, err))
		}

		a.progress.Do(func() {
			a.logger.Info("applying handlers",
				zap.Int("done", applied),
				zap.Int("total", total),
			)
		})

		if a.cfg.DryRun {
			a.logger.Info("dry run", zap.String("handler", h.Label()))
			applied++
			continue
		}

		if err := h.Apply(ctx); err != nil {
			a.logger.Error("handler failed", zap.String("handler", h.Label()), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		a.logger.Debug("handler applied", zap.String("handler", h.Label()))
		applied++
	}

	if errs != nil {
		return fmt.Errorf("%d of %d handlers failed: %w", len(multierr.Errors(errs)), total, errs)
	}
	a.logger.Info("settings applied",
		zap.Int("handlers", applied),
		zap.Bool("dry_run", a.cfg.DryRun),
	)
	return nil
}

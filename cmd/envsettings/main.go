package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/envsettings/internal/application"
	"github.com/eugenenazirov/envsettings/internal/config"
	"github.com/eugenenazirov/envsettings/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	overrides, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", zap.Error(err))
		return err
	}

	ctx, stop := notifyContext(context.Background(), logger)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logger.Error("run failed", zap.Error(err))
		return err
	}
	return nil
}

// parseFlags maps command-line flags onto config overrides. Only flags that
// were given override lower-precedence sources.
func parseFlags(args []string) (*config.CLIOverrides, error) {
	kingpinApp := kingpin.New("envsettings", "Environment Settings - applies per-environment values from a settings table")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	settingsFile := kingpinApp.Flag("settings", "Path to the CSV settings table").Short('s').String()
	environment := kingpinApp.Flag("env", "Environment column to apply").Short('e').String()
	defaultEnv := kingpinApp.Flag("default-env", "Column used when an environment cell is blank").String()
	envFile := kingpinApp.Flag("env-file", "Path to a .env file exported before placeholders are resolved").String()
	delimiter := kingpinApp.Flag("delimiter", "CSV field delimiter").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	dryRun := kingpinApp.Flag("dry-run", "Log handlers without applying them").Bool()

	if _, err := kingpinApp.Parse(args); err != nil {
		return nil, err
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}
	setIfGiven(&overrides.SettingsFile, settingsFile)
	setIfGiven(&overrides.Environment, environment)
	setIfGiven(&overrides.DefaultEnvironment, defaultEnv)
	setIfGiven(&overrides.EnvFile, envFile)
	setIfGiven(&overrides.Delimiter, delimiter)
	setIfGiven(&overrides.LogLevel, logLevel)

	if *dryRun {
		overrides.DryRun = dryRun
	}

	return overrides, nil
}

func setIfGiven(dst **string, value *string) {
	if *value != "" {
		*dst = value
	}
}

// notifyContext returns a context cancelled on SIGINT or SIGTERM.
func notifyContext(parent context.Context, logger *zap.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-quit:
			logger.Info("interrupt received, stopping")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(quit)
		cancel()
	}
}

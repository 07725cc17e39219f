package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/actonlabs/acton/internal/actions"
	"github.com/actonlabs/acton/internal/actions/builtin"
	"github.com/actonlabs/acton/internal/config"
	"github.com/actonlabs/acton/internal/gateway"
	"github.com/actonlabs/acton/internal/history"
	"github.com/actonlabs/acton/internal/orchestrator"
	"github.com/actonlabs/acton/internal/plugins"
	"github.com/actonlabs/acton/internal/scheduler"
)

var (
	version   = "0.1.0"
	buildTime = "dev"
)

// App holds all the runtime components.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	Registry     *actions.Registry
	History      *history.Store
	Orchestrator *orchestrator.Orchestrator
	Scheduler    *scheduler.Scheduler
	Gateway      *gateway.Server
	gwContext    context.Context
	gwCancel     context.CancelFunc
}

func main() {
	os.Exit(run())
}

func run() int {
	subCmd := ""
	args := os.Args[1:]
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		subCmd = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("acton", flag.ExitOnError)
	configPath := fs.String("config", "acton.json", "Path to config file")
	showVersion := fs.Bool("version", false, "Show version")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %v\n", err)
		return 1
	}

	if *showVersion {
		fmt.Printf("Acton v%s (built %s)\n", version, buildTime)
		fmt.Println("Action plugin runtime for embodied agents")
		return 0
	}

	switch subCmd {
	case "init":
		return initCommand(*configPath)
	case "describe":
		return describeCommand(*configPath)
	case "", "start":
		// Falls through to normal server start below.
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subCmd)
		fmt.Fprintln(os.Stderr, "Available commands: init, describe, start")
		return 1
	}

	app, err := setup(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Setup failed: %v\n", err)
		return 1
	}

	if err := startServices(app); err != nil {
		app.Logger.Error("failed to start services", "error", err)
		return 1
	}

	printBanner(app)

	if err := waitForShutdown(app); err != nil {
		app.Logger.Error("shutdown error", "error", err)
		return 1
	}

	return 0
}

// initCommand writes a default config file and creates the plugin directory.
func initCommand(configPath string) int {
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(os.Stderr, "Config already exists: %s\n", configPath)
		return 1
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
		return 1
	}
	fmt.Printf("Config created: %s\n", configPath)

	dir := plugins.DefaultDir()
	if err := os.MkdirAll(dir, 0750); err == nil {
		fmt.Printf("Plugin directory: %s\n", dir)
	}

	return 0
}

// describeCommand prints the assembled action prompt and exits.
func describeCommand(configPath string) int {
	app, err := setup(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Setup failed: %v\n", err)
		return 1
	}
	defer closeApp(app)

	fmt.Println(app.Orchestrator.Prompt())
	return 0
}

// setup initializes all application components.
func setup(configPath string) (*App, error) {
	app := &App{}

	// Setup logger (initially at Info level)
	app.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	app.Logger.Info("starting Acton",
		"version", version,
		"config", configPath,
	)

	cfg, err := loadConfig(configPath, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	app.Config = cfg

	// Recreate logger with config's log level
	app.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// Action registry with the builtin set
	app.Registry = actions.NewRegistry(app.Logger)
	if err := builtin.Register(app.Registry, app.Logger, builtin.Options{}); err != nil {
		return nil, fmt.Errorf("register builtin actions: %w", err)
	}

	// External plugins
	if cfg.Plugins.Enabled {
		dir := cfg.Plugins.Dir
		if dir == "" {
			dir = plugins.DefaultDir()
		}
		loader := plugins.NewLoader(dir, app.Logger)
		loaded, err := loader.LoadAll()
		if err != nil {
			app.Logger.Warn("failed to load plugins", "error", err)
		} else if len(loaded) > 0 {
			plugins.RegisterAll(app.Registry, loaded, app.Logger)
			app.Logger.Info("plugins loaded", "count", len(loaded))
		}
	}

	// Invocation history
	if cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryPath(), app.Logger)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		app.History = store
	}

	// Orchestrator with the configured actions
	app.Orchestrator = orchestrator.New(app.Registry, app.History, app.Logger)
	app.Orchestrator.SetPreamble(cfg.Agent.Preamble)

	actionCfgs, err := cfg.ActionConfigs()
	if err != nil {
		return nil, err
	}
	if err := app.Orchestrator.LoadActions(actionCfgs); err != nil {
		return nil, err
	}

	// Scheduler
	if cfg.Scheduler.Enabled {
		app.Scheduler = scheduler.New(app.Orchestrator, app.Logger)
		if err := app.Scheduler.LoadTriggers(cfg.Scheduler.Triggers); err != nil {
			return nil, fmt.Errorf("load triggers: %w", err)
		}
	}

	// Gateway
	app.Gateway = gateway.NewServer(cfg.Server.Port, app.Orchestrator, app.History, app.Logger)

	return app, nil
}

// loadConfig loads configuration from file or creates default.
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("no config found, creating default")
			cfg = config.DefaultConfig()
			if err := cfg.Save(path); err != nil {
				return nil, fmt.Errorf("save default config: %w", err)
			}
			logger.Info("default config created", "path", path)
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startServices starts all services.
func startServices(app *App) error {
	if err := app.Orchestrator.Start(context.Background()); err != nil {
		return fmt.Errorf("start orchestrator: %w", err)
	}

	if app.Scheduler != nil {
		if err := app.Scheduler.Start(context.Background()); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	// Start gateway in background
	app.gwContext, app.gwCancel = context.WithCancel(context.Background())
	go func() {
		if err := app.Gateway.Start(app.gwContext); err != nil {
			app.Logger.Error("gateway error", "error", err)
		}
	}()

	return nil
}

// printBanner displays the startup banner.
func printBanner(app *App) {
	fmt.Println()
	fmt.Printf("  Acton v%s\n", version)
	fmt.Printf("  Agent: %s\n", app.Config.Agent.Name)
	fmt.Printf("  API: http://localhost:%d\n", app.Config.Server.Port)
	fmt.Printf("  Actions: %d loaded\n", len(app.Orchestrator.Actions()))
	fmt.Println()
}

// waitForShutdown waits for termination signal and performs graceful shutdown.
func waitForShutdown(app *App) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, getShutdownSignals()...)

	for {
		sig := <-sigCh

		// Handle platform-specific signals (SIGHUP on Unix)
		if handlePlatformSignal(sig, app.Logger) {
			continue
		}

		app.Logger.Info("shutdown signal received", "signal", sig)
		break
	}

	if app.gwCancel != nil {
		app.gwCancel()
	}

	if app.Scheduler != nil {
		app.Scheduler.Stop()
	}
	app.Orchestrator.Stop()

	closeApp(app)

	app.Logger.Info("Acton stopped")
	return nil
}

// closeApp releases resources held by the app.
func closeApp(app *App) {
	if app.History != nil {
		if err := app.History.Close(); err != nil {
			app.Logger.Error("failed to close history store", "error", err)
		}
	}
}

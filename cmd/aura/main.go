// Command aura is the console voice and text assistant.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	cli "github.com/spf13/pflag"

	"github.com/MrWong99/aura/internal/app"
	"github.com/MrWong99/aura/internal/config"
	"github.com/MrWong99/aura/internal/observe"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := cli.StringP("config", "c", "config.yaml", "path to the YAML configuration file")
	envFile := cli.StringP("env", "e", ".env", "env file with API keys")
	mode := cli.StringP("mode", "m", "", "interaction mode override: text or voice")
	logLevel := cli.StringP("log", "l", "", "log level override: debug, info, warn, error")
	cli.Parse()

	// Keys in the env file never override the real environment.
	if err := godotenv.Load(*envFile); err != nil && cli.CommandLine.Changed("env") {
		fmt.Fprintf(os.Stderr, "aura: load env file %q: %v\n", *envFile, err)
		return 1
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := loadConfig(*configPath, cli.CommandLine.Changed("config"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "aura: %v\n", err)
		return 1
	}
	if *mode != "" {
		cfg.Assistant.Mode = config.Mode(*mode)
	}
	if *logLevel != "" {
		cfg.Server.LogLevel = config.LogLevel(*logLevel)
	}
	if *mode != "" || *logLevel != "" {
		if err := config.Validate(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "aura: %v\n", err)
			return 1
		}
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(os.Stderr, cfg.Server.LogLevel, cfg.Server.LogFormat))
	slog.Info("aura starting",
		"version", version,
		"config", *configPath,
		"mode", cfg.Assistant.Mode,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry, err := observe.Setup(ctx, observe.TelemetryOptions{
		AssistantName: cfg.Assistant.Name,
		Version:       version,
		Exporter:      string(cfg.Server.TraceExporter),
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, err := app.BuildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	application, err := app.New(ctx, cfg, providers)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		_ = providers.Close()
		return 1
	}

	code := 0
	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		code = 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		code = 1
	}
	return code
}

// loadConfig reads path. A missing file is only an error when the path was
// given explicitly; otherwise the defaults apply.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		cfg = config.Default()
		return cfg, config.Validate(cfg)
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file %q not found, copy configs/example.yaml to get started", path)
	}
	return cfg, err
}

// ── Logger ─────────────────────────────────────────────────────────────────────

var logLevels = map[config.LogLevel]slog.Level{
	config.LogDebug: slog.LevelDebug,
	config.LogInfo:  slog.LevelInfo,
	config.LogWarn:  slog.LevelWarn,
	config.LogError: slog.LevelError,
}

// newLogger returns a tint console logger, or a JSON logger for
// log_format: json. Colours are only used on a terminal.
func newLogger(w io.Writer, level config.LogLevel, format config.LogFormat) *slog.Logger {
	lvl, ok := logLevels[level]
	if !ok {
		lvl = slog.LevelInfo
	}
	if format == config.LogJSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
	}
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}))
}

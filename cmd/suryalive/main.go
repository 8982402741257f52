// Command suryalive is the main entry point for the Suryalive voice astrology server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"golang.org/x/sync/errgroup"

	"github.com/suryalive/suryalive/internal/config"
	"github.com/suryalive/suryalive/internal/health"
	"github.com/suryalive/suryalive/internal/observe"
	"github.com/suryalive/suryalive/internal/server"
	"github.com/suryalive/suryalive/internal/session"
	"github.com/suryalive/suryalive/pkg/audio/portaudio"
	"github.com/suryalive/suryalive/pkg/provider/live"
	geminilive "github.com/suryalive/suryalive/pkg/provider/live/gemini"
	"github.com/suryalive/suryalive/pkg/provider/reading"
	"github.com/suryalive/suryalive/pkg/provider/reading/anyllm"
	oareading "github.com/suryalive/suryalive/pkg/provider/reading/openai"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "suryalive: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "suryalive: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// The level lives in a LevelVar so config reloads can adjust it without
	// swapping the handler.
	level := new(slog.LevelVar)
	level.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("suryalive starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(context.Background(), observe.ProviderConfig{
		ServiceName:    "suryalive",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	liveProv, readingProv, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Audio device ──────────────────────────────────────────────────────────
	device, err := portaudio.New()
	if err != nil {
		slog.Error("failed to initialise audio device", "err", err)
		return 1
	}
	defer func() {
		if err := device.Close(); err != nil {
			slog.Warn("audio device close error", "err", err)
		}
	}()

	// ── Session controller ────────────────────────────────────────────────────
	ctrl := session.NewController(session.ControllerConfig{
		Provider:      liveProv,
		Device:        device,
		Session:       sessionConfig(cfg),
		QueueCapacity: cfg.Audio.QueueCapacity,
		Logger:        logger,
	})

	// ── HTTP server ───────────────────────────────────────────────────────────
	checkers := []health.Checker{
		{Name: "live_provider", Check: func(context.Context) error {
			if liveProv == nil {
				return errors.New("no live provider configured")
			}
			return nil
		}},
		{Name: "reading_provider", Check: func(context.Context) error {
			if readingProv == nil {
				return errors.New("no reading provider configured")
			}
			return nil
		}},
	}

	srv := server.New(server.Config{
		Controller: ctrl,
		Readings:   readingProv,
		Health:     health.New(checkers...),
		Logger:     logger,
	})

	listenAddr := cfg.Server.ListenAddr
	if listenAddr == "" {
		listenAddr = ":8080"
	}
	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ── Config hot-reload ─────────────────────────────────────────────────────
	// Persona and log level changes apply without a restart; persona changes
	// take effect on the next session start.
	watcher, err := config.NewWatcher(*configPath, func(old, updated *config.Config) {
		d := config.Diff(old, updated)
		if d.LogLevelChanged {
			level.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level updated", "log_level", d.NewLogLevel)
		}
		if d.PersonaChanged {
			ctrl.SetSession(sessionConfig(updated))
			slog.Info("persona updated, applies to the next session",
				"name", updated.Persona.Name,
				"voice", updated.Persona.Voice,
			)
		}
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printStartupSummary(cfg, listenAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = httpServer.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		// ── Graceful shutdown ─────────────────────────────────────────────
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping…")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		ctrl.Stop()
		return httpServer.Shutdown(shutdownCtx)
	})

	slog.Info("server ready — press Ctrl+C to shut down", "addr", listenAddr)

	if err := g.Wait(); err != nil {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// builtinProviders maps provider category names to the implementations that
// ship with Suryalive. Used for startup logging.
var builtinProviders = map[string][]string{
	"live":    {"gemini"},
	"reading": {"gemini", "openai", "anthropic", "ollama"},
}

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── Live ──────────────────────────────────────────────────────────────────

	reg.RegisterLive("gemini", func(entry config.ProviderEntry) (live.Provider, error) {
		var opts []geminilive.Option
		if entry.Model != "" {
			opts = append(opts, geminilive.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, geminilive.WithBaseURL(entry.BaseURL))
		}
		return geminilive.New(entry.APIKey, opts...), nil
	})

	// ── Reading ───────────────────────────────────────────────────────────────
	// gemini and anthropic go through any-llm; both take an optional APIKey
	// and BaseURL.
	for _, providerName := range []string{"gemini", "anthropic"} {
		reg.RegisterReading(providerName, func(entry config.ProviderEntry) (reading.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterReading("ollama", func(entry config.ProviderEntry) (reading.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// openai uses the native SDK for structured outputs.
	reg.RegisterReading("openai", func(entry config.ProviderEntry) (reading.Provider, error) {
		var opts []oareading.Option
		if entry.BaseURL != "" {
			opts = append(opts, oareading.WithBaseURL(entry.BaseURL))
		}
		return oareading.New(entry.APIKey, entry.Model, opts...)
	})

	// Debug log of all registered providers.
	for kind, names := range builtinProviders {
		for _, name := range names {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// buildProviders instantiates the providers named in cfg using the registry.
// A missing live provider is fatal because the server cannot run sessions
// without one; a missing reading provider only disables the reading endpoints.
func buildProviders(cfg *config.Config, reg *config.Registry) (live.Provider, reading.Provider, error) {
	var liveProv live.Provider
	if name := cfg.Providers.Live.Name; name != "" {
		p, err := reg.CreateLive(cfg.Providers.Live)
		if err != nil {
			return nil, nil, fmt.Errorf("create live provider %q: %w", name, err)
		}
		liveProv = p
		slog.Info("provider created", "kind", "live", "name", name)
	}
	if liveProv == nil {
		return nil, nil, errors.New("no live provider configured (set providers.live.name)")
	}

	var readingProv reading.Provider
	if name := cfg.Providers.Reading.Name; name != "" {
		p, err := reg.CreateReading(cfg.Providers.Reading)
		if err != nil {
			return nil, nil, fmt.Errorf("create reading provider %q: %w", name, err)
		}
		readingProv = p
		slog.Info("provider created", "kind", "reading", "name", name)
	} else {
		slog.Warn("no reading provider configured — /v1/readings and /v1/horoscope disabled")
	}

	return liveProv, readingProv, nil
}

// sessionConfig maps the persona section of cfg onto the provider session
// configuration.
func sessionConfig(cfg *config.Config) live.SessionConfig {
	return live.SessionConfig{
		Instructions: cfg.Persona.Instructions,
		Voice:        cfg.Persona.Voice,
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, listenAddr string) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        Suryalive — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("Live", cfg.Providers.Live.Name, cfg.Providers.Live.Model)
	printProvider("Reading", cfg.Providers.Reading.Name, cfg.Providers.Reading.Model)
	printField("Persona", cfg.Persona.Name+" / "+cfg.Persona.Voice)
	printField("Listen addr", listenAddr)
	if cfg.Server.TLS != nil {
		printField("TLS", "enabled")
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	printField(kind, value)
}

func printField(kind, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package main provides the server entry point.
package main

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/deckbox/internal/api/connect"
	"github.com/osa030/deckbox/internal/app/session"
	"github.com/osa030/deckbox/internal/infra/audio"
	"github.com/osa030/deckbox/internal/infra/blob"
	"github.com/osa030/deckbox/internal/infra/catalog"
	"github.com/osa030/deckbox/internal/infra/config"
	"github.com/osa030/deckbox/internal/infra/logger"
)

var (
	app        = kingpin.New("deckbox-server", "deckbox music player server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		kingpin.Fatalf("failed to initialize logger: %v", err)
	}
	defer closer.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load config")
	}

	if err := run(cfg); err != nil {
		zlog.Error().Err(err).Msg("Server error")
		closer.Close()
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	store, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		return errors.Wrap(err, "failed to create blob store")
	}

	repo, err := catalog.New(ctx, cfg.Library, store)
	if err != nil {
		return errors.Wrap(err, "failed to create library")
	}
	zlog.Info().Msgf("Library: type=%s storage=%s", cfg.Library.Type, cfg.Storage.Type)

	clock := audio.NewClock(cfg.Playback.TickInterval())
	defer clock.Close()

	sessionMgr, err := session.NewManager(cfg, clock, repo)
	if err != nil {
		return errors.Wrap(err, "failed to create session manager")
	}
	defer sessionMgr.Close()

	if err := sessionMgr.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start session")
	}

	mux := apiconnect.NewMux(sessionMgr, cfg.Server.Token)
	if local, ok := store.(*blob.Local); ok {
		mountMedia(mux, local)
	}
	if cfg.Server.Token == "" {
		zlog.Warn().Msg("server.token is not set, library mutations are open")
	}

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Give the listener a moment before running hooks
	time.Sleep(100 * time.Millisecond)
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")
	defer executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zlog.Info().Msgf("Received %s, shutting down...", sig)
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close the session first so Watch streams end and Shutdown can drain
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("Failed to shutdown server")
	}
	zlog.Info().Msg("Server stopped")
	return nil
}

// mountMedia serves a local blob store under its base URL when that URL is
// a path on this server.
func mountMedia(mux *http.ServeMux, local *blob.Local) {
	prefix := strings.TrimRight(local.BaseURL(), "/")
	if !strings.HasPrefix(prefix, "/") {
		return
	}
	mux.Handle(prefix+"/", http.StripPrefix(prefix, http.FileServer(http.Dir(local.Dir()))))
	zlog.Info().Msgf("Serving media: path=%s/ dir=%s", prefix, local.Dir())
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}

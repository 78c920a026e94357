// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/cantio/internal/api/connect"
	"github.com/osa030/cantio/internal/app/cache"
	"github.com/osa030/cantio/internal/app/notification"
	"github.com/osa030/cantio/internal/app/playback"
	"github.com/osa030/cantio/internal/app/player"
	"github.com/osa030/cantio/internal/app/remotesync"
	"github.com/osa030/cantio/internal/app/task"
	"github.com/osa030/cantio/internal/infra/api"
	"github.com/osa030/cantio/internal/infra/config"
	"github.com/osa030/cantio/internal/infra/logger"
	"github.com/osa030/cantio/internal/infra/mpv"
	"github.com/osa030/cantio/internal/infra/store"
)

var (
	app        = kingpin.New("cantio-server", "cantio playback service")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	ephemeral  = app.Flag("ephemeral", "Keep the guest cache in memory only").Bool()

	// clear-cache command
	clearCacheCmd = app.Command("clear-cache", "Wipe the guest cache and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	logCloser, err := logger.Init(logger.FromFlags(*verbose, *logfile))
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}
	if *ephemeral {
		cfg.Store.Backend = "memory"
	}

	if command == clearCacheCmd.FullCommand() {
		if err := clearCache(cfg); err != nil {
			zlog.Error().Msgf("Failed to clear cache: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// clearCache wipes the durable store and writes fresh defaults.
func clearCache(cfg *config.Config) error {
	ctx := context.Background()
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return errors.Wrap(err, "failed to open store")
	}
	defer st.Close()

	cache.NewManager(st, cache.WithExpiry(cfg.Cache.Expiry())).ClearAll(ctx)
	zlog.Info().Msg("Guest cache cleared")
	return nil
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	// Durable store and guest cache
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return errors.Wrap(err, "failed to open store")
	}
	defer st.Close()

	library := cache.NewManager(st, cache.WithExpiry(cfg.Cache.Expiry()))
	library.Init(ctx)

	tasks := task.New()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tasks.Close(closeCtx)
	}()

	// Remote API for authenticated sessions
	var remote remotesync.Remote
	if cfg.Authenticated() {
		client, err := api.New(ctx, api.Config{
			BaseURL: cfg.Remote.BaseURL,
			Token:   cfg.Remote.Token,
			Timeout: cfg.Remote.Timeout(),
		})
		if err != nil {
			return errors.Wrap(err, "failed to create remote api client")
		}
		remote = client
		zlog.Info().Msgf("Authenticated session: remote=%s", cfg.Remote.BaseURL)
	} else {
		zlog.Info().Msg("Guest session: remote sync disabled")
	}
	bridge := remotesync.New(remote, library, tasks, remotesync.Config{
		HistoryLimit: cfg.Remote.HistoryLimit,
		SearchLimit:  cfg.Remote.SearchLimit,
		Optimistic:   cfg.Remote.Optimistic,
	})

	// External player and playback controller
	adapter, err := newAdapter(cfg.Player)
	if err != nil {
		return errors.Wrap(err, "failed to create player")
	}
	defer adapter.Close()

	controller := playback.NewController(adapter, library, playback.ConfigFrom(cfg.Playback),
		playback.WithHistory(bridge))
	defer controller.Close()

	notifManager := notification.NewManager()
	defer notifManager.Close()
	forwardCtx, stopForward := context.WithCancel(ctx)
	defer stopForward()
	go notifManager.Forward(forwardCtx, controller.Events())

	// A failed start leaves the controller in its error state; the RPC
	// surface stays up so clients can see it.
	if err := controller.Start(ctx); err != nil {
		zlog.Error().Err(err).Msg("Failed to start player")
	}
	bridge.SyncInBackground()

	// RPC service
	done := make(chan struct{})
	service := apiconnect.NewPlayerService(controller, library, bridge, notifManager, done)
	path, handler := apiconnect.NewPlayerServiceHandler(
		service,
		connect.WithInterceptors(apiconnect.NewControlTokenInterceptor(cfg.Server.ControlToken)),
	)
	mux := http.NewServeMux()
	mux.Handle(path, handler)

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

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		close(done)
		return errors.Wrap(err, "server error")
	}

	// Graceful shutdown: end subscriber streams first
	close(done)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}
	if err := controller.Stop(shutdownCtx); err != nil && !errors.Is(err, playback.ErrPlayerNotReady) &&
		!errors.Is(err, playback.ErrPlayerInitFailed) {
		zlog.Warn().Err(err).Msg("Failed to stop playback")
	}

	zlog.Info().Msg("Server stopped")
	return nil
}

// newAdapter creates the external player selected by the configuration.
func newAdapter(cfg config.PlayerConfig) (player.Adapter, error) {
	switch cfg.Type {
	case "mpv":
		p, err := mpv.NewFromSettings(cfg.Settings)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, errors.Newf("unsupported player type: %s", cfg.Type)
	}
}

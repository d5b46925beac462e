// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/tunedeck/internal/api/connect"
	"github.com/osa030/tunedeck/internal/api/playerv1/playerv1connect"
	"github.com/osa030/tunedeck/internal/app/filter"
	"github.com/osa030/tunedeck/internal/app/session"
	"github.com/osa030/tunedeck/internal/app/upload"
	"github.com/osa030/tunedeck/internal/infra/audio"
	"github.com/osa030/tunedeck/internal/infra/audio/speaker"
	"github.com/osa030/tunedeck/internal/infra/config"
	"github.com/osa030/tunedeck/internal/infra/logger"
)

var (
	app        = kingpin.New("tunedeck-server", "tunedeck playback server")
	configPath = app.Flag("config", "Path to config file (default: search XDG config dirs)").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available upload filters and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Handle list-filters command
	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	// Load config
	cfg, err := loadConfig(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	// Run server
	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		zlog.Info().Msgf("Loading config from %s", path)
		return config.Load(path)
	}
	cfg, found, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	if found == "" {
		zlog.Info().Msgf("No config file found (%s), using defaults", config.DefaultRelPath)
	} else {
		zlog.Info().Msgf("Loading config from %s", found)
	}
	return cfg, nil
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	warnUnknownFilters(cfg)

	// Create audio sink
	sink, err := newSink(cfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	// Create session manager
	sessionMgr, err := session.NewManager(cfg, sink, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create session manager")
	}
	defer sessionMgr.Close()

	ctx := context.Background()
	if err := sessionMgr.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start session")
	}

	// Create upload pipeline
	chain, err := filter.NewChainFromConfig(cfg, filter.Deps{Sources: sessionMgr})
	if err != nil {
		return errors.Wrap(err, "invalid filter config")
	}
	importer := upload.NewImporter(chain, sessionMgr)

	if report, err := importer.Preload(ctx, upload.NewSourceChainFromPaths(cfg.Upload.Preload)); err != nil {
		zlog.Warn().Msgf("Preload failed: %v", err)
	} else if len(report.Accepted)+len(report.Rejected) > 0 {
		zlog.Info().Msgf("Preloaded tracks: accepted=%d rejected=%d", len(report.Accepted), len(report.Rejected))
	}

	var watcher *upload.Watcher
	if cfg.Upload.WatchDir != "" {
		watcher, err = upload.NewWatcher(cfg.Upload.WatchDir, importer, upload.DefaultSettleDelay)
		if err != nil {
			return errors.Wrap(err, "failed to watch upload directory")
		}
		watcher.Start()
		defer watcher.Close()
	}

	// Create RPC services
	listenerService := apiconnect.NewListenerService(sessionMgr)
	playerService := apiconnect.NewPlayerService(sessionMgr, importer)

	// Create HTTP mux
	mux := http.NewServeMux()

	// Register services
	listenerPath, listenerHandler := playerv1connect.NewListenerServiceHandler(listenerService)

	// Create control auth interceptor
	controlAuthInterceptor := apiconnect.NewControlAuthInterceptor(cfg)
	playerPath, playerHandler := playerv1connect.NewPlayerServiceHandler(
		playerService,
		connect.WithInterceptors(controlAuthInterceptor),
	)
	if cfg.Server.ControlToken == "" {
		zlog.Warn().Msg("No control token configured, PlayerService is open to every client")
	}

	mux.Handle(listenerPath, listenerHandler)
	mux.Handle(playerPath, playerHandler)

	// Create server with h2c (HTTP/2 cleartext) support
	serverAddr := cfg.Server.Addr
	server := &http.Server{
		Addr:    serverAddr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	// Channel to capture server startup errors
	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	// Start server
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", serverAddr)
		// Signal that we're about to start listening
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Wait for server to start listening
	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	// Execute startup hook if configured (after server is running)
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop intake, then close the session to terminate active streams
	if watcher != nil {
		if err := watcher.Close(); err != nil {
			zlog.Error().Msgf("Failed to close watcher: %v", err)
		}
	}
	sessionMgr.Close()
	if err := sink.Close(); err != nil {
		zlog.Error().Msgf("Failed to close audio sink: %v", err)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	// Execute shutdown hook if configured
	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// newSink creates the configured audio sink. Speaker output falls back to the
// null sink in builds without audio support.
func newSink(cfg *config.Config) (audio.Sink, error) {
	interval := cfg.Playback.TimeUpdateInterval()

	if cfg.Sink.Type == "speaker" {
		if speaker.Available {
			s, err := speaker.New(cfg.Sink, interval)
			if err != nil {
				return nil, errors.Wrap(err, "failed to open speaker")
			}
			zlog.Info().Msgf("Audio output: speaker sample_rate=%d", cfg.Sink.SampleRate)
			return s, nil
		}
		zlog.Warn().Msg("Speaker output is not available in this build, using null sink")
	}

	zlog.Info().Msg("Audio output: null")
	return audio.NewNullSink(interval), nil
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	show := func(f filter.Filter) {
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
	show(filter.NewAudioTypeFilter())
	registry := filter.GetRegistered()
	for _, name := range filter.RegisteredNames() {
		show(registry[name](filter.Deps{}))
	}
}

// warnUnknownFilters logs filters configured under a name nothing registers.
func warnUnknownFilters(cfg *config.Config) {
	known := filter.RegisteredNames()
	for _, name := range lo.Keys(cfg.Upload.Filters) {
		if !lo.Contains(known, name) {
			zlog.Warn().Msgf("Unknown filter in config, ignoring: name=%s", name)
		}
	}
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

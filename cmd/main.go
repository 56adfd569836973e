package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/okian/mimicoo/internal/adapters/http/api"
	"github.com/okian/mimicoo/internal/adapters/http/site"
	"github.com/okian/mimicoo/internal/adapters/http/swagger"
	"github.com/okian/mimicoo/internal/adapters/inference"
	"github.com/okian/mimicoo/internal/adapters/ws"
	app "github.com/okian/mimicoo/internal/app"
	"github.com/okian/mimicoo/internal/config"
	"github.com/okian/mimicoo/pkg/logger"
	"github.com/okian/mimicoo/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 30 * time.Second
	writeTimeout           = 60 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWith(os.Stdout, logger.Format(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "mimicoo exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	hub := ws.NewHub(
		ws.WithLogger(log.Named("ws")),
		ws.WithCheckOrigin(originChecker(cfg.AllowedOrigins())),
	)
	defer hub.Close()

	opts, err := serviceOptions(cfg, log)
	if err != nil {
		return err
	}
	svc := app.New(append(opts, app.WithBroadcaster(hub))...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(ctx, "service stop failed", logger.Error(err))
		}
	}()

	go metrics.RunRuntimeSampler(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, hub, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("api_base_url", cfg.APIBaseURL),
			logger.String("ws_base_url", cfg.WSBaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// serviceOptions maps configuration onto service options, wiring the
// inference client when a key is configured.
func serviceOptions(cfg *config.Config, log logger.Logger) ([]app.Option, error) {
	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxSessions(cfg.MaxSessions),
		app.WithStageDelay(cfg.StageDelay()),
		app.WithSampleCounts(cfg.PitchSamples, cfg.EnergySamples),
		app.WithReference(cfg.ReferencePitchHz, cfg.ReferenceEnergy),
		app.WithSeed(cfg.RandomSeed),
	}
	if !cfg.InferenceEnabled() {
		log.Info(context.Background(), "no inference key configured; using local scoring and simulated risk")
		return opts, nil
	}

	client, err := inference.New(cfg.InferenceBaseURL, cfg.InferenceAPIKey,
		inference.WithHTTPClient(&http.Client{Timeout: cfg.InferenceTimeout()}),
		inference.WithModel(cfg.InferenceModel),
		inference.WithMaxRetries(cfg.InferenceMaxRetries),
		inference.WithBackoffBase(cfg.InferenceBackoffBase()),
		inference.WithRateLimit(cfg.InferenceRatePerSec),
		inference.WithLogger(log.Named("inference")),
	)
	if err != nil {
		return nil, err
	}
	return append(opts,
		app.WithRemoteScorer(client),
		app.WithSentenceGenerator(client),
		app.WithRiskAssessor(client),
	), nil
}

// newHandler builds the full route table behind CORS.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, wsHandler http.Handler, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc,
		api.WithWebSocket(wsHandler),
		api.WithLogger(log.Named("api")),
	).Register(ctx, mux)
	return api.CORS(mux, cfg.AllowedOrigins()...)
}

// originChecker applies the CORS allow list to WebSocket upgrades.
func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(origins, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// startServiceMetricsUpdater periodically refreshes the service gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *app.Service) {
	// GetStats refreshes the queue and session gauges itself.
	stats := svc.GetStats()
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	if queueSize, ok := stats["queueSize"].(int); ok {
		metrics.UpdateQueueCapacity(queueSize)
	}
}

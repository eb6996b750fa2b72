package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/internal/core/services"
	httphandlers "stagecast/internal/handlers/http"
	"stagecast/internal/infrastructure/media"
	"stagecast/internal/infrastructure/middleware"
	"stagecast/internal/infrastructure/monitoring"
	repositories "stagecast/internal/infrastructure/repositories"
	signaling "stagecast/internal/infrastructure/signal"
	"stagecast/pkg/config"
	"stagecast/pkg/logger"
	"stagecast/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/stagecast/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracer, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize repository factory
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	roomStore := repoFactory.CreateRoomStore()

	// Initialize media engine and worker pool
	engine := media.NewEngine(log)

	numWorkers := cfg.Media.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	// A dead worker takes its routers and every room on them down with it.
	// Log, give in-flight teardown a moment, then exit so the supervisor
	// restarts the process.
	onWorkerDeath := func(worker ports.Worker, err error) {
		log.Errorw("media worker died, exiting",
			"worker_id", worker.ID(),
			"error", err,
			"grace_period", cfg.Media.DeathGracePeriod,
		)
		time.Sleep(cfg.Media.DeathGracePeriod)
		os.Exit(1)
	}

	pool, err := services.NewWorkerPool(context.Background(), engine, numWorkers, onWorkerDeath, log)
	if err != nil {
		log.Fatalw("failed to create worker pool", "error", err)
	}

	// Initialize room registry
	registry := services.NewRegistry(pool, services.RoomConfig{
		Codecs:                domain.DefaultCodecs(),
		StudioWidth:           cfg.Studio.Width,
		StudioHeight:          cfg.Studio.Height,
		ReactionFlushInterval: cfg.Studio.ReactionFlushInterval,
		AudioLevelIntervalMs:  int(cfg.Media.AudioLevelInterval / time.Millisecond),
		AudioLevelThreshold:   cfg.Media.AudioLevelThreshold,
		ThrottleSecret:        cfg.Media.ThrottleSecret,
		RequestTimeout:        cfg.Signal.RequestTimeout,
	}, log)
	defer registry.Close()

	// Initialize monitoring
	var collector *monitoring.PrometheusCollector
	if cfg.Monitoring.PrometheusEnabled {
		collector = monitoring.NewPrometheusCollector()
	}

	statusCtx, statusCancel := context.WithCancel(context.Background())
	defer statusCancel()
	statusLogger := monitoring.NewStatusLogger(registry, pool, collector, cfg.Monitoring.StatusLogInterval, log)
	go statusLogger.Run(statusCtx)

	// Initialize services and handlers
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.GuestTokenTTL)
	roomHandler := httphandlers.NewRoomHandler(roomStore, registry, authService, collector)

	// Signaling server on its own listener
	wsServer := signaling.NewWebSocketServer(registry, log)
	wsServer.SetPingInterval(cfg.Signal.PingInterval)
	wsServer.SetPongTimeout(cfg.Signal.PongTimeout)
	if collector != nil {
		wsServer.SetRequestRecorder(collector)
	}

	wsMux := http.NewServeMux()
	wsMux.Handle("/ws", middleware.NewWebSocketConnectLimiter(cfg, http.HandlerFunc(wsServer.HandleWebSocket)))

	signalSrv := &http.Server{
		Addr:    cfg.Signal.Address,
		Handler: wsMux,
	}

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	roomHandler.SetupRoutes(router)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":      "healthy",
			"timestamp":   time.Now(),
			"uptime":      time.Since(startTime).String(),
			"rooms":       len(registry.Rooms()),
			"connections": wsServer.ConnectionCount(),
		})
	})

	// Readiness endpoint
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := repoFactory.HealthCheck(ctx); err != nil {
			c.JSON(503, gin.H{
				"status":       "not_ready",
				"timestamp":    time.Now(),
				"dependencies": "unhealthy",
				"error":        err.Error(),
			})
			return
		}

		c.JSON(200, gin.H{
			"status":       "ready",
			"timestamp":    time.Now(),
			"dependencies": "ok",
		})
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start both servers
	serverErr := make(chan error, 2)
	go func() {
		log.Infof("Starting REST server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()
	go func() {
		log.Infof("Starting signaling server on %s", cfg.Signal.Address)
		if err := signalSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := signalSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during signaling server shutdown", "error", err)
		signalSrv.Close()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during REST server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	// Tear down live rooms, then tracing
	registry.Close()

	tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer tracerCancel()
	if err := tracer.Shutdown(tracerCtx); err != nil {
		log.Errorw("error shutting down tracer", "error", err)
	}
}

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lectern/internal/core/services"
	handlers "lectern/internal/handlers/http"
	"lectern/internal/infrastructure/hub"
	"lectern/internal/infrastructure/middleware"
	"lectern/internal/infrastructure/monitoring"
	"lectern/internal/infrastructure/repositories"
	"lectern/pkg/config"
	"lectern/pkg/logger"
	"lectern/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := logger.Named(zapLogger, "backend")

	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("tracing init failed", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Warnw("tracer shutdown failed", "error", err)
		}
	}()

	factory, err := repositories.NewRepositoryFactory(cfg, logger.Named(zapLogger, "repositories"))
	if err != nil {
		log.Fatalw("repository factory failed", "error", err)
	}
	defer factory.Close()

	var collector *monitoring.PrometheusCollector
	if cfg.Monitoring.PrometheusEnabled {
		collector = monitoring.NewPrometheusCollector()
	}

	meetings := factory.CreateMeetingRepository()
	connections := factory.CreateConnectionRepository()

	manager := services.NewMeetingManager(
		logger.Named(zapLogger, "meetings"),
		meetings,
		factory.CreateAttendeeRepository(),
		connections,
		collector,
		services.MeetingManagerConfig{
			DefaultRegion: cfg.Meetings.DefaultRegion,
			MessagingURL:  cfg.Messaging.PublicURL,
			JWTSecret:     cfg.Meetings.JWTSecret,
			TokenTTL:      cfg.Meetings.TokenTTL,
		},
	)

	hubConfig := hub.Config{
		PingInterval: cfg.Messaging.PingInterval,
		PongTimeout:  cfg.Messaging.PongTimeout,
		WriteTimeout: cfg.Messaging.WriteTimeout,
	}
	if cfg.RateLimiting.Enabled {
		hubConfig.MessagesPerSecond = cfg.RateLimiting.Messaging.MessagesPerSecond
		hubConfig.Burst = cfg.RateLimiting.Messaging.Burst
		hubConfig.MaxMessageSize = cfg.RateLimiting.Messaging.MaxMessageSizeBytes
	}
	messagingHub := hub.New(manager, connections, collector, hubConfig, logger.Named(zapLogger, "hub"))
	manager.OnMeetingEnded(messagingHub.DisconnectMeeting)

	health := monitoring.NewHealthChecker()
	health.AddStorageCheck(factory.HealthCheck, cfg.Server.ReadTimeout)
	health.AddRepositoryCheck(meetings, cfg.Server.ReadTimeout)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	if cfg.RateLimiting.Enabled {
		router.Use(middleware.RateLimitMiddleware(
			cfg.RateLimiting.HTTP.RequestsPerSecond,
			cfg.RateLimiting.HTTP.Burst,
			logger.Named(zapLogger, "middleware"),
		))
	}

	handler := handlers.NewMeetingHandler(manager, cfg.Meetings.DefaultRegion, logger.Named(zapLogger, "http"), collector.RecordJoinDuration)
	handler.RegisterRoutes(router.Group("/v1"))

	router.GET("/health", func(c *gin.Context) {
		status := health.CheckAll(c.Request.Context())
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	if cfg.Monitoring.PrometheusEnabled {
		router.GET(cfg.Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	router.GET("/messaging", gin.WrapF(messagingHub.HandleWebSocket))

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infow("backend listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorw("graceful shutdown failed", "error", err)
	}
	log.Info("stopped")
}

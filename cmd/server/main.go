package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghseeli/service-booking/internal/application"
	"github.com/ghseeli/service-booking/internal/config"
	bookingEvents "github.com/ghseeli/service-booking/internal/events"
	"github.com/ghseeli/service-booking/internal/handler"
	"github.com/ghseeli/service-booking/internal/repository"
	"github.com/ghseeli/service-booking/pkg/auth"
	"github.com/ghseeli/service-booking/pkg/database"
	"github.com/ghseeli/service-booking/pkg/health"
	"github.com/ghseeli/service-booking/pkg/kafka"
	"github.com/ghseeli/service-booking/pkg/logger"
	"github.com/ghseeli/service-booking/pkg/metrics"
	"github.com/ghseeli/service-booking/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// The overlap exclusion constraint only exists in the SQL migrations, so they run in every environment.
	if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Metrics
	var (
		m        *metrics.Metrics
		registry = prometheus.NewRegistry()
	)
	if cfg.MetricsConfig.Enabled {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(registry, serviceName)
	}

	// Token verification is optional; without a secret the gateway headers identify the caller.
	var jwtManager *auth.JWTManager
	if cfg.JWTConfig.Secret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTConfig.Secret, 15*time.Minute)
	}

	// Event publisher
	var publisher application.EventPublisher = kafka.NopPublisher{}
	if cfg.KafkaConfig.Enabled {
		producer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = producer.Close() }()
		publisher = producer
	} else {
		log.Warn("kafka disabled, booking events will not be published")
	}

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	clock := application.SystemClock{}

	// Initialize application services
	bookingService := application.NewBookingService(application.BookingServiceDeps{
		Bookings:       bookingRepo,
		Vehicles:       repository.NewGormVehicleRepository(db),
		Addresses:      repository.NewGormAddressRepository(db),
		ServiceOptions: repository.NewGormServiceOptionRepository(db),
		Tx:             repository.NewGormTxManager(db),
		Clock:          clock,
		IDs:            application.UUIDGenerator{},
		Publisher:      publisher,
		Metrics:        m,
		Logger:         log,
	})
	paymentLinkService := application.NewPaymentLinkService(bookingRepo, clock, publisher, m, log)

	// Initialize and start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.KafkaConfig.Enabled {
		groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
		paymentConsumer := bookingEvents.NewPaymentEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			paymentLinkService,
			log,
		)
		defer func() { _ = paymentConsumer.Close() }()

		go func() {
			log.Info("starting payment event consumer")
			if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("payment event consumer error", zap.Error(err))
			}
		}()
	}

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	if m != nil {
		router.Use(middleware.MetricsMiddleware(m))
		router.GET(cfg.MetricsConfig.Path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
		log.Info("prometheus metrics exposed", zap.String("path", cfg.MetricsConfig.Path))
	}

	// Register health check routes
	health.NewHandler(db, serviceName).RegisterRoutes(router)

	// Register routes
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewCompanyBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}

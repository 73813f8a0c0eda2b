package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/prodoxx/myqa-is/internal/attestation"
	"github.com/prodoxx/myqa-is/internal/config"
	"github.com/prodoxx/myqa-is/internal/handler"
	"github.com/prodoxx/myqa-is/internal/pubsub"
	"github.com/prodoxx/myqa-is/internal/repository"
	"github.com/prodoxx/myqa-is/internal/service"
	"github.com/prodoxx/myqa-is/pkg/auth"
	"github.com/prodoxx/myqa-is/pkg/db"
	"github.com/prodoxx/myqa-is/pkg/logger"
	"github.com/prodoxx/myqa-is/pkg/metrics"
)

const serviceName = "marketplace-service"

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger(serviceName, "info").Fatalf("Invalid configuration: %v", err)
	}

	log := logger.NewLogger(serviceName, cfg.LogLevel)
	if envErr != nil {
		log.Warnf(".env file not found: %v", envErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()
	log.Info("Successfully connected to database")

	if err := db.NewSchemaGuard(conn.DB).ValidateTables(ctx, repository.ExpectedSchemas()); err != nil {
		log.Fatalf("Database schema check failed: %v", err)
	}

	// Event fan-out
	var publisher service.EventPublisher = service.NopPublisher{}
	if cfg.Redis.URL != "" {
		redisPublisher, err := pubsub.NewRedisPublisher(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisPublisher.Close()
		publisher = redisPublisher
		log.Infof("Publishing events on %s", pubsub.EventsChannel)
	} else {
		log.Warn("REDIS_URL not set, events are stored but not published")
	}

	// Content attestation
	var verifier service.AttestationVerifier
	if cfg.Marketplace.ValidatorPublicKey != "" {
		v, err := attestation.NewEd25519VerifierFromHex(cfg.Marketplace.ValidatorPublicKey)
		if err != nil {
			log.Fatalf("Invalid validator public key: %v", err)
		}
		verifier = v
		log.Infof("Content attestation enabled for validator %s", v.PublicKeyHex())
	}

	m := metrics.NewMetrics(serviceName, prometheus.DefaultRegisterer)

	// Initialize services
	deps := service.Deps{
		Store:     repository.NewStore(conn.DB),
		Policy:    cfg.Marketplace.Policy,
		Clock:     service.SystemClock{},
		Publisher: publisher,
		Observer:  m,
		Logger:    log.Logger,
	}
	gate := service.NewAntiAbuseGate(deps.Policy)
	integrity := service.NewContentIntegrityCheck(deps.Policy, verifier)

	marketplaceService := service.NewMarketplaceService(deps)
	questionService := service.NewQuestionService(deps, gate, integrity)
	unlockKeyService := service.NewUnlockKeyService(deps, gate)
	settlementService := service.NewSettlementService(deps, gate)

	tokenValidator, err := auth.NewJWTTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	if err != nil {
		log.Fatalf("Failed to create token validator: %v", err)
	}

	// Build gRPC server options with interceptors
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.UnaryServerInterceptor(log),
			metrics.UnaryServerInterceptor(m),
			auth.UnaryServerInterceptor(tokenValidator, handler.PublicMethods...),
		),
		grpc.ChainStreamInterceptor(
			logger.StreamServerInterceptor(log),
			metrics.StreamServerInterceptor(m),
			auth.StreamServerInterceptor(tokenValidator, handler.PublicMethods...),
		),
	)

	// Register handlers
	handler.RegisterMarketplaceServer(grpcServer, handler.NewMarketplaceHandler(
		marketplaceService,
		questionService,
		unlockKeyService,
		settlementService,
		cfg.Marketplace.FeeTokenDecimals,
	))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(handler.ServiceName, healthpb.HealthCheckResponse_SERVING)

	// Metrics and probes
	metricsServer := &http.Server{
		Addr:              ":" + cfg.Server.MetricsPort,
		Handler:           metrics.NewRouter(prometheus.DefaultGatherer, conn.Ping),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server failed: %v", err)
		}
	}()

	stopStats := make(chan struct{})
	go recordPoolStats(conn, m, stopStats)

	// Start gRPC server
	listener, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		log.Fatalf("Failed to listen on port %s: %v", cfg.Server.GRPCPort, err)
	}

	log.Infof("Marketplace service listening on port %s (metrics on %s)", cfg.Server.GRPCPort, cfg.Server.MetricsPort)

	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	healthServer.Shutdown()
	close(stopStats)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Metrics server shutdown: %v", err)
	}
	grpcServer.GracefulStop()
	log.Info("Server stopped")
}

func recordPoolStats(conn *db.Connection, m *metrics.Metrics, stop <-chan struct{}) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s := conn.DB.Stats()
			m.RecordDBPoolStats(s.OpenConnections, s.InUse, s.Idle, s.WaitCount, s.WaitDuration)
		}
	}
}

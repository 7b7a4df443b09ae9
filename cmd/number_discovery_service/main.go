package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/aradsms/vnumber_services/internal/number_discovery_service/app"
	"github.com/aradsms/vnumber_services/internal/number_discovery_service/middleware"
	"github.com/aradsms/vnumber_services/internal/number_discovery_service/provider"
	httptransport "github.com/aradsms/vnumber_services/internal/number_discovery_service/transport/http"
	"github.com/aradsms/vnumber_services/internal/platform/config"
	"github.com/aradsms/vnumber_services/internal/platform/logger"
	"github.com/aradsms/vnumber_services/internal/platform/messagebroker"
)

const (
	serviceName     = "number_discovery_service"
	shutdownTimeout = 15 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("Starting service...")
	appLogger.Info("Configuration loaded",
		"log_level", cfg.LogLevel,
		"onlinesim_base_url", cfg.OnlineSimBaseURL,
		"onlinesim_api_key_present", cfg.OnlineSimAPIKey != "",
		"nats_url", cfg.NATSURL,
		"http_port", cfg.NumberDiscoveryServiceHTTPPort,
		"metrics_port", cfg.NumberDiscoveryServiceMetricsPort,
		"grpc_health_port", cfg.NumberDiscoveryServiceGRPCHealthPort,
		"jwt_enabled", cfg.JWTAccessSecret != "",
	)

	onlineSim := provider.NewOnlineSimProvider(appLogger, provider.OnlineSimConfigFrom(cfg), &http.Client{})
	inboxReader := app.NewInboxReader(onlineSim, appLogger)

	var engineOpts []app.EngineOption
	if cfg.NATSURL != "" {
		nc, err := messagebroker.NewNatsClient(cfg.NATSURL, serviceName, appLogger)
		if err != nil {
			appLogger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		engineOpts = append(engineOpts, app.WithEventPublisher(nc, cfg.NumberEventsSubject))
		appLogger.Info("NATS connection initialized", "subject", cfg.NumberEventsSubject)
	} else {
		appLogger.Info("NATS URL not configured, number discovered events are disabled")
	}
	engine := app.NewDiscoveryEngine(onlineSim, inboxReader, appLogger, engineOpts...)

	var authMW func(http.Handler) http.Handler
	if cfg.JWTAccessSecret != "" {
		authMW = middleware.JWTAuthMiddleware([]byte(cfg.JWTAccessSecret), appLogger)
	}
	handler := httptransport.NewDiscoveryHandler(engine, inboxReader, appLogger, httptransport.NewValidator(), cfg.DiscoveryTimeout())
	// The request timeout leaves headroom for writing the response after a full discovery attempt.
	router := httptransport.NewRouter(handler, authMW, appLogger, cfg.DiscoveryTimeout()+5*time.Second)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.NumberDiscoveryServiceHTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.NumberDiscoveryServiceMetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		appLogger.Info("Metrics server listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.NumberDiscoveryServiceGRPCHealthPort))
		if err != nil {
			return fmt.Errorf("grpc health listen: %w", err)
		}
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
		appLogger.Info("gRPC health server listening", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Attempting graceful shutdown...")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("HTTP server shutdown failed", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Metrics server shutdown failed", "error", err)
		}
		grpcServer.GracefulStop()
		return nil
	})

	appLogger.Info("Service is ready.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		appLogger.Info("Received termination signal", "signal", sig.String())
	case <-groupCtx.Done():
		appLogger.Error("A critical component failed, initiating shutdown")
	}
	mainCancel()

	if err := g.Wait(); err != nil {
		appLogger.Error("Service stopped with error", "error", err)
	}
	appLogger.Info("Service shutdown complete.")
}

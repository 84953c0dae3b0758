package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"planning-poker/auth"
	"planning-poker/infrastructure/bus"
	"planning-poker/infrastructure/grpc/pokerbus"
	"planning-poker/infrastructure/grpc/server"
	"syscall"
	"time"

	grpc3 "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Broker terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run serves the bus every node of the cluster publishes to and subscribes on.
func run() (int, error) {
	config, err := LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)
	secret := []byte(config.Secret)

	hub := bus.NewMemoryBus(logger, config.SubscriberBuffer)
	defer func() {
		_ = hub.Close()
	}()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(logger),
			auth.UnaryAuthInterceptor(secret),
		),
		grpc.ChainStreamInterceptor(auth.StreamAuthInterceptor(secret)),
	)
	pokerbus.RegisterBusServer(s, server.NewBusServer(logger, hub))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus(pokerbus.ServiceName, healthpb.HealthCheckResponse_SERVING)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting bus broker", "address", address, "at", time.Now().UTC())
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	healthServer.Shutdown()
	// Subscriptions are endless streams, GracefulStop would wait for every node to leave.
	s.Stop()
	logger.Info("Broker stopped cleanly")
	return exitOK, nil
}

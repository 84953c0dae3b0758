package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"planning-poker/auth"
	"planning-poker/contract"
	"planning-poker/infrastructure/bus"
	"planning-poker/infrastructure/codec"
	"planning-poker/infrastructure/grpc/client"
	"planning-poker/infrastructure/storage"
	"planning-poker/internal"
	"planning-poker/runtime"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	grpc3 "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Node terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the node and blocks until a signal or a server failure.
// Returning instead of exiting lets the deferred cleanups run.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) {
		debugPort := 8081
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", debugPort, endpoint))
		database.StartDebugServer(db, debugPort, endpoint, SessionMapper)
	}

	// 3. Bus
	nodeBus, err := buildBus(config, logger)
	if err != nil {
		return exitRuntime, err
	}

	// 4. Node
	healthServer := health.NewServer()
	repository := storage.NewSessionRepository(db, logger)
	node := runtime.NewNode(logger, config, repository, nodeBus, healthServer)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)
	nodeDone := make(chan struct{})
	go func() {
		defer close(nodeDone)
		logger.Info("Starting node...", "id", node.ID())
		if err := node.Run(ctx); err != nil {
			errChan <- fmt.Errorf("node error: %w", err)
		}
	}()

	// 5. gRPC health endpoint
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(grpc3.UnaryLoggingInterceptor(logger)))
	healthpb.RegisterHealthServer(s, healthServer)

	go func() {
		logger.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			logger.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
		stop()
	}

	// 7. Final Cleanup
	logger.Info("Shutting down gracefully...")
	s.GracefulStop()
	<-nodeDone
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.SinkTimeout)
	defer cancel()
	if err := node.Shutdown(shutdownCtx); err != nil {
		logger.Error("Node shutdown failed", "error", err)
	}
	logger.Info("Program stopped cleanly")
	return code, runErr
}

// buildBus connects to the broker when one is configured, otherwise the node
// runs alone on an in-process bus.
func buildBus(config internal.Config, logger *slog.Logger) (contract.IBus, error) {
	if config.BusAddr == "" {
		logger.Warn("No BUS_ADDR configured, running standalone")
		return bus.NewMemoryBus(logger, config.BufferSize), nil
	}
	token, err := auth.GenerateToken(config.NodeID, []byte(config.BusSecret), config.BusTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("bus token: %w", err)
	}
	conn, err := client.Dial(config.BusAddr, token)
	if err != nil {
		return nil, fmt.Errorf("bus connection to %s: %w", config.BusAddr, err)
	}
	return client.NewBusClient(conn, logger, config.BusRetryTimeout, config.BufferSize), nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}

// SessionMapper renders a stored session snapshot in the debug inspector.
func SessionMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	snap, err := codec.UnmarshalSnapshot(val)
	if err != nil {
		row.Detail = "Error: unmarshal failed"
		return row
	}
	row.Type = string(snap.State)
	row.Detail = fmt.Sprintf("%s round=%d participants=%d owner=%s",
		snap.Name, snap.Round, len(snap.Participants), snap.Owner)
	return row
}

package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"planning-poker/auth"
	"planning-poker/infrastructure/grpc/client"
	"planning-poker/infrastructure/storage"
	"planning-poker/internal"
	"planning-poker/runtime"
	"planning-poker/services"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

type BaseGrpcSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration and skips when no broker is available.
func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.BrokerAddr == "" {
		s.T().Skip("BROKER_ADDR is not set")
	}
}

// Step prints a colorized header before running a scenario step.
func (s *BaseGrpcSuite) Step(name string, fn func()) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
	s.Run(name, fn)
}

// GrpcConn opens a node token authenticated connection to the broker that logs every unary call.
func (s *BaseGrpcSuite) GrpcConn(t *testing.T, nodeID string) *grpc.ClientConn {
	marshaler := protojson.MarshalOptions{
		UseProtoNames:   true,
		Multiline:       true,
		EmitUnpopulated: true,
	}

	token, err := auth.GenerateToken(nodeID, []byte(s.Config.BusSecret), time.Hour)
	s.Require().NoError(err)
	conn, err := client.Dial(s.Config.BrokerAddr, token,
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

			if s.Config.DebugJSON {
				if m, ok := req.(proto.Message); ok {
					fmt.Fprintln(&logBuilder, "\nREQUEST:")
					fmt.Fprintln(&logBuilder, marshaler.Format(m))
				}
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else if m, ok := reply.(proto.Message); ok {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, marshaler.Format(m))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to broker at "+s.Config.BrokerAddr)
	return conn
}

// WithBrokerHealth provides the health client of the broker.
func (s *BaseGrpcSuite) WithBrokerHealth(fn func(ctx context.Context, client healthpb.HealthClient)) {
	conn := s.GrpcConn(s.T(), "e2e-probe")
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	fn(ctx, healthpb.NewHealthClient(conn))
}

// StartNode runs a node connected to the broker and returns its service once the handshake is done.
func (s *BaseGrpcSuite) StartNode(nodeID string) services.IPlanningPokerService {
	t := s.T()
	log := logs.GetLoggerFromLevel(slog.LevelInfo)
	config := internal.Config{
		NodeID:                          nodeID,
		BusTopic:                        s.Config.BusTopic,
		BufferSize:                      256,
		BufferTimeout:                   time.Second,
		SinkTimeout:                     5 * time.Second,
		RestartInterval:                 100 * time.Millisecond,
		MetricInterval:                  10 * time.Second,
		BusRetryTimeout:                 2 * time.Second,
		ClientInactivityTimeout:         time.Minute,
		ClientInactivityCheckInterval:   10 * time.Second,
		SessionExpiration:               time.Hour,
		BusInitializationTimeout:        2 * time.Second,
		BusMessageTimeout:               500 * time.Millisecond,
		SubscriptionMaintenanceInterval: 500 * time.Millisecond,
		SubscriptionInactivityTimeout:   3 * time.Second,
		LongPollTimeout:                 5 * time.Second,
	}

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	s.Require().NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	conn := s.GrpcConn(t, nodeID)
	busClient := client.NewBusClient(conn, log, config.BusRetryTimeout, config.BufferSize)
	node := runtime.NewNode(log, config, storage.NewSessionRepository(db, log), busClient, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = node.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = node.Shutdown(context.Background())
	})

	s.Require().Eventually(node.IsInitialized, 10*time.Second, 50*time.Millisecond)
	return services.NewPlanningPokerService(log, node, config.LongPollTimeout)
}

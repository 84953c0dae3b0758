package client

import (
	"context"
	"fmt"
	"log/slog"
	"planning-poker/auth"
	"planning-poker/errors"
	"planning-poker/infrastructure/grpc/pokerbus"
	"time"

	"github.com/cenkalti/backoff/v5"
	"google.golang.org/grpc"
	grpcbackoff "google.golang.org/grpc/backoff"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// BusClient implements contract.IBus against the gRPC broker.
type BusClient struct {
	conn         *grpc.ClientConn
	log          *slog.Logger
	retryTimeout time.Duration
	buffer       int
}

func NewBusClient(conn *grpc.ClientConn, log *slog.Logger, retryTimeout time.Duration, buffer int) *BusClient {
	return &BusClient{conn: conn, log: log, retryTimeout: retryTimeout, buffer: buffer}
}

// Dial opens a lazy connection to the broker authenticated with a node token.
func Dial(addr, token string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	backoffConfig := grpcbackoff.Config{
		BaseDelay:  200 * time.Millisecond,
		Multiplier: 1.6,
		Jitter:     0.2,
		MaxDelay:   5 * time.Second,
	}
	defaults := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(auth.BearerToken{Token: token}),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff:           backoffConfig,
			MinConnectTimeout: 2 * time.Second,
		}),
	}
	return grpc.NewClient(addr, append(defaults, opts...)...)
}

// WaitForReady blocks until the connection is ready or ctx is done.
func WaitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	conn.Connect()
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			return nil
		}
		if !conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("broker not ready (last state %s): %w", state, ctx.Err())
		}
	}
}

// Publish retries with exponential backoff until retryTimeout elapses.
func (c *BusClient) Publish(ctx context.Context, topic string, payload []byte) error {
	ctx = metadata.AppendToOutgoingContext(ctx, pokerbus.TopicHeader, topic)
	operation := func() (*emptypb.Empty, error) {
		out := new(emptypb.Empty)
		err := c.conn.Invoke(ctx, pokerbus.Bus_Publish_FullMethodName, wrapperspb.Bytes(payload), out)
		if err == nil {
			return out, nil
		}
		switch status.Code(err) {
		case codes.InvalidArgument, codes.Unauthenticated, codes.PermissionDenied:
			return nil, backoff.Permanent(err)
		}
		c.log.Debug("Publish failed, retrying", "topic", topic, "error", err)
		return nil, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(c.retryTimeout))
	if err != nil {
		return errors.Wrap(errors.CodeBusUnavailable, "publish on "+topic, err)
	}
	return nil
}

// Subscribe opens a server stream on the broker. The returned channel is closed
// when ctx is done or the stream breaks; callers resubscribe.
func (c *BusClient) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	stream, err := c.conn.NewStream(ctx, &pokerbus.Bus_ServiceDesc.Streams[0], pokerbus.Bus_Subscribe_FullMethodName)
	if err != nil {
		return nil, errors.Wrap(errors.CodeBusUnavailable, "subscribe to "+topic, err)
	}
	if err := stream.SendMsg(wrapperspb.String(topic)); err != nil {
		return nil, errors.Wrap(errors.CodeBusUnavailable, "subscribe to "+topic, err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, errors.Wrap(errors.CodeBusUnavailable, "subscribe to "+topic, err)
	}

	out := make(chan []byte, c.buffer)
	go func() {
		defer close(out)
		for {
			msg := new(wrapperspb.BytesValue)
			if err := stream.RecvMsg(msg); err != nil {
				if ctx.Err() == nil {
					c.log.Warn("Bus subscription lost", "topic", topic, "error", err)
				}
				return
			}
			select {
			case out <- msg.GetValue():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *BusClient) Close() error {
	return c.conn.Close()
}

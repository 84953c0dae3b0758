package server

import (
	"context"
	"log/slog"
	"planning-poker/auth"
	"planning-poker/errors"
	"planning-poker/infrastructure/bus"
	"planning-poker/infrastructure/grpc/pokerbus"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// BusServer is the broker every node connects to. It relays each publication
// to all the subscribers of its topic, the publisher included.
type BusServer struct {
	log *slog.Logger
	hub *bus.MemoryBus
}

var _ pokerbus.BusServer = (*BusServer)(nil)

func NewBusServer(log *slog.Logger, hub *bus.MemoryBus) *BusServer {
	return &BusServer{log: log, hub: hub}
}

func (s *BusServer) Publish(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	topic := topicFromContext(ctx)
	if topic == "" {
		return nil, status.Error(codes.InvalidArgument, "topic header is missing")
	}
	if err := s.hub.Publish(ctx, topic, in.GetValue()); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *BusServer) Subscribe(in *wrapperspb.StringValue, stream grpc.ServerStream) error {
	ctx := stream.Context()
	topic := in.GetValue()
	if topic == "" {
		return status.Error(codes.InvalidArgument, "topic is missing")
	}
	node, _ := auth.NodeIDFromContext(ctx)

	messages, err := s.hub.Subscribe(ctx, topic)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	s.log.Info("Node subscribed", "node", node, "topic", topic)
	defer s.log.Info("Node unsubscribed", "node", node, "topic", topic)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return status.Error(codes.Unavailable, "subscription closed, resubscribe")
			}
			if err := stream.SendMsg(wrapperspb.Bytes(msg)); err != nil {
				s.log.Warn("Failed to forward message", "node", node, "error", err)
				return err
			}
		}
	}
}

func topicFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(pokerbus.TopicHeader)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

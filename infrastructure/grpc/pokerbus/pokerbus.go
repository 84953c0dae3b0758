// Package pokerbus describes the gRPC service of the bus broker.
// Messages are well-known protobuf wrappers: the payload travels as BytesValue,
// the topic of a publication in the x-bus-topic header.
package pokerbus

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName                  = "pokerbus.Bus"
	Bus_Publish_FullMethodName   = "/pokerbus.Bus/Publish"
	Bus_Subscribe_FullMethodName = "/pokerbus.Bus/Subscribe"

	TopicHeader = "x-bus-topic"
)

type BusServer interface {
	Publish(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error)
	// Subscribe streams every message published on the requested topic.
	Subscribe(topic *wrapperspb.StringValue, stream grpc.ServerStream) error
}

func RegisterBusServer(s grpc.ServiceRegistrar, srv BusServer) {
	s.RegisterService(&Bus_ServiceDesc, srv)
}

func publishHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BusServer).Publish(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Bus_Publish_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BusServer).Publish(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(BusServer).Subscribe(in, stream)
}

var Bus_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BusServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Publish",
			Handler:    publishHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "pokerbus.proto",
}

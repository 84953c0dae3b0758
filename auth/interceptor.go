package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const NodeIDKey contextKey = "node_id"

// UnaryAuthInterceptor rejects unary calls without a valid node token.
func UnaryAuthInterceptor(secret []byte) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		newCtx, err := authenticate(ctx, secret)
		if err != nil {
			return nil, err
		}
		return handler(newCtx, req)
	}
}

// StreamAuthInterceptor rejects streams without a valid node token.
func StreamAuthInterceptor(secret []byte) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		newCtx, err := authenticate(ss.Context(), secret)
		if err != nil {
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: newCtx})
	}
}

// NodeIDFromContext returns the node identity injected by the interceptors.
func NodeIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(NodeIDKey).(string)
	return id, ok
}

func authenticate(ctx context.Context, secret []byte) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is missing")
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization token is missing")
	}

	// Expecting the standard "Bearer <token>" format
	tokenStr := strings.TrimPrefix(values[0], "Bearer ")

	claims, err := ValidateToken(tokenStr, secret)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	return context.WithValue(ctx, NodeIDKey, claims.NodeID), nil
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}

// BearerToken attaches a node token to every outgoing call.
type BearerToken struct {
	Token string
}

var _ credentials.PerRPCCredentials = BearerToken{}

func (b BearerToken) GetRequestMetadata(_ context.Context, _ ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.Token}, nil
}

// RequireTransportSecurity is false: the bus runs on a private network without TLS.
func (b BearerToken) RequireTransportSecurity() bool {
	return false
}

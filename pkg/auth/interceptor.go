package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ErrInvalidToken is returned by validators for tokens they reject.
var ErrInvalidToken = errors.New("invalid token")

// CallerContextKey is the key for caller data in context
type CallerContextKey struct{}

// CallerContext holds the authenticated caller
type CallerContext struct {
	Identity string
	Token    string
}

// TokenValidator interface for validating tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*CallerContext, error)
}

// healthMethods never require a token.
var healthMethods = []string{
	"/grpc.health.v1.Health/Check",
	"/grpc.health.v1.Health/Watch",
}

// UnaryServerInterceptor returns a new unary server interceptor for authentication.
// Methods in publicMethods and the health service are served without a token.
func UnaryServerInterceptor(validator TokenValidator, publicMethods ...string) grpc.UnaryServerInterceptor {
	public := publicSet(publicMethods)
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if public[info.FullMethod] {
			return handler(ctx, req)
		}

		caller, err := authenticate(ctx, validator)
		if err != nil {
			return nil, err
		}

		return handler(context.WithValue(ctx, CallerContextKey{}, caller), req)
	}
}

// StreamServerInterceptor returns a new stream server interceptor for authentication
func StreamServerInterceptor(validator TokenValidator, publicMethods ...string) grpc.StreamServerInterceptor {
	public := publicSet(publicMethods)
	return func(
		srv interface{},
		stream grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if public[info.FullMethod] {
			return handler(srv, stream)
		}

		caller, err := authenticate(stream.Context(), validator)
		if err != nil {
			return err
		}

		return handler(srv, &wrappedServerStream{
			ServerStream: stream,
			ctx:          context.WithValue(stream.Context(), CallerContextKey{}, caller),
		})
	}
}

func authenticate(ctx context.Context, validator TokenValidator) (*CallerContext, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	authHeader := md.Get("authorization")
	if len(authHeader) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing authorization header")
	}

	token := extractToken(authHeader[0])
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "invalid authorization header format")
	}

	caller, err := validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, fmt.Sprintf("invalid token: %v", err))
	}
	return caller, nil
}

// extractToken extracts the token from "Bearer <token>" format
func extractToken(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

func publicSet(methods []string) map[string]bool {
	set := make(map[string]bool, len(healthMethods)+len(methods))
	for _, m := range healthMethods {
		set[m] = true
	}
	for _, m := range methods {
		set[m] = true
	}
	return set
}

// GetCallerFromContext retrieves the caller from the context
func GetCallerFromContext(ctx context.Context) (*CallerContext, error) {
	caller, ok := ctx.Value(CallerContextKey{}).(*CallerContext)
	if !ok || caller.Identity == "" {
		return nil, status.Error(codes.Unauthenticated, "caller context not found")
	}
	return caller, nil
}

// wrappedServerStream wraps grpc.ServerStream to override context
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

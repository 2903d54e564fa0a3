package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/rpc"
	"github.com/dmitrijs2005/rollcall/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const identityKey ctxKey = "identity"

// publicMethods can be called without an access token.
var publicMethods = map[string]bool{
	rpc.MethodPing:         true,
	rpc.MethodLogin:        true,
	rpc.MethodRefreshToken: true,
}

// adminMethods additionally require the admin role.
var adminMethods = map[string]bool{
	rpc.MethodRegisterAttendee: true,
}

func identityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	id, err := s.users.Authenticate(accessToken)
	if err != nil {
		return nil, toStatus(err)
	}

	if adminMethods[info.FullMethod] && !id.IsAdmin() {
		return nil, status.Error(codes.PermissionDenied, "admin role required")
	}

	ctx = context.WithValue(ctx, identityKey, id)

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	if err != nil {
		s.logger.Warn(ctx, "rpc failed", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	} else {
		s.logger.Debug(ctx, "rpc", "method", info.FullMethod, "duration", time.Since(start))
	}
	return resp, err
}

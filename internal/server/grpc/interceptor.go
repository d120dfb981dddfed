package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// protectedMethods need a valid access token.
var protectedMethods = map[string]bool{
	pb.AuthService_Me_FullMethodName:            true,
	pb.AuthService_UpdateProfile_FullMethodName: true,
	pb.AuthService_DeleteAccount_FullMethodName: true,
	pb.AuthService_Logout_FullMethodName:        true,
}

// Messages clients match on to decide whether refreshing can help.
var (
	msgTokenExpired = common.ErrTokenExpired.Error()
	msgMissingToken = "missing token"
)

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}

	id, err := s.resolver.Resolve(ctx, accessToken)
	if err != nil {
		return nil, resolveError(err)
	}

	return handler(services.ContextWithIdentity(ctx, id), req)
}

func resolveError(err error) error {
	switch {
	case errors.Is(err, common.ErrMissingCredentialHeader):
		return status.Error(codes.Unauthenticated, msgMissingToken)
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, msgTokenExpired)
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrUserNotFound):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// requestInterceptor logs and counts every call by its final status code.
func (s *GRPCServer) requestInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)

	code := status.Code(err)
	s.metrics.ObserveRequest("grpc", info.FullMethod, code.String())
	if code == codes.Internal {
		s.logger.Error(ctx, "request failed", "method", info.FullMethod, "code", code.String())
	} else {
		s.logger.Info(ctx, "request", "method", info.FullMethod, "code", code.String())
	}

	return resp, err
}

// Package grpc serves AuthService over gRPC with the JSON codec. Protected
// methods are guarded by an interceptor that resolves the caller's identity.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc"
)

type userSvc interface {
	Signup(ctx context.Context, email, name, password string) (services.SignupResult, error)
	ValidateLogin(ctx context.Context, email, password string) (services.LoginResult, error)
	Login(ctx context.Context, account *models.Account, deviceID string) (*services.TokenPair, error)
	ValidateRefresh(ctx context.Context, raw string) (services.RefreshResult, error)
	Refresh(accountID int64, deviceID string) (*services.AccessGrant, error)
	Logout(ctx context.Context, accountID int64, deviceID string) error
	DeleteAccount(ctx context.Context, accountID int64, email, password string) (services.LoginOutcome, error)
	UpdateProfile(ctx context.Context, accountID int64, email string, upd services.ProfileUpdate) (services.LoginOutcome, *models.Account, error)
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
}

type identityResolver interface {
	Resolve(ctx context.Context, rawHeader string) (*services.Identity, error)
}

type requestMetrics interface {
	ObserveRequest(transport, method, code string)
}

type GRPCServer struct {
	pb.UnimplementedAuthServiceServer
	address  string
	users    userSvc
	resolver identityResolver
	metrics  requestMetrics
	logger   logging.Logger
}

type nopRequestMetrics struct{}

func (nopRequestMetrics) ObserveRequest(string, string, string) {}

func NewGRPCServer(a string, l logging.Logger, us userSvc, r identityResolver, m requestMetrics) *GRPCServer {
	if m == nil {
		m = nopRequestMetrics{}
	}
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		users:    us,
		resolver: r,
		metrics:  m,
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestInterceptor, s.accessTokenInterceptor))

	pb.RegisterAuthServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}

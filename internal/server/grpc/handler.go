package grpc

import (
	"context"
	"strings"

	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errInternal = status.Error(codes.Internal, "internal error")

func loginStatus(o services.LoginOutcome) error {
	switch o {
	case services.LoginUserNotFound:
		return status.Error(codes.NotFound, o.Err().Error())
	default:
		return status.Error(codes.InvalidArgument, o.Err().Error())
	}
}

func refreshStatus(o services.RefreshOutcome) error {
	switch o {
	case services.RefreshNotFound:
		return status.Error(codes.NotFound, o.Err().Error())
	case services.RefreshExpired:
		return status.Error(codes.Unauthenticated, o.Err().Error())
	default:
		return status.Error(codes.InvalidArgument, o.Err().Error())
	}
}

func toAccount(a *models.Account) *pb.Account {
	return &pb.Account{Id: a.ID, Email: a.Email, Name: a.Name, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}
}

func identity(ctx context.Context) (*services.Identity, error) {
	id, ok := services.IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, msgMissingToken)
	}
	return id, nil
}

func (s *GRPCServer) Signup(ctx context.Context, req *pb.SignupRequest) (*pb.SignupResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}

	res, err := s.users.Signup(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		return nil, errInternal
	}
	if res.Outcome != services.SignupOK {
		return nil, status.Error(codes.AlreadyExists, res.Outcome.Err().Error())
	}

	return &pb.SignupResponse{AccountId: res.Account.ID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.LoginResponse, error) {
	if req.DeviceId == "" {
		return nil, status.Error(codes.InvalidArgument, "device_id is required")
	}

	res, err := s.users.ValidateLogin(ctx, req.Email, req.Password)
	if err != nil {
		return nil, errInternal
	}
	if res.Outcome != services.LoginOK {
		return nil, loginStatus(res.Outcome)
	}

	tokens, err := s.users.Login(ctx, res.Account, req.DeviceId)
	if err != nil {
		return nil, errInternal
	}

	return &pb.LoginResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken, TokenType: tokens.TokenType}, nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *pb.RefreshRequest) (*pb.RefreshResponse, error) {
	res, err := s.users.ValidateRefresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, errInternal
	}
	if res.Outcome != services.RefreshOK {
		return nil, refreshStatus(res.Outcome)
	}

	grant, err := s.users.Refresh(res.AccountID, res.DeviceID)
	if err != nil {
		return nil, errInternal
	}

	return &pb.RefreshResponse{AccessToken: grant.AccessToken, TokenType: grant.TokenType}, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *pb.MeRequest) (*pb.Account, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.users.GetAccount(ctx, id.AccountID)
	if err != nil {
		return nil, resolveError(err)
	}

	return toAccount(account), nil
}

func (s *GRPCServer) UpdateProfile(ctx context.Context, req *pb.UpdateProfileRequest) (*pb.Account, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	outcome, account, err := s.users.UpdateProfile(ctx, id.AccountID, id.Email, services.ProfileUpdate{
		Name:        req.Name,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return nil, errInternal
	}
	if outcome != services.LoginOK {
		return nil, loginStatus(outcome)
	}

	return toAccount(account), nil
}

func (s *GRPCServer) DeleteAccount(ctx context.Context, req *pb.DeleteAccountRequest) (*pb.DeleteAccountResponse, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	outcome, err := s.users.DeleteAccount(ctx, id.AccountID, id.Email, req.Password)
	if err != nil {
		return nil, errInternal
	}
	if outcome != services.LoginOK {
		return nil, loginStatus(outcome)
	}

	return &pb.DeleteAccountResponse{}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *pb.LogoutRequest) (*pb.LogoutResponse, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.users.Logout(ctx, id.AccountID, id.DeviceID); err != nil {
		return nil, errInternal
	}

	return &pb.LogoutResponse{}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {
	return &pb.PingResponse{Status: "OK"}, nil
}

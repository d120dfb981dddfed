package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL  string
	deviceID     string
	dialOpts     []grpc.DialOption
	conn         *grpc.ClientConn
	client       pb.AuthServiceClient
	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AuthorizationHeaderName)
	if token != "" {
		md.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

// Tokens returns the current access and refresh tokens.
func (s *GRPCClient) Tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

// Restore resumes a session saved by an earlier run.
func (s *GRPCClient) Restore(access, refresh string) {
	s.setTokens(access, refresh)
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	access, refresh := s.Tokens()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	// Refresh itself reports an expired refresh token with the same message.
	if method == pb.AuthService_Refresh_FullMethodName {
		return err
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refresh == "" {
		return err
	}

	resp, rerr := s.client.Refresh(ctx, &pb.RefreshRequest{RefreshToken: refresh})
	if rerr != nil {
		if refreshRejected(rerr) {
			s.setTokens("", "")
		}
		return rerr
	}

	s.setTokens(resp.AccessToken, refresh)

	return invoker(withAccessToken(ctx, resp.AccessToken), method, req, reply, cc, opts...)
}

// refreshRejected reports whether the server refused the refresh token
// itself, as opposed to failing to answer. The session is dead then.
func refreshRejected(err error) bool {
	switch status.Code(err) {
	case codes.Unauthenticated, codes.NotFound, codes.InvalidArgument:
		return true
	}
	return false
}

// NewAuthClient dials endpointURL lazily; deviceID is sent with every login.
// Extra dial options are appended after the defaults.
func NewAuthClient(endpointURL, deviceID string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, deviceID: deviceID, dialOpts: opts}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, s.dialOpts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewAuthServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) LoggedIn() bool {
	_, refresh := s.Tokens()
	return refresh != ""
}

func (s *GRPCClient) Signup(ctx context.Context, email, name, password string) (int64, error) {
	resp, err := s.client.Signup(ctx, &pb.SignupRequest{Email: email, Name: name, Password: password})
	if err != nil {
		return 0, s.mapError(err)
	}
	return resp.AccountId, nil
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) error {

	req := &pb.LoginRequest{Email: email, Password: password, DeviceId: s.deviceID}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return s.mapError(err)
	}

	s.setTokens(resp.AccessToken, resp.RefreshToken)

	return nil
}

func (s *GRPCClient) Me(ctx context.Context) (*pb.Account, error) {
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	resp, err := s.client.Me(ctx, &pb.MeRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) UpdateProfile(ctx context.Context, name, oldPassword, newPassword string) (*pb.Account, error) {
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	req := &pb.UpdateProfileRequest{Name: name, OldPassword: oldPassword, NewPassword: newPassword}
	resp, err := s.client.UpdateProfile(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) DeleteAccount(ctx context.Context, password string) error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}
	if _, err := s.client.DeleteAccount(ctx, &pb.DeleteAccountRequest{Password: password}); err != nil {
		return s.mapError(err)
	}
	s.setTokens("", "")
	return nil
}

// Logout revokes this device's session on the server and forgets the tokens.
func (s *GRPCClient) Logout(ctx context.Context) error {
	if !s.LoggedIn() {
		return nil
	}
	_, err := s.client.Logout(ctx, &pb.LogoutRequest{})
	s.setTokens("", "")
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	resp, err := s.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

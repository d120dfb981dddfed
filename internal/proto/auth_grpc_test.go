package proto

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type pingOnly struct {
	UnimplementedAuthServiceServer
	lastLogin *LoginRequest
}

func (p *pingOnly) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return &PingResponse{Status: "OK"}, nil
}

func (p *pingOnly) Login(_ context.Context, in *LoginRequest) (*LoginResponse, error) {
	p.lastLogin = in
	return &LoginResponse{AccessToken: "a", RefreshToken: "r", TokenType: "bearer"}, nil
}

func dial(t *testing.T, srv AuthServiceServer, opts ...grpc.ServerOption) AuthServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterAuthServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewAuthServiceClient(conn)
}

func TestCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)

	b, err := c.Marshal(&LoginRequest{Email: "a@x.com", DeviceId: "d1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@x.com","password":"","device_id":"d1"}`, string(b))
}

func TestRoundTrip(t *testing.T) {
	srv := &pingOnly{}
	client := dial(t, srv)
	ctx := context.Background()

	pong, err := client.Ping(ctx, &PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", pong.GetStatus())

	resp, err := client.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "pw", DeviceId: "d1"})
	require.NoError(t, err)
	assert.Equal(t, "a", resp.GetAccessToken())
	assert.Equal(t, "r", resp.GetRefreshToken())
	assert.Equal(t, &LoginRequest{Email: "a@x.com", Password: "pw", DeviceId: "d1"}, srv.lastLogin)
}

func TestUnimplemented(t *testing.T) {
	client := dial(t, &pingOnly{})

	_, err := client.Me(context.Background(), &MeRequest{})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestInterceptorSeesFullMethod(t *testing.T) {
	var seen []string
	icpt := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		seen = append(seen, info.FullMethod)
		return handler(ctx, req)
	}
	client := dial(t, &pingOnly{}, grpc.ChainUnaryInterceptor(icpt))

	_, err := client.Ping(context.Background(), &PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{AuthService_Ping_FullMethodName}, seen)
}

func TestGettersOnNil(t *testing.T) {
	var l *LoginResponse
	var r *RefreshResponse
	var p *PingResponse
	assert.Empty(t, l.GetAccessToken())
	assert.Empty(t, l.GetRefreshToken())
	assert.Empty(t, r.GetAccessToken())
	assert.Empty(t, p.GetStatus())
}

package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repotest"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startServer(t *testing.T) (pb.AuthServiceClient, *timex.ManualClock) {
	t.Helper()

	db := repotest.NewSQLite(t)
	clock := timex.NewManualClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cfg := &config.Config{
		SecretKey:                    "secret",
		AccessTokenValidityDuration:  30 * time.Minute,
		RefreshTokenValidityDuration: 24 * time.Hour,
		StorageTimeout:               time.Second,
		BcryptCost:                   bcrypt.MinCost,
	}
	users := services.NewUserService(db, &repomanager.SQLiteRepositoryManager{}, cfg, services.WithClock(clock))
	srv := NewGRPCServer("", nopLogger{}, users, services.NewIdentityResolver(users), &fakeMetrics{})

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return pb.NewAuthServiceClient(conn), clock
}

func bearer(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AuthorizationHeaderName, "Bearer "+token)
}

func TestE2E_FullSession(t *testing.T) {
	client, clock := startServer(t)
	ctx := context.Background()

	signup, err := client.Signup(ctx, &pb.SignupRequest{Email: "a@x.com", Name: "A", Password: "1234"})
	require.NoError(t, err)

	_, err = client.Signup(ctx, &pb.SignupRequest{Email: "a@x.com", Name: "A", Password: "1234"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	login, err := client.Login(ctx, &pb.LoginRequest{Email: "a@x.com", Password: "1234", DeviceId: "d1"})
	require.NoError(t, err)
	assert.Equal(t, common.TokenTypeBearer, login.TokenType)

	me, err := client.Me(bearer(ctx, login.AccessToken), &pb.MeRequest{})
	require.NoError(t, err)
	assert.Equal(t, signup.AccountId, me.Id)
	assert.Equal(t, "a@x.com", me.Email)

	_, err = client.Me(ctx, &pb.MeRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	clock.Advance(31 * time.Minute)
	_, err = client.Me(bearer(ctx, login.AccessToken), &pb.MeRequest{})
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, msgTokenExpired, st.Message())

	refreshed, err := client.Refresh(ctx, &pb.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)

	_, err = client.Me(bearer(ctx, refreshed.AccessToken), &pb.MeRequest{})
	require.NoError(t, err)

	_, err = client.Logout(bearer(ctx, refreshed.AccessToken), &pb.LogoutRequest{})
	require.NoError(t, err)

	_, err = client.Refresh(ctx, &pb.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestE2E_WrongPasswordAndDelete(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	_, err := client.Signup(ctx, &pb.SignupRequest{Email: "b@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = client.Login(ctx, &pb.LoginRequest{Email: "b@x.com", Password: "nope", DeviceId: "d1"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Login(ctx, &pb.LoginRequest{Email: "missing@x.com", Password: "pw", DeviceId: "d1"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	login, err := client.Login(ctx, &pb.LoginRequest{Email: "b@x.com", Password: "pw", DeviceId: "d1"})
	require.NoError(t, err)

	_, err = client.DeleteAccount(bearer(ctx, login.AccessToken), &pb.DeleteAccountRequest{Password: "pw"})
	require.NoError(t, err)

	_, err = client.Me(bearer(ctx, login.AccessToken), &pb.MeRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = client.Refresh(ctx, &pb.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

package client

import (
	"context"

	pb "github.com/dmitrijs2005/gophauth/internal/proto"
)

type Client interface {
	Close() error
	Signup(ctx context.Context, email, name, password string) (int64, error)
	Login(ctx context.Context, email, password string) error
	Me(ctx context.Context) (*pb.Account, error)
	UpdateProfile(ctx context.Context, name, oldPassword, newPassword string) (*pb.Account, error)
	DeleteAccount(ctx context.Context, password string) error
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	LoggedIn() bool
	Tokens() (access, refresh string)
	Restore(access, refresh string)
}

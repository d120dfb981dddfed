package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

// sessionStore keeps the session between runs.
type sessionStore interface {
	Load(ctx context.Context) (client.Session, bool, error)
	Save(ctx context.Context, s client.Session) error
	Clear(ctx context.Context) error
	Close() error
}

type App struct {
	config  *config.Config
	client  client.Client
	store   sessionStore
	email   string
	reader  *bufio.Reader
	out     io.Writer
	timeout time.Duration
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	apiClient, err := client.NewAuthClient(c.ServerEndpointAddr, c.DeviceID)
	if err != nil {
		return nil, err
	}

	a := newApp(c, apiClient, os.Stdin, os.Stdout)

	if c.SessionFile != "" {
		store, err := client.OpenSessionStore(ctx, c.SessionFile)
		if err != nil {
			_ = apiClient.Close()
			return nil, err
		}
		a.store = store
	}

	return a, nil
}

func newApp(c *config.Config, cl client.Client, in io.Reader, out io.Writer) *App {
	return &App{
		config:  c,
		client:  cl,
		reader:  bufio.NewReader(in),
		out:     out,
		timeout: c.RequestTimeout,
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.client.Close()
	if a.store != nil {
		defer a.store.Close()
	}
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}

func (a *App) getStatus() string {
	if a.isLoggedIn() && a.email != "" {
		return a.email + "@" + a.config.DeviceID
	}
	return "anonymous"
}

// call bounds a single request by the configured timeout.
func (a *App) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return fn(ctx)
}

// restoreSession resumes the session saved by a previous run, if any.
func (a *App) restoreSession(ctx context.Context) {
	if a.store == nil {
		return
	}
	sess, ok, err := a.store.Load(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "Could not read saved session: %v\n", err)
		return
	}
	if !ok {
		return
	}
	a.client.Restore(sess.AccessToken, sess.RefreshToken)
	a.email = sess.Email
	fmt.Fprintf(a.out, "Resumed session for %s\n", sess.Email)
}

// saveSession stores the current tokens, or forgets them when logged out.
func (a *App) saveSession(ctx context.Context) {
	if a.store == nil {
		return
	}
	var err error
	if a.isLoggedIn() {
		access, refresh := a.client.Tokens()
		err = a.store.Save(ctx, client.Session{Email: a.email, AccessToken: access, RefreshToken: refresh})
	} else {
		err = a.store.Clear(ctx)
	}
	if err != nil {
		fmt.Fprintf(a.out, "Could not save session: %v\n", err)
	}
}

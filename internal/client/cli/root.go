package cli

import (
	"context"
	"fmt"
)

// Root runs the REPL on the app's input until EOF or exit. With a session
// file the session is resumed on start and saved on exit; without one the
// session is ended on exit.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to gophauth CLI (type 'help' for commands)")

	if err := a.call(ctx, a.client.Ping); err != nil {
		fmt.Fprintf(a.out, "Server %s is not reachable: %v\n", a.config.ServerEndpointAddr, err)
	}

	a.restoreSession(ctx)

	runREPL(ctx, a, a.getStatus, a.reader)

	if a.store == nil && a.isLoggedIn() {
		_ = a.Logout(ctx)
	}
	a.saveSession(context.WithoutCancel(ctx))
}

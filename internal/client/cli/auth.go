package cli

import (
	"context"
	"fmt"
	"io"

	pb "github.com/dmitrijs2005/gophauth/internal/proto"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var confirm = Confirm

func (a *App) report(err error) error {
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
	return err
}

func printAccount(w io.Writer, acc *pb.Account) {
	fmt.Fprintf(w, "id:      %d\nemail:   %s\nname:    %s\ncreated: %s\nupdated: %s\n",
		acc.Id, acc.Email, acc.Name, acc.CreatedAt.Format("2006-01-02 15:04:05"), acc.UpdatedAt.Format("2006-01-02 15:04:05"))
}

// Signup prompts for email, name and password and creates an account.
func (a *App) Signup(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.report(err)
	}
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return a.report(err)
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return a.report(err)
	}
	defer wipe(password)

	var id int64
	err = a.call(ctx, func(ctx context.Context) error {
		id, err = a.client.Signup(ctx, email, name, string(password))
		return err
	})
	if err != nil {
		return a.report(err)
	}

	fmt.Fprintf(a.out, "Account %d created\n", id)
	return nil
}

// Login prompts for credentials and starts a session for this device.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.report(err)
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return a.report(err)
	}
	defer wipe(password)

	err = a.call(ctx, func(ctx context.Context) error {
		return a.client.Login(ctx, email, string(password))
	})
	if err != nil {
		return a.report(err)
	}

	a.email = email
	a.saveSession(ctx)
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Me prints the current account.
func (a *App) Me(ctx context.Context) error {
	var acc *pb.Account
	err := a.call(ctx, func(ctx context.Context) (err error) {
		acc, err = a.client.Me(ctx)
		return err
	})
	if err != nil {
		return a.report(err)
	}
	printAccount(a.out, acc)
	return nil
}

// UpdateProfile asks for the current password plus an optional new name and
// new password. Empty answers leave the field unchanged.
func (a *App) UpdateProfile(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "New name (empty to keep)", a.out)
	if err != nil {
		return a.report(err)
	}
	oldPassword, err := getPassword("Current password", a.out)
	if err != nil {
		return a.report(err)
	}
	defer wipe(oldPassword)
	newPassword, err := getPassword("New password (empty to keep)", a.out)
	if err != nil {
		return a.report(err)
	}
	defer wipe(newPassword)

	var acc *pb.Account
	err = a.call(ctx, func(ctx context.Context) (err error) {
		acc, err = a.client.UpdateProfile(ctx, name, string(oldPassword), string(newPassword))
		return err
	})
	if err != nil {
		return a.report(err)
	}
	printAccount(a.out, acc)
	return nil
}

// DeleteAccount asks for confirmation and the password, then deletes the
// account together with the sessions of all its devices.
func (a *App) DeleteAccount(ctx context.Context) error {
	ok, err := confirm(a.reader, "Delete the account and sign out every device?", a.out)
	if err != nil {
		return a.report(err)
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	password, err := getPassword("Password to confirm deletion", a.out)
	if err != nil {
		return a.report(err)
	}
	defer wipe(password)

	err = a.call(ctx, func(ctx context.Context) error {
		return a.client.DeleteAccount(ctx, string(password))
	})
	if err != nil {
		return a.report(err)
	}

	a.email = ""
	a.saveSession(ctx)
	fmt.Fprintln(a.out, "Account deleted")
	return nil
}

// Logout ends this device's session.
func (a *App) Logout(ctx context.Context) error {
	err := a.call(ctx, a.client.Logout)
	a.email = ""
	a.saveSession(ctx)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

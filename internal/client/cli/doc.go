// Package cli implements the interactive gophauth command-line client.
//
// The REPL accepts:
//
//	signup   create an account
//	login    start a session for this device
//	me       show the current account
//	update   change display name and/or password
//	delete   delete the account
//	logout   end this device's session
//	exit     leave the program
//
// Passwords are read without echo via golang.org/x/term. With a session file
// configured the session survives restarts; without one it ends on exit.
package cli

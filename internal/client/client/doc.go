// Package client talks to the gophauth gRPC AuthService.
//
// GRPCClient keeps the current access and refresh tokens in memory, attaches
// the access token to every call and, when the server reports an expired
// access token, refreshes it once and retries the call.
//
// Transport failures are mapped to the sentinel errors in errors.go so
// callers can use errors.Is.
//
// SessionStore persists the tokens between runs in a local SQLite file.
package client

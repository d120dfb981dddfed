package common

// AuthorizationHeaderName is the HTTP header and gRPC metadata key carrying
// the bearer access token.
const AuthorizationHeaderName = "authorization"

// TokenTypeBearer is reported to clients alongside issued tokens.
const TokenTypeBearer = "bearer"

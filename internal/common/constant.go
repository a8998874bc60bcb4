package common

// AccessTokenHeaderName is the gRPC metadata key carrying a session token.
const AccessTokenHeaderName = "access_token"

// MasterTokenHeaderName is the gRPC metadata key carrying a master token.
const MasterTokenHeaderName = "master_token"

// ForwardedForHeaderName is consulted before the peer address when resolving
// the client IP for lockout accounting.
const ForwardedForHeaderName = "x-forwarded-for"

// Password length limits accepted by the password hasher.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

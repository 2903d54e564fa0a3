package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Roles a staff account can hold.
const (
	RoleAdmin   = "admin"
	RoleScanner = "scanner"
)

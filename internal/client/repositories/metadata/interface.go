// Package metadata is a small key/value store for station state that must
// survive restarts: session tokens, the signed-in operator and the time of
// the last successful sync.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUserEmail    = "user_email"
	KeyUserRole     = "user_role"
	KeyLastSync     = "last_sync"
)

// SessionKeys are cleared on logout.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUserEmail, KeyUserRole}

type Repository interface {
	// Get returns ("", false, nil) when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string]string, error)
}

// Package refreshtokens stores the refresh tokens issued at login.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/server/models"
)

type Repository interface {
	// Create stores a refresh token for userID that stops being accepted at expiresAt.
	Create(ctx context.Context, userID string, token string, expiresAt time.Time) error

	// Find returns common.ErrorNotFound when the token is unknown.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// DeleteByToken revokes a token. Unknown tokens are not an error.
	DeleteByToken(ctx context.Context, token string) error

	// DeleteExpired removes tokens that expired before now and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

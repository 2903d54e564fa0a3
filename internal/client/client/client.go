package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/models"
)

// Session is the result of a successful login.
type Session struct {
	AccessToken  string
	RefreshToken string
	Role         string
}

type Client interface {
	Close() error
	Login(ctx context.Context, email, password string) (Session, error)
	SetSession(s Session)
	Ping(ctx context.Context) error
	ListAttendees(ctx context.Context, filter models.ListFilter) ([]models.Attendee, error)
	RegisterAttendee(ctx context.Context, name, email, code string) (models.Attendee, error)
	Validate(ctx context.Context, code string) (checkin.Result, error)
	// CheckIn marks code present on the server. A non-nil at replays an
	// offline scan with its original time.
	CheckIn(ctx context.Context, code, stationID string, at *time.Time) (checkin.Result, error)
	Stats(ctx context.Context) (models.Stats, error)
}

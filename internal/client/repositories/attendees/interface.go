package attendees

import (
	"context"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/models"
)

// Repository stores attendees on the station.
type Repository interface {
	// GetAll returns every attendee in registration order.
	GetAll(ctx context.Context) ([]models.Attendee, error)

	// GetByQRCode returns common.ErrorNotFound for an unknown code.
	GetByQRCode(ctx context.Context, code string) (models.Attendee, error)

	// Create inserts a new attendee; a duplicate code yields
	// common.ErrAlreadyExists.
	Create(ctx context.Context, a models.Attendee) error

	// MarkCheckedIn sets the check-in time if it is not set yet and reports
	// whether a row changed. pending marks the check-in as not yet pushed.
	MarkCheckedIn(ctx context.Context, code string, at time.Time, pending bool) (bool, error)

	// GetPending returns attendees checked in locally and not yet synced.
	GetPending(ctx context.Context) ([]models.Attendee, error)

	// ClearPending drops the pending flag of one attendee.
	ClearPending(ctx context.Context, code string) error

	// ReplaceAll swaps the whole roster for as.
	ReplaceAll(ctx context.Context, as []models.Attendee) error
}

// Package attendees persists the event roster in PostgreSQL.
package attendees

import (
	"context"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/models"
)

type Repository interface {
	// Create inserts a. An empty ID is replaced with a fresh UUID. A taken QR
	// code yields common.ErrAlreadyExists.
	Create(ctx context.Context, a *models.Attendee) error

	// GetByQRCode matches the code exactly and returns common.ErrorNotFound
	// when nobody holds it.
	GetByQRCode(ctx context.Context, code string) (models.Attendee, error)

	// List returns the attendees passing filter in registration order.
	List(ctx context.Context, filter models.ListFilter) ([]models.Attendee, error)

	// MarkCheckedIn records presence only if the attendee exists and is not
	// yet present. The bool reports whether this call changed the row.
	MarkCheckedIn(ctx context.Context, code string, at time.Time) (models.Attendee, bool, error)

	Stats(ctx context.Context) (models.Stats, error)
}

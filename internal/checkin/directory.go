package checkin

import (
	"context"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/models"
)

// Lookup finds an attendee by exact, trimmed QR code. A missing attendee is
// reported as common.ErrorNotFound.
type Lookup interface {
	FindByCode(ctx context.Context, code string) (models.Attendee, error)
}

// Marker performs the one-way presence transition.
//
// MarkPresent trims code and returns false without changing anything when
// the attendee is unknown or already present. Otherwise it records the
// check-in at at and returns true. Implementations must make the
// check-then-set step atomic for concurrent callers.
type Marker interface {
	MarkPresent(ctx context.Context, code string, at time.Time) (bool, error)
}

// Directory is the roster seen by the pipeline.
type Directory interface {
	Lookup
	Marker
}

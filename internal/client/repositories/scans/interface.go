// Package scans stores the station's recently scanned log.
package scans

import (
	"context"

	"github.com/dmitrijs2005/rollcall/internal/models"
)

type Repository interface {
	// Add appends one accepted check-in.
	Add(ctx context.Context, rec models.ScanRecord) error

	// Recent returns up to limit records, newest first, joined with the
	// current attendee data. Records whose attendee left the roster are
	// skipped.
	Recent(ctx context.Context, limit int) ([]models.ScanRecord, error)
}

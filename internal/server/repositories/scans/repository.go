// Package scans keeps the audit log of accepted check-ins.
package scans

import (
	"context"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/models"
)

type Repository interface {
	Create(ctx context.Context, attendeeID string, stationID string, at time.Time) error

	// ListRecent returns up to limit scans joined with their attendee, newest first.
	ListRecent(ctx context.Context, limit int) ([]models.ScanRecord, error)
}

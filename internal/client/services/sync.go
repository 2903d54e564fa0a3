package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/client/client"
	"github.com/dmitrijs2005/rollcall/internal/client/directory"
	"github.com/dmitrijs2005/rollcall/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/rollcall/internal/logging"
	"github.com/dmitrijs2005/rollcall/internal/models"
)

// Roster is the local side of a sync. Replace must refuse with
// directory.ErrPendingCheckIns while check-ins are pending.
type Roster interface {
	Pending(ctx context.Context) ([]models.Attendee, error)
	ClearPending(ctx context.Context, code string) error
	Replace(ctx context.Context, as []models.Attendee) error
}

// SyncReport summarizes one sync round.
type SyncReport struct {
	// Pushed offline check-ins the server accepted.
	Pushed int
	// Conflicts are offline check-ins of attendees another station had
	// already checked in.
	Conflicts int
	// Rejected are offline check-ins of codes the server does not know.
	Rejected int
	// Pulled is the roster size after the pull, zero when the pull was deferred.
	Pulled int
	// Deferred is set when new local check-ins arrived during the push and
	// the roster was left as is to keep them.
	Deferred bool
}

type SyncService interface {
	Sync(ctx context.Context) (SyncReport, error)
	LastSync(ctx context.Context) (time.Time, bool, error)
}

type syncService struct {
	client    client.Client
	roster    Roster
	db        *sql.DB
	stationID string
	logger    logging.Logger
	now       func() time.Time
}

func NewSyncService(c client.Client, roster Roster, db *sql.DB, stationID string, logger logging.Logger) SyncService {
	return &syncService{
		client:    c,
		roster:    roster,
		db:        db,
		stationID: stationID,
		logger:    logger.With("module", "sync"),
		now:       time.Now,
	}
}

// Sync pushes pending offline check-ins with their original times, then
// replaces the local roster with the server's. A transport error stops the
// round and leaves the remaining check-ins pending.
func (s *syncService) Sync(ctx context.Context) (SyncReport, error) {
	var rep SyncReport

	pending, err := s.roster.Pending(ctx)
	if err != nil {
		return rep, fmt.Errorf("load pending check-ins: %w", err)
	}

	for _, a := range pending {
		at, ok := a.Presence.CheckInTime()
		if !ok {
			continue
		}

		res, err := s.client.CheckIn(ctx, a.QRCode, s.stationID, &at)
		if err != nil {
			return rep, fmt.Errorf("push %s: %w", a.QRCode, err)
		}

		switch {
		case res.Valid:
			rep.Pushed++
		case res.Code == checkin.CodeAlreadyCheckedIn:
			rep.Conflicts++
			s.logger.Warn(ctx, "offline check-in conflict", "code", a.QRCode, "message", res.Message)
		default:
			rep.Rejected++
			s.logger.Warn(ctx, "offline check-in rejected", "code", a.QRCode, "reason", res.Code)
		}

		if err := s.roster.ClearPending(ctx, a.QRCode); err != nil {
			return rep, err
		}
	}

	left, err := s.roster.Pending(ctx)
	if err != nil {
		return rep, fmt.Errorf("load pending check-ins: %w", err)
	}
	if len(left) > 0 {
		rep.Deferred = true
		s.logger.Info(ctx, "roster pull deferred", "pending", len(left))
		return rep, nil
	}

	all, err := s.client.ListAttendees(ctx, models.ListFilter{Status: models.StatusAll})
	if err != nil {
		return rep, fmt.Errorf("pull roster: %w", err)
	}
	err = s.roster.Replace(ctx, all)
	if errors.Is(err, directory.ErrPendingCheckIns) {
		rep.Deferred = true
		s.logger.Info(ctx, "roster pull deferred", "reason", "check-in during pull")
		return rep, nil
	}
	if err != nil {
		return rep, err
	}
	rep.Pulled = len(all)

	stamp := s.now().UTC().Format(time.RFC3339)
	if err := metadata.NewSQLiteRepository(s.db).Set(ctx, metadata.KeyLastSync, stamp); err != nil {
		return rep, err
	}

	s.logger.Info(ctx, "sync finished",
		"pushed", rep.Pushed, "conflicts", rep.Conflicts, "rejected", rep.Rejected, "pulled", rep.Pulled)
	return rep, nil
}

// LastSync reports when the roster was last pulled.
func (s *syncService) LastSync(ctx context.Context) (time.Time, bool, error) {
	v, ok, err := metadata.NewSQLiteRepository(s.db).Get(ctx, metadata.KeyLastSync)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("bad %s value %q: %w", metadata.KeyLastSync, v, err)
	}
	return t, true, nil
}

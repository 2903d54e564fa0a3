package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/client/client"
	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/logging"
	"github.com/dmitrijs2005/rollcall/internal/models"
)

// LocalDirectory is the station roster kept in SQLite.
type LocalDirectory interface {
	checkin.Directory
	ApplyRemote(ctx context.Context, a models.Attendee, at time.Time) error
}

var _ checkin.Directory = (*StationDirectory)(nil)

// StationDirectory is the roster the scan pipeline works against. While
// online it asks the server and mirrors accepted check-ins locally; while
// offline, or when the server cannot be reached, it falls back to the local
// roster and the check-in stays pending until the next sync.
type StationDirectory struct {
	client    client.Client
	local     LocalDirectory
	stationID string
	logger    logging.Logger

	online atomic.Bool
}

func NewStationDirectory(c client.Client, local LocalDirectory, stationID string, logger logging.Logger) *StationDirectory {
	return &StationDirectory{
		client:    c,
		local:     local,
		stationID: stationID,
		logger:    logger.With("module", "station"),
	}
}

func (d *StationDirectory) SetOnline(online bool) {
	d.online.Store(online)
}

func (d *StationDirectory) Online() bool {
	return d.online.Load()
}

// fallback reports whether err means the server cannot answer for us right
// now. The station then works offline until the watcher sees the server again.
func (d *StationDirectory) fallback(ctx context.Context, err error) bool {
	if errors.Is(err, client.ErrUnavailable) || errors.Is(err, client.ErrUnauthorized) {
		d.logger.Warn(ctx, "server unusable, using local roster", "error", err)
		if errors.Is(err, client.ErrUnavailable) {
			d.SetOnline(false)
		}
		return true
	}
	return false
}

func (d *StationDirectory) FindByCode(ctx context.Context, code string) (models.Attendee, error) {
	if !d.Online() {
		return d.local.FindByCode(ctx, code)
	}

	res, err := d.client.Validate(ctx, code)
	if err != nil {
		if d.fallback(ctx, err) {
			return d.local.FindByCode(ctx, code)
		}
		return models.Attendee{}, err
	}
	if res.Code == checkin.CodeNotFound || res.Attendee == nil {
		return models.Attendee{}, common.ErrorNotFound
	}
	return *res.Attendee, nil
}

func (d *StationDirectory) MarkPresent(ctx context.Context, code string, at time.Time) (bool, error) {
	if !d.Online() {
		return d.local.MarkPresent(ctx, code, at)
	}

	res, err := d.client.CheckIn(ctx, code, d.stationID, &at)
	if err != nil {
		if d.fallback(ctx, err) {
			return d.local.MarkPresent(ctx, code, at)
		}
		return false, err
	}

	if res.Attendee != nil {
		remoteAt, present := res.Attendee.Presence.CheckInTime()
		if res.Valid && !present {
			remoteAt, present = at, true
		}
		if present {
			if err := d.local.ApplyRemote(ctx, *res.Attendee, remoteAt); err != nil {
				d.logger.Error(ctx, "mirror check-in failed", "code", res.Attendee.QRCode, "error", err)
			}
		}
	}
	return res.Valid, nil
}

package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/dbx"
	"github.com/dmitrijs2005/rollcall/internal/models"
	"github.com/dmitrijs2005/rollcall/internal/server/repositories/repomanager"
)

// rosterDirectory is the PostgreSQL roster seen through checkin.Directory.
// A successful MarkPresent writes the audit scan row in the same
// transaction and remembers the updated attendee.
type rosterDirectory struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	stationID   string

	marked *models.Attendee
}

var _ checkin.Directory = (*rosterDirectory)(nil)

func (d *rosterDirectory) FindByCode(ctx context.Context, code string) (models.Attendee, error) {
	return d.repomanager.Attendees(d.db).GetByQRCode(ctx, checkin.Normalize(code))
}

func (d *rosterDirectory) MarkPresent(ctx context.Context, code string, at time.Time) (bool, error) {
	code = checkin.Normalize(code)
	if code == "" {
		return false, nil
	}

	var changed bool
	err := dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		a, ok, err := d.repomanager.Attendees(tx).MarkCheckedIn(ctx, code, at)
		if err != nil || !ok {
			return err
		}
		if err := d.repomanager.Scans(tx).Create(ctx, a.ID, d.stationID, at); err != nil {
			return err
		}
		changed = true
		d.marked = &a
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// Package directory holds the station's in-memory roster.
//
// The Directory is the only component allowed to change an attendee's
// presence on the station. Every change is written to SQLite first and
// published in memory only after the write succeeded, so a restart
// rehydrates exactly what operators have seen.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/client/repositories/attendees"
	"github.com/dmitrijs2005/rollcall/internal/client/repositories/scans"
	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/dbx"
	"github.com/dmitrijs2005/rollcall/internal/logging"
	"github.com/dmitrijs2005/rollcall/internal/models"
)

// recentCapacity bounds the in-memory scan log.
const recentCapacity = 200

var _ checkin.Directory = (*Directory)(nil)

// ErrPendingCheckIns is returned by Replace while local check-ins still
// wait to be pushed.
var ErrPendingCheckIns = errors.New("roster has pending check-ins")

type Directory struct {
	db        *sql.DB
	stationID string
	logger    logging.Logger

	mu        sync.RWMutex
	attendees []models.Attendee
	index     map[string]int
	recent    []models.ScanRecord
}

func New(db *sql.DB, stationID string, logger logging.Logger) *Directory {
	return &Directory{
		db:        db,
		stationID: stationID,
		logger:    logger.With("module", "directory"),
		index:     map[string]int{},
	}
}

// Load replaces the in-memory state with what is stored on disk.
func (d *Directory) Load(ctx context.Context) error {
	all, err := attendees.NewSQLiteRepository(d.db).GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	recent, err := scans.NewSQLiteRepository(d.db).Recent(ctx, recentCapacity)
	if err != nil {
		return fmt.Errorf("load scan log: %w", err)
	}

	// Stored newest first; memory keeps oldest first.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.setRoster(all)
	d.recent = recent

	d.logger.Info(ctx, "roster loaded", "attendees", len(all), "recent", len(recent))
	return nil
}

func (d *Directory) setRoster(all []models.Attendee) {
	d.attendees = all
	d.index = make(map[string]int, len(all))
	for i, a := range all {
		d.index[a.QRCode] = i
	}
}

// FindByCode looks up an attendee by exact, trimmed code.
func (d *Directory) FindByCode(_ context.Context, code string) (models.Attendee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	i, ok := d.index[checkin.Normalize(code)]
	if !ok {
		return models.Attendee{}, common.ErrorNotFound
	}
	return d.attendees[i], nil
}

// MarkPresent checks an attendee in locally. The check-in stays pending
// until the sync service pushes it to the server.
func (d *Directory) MarkPresent(ctx context.Context, code string, at time.Time) (bool, error) {
	return d.markPresent(ctx, checkin.Normalize(code), at, true)
}

// ApplyRemote mirrors a check-in the server already accepted. Attendees the
// station has not seen yet are added to the roster.
func (d *Directory) ApplyRemote(ctx context.Context, a models.Attendee, at time.Time) error {
	d.mu.RLock()
	_, known := d.index[a.QRCode]
	d.mu.RUnlock()

	if !known {
		a.Presence = models.NotCheckedIn()
		if err := d.Add(ctx, a); err != nil && !errors.Is(err, common.ErrAlreadyExists) {
			return err
		}
	}
	_, err := d.markPresent(ctx, a.QRCode, at, false)
	return err
}

func (d *Directory) markPresent(ctx context.Context, code string, at time.Time, pending bool) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, ok := d.index[code]
	if !ok || d.attendees[i].IsPresent() {
		return false, nil
	}

	rec := models.ScanRecord{Attendee: d.attendees[i], StationID: d.stationID, CheckedInAt: at}
	rec.Attendee.Presence = models.CheckedIn(at)

	var changed bool
	err := dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		changed, err = attendees.NewSQLiteRepository(tx).MarkCheckedIn(ctx, code, at, pending)
		if err != nil || !changed {
			return err
		}
		return scans.NewSQLiteRepository(tx).Add(ctx, rec)
	})
	if err != nil {
		return false, fmt.Errorf("persist check-in: %w", err)
	}

	if !changed {
		// Disk is ahead of memory; adopt the stored state.
		stored, err := attendees.NewSQLiteRepository(d.db).GetByQRCode(ctx, code)
		if err != nil {
			return false, fmt.Errorf("reload attendee: %w", err)
		}
		d.attendees[i] = stored
		return false, nil
	}

	d.attendees[i] = rec.Attendee
	d.recent = append(d.recent, rec)
	if len(d.recent) > recentCapacity {
		d.recent = d.recent[len(d.recent)-recentCapacity:]
	}
	d.logger.Debug(ctx, "attendee marked present", "code", code, "pending", pending)
	return true, nil
}

// Add inserts a new attendee. The code must be unique.
func (d *Directory) Add(ctx context.Context, a models.Attendee) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.index[a.QRCode]; ok {
		return common.ErrAlreadyExists
	}
	if err := attendees.NewSQLiteRepository(d.db).Create(ctx, a); err != nil {
		return err
	}
	d.index[a.QRCode] = len(d.attendees)
	d.attendees = append(d.attendees, a)
	return nil
}

// Replace swaps the roster for as, keeping the scan log. It refuses with
// ErrPendingCheckIns when any local check-in has not been pushed yet.
func (d *Directory) Replace(ctx context.Context, as []models.Attendee) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := attendees.NewSQLiteRepository(tx)
		pending, err := repo.GetPending(ctx)
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			return ErrPendingCheckIns
		}
		return repo.ReplaceAll(ctx, as)
	})
	if errors.Is(err, ErrPendingCheckIns) {
		return err
	}
	if err != nil {
		return fmt.Errorf("replace roster: %w", err)
	}

	d.setRoster(append([]models.Attendee(nil), as...))
	return nil
}

// SeedDemo adds the demo roster entries whose codes are not taken yet and
// returns how many were added. Present demo attendees also enter the scan log.
func (d *Directory) SeedDemo(ctx context.Context, now time.Time) (int, error) {
	added := 0
	for _, a := range models.DemoRoster(now) {
		presence := a.Presence
		a.Presence = models.NotCheckedIn()

		err := d.Add(ctx, a)
		if errors.Is(err, common.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++

		if at, ok := presence.CheckInTime(); ok {
			if _, err := d.markPresent(ctx, a.QRCode, at, false); err != nil {
				return added, err
			}
		}
	}
	return added, nil
}

// List returns a snapshot of the attendees passing f, in roster order.
func (d *Directory) List(f models.ListFilter) []models.Attendee {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.Attendee, 0, len(d.attendees))
	for _, a := range d.attendees {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out
}

func (d *Directory) Stats() models.Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := models.Stats{Total: len(d.attendees)}
	for _, a := range d.attendees {
		if a.IsPresent() {
			s.Present++
		}
	}
	return s
}

// Recent returns up to limit scan records, newest first.
func (d *Directory) Recent(limit int) []models.ScanRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if limit <= 0 || limit > len(d.recent) {
		limit = len(d.recent)
	}
	out := make([]models.ScanRecord, 0, limit)
	for i := len(d.recent) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, d.recent[i])
	}
	return out
}

// NextCode proposes an ATTnnn code for a new registration, counting up
// from the roster size until a free one is found.
func (d *Directory) NextCode() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for n := len(d.attendees) + 1; ; n++ {
		code := models.AttendeeCode(n)
		if _, taken := d.index[code]; !taken {
			return code
		}
	}
}

// Pending lists local check-ins the server has not seen.
func (d *Directory) Pending(ctx context.Context) ([]models.Attendee, error) {
	return attendees.NewSQLiteRepository(d.db).GetPending(ctx)
}

func (d *Directory) ClearPending(ctx context.Context, code string) error {
	return attendees.NewSQLiteRepository(d.db).ClearPending(ctx, code)
}

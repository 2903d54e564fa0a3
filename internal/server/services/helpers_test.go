package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/dbx"
	"github.com/dmitrijs2005/rollcall/internal/models"
	sm "github.com/dmitrijs2005/rollcall/internal/server/models"
	"github.com/dmitrijs2005/rollcall/internal/server/repositories/attendees"
	"github.com/dmitrijs2005/rollcall/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/rollcall/internal/server/repositories/scans"
	"github.com/dmitrijs2005/rollcall/internal/server/repositories/users"
	_ "modernc.org/sqlite"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// newTxDB returns a database that only provides transactions; the fake
// repositories keep their state in memory.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

type fakeUsersRepo struct {
	mu      sync.Mutex
	byEmail map[string]*sm.User
	getErr  error
	created int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: map[string]*sm.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *sm.User) (*sm.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrAlreadyExists
	}
	if u.ID == "" {
		u.ID = "u-" + u.Email
	}
	cp := *u
	f.byEmail[u.Email] = &cp
	f.created++
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*sm.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*sm.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeRefreshRepo struct {
	mu        sync.Mutex
	tokens    map[string]sm.RefreshToken
	findErr   error
	delErr    error
	createErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]sm.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = sm.RefreshToken{UserID: userID, Token: token, Expires: expiresAt}
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*sm.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	rt, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rt, nil
}

func (f *fakeRefreshRepo) DeleteByToken(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, v := range f.tokens {
		if v.Expires.Before(now) {
			delete(f.tokens, k)
			n++
		}
	}
	return n, nil
}

// fakeAttendeesRepo mirrors the PostgreSQL repository, including the
// compare-and-set in MarkCheckedIn.
type fakeAttendeesRepo struct {
	mu      sync.Mutex
	byCode  map[string]models.Attendee
	seq     map[string]int
	next    int
	lookErr error
	markErr error
}

func newFakeAttendeesRepo(list ...models.Attendee) *fakeAttendeesRepo {
	f := &fakeAttendeesRepo{byCode: map[string]models.Attendee{}, seq: map[string]int{}}
	for _, a := range list {
		a := a
		_ = f.Create(context.Background(), &a)
	}
	return f
}

func (f *fakeAttendeesRepo) Create(ctx context.Context, a *models.Attendee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byCode[a.QRCode]; ok {
		return common.ErrAlreadyExists
	}
	if a.ID == "" {
		a.ID = "id-" + a.QRCode
	}
	f.byCode[a.QRCode] = *a
	f.seq[a.QRCode] = f.next
	f.next++
	return nil
}

func (f *fakeAttendeesRepo) GetByQRCode(ctx context.Context, code string) (models.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookErr != nil {
		return models.Attendee{}, f.lookErr
	}
	a, ok := f.byCode[code]
	if !ok {
		return models.Attendee{}, common.ErrorNotFound
	}
	return a, nil
}

func (f *fakeAttendeesRepo) List(ctx context.Context, filter models.ListFilter) ([]models.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Attendee
	for _, a := range f.byCode {
		if filter.Matches(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return f.seq[out[i].QRCode] < f.seq[out[j].QRCode] })
	return out, nil
}

func (f *fakeAttendeesRepo) MarkCheckedIn(ctx context.Context, code string, at time.Time) (models.Attendee, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return models.Attendee{}, false, f.markErr
	}
	a, ok := f.byCode[code]
	if !ok || a.IsPresent() {
		return models.Attendee{}, false, nil
	}
	a.Presence = models.CheckedIn(at)
	f.byCode[code] = a
	return a, true, nil
}

func (f *fakeAttendeesRepo) Stats(ctx context.Context) (models.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s models.Stats
	for _, a := range f.byCode {
		s.Total++
		if a.IsPresent() {
			s.Present++
		}
	}
	return s, nil
}

// racyAttendeesRepo lets another station check the attendee in between
// validation and mutation.
type racyAttendeesRepo struct {
	*fakeAttendeesRepo
	once sync.Once
}

func (r *racyAttendeesRepo) MarkCheckedIn(ctx context.Context, code string, at time.Time) (models.Attendee, bool, error) {
	r.once.Do(func() {
		_, _, _ = r.fakeAttendeesRepo.MarkCheckedIn(ctx, code, at.Add(-time.Second))
	})
	return r.fakeAttendeesRepo.MarkCheckedIn(ctx, code, at)
}

type scanRow struct {
	attendeeID, stationID string
	at                    time.Time
}

type fakeScansRepo struct {
	mu        sync.Mutex
	rows      []scanRow
	attendees *fakeAttendeesRepo
	createErr error
}

func (f *fakeScansRepo) Create(ctx context.Context, attendeeID string, stationID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.rows = append(f.rows, scanRow{attendeeID, stationID, at})
	return nil
}

func (f *fakeScansRepo) ListRecent(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ScanRecord
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		r := f.rows[i]
		rec := models.ScanRecord{StationID: r.stationID, CheckedInAt: r.at}
		if f.attendees != nil {
			f.attendees.mu.Lock()
			for _, a := range f.attendees.byCode {
				if a.ID == r.attendeeID {
					rec.Attendee = a
				}
			}
			f.attendees.mu.Unlock()
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeScansRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeRepoManager struct {
	users     users.Repository
	refresh   refreshtokens.Repository
	attendees attendees.Repository
	scans     scans.Repository
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error        { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.users }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.refresh }
func (m *fakeRepoManager) Attendees(db dbx.DBTX) attendees.Repository         { return m.attendees }
func (m *fakeRepoManager) Scans(db dbx.DBTX) scans.Repository                 { return m.scans }

package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/logging"
	"github.com/dmitrijs2005/rollcall/internal/models"
	"github.com/dmitrijs2005/rollcall/internal/server/auth"
	"github.com/dmitrijs2005/rollcall/internal/server/services"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsers struct {
	loginResp *services.TokenPair
	loginErr  error

	refreshResp *services.TokenPair
	refreshErr  error
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeUsers) RefreshToken(ctx context.Context, token string) (*services.TokenPair, error) {
	return f.refreshResp, f.refreshErr
}

func (f *fakeUsers) Authenticate(token string) (auth.Identity, error) {
	switch token {
	case "admin-token":
		return auth.Identity{UserID: "u-admin", Role: common.RoleAdmin}, nil
	case "scanner-token":
		return auth.Identity{UserID: "u-scan", Role: common.RoleScanner}, nil
	case "expired-token":
		return auth.Identity{}, common.ErrTokenExpired
	}
	return auth.Identity{}, common.ErrInvalidToken
}

// fakeAttendees keeps a tiny roster and performs check-ins with the real
// pipeline, so handlers see realistic results.
type fakeAttendees struct {
	mu        sync.Mutex
	roster    map[string]models.Attendee
	scans     []models.ScanRecord
	gotFilter models.ListFilter
	err       error
	hub       services.Broadcaster
}

func newFakeAttendees() *fakeAttendees {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &fakeAttendees{roster: map[string]models.Attendee{
		"ATT001": {ID: "1", Name: "John Doe", Email: "john@example.com", QRCode: "ATT001"},
		"ATT003": {ID: "3", Name: "Bob Johnson", QRCode: "ATT003", Presence: models.CheckedIn(at)},
	}}
}

func (f *fakeAttendees) FindByCode(ctx context.Context, code string) (models.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.roster[code]
	if !ok {
		return models.Attendee{}, common.ErrorNotFound
	}
	return a, nil
}

func (f *fakeAttendees) MarkPresent(ctx context.Context, code string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.roster[checkin.Normalize(code)]
	if !ok || a.IsPresent() {
		return false, nil
	}
	a.Presence = models.CheckedIn(at)
	f.roster[a.QRCode] = a
	f.scans = append(f.scans, models.ScanRecord{Attendee: a, CheckedInAt: at})
	return true, nil
}

func (f *fakeAttendees) Register(ctx context.Context, name, email, code string) (models.Attendee, error) {
	if f.err != nil {
		return models.Attendee{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.roster[code]; ok {
		return models.Attendee{}, common.ErrAlreadyExists
	}
	a := models.Attendee{ID: "new", Name: name, Email: email, QRCode: code}
	f.roster[code] = a
	return a, nil
}

func (f *fakeAttendees) Get(ctx context.Context, code string) (models.Attendee, error) {
	return f.FindByCode(ctx, code)
}

func (f *fakeAttendees) List(ctx context.Context, filter models.ListFilter) ([]models.Attendee, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotFilter = filter
	var out []models.Attendee
	for _, code := range []string{"ATT001", "ATT003"} {
		if a, ok := f.roster[code]; ok && filter.Matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttendees) Stats(ctx context.Context) (models.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := models.Stats{Total: len(f.roster)}
	for _, a := range f.roster {
		if a.IsPresent() {
			st.Present++
		}
	}
	return st, nil
}

func (f *fakeAttendees) Validate(ctx context.Context, raw string) (checkin.Result, error) {
	return checkin.Validate(ctx, f, raw)
}

func (f *fakeAttendees) CheckIn(ctx context.Context, raw, station string, at time.Time) (checkin.Result, error) {
	if f.err != nil {
		return checkin.Result{}, f.err
	}
	if at.IsZero() {
		at = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	}
	var notifier checkin.Notifier = checkin.NotifierFunc(func(context.Context, checkin.Notification) {})
	if f.hub != nil {
		notifier = checkin.NotifierFunc(func(ctx context.Context, n checkin.Notification) {
			if n.Kind == checkin.KindError {
				f.hub.Notify(ctx, n)
			}
		})
	}
	p := checkin.NewPipeline(f, notifier, checkin.WithClock(func() time.Time { return at }))
	out := p.Submit(ctx, raw)
	if out.Status == checkin.Accepted && f.hub != nil {
		f.hub.Broadcast(services.CheckInEvent{Attendee: *out.Result.Attendee, StationID: station, At: at})
	}
	return out.Result, nil
}

func (f *fakeAttendees) Recent(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ScanRecord(nil), f.scans...), nil
}

type fakeBadges struct {
	link *services.BadgeLink
	err  error
}

func (f *fakeBadges) Publish(ctx context.Context, code string) (*services.BadgeLink, error) {
	return f.link, f.err
}

type fixture struct {
	users     *fakeUsers
	attendees *fakeAttendees
	badges    *fakeBadges
	hub       *Hub
	server    *HTTPServer
	handler   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:     &fakeUsers{},
		attendees: newFakeAttendees(),
		badges:    &fakeBadges{},
		hub:       NewHub(logging.Nop()),
	}
	f.attendees.hub = f.hub
	f.server = NewHTTPServer("127.0.0.1:0", []string{"http://localhost:3000"}, logging.Nop(), f.users, f.attendees, f.badges, f.hub)
	f.handler = f.server.Handler()
	return f
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) doRequest(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

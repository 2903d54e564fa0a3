package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/logging"
	"github.com/dmitrijs2005/rollcall/internal/models"
	"github.com/dmitrijs2005/rollcall/internal/server/auth"
	"github.com/dmitrijs2005/rollcall/internal/server/services"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// ---- fakes ----

type fakeUsers struct {
	loginResp *services.TokenPair
	loginErr  error

	refreshResp *services.TokenPair
	refreshErr  error

	// tokens maps access tokens to identities.
	tokens map[string]auth.Identity
	// authErr overrides the lookup when set.
	authErr error
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	return f.loginResp, f.loginErr
}
func (f *fakeUsers) RefreshToken(ctx context.Context, refresh string) (*services.TokenPair, error) {
	return f.refreshResp, f.refreshErr
}
func (f *fakeUsers) Authenticate(token string) (auth.Identity, error) {
	if f.authErr != nil {
		return auth.Identity{}, f.authErr
	}
	id, ok := f.tokens[token]
	if !ok {
		return auth.Identity{}, common.ErrInvalidToken
	}
	return id, nil
}

type checkInCall struct {
	code    string
	station string
	at      time.Time
}

type fakeAttendees struct {
	registered models.Attendee
	regErr     error

	list       []models.Attendee
	listErr    error
	gotFilter  models.ListFilter
	stats      models.Stats
	statsErr   error
	validate   checkin.Result
	validErr   error
	checkIn    checkin.Result
	checkInErr error
	checkIns   []checkInCall
}

func (f *fakeAttendees) Register(ctx context.Context, name, email, code string) (models.Attendee, error) {
	return f.registered, f.regErr
}
func (f *fakeAttendees) List(ctx context.Context, filter models.ListFilter) ([]models.Attendee, error) {
	f.gotFilter = filter
	return f.list, f.listErr
}
func (f *fakeAttendees) Stats(ctx context.Context) (models.Stats, error) {
	return f.stats, f.statsErr
}
func (f *fakeAttendees) Validate(ctx context.Context, raw string) (checkin.Result, error) {
	return f.validate, f.validErr
}
func (f *fakeAttendees) CheckIn(ctx context.Context, raw, station string, at time.Time) (checkin.Result, error) {
	f.checkIns = append(f.checkIns, checkInCall{code: raw, station: station, at: at})
	return f.checkIn, f.checkInErr
}

var (
	adminID   = auth.Identity{UserID: "u-admin", Role: common.RoleAdmin}
	scannerID = auth.Identity{UserID: "u-scan", Role: common.RoleScanner}
)

func newTestServer(us *fakeUsers, as *fakeAttendees) *GRPCServer {
	if us == nil {
		us = &fakeUsers{}
	}
	if us.tokens == nil {
		us.tokens = map[string]auth.Identity{"admin-token": adminID, "scanner-token": scannerID}
	}
	if as == nil {
		as = &fakeAttendees{}
	}
	return NewGRPCServer("127.0.0.1:0", nopLogger{}, us, as)
}

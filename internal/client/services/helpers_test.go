package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/client/client"
	"github.com/dmitrijs2005/rollcall/internal/client/directory"
	"github.com/dmitrijs2005/rollcall/internal/logging"
	"github.com/dmitrijs2005/rollcall/internal/models"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seededDirectory(t *testing.T, db *sql.DB) *directory.Directory {
	t.Helper()
	d := directory.New(db, "gate-1", logging.Nop())
	require.NoError(t, d.Load(context.Background()))
	_, err := d.SeedDemo(context.Background(), t0)
	require.NoError(t, err)
	return d
}

type checkInCall struct {
	Code      string
	StationID string
	At        *time.Time
}

// fakeClient implements client.Client for the service tests.
type fakeClient struct {
	// behaviour
	LoginRet client.Session
	LoginErr error
	PingErr  error
	ListRet  []models.Attendee
	ListErr  error
	// ListHook runs inside ListAttendees before the answer is returned.
	ListHook func()

	// ValidateFn and CheckInFn default to a "not found" answer.
	ValidateFn func(code string) (checkin.Result, error)
	CheckInFn  func(code string, at *time.Time) (checkin.Result, error)

	// captured arguments
	LastLoginEmail    string
	LastLoginPassword string
	Session           client.Session
	CheckIns          []checkInCall
	Closed            bool
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Close() error { f.Closed = true; return nil }

func (f *fakeClient) Login(ctx context.Context, email, password string) (client.Session, error) {
	f.LastLoginEmail, f.LastLoginPassword = email, password
	if f.LoginErr != nil {
		return client.Session{}, f.LoginErr
	}
	f.Session = f.LoginRet
	return f.LoginRet, nil
}

func (f *fakeClient) SetSession(s client.Session) { f.Session = s }

func (f *fakeClient) Ping(ctx context.Context) error { return f.PingErr }

func (f *fakeClient) ListAttendees(ctx context.Context, filter models.ListFilter) ([]models.Attendee, error) {
	if f.ListHook != nil {
		f.ListHook()
	}
	return f.ListRet, f.ListErr
}

func (f *fakeClient) RegisterAttendee(ctx context.Context, name, email, code string) (models.Attendee, error) {
	return models.Attendee{ID: "new", Name: name, Email: email, QRCode: code, RegisteredAt: t0}, nil
}

func (f *fakeClient) Validate(ctx context.Context, code string) (checkin.Result, error) {
	if f.ValidateFn != nil {
		return f.ValidateFn(code)
	}
	return checkin.Result{Code: checkin.CodeNotFound, Message: checkin.MsgNotFound}, nil
}

func (f *fakeClient) CheckIn(ctx context.Context, code, stationID string, at *time.Time) (checkin.Result, error) {
	f.CheckIns = append(f.CheckIns, checkInCall{Code: code, StationID: stationID, At: at})
	if f.CheckInFn != nil {
		return f.CheckInFn(code, at)
	}
	return checkin.Result{Code: checkin.CodeNotFound, Message: checkin.MsgNotFound}, nil
}

func (f *fakeClient) Stats(ctx context.Context) (models.Stats, error) {
	return models.Stats{}, nil
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/dbx"
	"github.com/dmitrijs2005/rollcall/internal/logging"
	"github.com/dmitrijs2005/rollcall/internal/models"
	"github.com/dmitrijs2005/rollcall/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/dmitrijs2005/rollcall/internal/server/services"

	// SeedStationID marks scans created by SeedDemo.
	SeedStationID = "seed"

	// maxRecent caps Recent regardless of the requested limit.
	maxRecent = 200
)

// AttendeeService owns the server roster: registration, listings and the
// authoritative check-in path used by every station.
type AttendeeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	tracer      trace.Tracer
	broadcaster Broadcaster
	eventID     string
	now         func() time.Time
}

type AttendeeOption func(*AttendeeService)

// WithEventID prefixes generated codes with id: "<id>_ATT007".
func WithEventID(id string) AttendeeOption {
	return func(s *AttendeeService) { s.eventID = strings.TrimSpace(id) }
}

func NewAttendeeService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, b Broadcaster, opts ...AttendeeOption) *AttendeeService {
	if b == nil {
		b = nopBroadcaster{}
	}
	s := &AttendeeService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "attendees"),
		tracer:      otel.Tracer(tracerName),
		broadcaster: b,
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *AttendeeService) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "attendees."+name, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *AttendeeService) directory(stationID string) *rosterDirectory {
	return &rosterDirectory{db: s.db, repomanager: s.repomanager, stationID: stationID}
}

// Register adds an attendee. An empty code gets the next free ATTnnn code,
// prefixed with the event id when one is configured.
func (s *AttendeeService) Register(ctx context.Context, name, email, code string) (a models.Attendee, err error) {
	ctx, span := s.start(ctx, "register", attribute.String("attendee.code", code))
	defer func() { finish(span, err) }()

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	code = checkin.Normalize(code)
	if name == "" {
		return models.Attendee{}, fmt.Errorf("%w: name is required", common.ErrInvalidArgument)
	}

	if code == "" {
		code, err = s.nextCode(ctx)
		if err != nil {
			return models.Attendee{}, err
		}
	}

	a = models.Attendee{Name: name, Email: email, QRCode: code, RegisteredAt: s.now().UTC()}
	if err := s.repomanager.Attendees(s.db).Create(ctx, &a); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return models.Attendee{}, err
		}
		return models.Attendee{}, fmt.Errorf("error creating attendee: %w", err)
	}

	s.logger.Info(ctx, "attendee registered", "code", a.QRCode, "name", a.Name)
	return a, nil
}

func (s *AttendeeService) code(n int) string {
	if s.eventID == "" {
		return models.AttendeeCode(n)
	}
	return models.EventAttendeeCode(s.eventID, n)
}

// nextCode returns the first generated code past the current roster size
// that nobody holds yet.
func (s *AttendeeService) nextCode(ctx context.Context) (string, error) {
	repo := s.repomanager.Attendees(s.db)

	stats, err := repo.Stats(ctx)
	if err != nil {
		return "", fmt.Errorf("error counting attendees: %w", err)
	}

	for n := stats.Total + 1; ; n++ {
		code := s.code(n)
		_, err := repo.GetByQRCode(ctx, code)
		if errors.Is(err, common.ErrorNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("error searching attendee: %w", err)
		}
	}
}

func (s *AttendeeService) Get(ctx context.Context, code string) (a models.Attendee, err error) {
	ctx, span := s.start(ctx, "get", attribute.String("attendee.code", code))
	defer func() { finish(span, err) }()

	return s.repomanager.Attendees(s.db).GetByQRCode(ctx, checkin.Normalize(code))
}

func (s *AttendeeService) List(ctx context.Context, filter models.ListFilter) (list []models.Attendee, err error) {
	ctx, span := s.start(ctx, "list",
		attribute.String("filter.status", string(filter.Status)),
		attribute.String("filter.search", filter.Search))
	defer func() { finish(span, err) }()

	list, err = s.repomanager.Attendees(s.db).List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing attendees: %w", err)
	}
	span.SetAttributes(attribute.Int("attendees.count", len(list)))
	return list, nil
}

func (s *AttendeeService) Stats(ctx context.Context) (st models.Stats, err error) {
	ctx, span := s.start(ctx, "stats")
	defer func() { finish(span, err) }()

	st, err = s.repomanager.Attendees(s.db).Stats(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("error reading stats: %w", err)
	}
	return st, nil
}

// Validate runs the check-in rules without changing anything.
func (s *AttendeeService) Validate(ctx context.Context, raw string) (res checkin.Result, err error) {
	ctx, span := s.start(ctx, "validate", attribute.String("attendee.code", raw))
	defer func() { finish(span, err) }()

	res, err = checkin.Validate(ctx, s.directory(""), raw)
	if err != nil {
		return checkin.Result{}, fmt.Errorf("error validating code: %w", err)
	}
	span.SetAttributes(attribute.Bool("checkin.valid", res.Valid), attribute.String("checkin.code", string(res.Code)))
	return res, nil
}

// CheckIn validates raw and marks the attendee present at at. A zero at
// means now; stations replaying offline scans pass the original time.
//
// Concurrent check-ins of one code are decided by the database: exactly one
// caller gets a valid result, the others get ALREADY_CHECKED_IN.
func (s *AttendeeService) CheckIn(ctx context.Context, raw, stationID string, at time.Time) (res checkin.Result, err error) {
	ctx, span := s.start(ctx, "check_in",
		attribute.String("attendee.code", raw),
		attribute.String("station.id", stationID))
	defer func() { finish(span, err) }()

	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()

	dir := s.directory(stationID)
	pipeline := checkin.NewPipeline(dir, rejections(s.broadcaster),
		checkin.WithClock(func() time.Time { return at }),
		checkin.WithLogger(s.logger))

	out := pipeline.Submit(ctx, raw)
	span.SetAttributes(attribute.String("checkin.status", out.Status.String()))

	switch out.Status {
	case checkin.Failed:
		return checkin.Result{}, fmt.Errorf("error checking in: %w", out.Err)
	case checkin.Accepted:
		a := *out.Result.Attendee
		if dir.marked != nil {
			a = *dir.marked
			out.Result.Attendee = &a
		}
		s.broadcaster.Broadcast(CheckInEvent{Attendee: a, StationID: stationID, At: at})
	}

	return out.Result, nil
}

func (s *AttendeeService) Recent(ctx context.Context, limit int) (recs []models.ScanRecord, err error) {
	ctx, span := s.start(ctx, "recent", attribute.Int("limit", limit))
	defer func() { finish(span, err) }()

	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}
	recs, err = s.repomanager.Scans(s.db).ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing scans: %w", err)
	}
	return recs, nil
}

// SeedDemo loads the demo roster, skipping codes that are already taken, and
// reports how many attendees were added.
func (s *AttendeeService) SeedDemo(ctx context.Context) (added int, err error) {
	ctx, span := s.start(ctx, "seed_demo")
	defer func() { finish(span, err) }()

	for _, a := range models.DemoRoster(s.now().UTC()) {
		err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.repomanager.Attendees(tx).Create(ctx, &a); err != nil {
				return err
			}
			if at, ok := a.Presence.CheckInTime(); ok {
				return s.repomanager.Scans(tx).Create(ctx, a.ID, SeedStationID, at)
			}
			return nil
		})
		if errors.Is(err, common.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("error seeding %s: %w", a.QRCode, err)
		}
		added++
	}

	span.SetAttributes(attribute.Int("attendees.added", added))
	s.logger.Info(ctx, "demo roster seeded", "added", added)
	return added, nil
}

package checkin

import (
	"context"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/logging"
	"github.com/dmitrijs2005/rollcall/internal/models"
)

// Status is the terminal state of one scan.
type Status int

const (
	// Suppressed: dropped by the debouncer, nothing was notified.
	Suppressed Status = iota
	// Rejected: validation or mutation refused the code.
	Rejected
	// Accepted: the attendee was checked in.
	Accepted
	// Failed: the directory could not be read or written.
	Failed
)

func (s Status) String() string {
	switch s {
	case Suppressed:
		return "suppressed"
	case Rejected:
		return "rejected"
	case Accepted:
		return "accepted"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome describes what happened to one scan.
type Outcome struct {
	Status Status
	Result Result
	Err    error
}

// Pipeline turns decoded codes into check-ins and notifications.
type Pipeline struct {
	dir       Directory
	debouncer *Debouncer
	notifier  Notifier
	now       func() time.Time
	logger    logging.Logger
}

type Option func(*Pipeline)

// WithDebouncer replaces the default two second debouncer.
func WithDebouncer(d *Debouncer) Option {
	return func(p *Pipeline) { p.debouncer = d }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func NewPipeline(dir Directory, notifier Notifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		dir:       dir,
		debouncer: NewDebouncer(DefaultDebounceWindow),
		notifier:  notifier,
		now:       time.Now,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.notifier == nil {
		p.notifier = Notifiers{}
	}
	p.logger = p.logger.With("module", "checkin_pipeline")
	return p
}

// HandleFrame processes one decoded camera frame.
func (p *Pipeline) HandleFrame(ctx context.Context, raw string) Outcome {
	if !p.debouncer.ShouldProcess(raw, p.now()) {
		p.logger.Debug(ctx, "scan suppressed", "code", raw)
		return Outcome{Status: Suppressed}
	}
	return p.process(ctx, raw)
}

// Submit processes a manually entered code. It bypasses the debouncer.
func (p *Pipeline) Submit(ctx context.Context, raw string) Outcome {
	return p.process(ctx, raw)
}

func (p *Pipeline) process(ctx context.Context, raw string) Outcome {
	res, err := Validate(ctx, p.dir, raw)
	if err != nil {
		return p.fail(ctx, raw, err)
	}
	if !res.Valid {
		p.notify(ctx, KindError, res.MessageOr(MsgInvalidCode))
		return Outcome{Status: Rejected, Result: res}
	}

	at := p.now()
	ok, err := p.dir.MarkPresent(ctx, res.AttendeeID, at)
	if err != nil {
		return p.fail(ctx, raw, err)
	}

	if ok {
		a := *res.Attendee
		a.Presence = models.CheckedIn(at)
		res.Attendee = &a
		p.logger.Info(ctx, "check-in accepted", "code", res.AttendeeID, "attendee", a.Name)
		p.notify(ctx, KindSuccess, WelcomeMessage(a.Name))
		return Outcome{Status: Accepted, Result: res}
	}

	// Someone else won the race between validation and mutation. The
	// directory now knows why; ask it again.
	again, err := Validate(ctx, p.dir, raw)
	if err != nil {
		return p.fail(ctx, raw, err)
	}
	p.logger.Info(ctx, "check-in lost race", "code", res.AttendeeID, "reason", again.Code)
	p.notify(ctx, KindError, again.MessageOr(MsgCheckInFailed))
	return Outcome{Status: Rejected, Result: again}
}

func (p *Pipeline) fail(ctx context.Context, raw string, err error) Outcome {
	p.logger.Error(ctx, "check-in failed", "code", raw, "error", err)
	p.notify(ctx, KindError, MsgCheckInFailed)
	return Outcome{Status: Failed, Err: err}
}

func (p *Pipeline) notify(ctx context.Context, kind Kind, msg string) {
	p.notifier.Notify(ctx, Notification{Kind: kind, Message: msg})
}

// Run starts src and feeds every frame to HandleFrame until the context is
// cancelled or the source runs dry. The source is stopped on every return
// path, including a failed start.
func (p *Pipeline) Run(ctx context.Context, src CameraSource) error {
	defer func() {
		if err := src.Stop(); err != nil {
			p.logger.Warn(ctx, "camera stop failed", "error", err)
		}
	}()

	frames, err := src.Start(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			p.HandleFrame(ctx, frame)
		}
	}
}

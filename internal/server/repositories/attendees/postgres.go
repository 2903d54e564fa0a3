package attendees

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/dbx"
	"github.com/dmitrijs2005/rollcall/internal/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, name, email, qr_code, registered_at, checked_in_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendee(row rowScanner) (models.Attendee, error) {
	var (
		a           models.Attendee
		checkedInAt sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.QRCode, &a.RegisteredAt, &checkedInAt); err != nil {
		return models.Attendee{}, err
	}
	if checkedInAt.Valid {
		a.Presence = models.CheckedIn(checkedInAt.Time)
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Attendee) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.RegisteredAt.IsZero() {
		a.RegisteredAt = time.Now().UTC()
	}

	query := `
		INSERT INTO attendees (id, name, email, qr_code, registered_at, checked_in_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Name, a.Email, a.QRCode, a.RegisteredAt, a.Presence.Nullable())
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByQRCode(ctx context.Context, code string) (models.Attendee, error) {
	query := `SELECT ` + selectColumns + ` FROM attendees WHERE qr_code = $1`

	a, err := scanAttendee(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Attendee{}, common.ErrorNotFound
		}
		return models.Attendee{}, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// likePattern turns free text into an ILIKE substring pattern, escaping the
// wildcard characters.
func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

func (r *PostgresRepository) List(ctx context.Context, filter models.ListFilter) ([]models.Attendee, error) {
	var (
		where []string
		args  []any
	)

	switch filter.Status {
	case models.StatusPresent:
		where = append(where, "checked_in_at IS NOT NULL")
	case models.StatusAbsent:
		where = append(where, "checked_in_at IS NULL")
	}

	if q := strings.TrimSpace(filter.Search); q != "" {
		args = append(args, likePattern(q))
		n := len(args)
		where = append(where, fmt.Sprintf(
			`(name ILIKE $%[1]d ESCAPE '\' OR email ILIKE $%[1]d ESCAPE '\' OR qr_code ILIKE $%[1]d ESCAPE '\')`, n))
	}

	query := `SELECT ` + selectColumns + ` FROM attendees`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY registered_at, qr_code`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Attendee
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) MarkCheckedIn(ctx context.Context, code string, at time.Time) (models.Attendee, bool, error) {
	query := `
		UPDATE attendees SET checked_in_at = $2
		WHERE qr_code = $1 AND checked_in_at IS NULL
		RETURNING ` + selectColumns

	a, err := scanAttendee(r.db.QueryRowContext(ctx, query, code, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Attendee{}, false, nil
		}
		return models.Attendee{}, false, fmt.Errorf("db error: %w", err)
	}
	return a, true, nil
}

func (r *PostgresRepository) Stats(ctx context.Context) (models.Stats, error) {
	query := `SELECT COUNT(*), COUNT(checked_in_at) FROM attendees`

	var s models.Stats
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.Total, &s.Present); err != nil {
		return models.Stats{}, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

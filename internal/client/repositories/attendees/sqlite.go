package attendees

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/dbx"
	"github.com/dmitrijs2005/rollcall/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `id, name, email, qr_code, registered_at, checked_in_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAttendee(row scanner) (models.Attendee, error) {
	var (
		a            models.Attendee
		registeredAt string
		checkedInAt  sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.QRCode, &registeredAt, &checkedInAt); err != nil {
		return models.Attendee{}, err
	}

	var err error
	if a.RegisteredAt, err = parseTime(registeredAt); err != nil {
		return models.Attendee{}, err
	}
	if checkedInAt.Valid {
		at, err := parseTime(checkedInAt.String)
		if err != nil {
			return models.Attendee{}, err
		}
		a.Presence = models.CheckedIn(at)
	}
	return a, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullableTime(p models.Presence) any {
	at, ok := p.CheckInTime()
	if !ok {
		return nil
	}
	return formatTime(at)
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.Attendee, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select attendees: %w", err)
	}
	defer rows.Close()

	var result []models.Attendee
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendee: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Attendee, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM attendees ORDER BY rowid`)
}

func (r *SQLiteRepository) GetByQRCode(ctx context.Context, code string) (models.Attendee, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM attendees WHERE qr_code = ?`, code)
	a, err := scanAttendee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Attendee{}, common.ErrorNotFound
	}
	if err != nil {
		return models.Attendee{}, fmt.Errorf("query row scan failed: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, a models.Attendee) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendees (id, name, email, qr_code, registered_at, checked_in_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Email, a.QRCode, formatTime(a.RegisteredAt), nullableTime(a.Presence))
	if dbx.IsUniqueViolation(err) {
		return common.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert attendee: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkCheckedIn(ctx context.Context, code string, at time.Time, pending bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendees SET checked_in_at = ?, pending = ?
		WHERE qr_code = ? AND checked_in_at IS NULL`,
		formatTime(at), pending, code)
	if err != nil {
		return false, fmt.Errorf("failed to mark attendee: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra == 1, nil
}

func (r *SQLiteRepository) GetPending(ctx context.Context) ([]models.Attendee, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM attendees WHERE pending = 1 ORDER BY checked_in_at`)
}

func (r *SQLiteRepository) ClearPending(ctx context.Context, code string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE attendees SET pending = 0 WHERE qr_code = ?`, code); err != nil {
		return fmt.Errorf("failed to clear pending flag: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, as []models.Attendee) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM attendees`); err != nil {
		return fmt.Errorf("failed to clear attendees: %w", err)
	}
	for _, a := range as {
		if err := r.Create(ctx, a); err != nil {
			return fmt.Errorf("attendee %s: %w", a.QRCode, err)
		}
	}
	return nil
}

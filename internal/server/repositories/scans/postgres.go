package scans

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/dbx"
	"github.com/dmitrijs2005/rollcall/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, attendeeID string, stationID string, at time.Time) error {
	query := `
		INSERT INTO scans (attendee_id, station_id, checked_in_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, attendeeID, stationID, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	query := `
		SELECT a.id, a.name, a.email, a.qr_code, a.registered_at, a.checked_in_at,
		       s.station_id, s.checked_in_at
		FROM scans s
		JOIN attendees a ON a.id = s.attendee_id
		ORDER BY s.checked_in_at DESC, s.id DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.ScanRecord
	for rows.Next() {
		var (
			rec     models.ScanRecord
			present sql.NullTime
		)
		err := rows.Scan(&rec.Attendee.ID, &rec.Attendee.Name, &rec.Attendee.Email, &rec.Attendee.QRCode,
			&rec.Attendee.RegisteredAt, &present, &rec.StationID, &rec.CheckedInAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if present.Valid {
			rec.Attendee.Presence = models.CheckedIn(present.Time)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

package scans

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/dbx"
	"github.com/dmitrijs2005/rollcall/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, rec models.ScanRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scans (qr_code, station_id, checked_in_at) VALUES (?, ?, ?)`,
		rec.Attendee.QRCode, rec.StationID, rec.CheckedInAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.email, a.qr_code, a.registered_at, s.station_id, s.checked_in_at
		FROM scans s
		JOIN attendees a ON a.qr_code = s.qr_code
		ORDER BY s.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select scans: %w", err)
	}
	defer rows.Close()

	var result []models.ScanRecord
	for rows.Next() {
		var (
			rec          models.ScanRecord
			registeredAt string
			checkedInAt  string
		)
		a := &rec.Attendee
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.QRCode, &registeredAt, &rec.StationID, &checkedInAt); err != nil {
			return nil, err
		}
		if a.RegisteredAt, err = time.Parse(time.RFC3339Nano, registeredAt); err != nil {
			return nil, fmt.Errorf("bad registered_at: %w", err)
		}
		if rec.CheckedInAt, err = time.Parse(time.RFC3339Nano, checkedInAt); err != nil {
			return nil, fmt.Errorf("bad checked_in_at: %w", err)
		}
		a.Presence = models.CheckedIn(rec.CheckedInAt)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return result, nil
}

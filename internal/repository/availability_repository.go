package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/refdesk/refdesk-api/internal/models"
)

// AvailabilityRepository persists per-referee, per-date availability
// records. One row per (referee_id, date); rows are upserted, never
// deleted.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const availabilityColumns = `id, referee_id, date, available, reason, created_at, updated_at`

// Get returns the record for one (referee, date) key, sql.ErrNoRows
// when the referee never stated anything for that date.
func (r *AvailabilityRepository) Get(ctx context.Context, refereeID string, date time.Time) (*models.AvailabilityRecord, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability_records WHERE referee_id = $1 AND date = $2::date LIMIT 1`
	var rec models.AvailabilityRecord
	if err := r.db.GetContext(ctx, &rec, query, refereeID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get availability record: %w", err)
	}
	return &rec, nil
}

// Upsert creates or overwrites the record for one key. Last write wins.
func (r *AvailabilityRepository) Upsert(ctx context.Context, rec *models.AvailabilityRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	const query = `INSERT INTO availability_records (id, referee_id, date, available, reason, created_at, updated_at)
		VALUES (:id, :referee_id, :date, :available, :reason, :created_at, :updated_at)
		ON CONFLICT (referee_id, date) DO UPDATE
		SET available = EXCLUDED.available,
		    reason = EXCLUDED.reason,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("upsert availability record: %w", err)
	}
	return nil
}

// UpsertRange applies the same value to every date in one transaction
// so a partially applied range is never observable.
func (r *AvailabilityRepository) UpsertRange(ctx context.Context, refereeID string, dates []time.Time, available bool, reason *string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin availability range tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const query = `INSERT INTO availability_records (id, referee_id, date, available, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (referee_id, date) DO UPDATE
		SET available = EXCLUDED.available,
		    reason = EXCLUDED.reason,
		    updated_at = EXCLUDED.updated_at`
	for _, date := range dates {
		if _, err := tx.ExecContext(ctx, query, uuid.NewString(), refereeID, date, available, reason, now); err != nil {
			return fmt.Errorf("upsert availability range day %s: %w", date.Format(models.AvailabilityDateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit availability range: %w", err)
	}
	return nil
}

// ListRange returns the stored records for a referee between two dates
// inclusive.
func (r *AvailabilityRepository) ListRange(ctx context.Context, refereeID string, from, to time.Time) ([]models.AvailabilityRecord, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability_records WHERE referee_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC`
	var records []models.AvailabilityRecord
	if err := r.db.SelectContext(ctx, &records, query, refereeID, from, to); err != nil {
		return nil, fmt.Errorf("list availability range: %w", err)
	}
	return records, nil
}

// MapByDate returns every record stored for a single date keyed by
// referee id, for roster annotation.
func (r *AvailabilityRepository) MapByDate(ctx context.Context, date time.Time) (map[string]models.AvailabilityRecord, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability_records WHERE date = $1::date`
	var records []models.AvailabilityRecord
	if err := r.db.SelectContext(ctx, &records, query, date); err != nil {
		return nil, fmt.Errorf("map availability by date: %w", err)
	}
	byReferee := make(map[string]models.AvailabilityRecord, len(records))
	for _, rec := range records {
		byReferee[rec.RefereeID] = rec
	}
	return byReferee, nil
}

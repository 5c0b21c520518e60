package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/refdesk/refdesk-api/internal/models"
)

// VenueRepository persists venues.
type VenueRepository struct {
	db *sqlx.DB
}

// NewVenueRepository constructs the repository.
func NewVenueRepository(db *sqlx.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

const venueColumns = `id, name, city, address, capacity, active, created_at, updated_at`

// FindByID returns a venue by identifier.
func (r *VenueRepository) FindByID(ctx context.Context, id string) (*models.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE id = $1 LIMIT 1`
	var venue models.Venue
	if err := r.db.GetContext(ctx, &venue, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find venue by id: %w", err)
	}
	return &venue, nil
}

// List returns venues matching the filter with a total count.
func (r *VenueRepository) List(ctx context.Context, filter models.VenueFilter) ([]models.Venue, int, error) {
	baseQuery := `FROM venues WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.City != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(city) = LOWER($%d)", len(args)+1))
		args = append(args, filter.City)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count venues: %w", err)
	}

	sortBy := sanitizeSortColumn(filter.SortBy, map[string]string{
		"name":       "name",
		"city":       "city",
		"created_at": "created_at",
	}, "name")
	order := sanitizeSortOrder(filter.SortOrder)
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		venueColumns, baseQuery, sortBy, order, pageSize, (page-1)*pageSize)

	var venues []models.Venue
	if err := r.db.SelectContext(ctx, &venues, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list venues: %w", err)
	}
	return venues, total, nil
}

// Create inserts a new venue.
func (r *VenueRepository) Create(ctx context.Context, venue *models.Venue) error {
	if venue.ID == "" {
		venue.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	venue.CreatedAt = now
	venue.UpdatedAt = now
	const query = `INSERT INTO venues (id, name, city, address, capacity, active, created_at, updated_at)
		VALUES (:id, :name, :city, :address, :capacity, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, venue); err != nil {
		return fmt.Errorf("create venue: %w", err)
	}
	return nil
}

// Update persists mutable venue fields.
func (r *VenueRepository) Update(ctx context.Context, venue *models.Venue) error {
	venue.UpdatedAt = time.Now().UTC()
	const query = `UPDATE venues SET name = :name, city = :city, address = :address, capacity = :capacity, active = :active, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, venue)
	if err != nil {
		return fmt.Errorf("update venue: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated venue rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate soft-disables a venue.
func (r *VenueRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE venues SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate venue: %w", err)
	}
	return nil
}

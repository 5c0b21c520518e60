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

// RefereeRepository persists referee records.
type RefereeRepository struct {
	db *sqlx.DB
}

// NewRefereeRepository constructs the repository.
func NewRefereeRepository(db *sqlx.DB) *RefereeRepository {
	return &RefereeRepository{db: db}
}

const refereeColumns = `id, user_id, full_name, license, city, experience_years, status, created_at, updated_at`

// FindByID returns a referee by identifier.
func (r *RefereeRepository) FindByID(ctx context.Context, id string) (*models.Referee, error) {
	query := `SELECT ` + refereeColumns + ` FROM referees WHERE id = $1 LIMIT 1`
	var referee models.Referee
	if err := r.db.GetContext(ctx, &referee, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find referee by id: %w", err)
	}
	return &referee, nil
}

// FindByUserID returns the referee linked to a user identity.
func (r *RefereeRepository) FindByUserID(ctx context.Context, userID string) (*models.Referee, error) {
	query := `SELECT ` + refereeColumns + ` FROM referees WHERE user_id = $1 LIMIT 1`
	var referee models.Referee
	if err := r.db.GetContext(ctx, &referee, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find referee by user id: %w", err)
	}
	return &referee, nil
}

// List returns referees matching the filter with a total count.
func (r *RefereeRepository) List(ctx context.Context, filter models.RefereeFilter) ([]models.Referee, int, error) {
	baseQuery := `FROM referees WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.License != "" {
		conditions = append(conditions, fmt.Sprintf("license = $%d", len(args)+1))
		args = append(args, filter.License)
	}
	if filter.City != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(city) = LOWER($%d)", len(args)+1))
		args = append(args, filter.City)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(full_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count referees: %w", err)
	}

	sortBy := sanitizeSortColumn(filter.SortBy, map[string]string{
		"full_name":  "full_name",
		"city":       "city",
		"license":    "license",
		"experience": "experience_years",
		"created_at": "created_at",
	}, "full_name")
	order := sanitizeSortOrder(filter.SortOrder)
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		refereeColumns, baseQuery, sortBy, order, pageSize, (page-1)*pageSize)

	var referees []models.Referee
	if err := r.db.SelectContext(ctx, &referees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list referees: %w", err)
	}
	return referees, total, nil
}

// ListActive returns every referee eligible for assignment.
func (r *RefereeRepository) ListActive(ctx context.Context) ([]models.Referee, error) {
	query := `SELECT ` + refereeColumns + ` FROM referees WHERE status = $1 ORDER BY full_name ASC`
	var referees []models.Referee
	if err := r.db.SelectContext(ctx, &referees, query, models.RefereeActive); err != nil {
		return nil, fmt.Errorf("list active referees: %w", err)
	}
	return referees, nil
}

// Create inserts a new referee record.
func (r *RefereeRepository) Create(ctx context.Context, referee *models.Referee) error {
	if referee.ID == "" {
		referee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	referee.CreatedAt = now
	referee.UpdatedAt = now
	const query = `INSERT INTO referees (id, user_id, full_name, license, city, experience_years, status, created_at, updated_at)
		VALUES (:id, :user_id, :full_name, :license, :city, :experience_years, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, referee); err != nil {
		return fmt.Errorf("create referee: %w", err)
	}
	return nil
}

// Update persists mutable referee fields.
func (r *RefereeRepository) Update(ctx context.Context, referee *models.Referee) error {
	referee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE referees SET full_name = :full_name, license = :license, city = :city, experience_years = :experience_years, status = :status, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, referee)
	if err != nil {
		return fmt.Errorf("update referee: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated referee rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetStatus changes the account standing of a referee.
func (r *RefereeRepository) SetStatus(ctx context.Context, id string, status models.RefereeStatus) error {
	const query = `UPDATE referees SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set referee status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check referee status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountActive returns the number of assignable referees.
func (r *RefereeRepository) CountActive(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM referees WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.RefereeActive); err != nil {
		return 0, fmt.Errorf("count active referees: %w", err)
	}
	return count, nil
}

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

// CompetitionRepository persists competitions.
type CompetitionRepository struct {
	db *sqlx.DB
}

// NewCompetitionRepository constructs the repository.
func NewCompetitionRepository(db *sqlx.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

const competitionColumns = `id, name, season, category, start_date, end_date, active, created_at, updated_at`

// FindByID returns a competition by identifier.
func (r *CompetitionRepository) FindByID(ctx context.Context, id string) (*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = $1 LIMIT 1`
	var competition models.Competition
	if err := r.db.GetContext(ctx, &competition, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find competition by id: %w", err)
	}
	return &competition, nil
}

// List returns competitions matching the filter with a total count.
func (r *CompetitionRepository) List(ctx context.Context, filter models.CompetitionFilter) ([]models.Competition, int, error) {
	baseQuery := `FROM competitions WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Season != "" {
		conditions = append(conditions, fmt.Sprintf("season = $%d", len(args)+1))
		args = append(args, filter.Season)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
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
		return nil, 0, fmt.Errorf("count competitions: %w", err)
	}

	sortBy := sanitizeSortColumn(filter.SortBy, map[string]string{
		"name":       "name",
		"season":     "season",
		"start_date": "start_date",
	}, "start_date")
	order := sanitizeSortOrder(filter.SortOrder)
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		competitionColumns, baseQuery, sortBy, order, pageSize, (page-1)*pageSize)

	var competitions []models.Competition
	if err := r.db.SelectContext(ctx, &competitions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list competitions: %w", err)
	}
	return competitions, total, nil
}

// Create inserts a new competition.
func (r *CompetitionRepository) Create(ctx context.Context, competition *models.Competition) error {
	if competition.ID == "" {
		competition.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	competition.CreatedAt = now
	competition.UpdatedAt = now
	const query = `INSERT INTO competitions (id, name, season, category, start_date, end_date, active, created_at, updated_at)
		VALUES (:id, :name, :season, :category, :start_date, :end_date, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, competition); err != nil {
		return fmt.Errorf("create competition: %w", err)
	}
	return nil
}

// Update persists mutable competition fields.
func (r *CompetitionRepository) Update(ctx context.Context, competition *models.Competition) error {
	competition.UpdatedAt = time.Now().UTC()
	const query = `UPDATE competitions SET name = :name, season = :season, category = :category, start_date = :start_date, end_date = :end_date, active = :active, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, competition)
	if err != nil {
		return fmt.Errorf("update competition: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated competition rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate soft-disables a competition.
func (r *CompetitionRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE competitions SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate competition: %w", err)
	}
	return nil
}

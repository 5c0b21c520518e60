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

// MatchRepository persists scheduled matches.
type MatchRepository struct {
	db *sqlx.DB
}

// NewMatchRepository constructs the repository.
func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

const matchColumns = `id, competition_id, home_team_id, away_team_id, venue_id, scheduled_at, status, created_at, updated_at`

// FindByID returns a match by identifier.
func (r *MatchRepository) FindByID(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 LIMIT 1`
	var match models.Match
	if err := r.db.GetContext(ctx, &match, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find match by id: %w", err)
	}
	return &match, nil
}

// FindDetailByID returns a match enriched with names for sheet and
// detail views.
func (r *MatchRepository) FindDetailByID(ctx context.Context, id string) (*models.MatchDetail, error) {
	const query = `
SELECT m.id, m.competition_id, m.home_team_id, m.away_team_id, m.venue_id, m.scheduled_at, m.status, m.created_at, m.updated_at,
       c.name AS competition_name, ht.name AS home_team_name, at.name AS away_team_name, v.name AS venue_name, v.city AS venue_city
FROM matches m
JOIN competitions c ON c.id = m.competition_id
JOIN teams ht ON ht.id = m.home_team_id
JOIN teams at ON at.id = m.away_team_id
JOIN venues v ON v.id = m.venue_id
WHERE m.id = $1
LIMIT 1`
	var detail models.MatchDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find match detail: %w", err)
	}
	return &detail, nil
}

// List returns matches matching the filter with a total count.
func (r *MatchRepository) List(ctx context.Context, filter models.MatchFilter) ([]models.MatchDetail, int, error) {
	baseQuery := `
FROM matches m
JOIN competitions c ON c.id = m.competition_id
JOIN teams ht ON ht.id = m.home_team_id
JOIN teams at ON at.id = m.away_team_id
JOIN venues v ON v.id = m.venue_id
WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.CompetitionID != "" {
		conditions = append(conditions, fmt.Sprintf("m.competition_id = $%d", len(args)+1))
		args = append(args, filter.CompetitionID)
	}
	if filter.TeamID != "" {
		conditions = append(conditions, fmt.Sprintf("(m.home_team_id = $%d OR m.away_team_id = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.TeamID)
	}
	if filter.VenueID != "" {
		conditions = append(conditions, fmt.Sprintf("m.venue_id = $%d", len(args)+1))
		args = append(args, filter.VenueID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("m.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("m.scheduled_at >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("m.scheduled_at <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}

	sortBy := sanitizeSortColumn(filter.SortBy, map[string]string{
		"scheduled_at": "m.scheduled_at",
		"status":       "m.status",
		"created_at":   "m.created_at",
	}, "m.scheduled_at")
	order := sanitizeSortOrder(filter.SortOrder)
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`
SELECT m.id, m.competition_id, m.home_team_id, m.away_team_id, m.venue_id, m.scheduled_at, m.status, m.created_at, m.updated_at,
       c.name AS competition_name, ht.name AS home_team_name, at.name AS away_team_name, v.name AS venue_name, v.city AS venue_city
%s ORDER BY %s %s LIMIT %d OFFSET %d`, baseQuery, sortBy, order, pageSize, (page-1)*pageSize)

	var matches []models.MatchDetail
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list matches: %w", err)
	}
	return matches, total, nil
}

// Create inserts a new match.
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	match.CreatedAt = now
	match.UpdatedAt = now
	if match.Status == "" {
		match.Status = models.MatchScheduled
	}
	const query = `INSERT INTO matches (id, competition_id, home_team_id, away_team_id, venue_id, scheduled_at, status, created_at, updated_at)
		VALUES (:id, :competition_id, :home_team_id, :away_team_id, :venue_id, :scheduled_at, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, match); err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

// Update persists mutable match fields.
func (r *MatchRepository) Update(ctx context.Context, match *models.Match) error {
	match.UpdatedAt = time.Now().UTC()
	const query = `UPDATE matches SET competition_id = :competition_id, home_team_id = :home_team_id, away_team_id = :away_team_id, venue_id = :venue_id, scheduled_at = :scheduled_at, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, match)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated match rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus transitions the match lifecycle state.
func (r *MatchRepository) UpdateStatus(ctx context.Context, id string, status models.MatchStatus) error {
	const query = `UPDATE matches SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check match status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountUpcoming returns scheduled matches from the given instant on.
func (r *MatchRepository) CountUpcoming(ctx context.Context, from time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM matches WHERE scheduled_at >= $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, from, models.MatchScheduled); err != nil {
		return 0, fmt.Errorf("count upcoming matches: %w", err)
	}
	return count, nil
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/refdesk/refdesk-api/internal/models"
)

// ReportRepository persists report job metadata.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report job row with generated defaults.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_jobs (id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message)
VALUES (:id, :type, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// GetByID returns a job row by its identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	const query = `SELECT id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message
FROM report_jobs WHERE id = $1`
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, fmt.Errorf("get report job: %w", err)
	}
	return &job, nil
}

// UpdateReportJobParams defines the mutable fields.
type UpdateReportJobParams struct {
	Status       *models.ReportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update persists the provided changes for a job row.
func (r *ReportRepository) Update(ctx context.Context, id string, params UpdateReportJobParams) error {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	argPos := 1

	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}
	if params.Progress != nil {
		set = append(set, fmt.Sprintf("progress = $%d", argPos))
		args = append(args, *params.Progress)
		argPos++
	}
	if params.ResultURL != nil {
		set = append(set, fmt.Sprintf("result_url = $%d", argPos))
		args = append(args, *params.ResultURL)
		argPos++
	}
	if params.ErrorMessage != nil {
		set = append(set, fmt.Sprintf("error_message = $%d", argPos))
		args = append(args, *params.ErrorMessage)
		argPos++
	}
	if params.FinishedAt != nil {
		set = append(set, fmt.Sprintf("finished_at = $%d", argPos))
		args = append(args, *params.FinishedAt)
		argPos++
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE report_jobs SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update report job: %w", err)
	}
	return nil
}

// DelegationReportRow is one line of the delegations report.
type DelegationReportRow struct {
	ScheduledAt time.Time `db:"scheduled_at"`
	Competition string    `db:"competition"`
	HomeTeam    string    `db:"home_team"`
	AwayTeam    string    `db:"away_team"`
	Venue       string    `db:"venue"`
	Status      string    `db:"status"`
	Slot        *string   `db:"slot"`
	Referee     *string   `db:"referee"`
	Response    *string   `db:"response"`
}

// AvailabilityReportRow is one line of the availability report.
type AvailabilityReportRow struct {
	Date      time.Time `db:"date"`
	Referee   string    `db:"referee"`
	License   string    `db:"license"`
	Available bool      `db:"available"`
	Reason    *string   `db:"reason"`
}

// DeclineReportRow is one line of the declines report.
type DeclineReportRow struct {
	ScheduledAt time.Time `db:"scheduled_at"`
	HomeTeam    string    `db:"home_team"`
	AwayTeam    string    `db:"away_team"`
	Slot        string    `db:"slot"`
	Referee     string    `db:"referee"`
	Reason      *string   `db:"reason"`
	Note        *string   `db:"note"`
	RespondedAt *time.Time `db:"responded_at"`
}

// ReportWindow bounds report queries.
type ReportWindow struct {
	CompetitionID string
	From          *time.Time
	To            *time.Time
}

func (w ReportWindow) clauses(prefix string, args *[]interface{}) string {
	var sb strings.Builder
	if w.CompetitionID != "" {
		*args = append(*args, w.CompetitionID)
		fmt.Fprintf(&sb, " AND %scompetition_id = $%d", prefix, len(*args))
	}
	if w.From != nil {
		*args = append(*args, *w.From)
		fmt.Fprintf(&sb, " AND %sscheduled_at >= $%d", prefix, len(*args))
	}
	if w.To != nil {
		*args = append(*args, *w.To)
		fmt.Fprintf(&sb, " AND %sscheduled_at <= $%d", prefix, len(*args))
	}
	return sb.String()
}

// DelegationRows collects the delegations dataset for the window.
func (r *ReportRepository) DelegationRows(ctx context.Context, window ReportWindow) ([]DelegationReportRow, error) {
	var args []interface{}
	query := `
SELECT m.scheduled_at, c.name AS competition, ht.name AS home_team, at.name AS away_team, v.name AS venue,
       COALESCE(d.status, 'EMPTY') AS status, b.slot, rf.full_name AS referee, b.response
FROM matches m
JOIN competitions c ON c.id = m.competition_id
JOIN teams ht ON ht.id = m.home_team_id
JOIN teams at ON at.id = m.away_team_id
JOIN venues v ON v.id = m.venue_id
LEFT JOIN delegations d ON d.match_id = m.id
LEFT JOIN delegation_slots b ON b.delegation_id = d.id
LEFT JOIN referees rf ON rf.id = b.referee_id
WHERE 1=1` + window.clauses("m.", &args) + `
ORDER BY m.scheduled_at ASC, b.slot ASC`
	var rows []DelegationReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("delegation report rows: %w", err)
	}
	return rows, nil
}

// AvailabilityRows collects stored availability declarations in the
// date window.
func (r *ReportRepository) AvailabilityRows(ctx context.Context, window ReportWindow) ([]AvailabilityReportRow, error) {
	var args []interface{}
	query := `
SELECT a.date, rf.full_name AS referee, rf.license, a.available, a.reason
FROM referee_availability a
JOIN referees rf ON rf.id = a.referee_id
WHERE 1=1`
	if window.From != nil {
		args = append(args, *window.From)
		query += fmt.Sprintf(" AND a.date >= $%d", len(args))
	}
	if window.To != nil {
		args = append(args, *window.To)
		query += fmt.Sprintf(" AND a.date <= $%d", len(args))
	}
	query += " ORDER BY a.date ASC, rf.full_name ASC"
	var rows []AvailabilityReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("availability report rows: %w", err)
	}
	return rows, nil
}

// DeclineRows collects declined assignments in the window.
func (r *ReportRepository) DeclineRows(ctx context.Context, window ReportWindow) ([]DeclineReportRow, error) {
	args := []interface{}{models.ResponseDeclined}
	query := `
SELECT m.scheduled_at, ht.name AS home_team, at.name AS away_team, b.slot, rf.full_name AS referee,
       b.decline_reason AS reason, b.response_note AS note, b.responded_at
FROM delegation_slots b
JOIN delegations d ON d.id = b.delegation_id
JOIN matches m ON m.id = d.match_id
JOIN teams ht ON ht.id = m.home_team_id
JOIN teams at ON at.id = m.away_team_id
JOIN referees rf ON rf.id = b.referee_id
WHERE b.response = $1` + window.clauses("m.", &args) + `
ORDER BY m.scheduled_at ASC`
	var rows []DeclineReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("decline report rows: %w", err)
	}
	return rows, nil
}

// ListQueued fetches queued jobs (used for cold start recovery).
func (r *ReportRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message
FROM report_jobs WHERE status = 'QUEUED' ORDER BY created_at ASC LIMIT $1`
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list queued report jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore retrieves completed jobs prior to cutoff for cleanup.
func (r *ReportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message
FROM report_jobs WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2`
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished report jobs: %w", err)
	}
	return jobs, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/refdesk/refdesk-api/internal/models"
)

// ErrVersionConflict is returned when a delegation mutation loses the
// optimistic concurrency race. Callers translate it into a stale
// assignment error carrying the fresh version.
var ErrVersionConflict = errors.New("delegation version conflict")

// DelegationRepository is the persistence layer below the delegation
// engine. Every mutation couples the binding change with a version bump
// of the aggregate row inside one transaction, which serializes
// concurrent edits of the same match.
type DelegationRepository struct {
	db *sqlx.DB
}

// NewDelegationRepository constructs the repository.
func NewDelegationRepository(db *sqlx.DB) *DelegationRepository {
	return &DelegationRepository{db: db}
}

const delegationColumns = `id, match_id, status, notes, version, created_at, updated_at`
const bindingColumns = `id, delegation_id, slot, referee_id, response, decline_reason, response_note, overridden, assigned_at, responded_at`

// GetByMatch returns the delegation aggregate row for a match.
func (r *DelegationRepository) GetByMatch(ctx context.Context, matchID string) (*models.Delegation, error) {
	query := `SELECT ` + delegationColumns + ` FROM delegations WHERE match_id = $1 LIMIT 1`
	var d models.Delegation
	if err := r.db.GetContext(ctx, &d, query, matchID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get delegation by match: %w", err)
	}
	return &d, nil
}

// GetOrCreateByMatch returns the delegation for a match, creating the
// empty aggregate lazily on first access.
func (r *DelegationRepository) GetOrCreateByMatch(ctx context.Context, matchID string) (*models.Delegation, error) {
	d, err := r.GetByMatch(ctx, matchID)
	if err == nil {
		return d, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	now := time.Now().UTC()
	created := &models.Delegation{
		ID:        uuid.NewString(),
		MatchID:   matchID,
		Status:    models.DelegationEmpty,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	const insert = `INSERT INTO delegations (id, match_id, status, version, created_at, updated_at)
		VALUES (:id, :match_id, :status, :version, :created_at, :updated_at)
		ON CONFLICT (match_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, insert, created); err != nil {
		return nil, fmt.Errorf("create delegation: %w", err)
	}
	// A concurrent creator may have won the insert; read back the row
	// that actually exists.
	return r.GetByMatch(ctx, matchID)
}

// ListBindings returns the slot bindings of a delegation, declined ones
// included.
func (r *DelegationRepository) ListBindings(ctx context.Context, delegationID string) ([]models.SlotBinding, error) {
	query := `SELECT ` + bindingColumns + ` FROM delegation_slots WHERE delegation_id = $1 ORDER BY slot ASC`
	var bindings []models.SlotBinding
	if err := r.db.SelectContext(ctx, &bindings, query, delegationID); err != nil {
		return nil, fmt.Errorf("list slot bindings: %w", err)
	}
	return bindings, nil
}

// ListBindingDetails returns bindings joined with referee fields.
func (r *DelegationRepository) ListBindingDetails(ctx context.Context, delegationID string) ([]models.SlotBindingDetail, error) {
	const query = `
SELECT b.id, b.delegation_id, b.slot, b.referee_id, b.response, b.decline_reason, b.response_note, b.overridden, b.assigned_at, b.responded_at,
       rf.full_name AS referee_name, rf.license AS referee_license, rf.city AS referee_city
FROM delegation_slots b
JOIN referees rf ON rf.id = b.referee_id
WHERE b.delegation_id = $1
ORDER BY b.slot ASC`
	var details []models.SlotBindingDetail
	if err := r.db.SelectContext(ctx, &details, query, delegationID); err != nil {
		return nil, fmt.Errorf("list slot binding details: %w", err)
	}
	return details, nil
}

// SaveSlot writes a binding for (delegation, slot), replacing any
// previous occupant, and advances the aggregate. The version check and
// the binding write commit together or not at all.
func (r *DelegationRepository) SaveSlot(ctx context.Context, delegation *models.Delegation, binding *models.SlotBinding, newStatus models.DelegationStatus) error {
	return r.mutate(ctx, delegation, newStatus, func(tx *sqlx.Tx) error {
		if binding.ID == "" {
			binding.ID = uuid.NewString()
		}
		if binding.AssignedAt.IsZero() {
			binding.AssignedAt = time.Now().UTC()
		}
		const upsert = `INSERT INTO delegation_slots (id, delegation_id, slot, referee_id, response, decline_reason, response_note, overridden, assigned_at, responded_at)
			VALUES (:id, :delegation_id, :slot, :referee_id, :response, :decline_reason, :response_note, :overridden, :assigned_at, :responded_at)
			ON CONFLICT (delegation_id, slot) DO UPDATE
			SET referee_id = EXCLUDED.referee_id,
			    response = EXCLUDED.response,
			    decline_reason = EXCLUDED.decline_reason,
			    response_note = EXCLUDED.response_note,
			    overridden = EXCLUDED.overridden,
			    assigned_at = EXCLUDED.assigned_at,
			    responded_at = EXCLUDED.responded_at`
		if _, err := tx.NamedExecContext(ctx, upsert, binding); err != nil {
			return fmt.Errorf("upsert slot binding: %w", err)
		}
		return nil
	})
}

// ClearSlot deletes the binding of one slot and advances the aggregate.
func (r *DelegationRepository) ClearSlot(ctx context.Context, delegation *models.Delegation, slot models.Slot, newStatus models.DelegationStatus) error {
	return r.mutate(ctx, delegation, newStatus, func(tx *sqlx.Tx) error {
		const del = `DELETE FROM delegation_slots WHERE delegation_id = $1 AND slot = $2`
		if _, err := tx.ExecContext(ctx, del, delegation.ID, slot); err != nil {
			return fmt.Errorf("clear slot binding: %w", err)
		}
		return nil
	})
}

// SaveResponse stores a referee's answer on the binding and advances
// the aggregate.
func (r *DelegationRepository) SaveResponse(ctx context.Context, delegation *models.Delegation, binding *models.SlotBinding, newStatus models.DelegationStatus) error {
	return r.mutate(ctx, delegation, newStatus, func(tx *sqlx.Tx) error {
		const update = `UPDATE delegation_slots
			SET response = :response,
			    decline_reason = :decline_reason,
			    response_note = :response_note,
			    responded_at = :responded_at
			WHERE id = :id`
		result, err := tx.NamedExecContext(ctx, update, binding)
		if err != nil {
			return fmt.Errorf("save slot response: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("check response rows: %w", err)
		}
		if affected == 0 {
			return ErrVersionConflict
		}
		return nil
	})
}

// UpdateStatus advances only the aggregate status, used by ConfirmAll.
func (r *DelegationRepository) UpdateStatus(ctx context.Context, delegation *models.Delegation, newStatus models.DelegationStatus) error {
	return r.mutate(ctx, delegation, newStatus, nil)
}

// UpdateNotes stores delegation notes without touching bindings.
func (r *DelegationRepository) UpdateNotes(ctx context.Context, delegation *models.Delegation, notes *string) error {
	delegation.Notes = notes
	return r.mutate(ctx, delegation, delegation.Status, nil)
}

// mutate runs the optional binding mutation and the versioned aggregate
// update in one transaction. On success the delegation struct carries
// the incremented version and new status.
func (r *DelegationRepository) mutate(ctx context.Context, delegation *models.Delegation, newStatus models.DelegationStatus, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delegation tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if fn != nil {
		if err := fn(tx); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	const bump = `UPDATE delegations SET status = $1, notes = $2, version = version + 1, updated_at = $3 WHERE id = $4 AND version = $5`
	result, err := tx.ExecContext(ctx, bump, newStatus, delegation.Notes, now, delegation.ID, delegation.Version)
	if err != nil {
		return fmt.Errorf("bump delegation version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delegation version rows: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delegation mutation: %w", err)
	}

	delegation.Status = newStatus
	delegation.Version++
	delegation.UpdatedAt = now
	return nil
}

// RefereeAssignment is one row of a referee's personal assignment
// list, a binding joined with its match.
type RefereeAssignment struct {
	MatchID       string                  `db:"match_id" json:"match_id"`
	ScheduledAt   time.Time               `db:"scheduled_at" json:"scheduled_at"`
	MatchStatus   models.MatchStatus      `db:"match_status" json:"match_status"`
	Slot          models.Slot             `db:"slot" json:"slot"`
	Response      models.ResponseStatus   `db:"response" json:"response"`
	Status        models.DelegationStatus `db:"delegation_status" json:"delegation_status"`
	HomeTeamName  string                  `db:"home_team_name" json:"home_team_name"`
	AwayTeamName  string                  `db:"away_team_name" json:"away_team_name"`
	VenueName     string                  `db:"venue_name" json:"venue_name"`
	AssignedAt    time.Time               `db:"assigned_at" json:"assigned_at"`
}

// ListRefereeAssignments returns the referee's non-declined bindings on
// matches that have not yet completed, soonest first.
func (r *DelegationRepository) ListRefereeAssignments(ctx context.Context, refereeID string) ([]RefereeAssignment, error) {
	const query = `
SELECT d.match_id, m.scheduled_at, m.status AS match_status, b.slot, b.response, d.status AS delegation_status,
       ht.name AS home_team_name, at.name AS away_team_name, v.name AS venue_name, b.assigned_at
FROM delegation_slots b
JOIN delegations d ON d.id = b.delegation_id
JOIN matches m ON m.id = d.match_id
JOIN teams ht ON ht.id = m.home_team_id
JOIN teams at ON at.id = m.away_team_id
JOIN venues v ON v.id = m.venue_id
WHERE b.referee_id = $1
  AND b.response <> $2
  AND m.status NOT IN ($3, $4)
ORDER BY m.scheduled_at ASC`
	var assignments []RefereeAssignment
	if err := r.db.SelectContext(ctx, &assignments, query,
		refereeID, models.ResponseDeclined, models.MatchCompleted, models.MatchCancelled); err != nil {
		return nil, fmt.Errorf("list referee assignments: %w", err)
	}
	return assignments, nil
}

// RefereeEngagement links a referee to another match on the same date.
type RefereeEngagement struct {
	RefereeID string `db:"referee_id"`
	MatchID   string `db:"match_id"`
}

// ListEngagementsOn returns non-declined slot bindings on matches
// scheduled for the given date, excluding one match.
func (r *DelegationRepository) ListEngagementsOn(ctx context.Context, date time.Time, excludeMatchID string) ([]RefereeEngagement, error) {
	const query = `
SELECT b.referee_id, d.match_id
FROM delegation_slots b
JOIN delegations d ON d.id = b.delegation_id
JOIN matches m ON m.id = d.match_id
WHERE b.response <> $1
  AND m.scheduled_at::date = $2::date
  AND d.match_id <> $3
  AND m.status NOT IN ($4, $5)`
	var engagements []RefereeEngagement
	if err := r.db.SelectContext(ctx, &engagements, query,
		models.ResponseDeclined, date, excludeMatchID, models.MatchCancelled, models.MatchPostponed); err != nil {
		return nil, fmt.Errorf("list referee engagements: %w", err)
	}
	return engagements, nil
}

// CountOpenSlots totals unfilled required slots across editable
// upcoming matches, for the dashboard.
func (r *DelegationRepository) CountOpenSlots(ctx context.Context, from time.Time) (int, error) {
	const query = `
SELECT COALESCE(SUM($1 - filled.cnt), 0) FROM (
  SELECT COUNT(*) FILTER (WHERE b.response <> $2 AND b.slot <> $3) AS cnt
  FROM matches m
  LEFT JOIN delegations d ON d.match_id = m.id
  LEFT JOIN delegation_slots b ON b.delegation_id = d.id
  WHERE m.scheduled_at >= $4 AND m.status = $5
  GROUP BY m.id
) filled`
	var open int
	if err := r.db.GetContext(ctx, &open, query,
		len(models.RequiredSlots), models.ResponseDeclined, models.SlotDelegate, from, models.MatchScheduled); err != nil {
		return 0, fmt.Errorf("count open slots: %w", err)
	}
	return open, nil
}

// CountResponses returns how many active bindings sit in the given
// response state.
func (r *DelegationRepository) CountResponses(ctx context.Context, status models.ResponseStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM delegation_slots WHERE response = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, status); err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return count, nil
}

// CountByStatus returns how many delegations sit in the given state.
func (r *DelegationRepository) CountByStatus(ctx context.Context, status models.DelegationStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM delegations WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, status); err != nil {
		return 0, fmt.Errorf("count delegations by status: %w", err)
	}
	return count, nil
}

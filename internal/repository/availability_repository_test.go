package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/refdesk/refdesk-api/internal/models"
)

func newAvailabilityRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAvailabilityRepositoryGetNoRows(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	date := time.Date(2026, 9, 12, 19, 30, 0, 0, time.UTC)

	// the day key must be coerced server-side even when the caller hands
	// over a full timestamp
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE referee_id = $1 AND date = $2::date`)).
		WithArgs("ref-1", date).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ref-1", date)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryUpsertAssignsID(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	reason := "travel"
	rec := &models.AvailabilityRecord{
		RefereeID: "ref-1",
		Date:      time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		Available: false,
		Reason:    &reason,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO availability_records")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), rec))
	require.NotEmpty(t, rec.ID)
	require.False(t, rec.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryUpsertRangeIsTransactional(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	dates := []time.Time{
		time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO availability_records")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO availability_records")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpsertRange(context.Background(), "ref-1", dates, true, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryMapByDate(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	reason := "injury"

	rows := sqlmock.NewRows([]string{"id", "referee_id", "date", "available", "reason", "created_at", "updated_at"}).
		AddRow("av-1", "ref-1", date, false, &reason, now, now).
		AddRow("av-2", "ref-2", date, true, nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE date = $1::date`)).
		WithArgs(date).
		WillReturnRows(rows)

	byReferee, err := repo.MapByDate(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, byReferee, 2)
	require.False(t, byReferee["ref-1"].Available)
	require.NotNil(t, byReferee["ref-1"].Reason)
	require.True(t, byReferee["ref-2"].Available)
	require.NoError(t, mock.ExpectationsWereMet())
}

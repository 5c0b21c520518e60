package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refdesk/refdesk-api/internal/dto"
	"github.com/refdesk/refdesk-api/internal/models"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
)

type mockAvailabilityRepo struct {
	records map[string]models.AvailabilityRecord // refereeID|date -> record
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{records: make(map[string]models.AvailabilityRecord)}
}

func availKey(refereeID string, date time.Time) string {
	return refereeID + "|" + date.Format(models.AvailabilityDateLayout)
}

func (m *mockAvailabilityRepo) Get(_ context.Context, refereeID string, date time.Time) (*models.AvailabilityRecord, error) {
	rec, ok := m.records[availKey(refereeID, date)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &rec, nil
}

func (m *mockAvailabilityRepo) Upsert(_ context.Context, rec *models.AvailabilityRecord) error {
	m.records[availKey(rec.RefereeID, rec.Date)] = *rec
	return nil
}

func (m *mockAvailabilityRepo) UpsertRange(_ context.Context, refereeID string, dates []time.Time, available bool, reason *string) error {
	for _, d := range dates {
		m.records[availKey(refereeID, d)] = models.AvailabilityRecord{
			RefereeID: refereeID,
			Date:      d,
			Available: available,
			Reason:    reason,
		}
	}
	return nil
}

func (m *mockAvailabilityRepo) ListRange(_ context.Context, refereeID string, from, to time.Time) ([]models.AvailabilityRecord, error) {
	var result []models.AvailabilityRecord
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if rec, ok := m.records[availKey(refereeID, d)]; ok {
			result = append(result, rec)
		}
	}
	return result, nil
}

func newAvailabilityFixture() (*AvailabilityService, *mockAvailabilityRepo) {
	repo := newMockAvailabilityRepo()
	referees := &mockRefereeFinder{referees: map[string]*models.Referee{
		"ref-1": {ID: "ref-1", FullName: "Ana Kovac", Status: models.RefereeActive},
	}}
	return NewAvailabilityService(repo, referees, nil, nil, nil, nil), repo
}

func TestSetUnavailableStoresReason(t *testing.T) {
	svc, repo := newAvailabilityFixture()

	item, err := svc.Set(context.Background(), "ref-1", "user-1", dto.SetAvailabilityRequest{
		Date:      "2026-09-12",
		Available: false,
		Reason:    "family trip",
	})
	require.NoError(t, err)

	assert.False(t, item.Available)
	require.NotNil(t, item.Reason)
	assert.Equal(t, "family trip", *item.Reason)
	assert.Len(t, repo.records, 1)
}

func TestSetAvailableDropsReason(t *testing.T) {
	svc, _ := newAvailabilityFixture()
	ctx := context.Background()

	_, err := svc.Set(ctx, "ref-1", "user-1", dto.SetAvailabilityRequest{Date: "2026-09-12", Available: false, Reason: "exam"})
	require.NoError(t, err)

	// Re-declaring the day available must not carry the stale reason.
	item, err := svc.Set(ctx, "ref-1", "user-1", dto.SetAvailabilityRequest{Date: "2026-09-12", Available: true, Reason: "exam"})
	require.NoError(t, err)
	assert.True(t, item.Available)
	assert.Nil(t, item.Reason)
}

func TestSetRejectsMalformedDate(t *testing.T) {
	svc, _ := newAvailabilityFixture()

	_, err := svc.Set(context.Background(), "ref-1", "user-1", dto.SetAvailabilityRequest{Date: "12.09.2026", Available: true})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSetUnknownReferee(t *testing.T) {
	svc, _ := newAvailabilityFixture()

	_, err := svc.Set(context.Background(), "ghost", "user-1", dto.SetAvailabilityRequest{Date: "2026-09-12", Available: true})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSetRangeInclusive(t *testing.T) {
	svc, repo := newAvailabilityFixture()

	items, err := svc.SetRange(context.Background(), "ref-1", "user-1", dto.SetAvailabilityRangeRequest{
		StartDate: "2026-09-10",
		EndDate:   "2026-09-12",
		Available: false,
		Reason:    "tournament abroad",
	})
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "2026-09-10", items[0].Date)
	assert.Equal(t, "2026-09-12", items[2].Date)
	assert.Len(t, repo.records, 3)
}

func TestSetRangeSingleDay(t *testing.T) {
	svc, _ := newAvailabilityFixture()

	items, err := svc.SetRange(context.Background(), "ref-1", "user-1", dto.SetAvailabilityRangeRequest{
		StartDate: "2026-09-10",
		EndDate:   "2026-09-10",
		Available: true,
	})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSetRangeEndBeforeStart(t *testing.T) {
	svc, _ := newAvailabilityFixture()

	_, err := svc.SetRange(context.Background(), "ref-1", "user-1", dto.SetAvailabilityRangeRequest{
		StartDate: "2026-09-12",
		EndDate:   "2026-09-10",
		Available: true,
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidRange))
}

func TestSetRangeTooLong(t *testing.T) {
	svc, _ := newAvailabilityFixture()

	_, err := svc.SetRange(context.Background(), "ref-1", "user-1", dto.SetAvailabilityRangeRequest{
		StartDate: "2026-01-01",
		EndDate:   "2027-06-01",
		Available: false,
		Reason:    "sabbatical",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidRange))
}

func TestListOmitsUndeclaredDays(t *testing.T) {
	svc, _ := newAvailabilityFixture()
	ctx := context.Background()

	_, err := svc.Set(ctx, "ref-1", "user-1", dto.SetAvailabilityRequest{Date: "2026-09-11", Available: false, Reason: "travel"})
	require.NoError(t, err)

	items, err := svc.List(ctx, "ref-1", "2026-09-10", "2026-09-14")
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "2026-09-11", items[0].Date)
	assert.False(t, items[0].Available)
}

func TestListInvertedRange(t *testing.T) {
	svc, _ := newAvailabilityFixture()

	_, err := svc.List(context.Background(), "ref-1", "2026-09-14", "2026-09-10")
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidRange))
}

func TestIsAvailableDefaultsToTrue(t *testing.T) {
	svc, _ := newAvailabilityFixture()

	available, reason, err := svc.IsAvailable(context.Background(), "ref-1", time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, available)
	assert.Nil(t, reason)
}

func TestIsAvailableReturnsStoredRecord(t *testing.T) {
	svc, _ := newAvailabilityFixture()
	ctx := context.Background()

	_, err := svc.Set(ctx, "ref-1", "user-1", dto.SetAvailabilityRequest{Date: "2026-09-12", Available: false, Reason: "injury"})
	require.NoError(t, err)

	available, reason, err := svc.IsAvailable(ctx, "ref-1", time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, available)
	require.NotNil(t, reason)
	assert.Equal(t, "injury", *reason)
}

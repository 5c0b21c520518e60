package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refdesk/refdesk-api/internal/models"
	"github.com/refdesk/refdesk-api/internal/repository"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
)

type mockRosterRefereeRepo struct {
	referees []models.Referee
}

func (m *mockRosterRefereeRepo) ListActive(_ context.Context) ([]models.Referee, error) {
	return m.referees, nil
}

type mockRosterMatchRepo struct {
	matches map[string]*models.Match
}

func (m *mockRosterMatchRepo) FindByID(_ context.Context, id string) (*models.Match, error) {
	match, ok := m.matches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return match, nil
}

type mockAvailabilityMap struct {
	byReferee map[string]models.AvailabilityRecord
}

func (m *mockAvailabilityMap) MapByDate(_ context.Context, _ time.Time) (map[string]models.AvailabilityRecord, error) {
	return m.byReferee, nil
}

type mockEngagementRepo struct {
	engagements []repository.RefereeEngagement
}

func (m *mockEngagementRepo) ListEngagementsOn(_ context.Context, _ time.Time, excludeMatchID string) ([]repository.RefereeEngagement, error) {
	var result []repository.RefereeEngagement
	for _, e := range m.engagements {
		if e.MatchID != excludeMatchID {
			result = append(result, e)
		}
	}
	return result, nil
}

type memoryCache struct {
	entries map[string][]byte
	hits    int
	writes  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	m.hits++
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.writes++
	return nil
}

func newRosterFixture(cache rosterCache) *RosterService {
	referees := &mockRosterRefereeRepo{referees: []models.Referee{
		{ID: "ref-b", FullName: "Boris Juric", License: models.LicenseB, City: "Split"},
		{ID: "ref-a", FullName: "Ana Kovac", License: models.LicenseInternational, City: "Zagreb"},
		{ID: "ref-c", FullName: "Carla Peric", License: models.LicenseInternational, City: "Rijeka"},
		{ID: "ref-d", FullName: "Dino Maric", License: models.LicenseRegional, City: "Osijek"},
	}}
	matches := &mockRosterMatchRepo{matches: map[string]*models.Match{
		"match-1": {ID: "match-1", Status: models.MatchScheduled, ScheduledAt: time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)},
	}}
	reason := "out of town"
	availability := &mockAvailabilityMap{byReferee: map[string]models.AvailabilityRecord{
		"ref-b": {RefereeID: "ref-b", Available: false, Reason: &reason},
		"ref-c": {RefereeID: "ref-c", Available: true},
	}}
	engagements := &mockEngagementRepo{engagements: []repository.RefereeEngagement{
		{RefereeID: "ref-d", MatchID: "match-2"},
		{RefereeID: "ref-d", MatchID: "match-3"},
		{RefereeID: "ref-a", MatchID: "match-1"}, // same match, excluded
	}}
	return NewRosterService(referees, matches, availability, engagements, cache, time.Minute, nil)
}

func TestListCandidatesOrdering(t *testing.T) {
	svc := newRosterFixture(nil)

	items, err := svc.ListCandidates(context.Background(), "match-1")
	require.NoError(t, err)
	require.Len(t, items, 4)

	// International licenses first, ties broken by name, regional last.
	assert.Equal(t, "ref-a", items[0].RefereeID)
	assert.Equal(t, "ref-c", items[1].RefereeID)
	assert.Equal(t, "ref-b", items[2].RefereeID)
	assert.Equal(t, "ref-d", items[3].RefereeID)
}

func TestListCandidatesAnnotatesWithoutFiltering(t *testing.T) {
	svc := newRosterFixture(nil)

	items, err := svc.ListCandidates(context.Background(), "match-1")
	require.NoError(t, err)

	byID := make(map[string]int, len(items))
	for i, item := range items {
		byID[item.RefereeID] = i
	}

	unavailable := items[byID["ref-b"]]
	assert.False(t, unavailable.Available)
	require.NotNil(t, unavailable.UnavailableReason)
	assert.Equal(t, "out of town", *unavailable.UnavailableReason)

	// A record declaring the day available changes nothing.
	assert.True(t, items[byID["ref-c"]].Available)

	// No record at all also means available.
	assert.True(t, items[byID["ref-a"]].Available)

	engaged := items[byID["ref-d"]]
	assert.ElementsMatch(t, []string{"match-2", "match-3"}, engaged.EngagedMatchIDs)

	// The candidate match itself never counts as an engagement.
	assert.Empty(t, items[byID["ref-a"]].EngagedMatchIDs)
}

func TestListCandidatesUnknownMatch(t *testing.T) {
	svc := newRosterFixture(nil)

	_, err := svc.ListCandidates(context.Background(), "match-missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestListCandidatesCaching(t *testing.T) {
	cache := newMemoryCache()
	svc := newRosterFixture(cache)
	ctx := context.Background()

	first, err := svc.ListCandidates(ctx, "match-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.writes)
	assert.Equal(t, 0, cache.hits)

	second, err := svc.ListCandidates(ctx, "match-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 1, cache.writes)
	assert.Equal(t, len(first), len(second))
	assert.Equal(t, first[0].RefereeID, second[0].RefereeID)
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refdesk/refdesk-api/internal/dto"
	"github.com/refdesk/refdesk-api/internal/models"
	"github.com/refdesk/refdesk-api/internal/repository"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
)

type mockDelegationRepo struct {
	delegations map[string]*models.Delegation
	bindings    map[string][]models.SlotBinding
	referees    map[string]*models.Referee
	nextID      int
	forceStale  bool
}

func newMockDelegationRepo() *mockDelegationRepo {
	return &mockDelegationRepo{
		delegations: make(map[string]*models.Delegation),
		bindings:    make(map[string][]models.SlotBinding),
		referees:    make(map[string]*models.Referee),
	}
}

func (m *mockDelegationRepo) GetByMatch(_ context.Context, matchID string) (*models.Delegation, error) {
	for _, d := range m.delegations {
		if d.MatchID == matchID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockDelegationRepo) GetOrCreateByMatch(ctx context.Context, matchID string) (*models.Delegation, error) {
	if d, err := m.GetByMatch(ctx, matchID); err == nil {
		return d, nil
	}
	m.nextID++
	d := &models.Delegation{
		ID:      "del-" + matchID,
		MatchID: matchID,
		Status:  models.DelegationEmpty,
		Version: 1,
	}
	m.delegations[d.ID] = d
	return d, nil
}

func (m *mockDelegationRepo) ListBindings(_ context.Context, delegationID string) ([]models.SlotBinding, error) {
	return append([]models.SlotBinding(nil), m.bindings[delegationID]...), nil
}

func (m *mockDelegationRepo) ListBindingDetails(_ context.Context, delegationID string) ([]models.SlotBindingDetail, error) {
	details := make([]models.SlotBindingDetail, 0, len(m.bindings[delegationID]))
	for _, b := range m.bindings[delegationID] {
		detail := models.SlotBindingDetail{SlotBinding: b}
		if ref, ok := m.referees[b.RefereeID]; ok {
			detail.RefereeName = ref.FullName
			detail.RefereeLicense = ref.License
			detail.RefereeCity = ref.City
		}
		details = append(details, detail)
	}
	return details, nil
}

func (m *mockDelegationRepo) bump(delegation *models.Delegation, newStatus models.DelegationStatus) error {
	if m.forceStale {
		return repository.ErrVersionConflict
	}
	stored := m.delegations[delegation.ID]
	stored.Status = newStatus
	stored.Version++
	stored.UpdatedAt = time.Now().UTC()
	delegation.Status = newStatus
	delegation.Version = stored.Version
	delegation.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *mockDelegationRepo) SaveSlot(_ context.Context, delegation *models.Delegation, binding *models.SlotBinding, newStatus models.DelegationStatus) error {
	if err := m.bump(delegation, newStatus); err != nil {
		return err
	}
	binding.ID = "bind-" + string(binding.Slot)
	kept := m.bindings[delegation.ID][:0]
	for _, b := range m.bindings[delegation.ID] {
		if b.Slot != binding.Slot {
			kept = append(kept, b)
		}
	}
	m.bindings[delegation.ID] = append(kept, *binding)
	return nil
}

func (m *mockDelegationRepo) ClearSlot(_ context.Context, delegation *models.Delegation, slot models.Slot, newStatus models.DelegationStatus) error {
	if err := m.bump(delegation, newStatus); err != nil {
		return err
	}
	kept := m.bindings[delegation.ID][:0]
	for _, b := range m.bindings[delegation.ID] {
		if b.Slot != slot {
			kept = append(kept, b)
		}
	}
	m.bindings[delegation.ID] = kept
	return nil
}

func (m *mockDelegationRepo) SaveResponse(_ context.Context, delegation *models.Delegation, binding *models.SlotBinding, newStatus models.DelegationStatus) error {
	if err := m.bump(delegation, newStatus); err != nil {
		return err
	}
	for i := range m.bindings[delegation.ID] {
		if m.bindings[delegation.ID][i].Slot == binding.Slot {
			m.bindings[delegation.ID][i] = *binding
		}
	}
	return nil
}

func (m *mockDelegationRepo) UpdateStatus(_ context.Context, delegation *models.Delegation, newStatus models.DelegationStatus) error {
	return m.bump(delegation, newStatus)
}

func (m *mockDelegationRepo) UpdateNotes(_ context.Context, delegation *models.Delegation, notes *string) error {
	if err := m.bump(delegation, delegation.Status); err != nil {
		return err
	}
	m.delegations[delegation.ID].Notes = notes
	delegation.Notes = notes
	return nil
}

func (m *mockDelegationRepo) ListRefereeAssignments(_ context.Context, refereeID string) ([]repository.RefereeAssignment, error) {
	var result []repository.RefereeAssignment
	for delegationID, bindings := range m.bindings {
		for _, b := range bindings {
			if b.RefereeID == refereeID && b.Response != models.ResponseDeclined {
				result = append(result, repository.RefereeAssignment{
					MatchID:  m.delegations[delegationID].MatchID,
					Slot:     b.Slot,
					Response: b.Response,
				})
			}
		}
	}
	return result, nil
}

type mockMatchRepo struct {
	matches map[string]*models.MatchDetail
}

func (m *mockMatchRepo) FindDetailByID(_ context.Context, id string) (*models.MatchDetail, error) {
	match, ok := m.matches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *match
	return &copied, nil
}

type mockRefereeFinder struct {
	referees map[string]*models.Referee
}

func (m *mockRefereeFinder) FindByID(_ context.Context, id string) (*models.Referee, error) {
	ref, ok := m.referees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return ref, nil
}

type mockAvailability struct {
	unavailable map[string]string // refereeID -> reason
}

func (m *mockAvailability) IsAvailable(_ context.Context, refereeID string, _ time.Time) (bool, *string, error) {
	if reason, ok := m.unavailable[refereeID]; ok {
		return false, &reason, nil
	}
	return true, nil, nil
}

type notifierEvent struct {
	kind      string
	refereeID string
	slot      models.Slot
}

type mockNotifier struct {
	events []notifierEvent
}

func (m *mockNotifier) AssignmentOffered(_ context.Context, refereeID string, _ *models.MatchDetail, slot models.Slot) {
	m.events = append(m.events, notifierEvent{"offered", refereeID, slot})
}

func (m *mockNotifier) AssignmentWithdrawn(_ context.Context, refereeID string, _ *models.MatchDetail, slot models.Slot) {
	m.events = append(m.events, notifierEvent{"withdrawn", refereeID, slot})
}

func (m *mockNotifier) AssignmentDeclined(_ context.Context, refereeID string, _ *models.MatchDetail, slot models.Slot, _ models.DeclineReason) {
	m.events = append(m.events, notifierEvent{"declined", refereeID, slot})
}

func (m *mockNotifier) DelegationConfirmed(_ context.Context, refereeIDs []string, _ *models.MatchDetail) {
	for _, id := range refereeIDs {
		m.events = append(m.events, notifierEvent{kind: "confirmed", refereeID: id})
	}
}

type engineFixture struct {
	service  *DelegationService
	repo     *mockDelegationRepo
	matches  *mockMatchRepo
	notifier *mockNotifier
	avail    *mockAvailability
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	repo := newMockDelegationRepo()
	referees := map[string]*models.Referee{
		"ref-1": {ID: "ref-1", FullName: "Ana Kovac", License: models.LicenseInternational, City: "Zagreb", Status: models.RefereeActive},
		"ref-2": {ID: "ref-2", FullName: "Marko Horvat", License: models.LicenseA, City: "Split", Status: models.RefereeActive},
		"ref-3": {ID: "ref-3", FullName: "Iva Novak", License: models.LicenseB, City: "Rijeka", Status: models.RefereeActive},
		"ref-4": {ID: "ref-4", FullName: "Petar Babic", License: models.LicenseRegional, City: "Osijek", Status: models.RefereeActive},
		"ref-x": {ID: "ref-x", FullName: "Retired Official", License: models.LicenseRegional, City: "Zadar", Status: models.RefereeInactive},
	}
	repo.referees = referees

	matches := &mockMatchRepo{matches: map[string]*models.MatchDetail{
		"match-1": {
			Match: models.Match{
				ID:          "match-1",
				Status:      models.MatchScheduled,
				ScheduledAt: time.Now().UTC().Add(72 * time.Hour),
			},
			HomeTeamName: "Lions",
			AwayTeamName: "Bears",
			VenueName:    "Arena One",
		},
		"match-done": {
			Match: models.Match{
				ID:          "match-done",
				Status:      models.MatchCompleted,
				ScheduledAt: time.Now().UTC().Add(-24 * time.Hour),
			},
		},
	}}

	notifier := &mockNotifier{}
	avail := &mockAvailability{unavailable: map[string]string{}}

	svc := NewDelegationService(
		repo,
		matches,
		&mockRefereeFinder{referees: referees},
		avail,
		nil,
		notifier,
		nil,
		nil,
		nil,
		DelegationConfig{AllowUnavailableOverride: true},
	)

	return &engineFixture{service: svc, repo: repo, matches: matches, notifier: notifier, avail: avail}
}

func staff() Actor {
	return Actor{UserID: "user-admin", Role: models.RoleAdmin}
}

func refereeActor(refereeID string) Actor {
	return Actor{UserID: "user-" + refereeID, RefereeID: refereeID, Role: models.RoleReferee}
}

func slotView(t *testing.T, view *dto.DelegationView, slot models.Slot) dto.SlotView {
	t.Helper()
	for _, s := range view.Slots {
		if s.Slot == slot {
			return s
		}
	}
	t.Fatalf("slot %s missing from view", slot)
	return dto.SlotView{}
}

func TestGetWithoutDelegationRendersEmptyAggregate(t *testing.T) {
	f := newEngineFixture(t)

	view, err := f.service.Get(context.Background(), "match-1")
	require.NoError(t, err)

	assert.Equal(t, models.DelegationEmpty, view.Status)
	assert.Equal(t, 0, view.Version)
	assert.Len(t, view.Slots, 4)
	for _, s := range view.Slots {
		assert.Empty(t, s.RefereeID)
	}
	// Reading must not create rows.
	assert.Empty(t, f.repo.delegations)
}

func TestGetUnknownMatch(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.service.Get(context.Background(), "match-missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAssignHappyPath(t *testing.T) {
	f := newEngineFixture(t)

	view, err := f.service.Assign(context.Background(), "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)

	main := slotView(t, view, models.SlotMain)
	assert.Equal(t, "ref-1", main.RefereeID)
	assert.Equal(t, models.ResponsePending, main.Response)
	assert.Equal(t, models.DelegationPartiallyAssigned, view.Status)
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, notifierEvent{"offered", "ref-1", models.SlotMain}, f.notifier.events[0])
}

func TestAssignChecksMatchEditableFirst(t *testing.T) {
	f := newEngineFixture(t)

	// Even with an invalid slot and unknown referee the editability
	// failure wins.
	_, err := f.service.Assign(context.Background(), "match-done", "bogus", staff(), dto.AssignSlotRequest{RefereeID: "nobody"})
	assert.True(t, appErrors.Is(err, appErrors.ErrMatchNotEditable))
}

func TestAssignInvalidSlot(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.service.Assign(context.Background(), "match-1", "fourth-official", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidSlot))
}

func TestAssignSlotAliases(t *testing.T) {
	f := newEngineFixture(t)

	view, err := f.service.Assign(context.Background(), "match-1", "assistant-1", staff(), dto.AssignSlotRequest{RefereeID: "ref-2"})
	require.NoError(t, err)
	assert.Equal(t, "ref-2", slotView(t, view, models.SlotAssistant1).RefereeID)
}

func TestAssignUnknownReferee(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.service.Assign(context.Background(), "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ghost"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAssignInactiveReferee(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.service.Assign(context.Background(), "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-x"})
	assert.True(t, appErrors.Is(err, appErrors.ErrRefereeInactive))
}

func TestAssignUnavailableRefereeIsSoftFailure(t *testing.T) {
	f := newEngineFixture(t)
	f.avail.unavailable["ref-1"] = "family event"

	_, err := f.service.Assign(context.Background(), "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.True(t, appErrors.Is(err, appErrors.ErrRefereeUnavailable))

	appErr := appErrors.FromError(err)
	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "family event", details["reason"])
}

func TestAssignUnavailableRefereeWithOverride(t *testing.T) {
	f := newEngineFixture(t)
	f.avail.unavailable["ref-1"] = "family event"

	view, err := f.service.Assign(context.Background(), "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1", Override: true})
	require.NoError(t, err)
	assert.True(t, slotView(t, view, models.SlotMain).Overridden)
}

func TestAssignOverrideDisabledByConfig(t *testing.T) {
	f := newEngineFixture(t)
	f.service.config.AllowUnavailableOverride = false
	f.avail.unavailable["ref-1"] = "travel"

	_, err := f.service.Assign(context.Background(), "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1", Override: true})
	assert.True(t, appErrors.Is(err, appErrors.ErrRefereeUnavailable))
}

func TestAssignDuplicateReferee(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)

	_, err = f.service.Assign(ctx, "match-1", "assistant-1", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.True(t, appErrors.Is(err, appErrors.ErrDuplicateAssignment))

	details := appErrors.FromError(err).Details.(map[string]interface{})
	assert.Equal(t, models.SlotMain, details["occupiedSlot"])

	// A different referee fits.
	view, err := f.service.Assign(ctx, "match-1", "assistant-1", staff(), dto.AssignSlotRequest{RefereeID: "ref-2"})
	require.NoError(t, err)
	assert.Equal(t, "ref-2", slotView(t, view, models.SlotAssistant1).RefereeID)
}

func TestAssignIdempotentRepeat(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	first, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)

	repeat, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)

	assert.Equal(t, first.Version, repeat.Version)
	// No second offer notification.
	assert.Len(t, f.notifier.events, 1)
}

func TestAssignReplacementNotifiesBothReferees(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)

	view, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-2"})
	require.NoError(t, err)

	assert.Equal(t, "ref-2", slotView(t, view, models.SlotMain).RefereeID)
	require.Len(t, f.notifier.events, 3)
	assert.Equal(t, notifierEvent{"withdrawn", "ref-1", models.SlotMain}, f.notifier.events[1])
	assert.Equal(t, notifierEvent{"offered", "ref-2", models.SlotMain}, f.notifier.events[2])
}

func TestAssignStaleVersion(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)

	_, err = f.service.Assign(ctx, "match-1", "assistant-1", staff(), dto.AssignSlotRequest{RefereeID: "ref-2", ExpectedVersion: 1})
	require.True(t, appErrors.Is(err, appErrors.ErrStaleAssignment))

	details := appErrors.FromError(err).Details.(map[string]interface{})
	assert.Equal(t, 1, details["expectedVersion"])
	assert.Equal(t, 2, details["currentVersion"])
}

func TestAssignConcurrentWriteMapsToStale(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.repo.forceStale = true

	_, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	assert.True(t, appErrors.Is(err, appErrors.ErrStaleAssignment))
}

func TestRemoveEmptySlotIsNoop(t *testing.T) {
	f := newEngineFixture(t)

	view, err := f.service.Remove(context.Background(), "match-1", "delegate", staff(), dto.RemoveSlotRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.DelegationEmpty, view.Status)
	assert.Empty(t, f.notifier.events)
}

func TestRemoveOccupiedSlotNotifies(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)

	view, err := f.service.Remove(ctx, "match-1", "main", staff(), dto.RemoveSlotRequest{})
	require.NoError(t, err)

	assert.Empty(t, slotView(t, view, models.SlotMain).RefereeID)
	assert.Equal(t, models.DelegationEmpty, view.Status)
	assert.Equal(t, notifierEvent{"withdrawn", "ref-1", models.SlotMain}, f.notifier.events[len(f.notifier.events)-1])
}

func fullyAssign(t *testing.T, f *engineFixture) {
	t.Helper()
	ctx := context.Background()
	for slot, ref := range map[string]string{"main": "ref-1", "assistant-1": "ref-2", "assistant-2": "ref-3"} {
		_, err := f.service.Assign(ctx, "match-1", slot, staff(), dto.AssignSlotRequest{RefereeID: ref})
		require.NoError(t, err)
	}
}

func acceptAll(t *testing.T, f *engineFixture) {
	t.Helper()
	ctx := context.Background()
	for slot, ref := range map[string]string{"main": "ref-1", "assistant-1": "ref-2", "assistant-2": "ref-3"} {
		_, err := f.service.Respond(ctx, "match-1", slot, refereeActor(ref), dto.RespondRequest{Action: "accept"})
		require.NoError(t, err)
	}
}

func TestFullDelegationLifecycle(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	fullyAssign(t, f)

	view, err := f.service.Get(ctx, "match-1")
	require.NoError(t, err)
	assert.Equal(t, models.DelegationFullyAssigned, view.Status)

	acceptAll(t, f)

	view, err = f.service.ConfirmAll(ctx, "match-1", staff(), dto.ConfirmDelegationRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.DelegationConfirmed, view.Status)
}

func TestConfirmIncompleteListsEveryUnmetSlot(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)
	_, err = f.service.Respond(ctx, "match-1", "main", refereeActor("ref-1"), dto.RespondRequest{Action: "accept"})
	require.NoError(t, err)

	_, err = f.service.ConfirmAll(ctx, "match-1", staff(), dto.ConfirmDelegationRequest{})
	require.True(t, appErrors.Is(err, appErrors.ErrIncompleteDelegation))

	unmet := appErrors.FromError(err).Details.([]dto.IncompleteSlotDetail)
	require.Len(t, unmet, 2)
	slots := []models.Slot{unmet[0].Slot, unmet[1].Slot}
	assert.Contains(t, slots, models.SlotAssistant1)
	assert.Contains(t, slots, models.SlotAssistant2)
}

func TestConfirmPendingResponseBlocksConfirmation(t *testing.T) {
	f := newEngineFixture(t)
	fullyAssign(t, f)

	_, err := f.service.ConfirmAll(context.Background(), "match-1", staff(), dto.ConfirmDelegationRequest{})
	require.True(t, appErrors.Is(err, appErrors.ErrIncompleteDelegation))

	unmet := appErrors.FromError(err).Details.([]dto.IncompleteSlotDetail)
	assert.Len(t, unmet, 3)
	for _, u := range unmet {
		assert.Equal(t, models.ResponsePending, u.Response)
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	fullyAssign(t, f)
	acceptAll(t, f)

	first, err := f.service.ConfirmAll(ctx, "match-1", staff(), dto.ConfirmDelegationRequest{})
	require.NoError(t, err)

	again, err := f.service.ConfirmAll(ctx, "match-1", staff(), dto.ConfirmDelegationRequest{})
	require.NoError(t, err)
	assert.Equal(t, first.Version, again.Version)
}

func TestRespondAccept(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)

	view, err := f.service.Respond(ctx, "match-1", "main", refereeActor("ref-1"), dto.RespondRequest{Action: "accept"})
	require.NoError(t, err)

	main := slotView(t, view, models.SlotMain)
	assert.Equal(t, models.ResponseAccepted, main.Response)
	assert.NotNil(t, main.RespondedAt)
}

func TestRespondDeclineFreesSlot(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)

	view, err := f.service.Respond(ctx, "match-1", "main", refereeActor("ref-1"), dto.RespondRequest{Action: "decline", Reason: models.DeclineTravel})
	require.NoError(t, err)

	// The declined binding stays on record but the slot is logically free.
	main := slotView(t, view, models.SlotMain)
	assert.Equal(t, models.ResponseDeclined, main.Response)
	assert.Equal(t, models.DelegationEmpty, view.Status)
	assert.Equal(t, notifierEvent{"declined", "ref-1", models.SlotMain}, f.notifier.events[len(f.notifier.events)-1])

	// The slot accepts a replacement.
	view, err = f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-2"})
	require.NoError(t, err)
	assert.Equal(t, "ref-2", slotView(t, view, models.SlotMain).RefereeID)
}

func TestRespondDeclineRequiresRecognizedReason(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)

	_, err = f.service.Respond(ctx, "match-1", "main", refereeActor("ref-1"), dto.RespondRequest{Action: "decline", Reason: "DONT_FEEL_LIKE_IT"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestRespondTwiceIsFinalized(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)
	_, err = f.service.Respond(ctx, "match-1", "main", refereeActor("ref-1"), dto.RespondRequest{Action: "accept"})
	require.NoError(t, err)

	_, err = f.service.Respond(ctx, "match-1", "main", refereeActor("ref-1"), dto.RespondRequest{Action: "decline", Reason: models.DeclineHealth})
	assert.True(t, appErrors.Is(err, appErrors.ErrResponseFinalized))
}

func TestRespondAfterReassignmentIsStale(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)
	view, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-2"})
	require.NoError(t, err)

	// ref-1 still holds the offer from before the admin swapped the
	// slot: the response must come back as a stale read, not a denial.
	_, err = f.service.Respond(ctx, "match-1", "main", refereeActor("ref-1"), dto.RespondRequest{Action: "accept"})
	require.True(t, appErrors.Is(err, appErrors.ErrStaleAssignment))

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, view.Version, appErr.Details.(map[string]interface{})["currentVersion"])
}

func TestRespondAfterRemovalIsStale(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)
	_, err = f.service.Remove(ctx, "match-1", "main", staff(), dto.RemoveSlotRequest{})
	require.NoError(t, err)

	_, err = f.service.Respond(ctx, "match-1", "main", refereeActor("ref-1"), dto.RespondRequest{Action: "accept"})
	assert.True(t, appErrors.Is(err, appErrors.ErrStaleAssignment))
}

func TestDeclineAfterConfirmationRegressesStatus(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	fullyAssign(t, f)
	// ref-2 declines before accepting: the aggregate regresses while
	// everyone else keeps their response.
	_, err := f.service.Respond(ctx, "match-1", "main", refereeActor("ref-1"), dto.RespondRequest{Action: "accept"})
	require.NoError(t, err)
	_, err = f.service.Respond(ctx, "match-1", "assistant-2", refereeActor("ref-3"), dto.RespondRequest{Action: "accept"})
	require.NoError(t, err)

	view, err := f.service.Respond(ctx, "match-1", "assistant-1", refereeActor("ref-2"), dto.RespondRequest{Action: "decline", Reason: models.DeclineScheduleConflict})
	require.NoError(t, err)

	assert.Equal(t, models.DelegationPartiallyAssigned, view.Status)
	assert.Equal(t, models.ResponseAccepted, slotView(t, view, models.SlotMain).Response)
}

func TestSetNotes(t *testing.T) {
	f := newEngineFixture(t)
	notes := "derby game, senior crew required"

	view, err := f.service.SetNotes(context.Background(), "match-1", staff(), &notes)
	require.NoError(t, err)
	require.NotNil(t, view.Notes)
	assert.Equal(t, notes, *view.Notes)
}

func TestEditLockBeforeTipoff(t *testing.T) {
	f := newEngineFixture(t)
	f.service.config.EditLockBefore = 96 * time.Hour // match is 72h out

	_, err := f.service.Assign(context.Background(), "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	assert.True(t, appErrors.Is(err, appErrors.ErrMatchNotEditable))
}

func TestMyAssignmentsExcludesDeclines(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, "match-1", "main", staff(), dto.AssignSlotRequest{RefereeID: "ref-1"})
	require.NoError(t, err)
	_, err = f.service.Respond(ctx, "match-1", "main", refereeActor("ref-1"), dto.RespondRequest{Action: "decline", Reason: models.DeclinePersonal})
	require.NoError(t, err)

	assignments, err := f.service.MyAssignments(ctx, "ref-1")
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestOfficialsSheetRendersAllSlots(t *testing.T) {
	f := newEngineFixture(t)
	fullyAssign(t, f)

	sheet, err := f.service.OfficialsSheet(context.Background(), "match-1")
	require.NoError(t, err)

	assert.Equal(t, "Lions", sheet.HomeTeam)
	require.Len(t, sheet.Slots, 4)
	assert.Equal(t, "Ana Kovac", sheet.Slots[0].Referee)
	assert.Empty(t, sheet.Slots[3].Referee) // delegate slot unassigned
}

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refdesk/refdesk-api/internal/middleware"
	"github.com/refdesk/refdesk-api/internal/models"
	"github.com/refdesk/refdesk-api/internal/repository"
	"github.com/refdesk/refdesk-api/internal/service"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
)

type stubDelegationStore struct {
	delegation *models.Delegation
	bindings   []models.SlotBinding
	referees   map[string]*models.Referee
}

func (s *stubDelegationStore) GetByMatch(_ context.Context, matchID string) (*models.Delegation, error) {
	if s.delegation == nil || s.delegation.MatchID != matchID {
		return nil, sql.ErrNoRows
	}
	copied := *s.delegation
	return &copied, nil
}

func (s *stubDelegationStore) GetOrCreateByMatch(ctx context.Context, matchID string) (*models.Delegation, error) {
	if d, err := s.GetByMatch(ctx, matchID); err == nil {
		return d, nil
	}
	s.delegation = &models.Delegation{ID: "del-1", MatchID: matchID, Status: models.DelegationEmpty, Version: 1}
	copied := *s.delegation
	return &copied, nil
}

func (s *stubDelegationStore) ListBindings(_ context.Context, _ string) ([]models.SlotBinding, error) {
	return append([]models.SlotBinding(nil), s.bindings...), nil
}

func (s *stubDelegationStore) ListBindingDetails(_ context.Context, _ string) ([]models.SlotBindingDetail, error) {
	details := make([]models.SlotBindingDetail, 0, len(s.bindings))
	for _, b := range s.bindings {
		d := models.SlotBindingDetail{SlotBinding: b}
		if ref, ok := s.referees[b.RefereeID]; ok {
			d.RefereeName = ref.FullName
			d.RefereeLicense = ref.License
			d.RefereeCity = ref.City
		}
		details = append(details, d)
	}
	return details, nil
}

func (s *stubDelegationStore) SaveSlot(_ context.Context, delegation *models.Delegation, binding *models.SlotBinding, newStatus models.DelegationStatus) error {
	binding.ID = "bind-" + string(binding.Slot)
	kept := s.bindings[:0]
	for _, b := range s.bindings {
		if b.Slot != binding.Slot {
			kept = append(kept, b)
		}
	}
	s.bindings = append(kept, *binding)
	s.delegation.Version++
	s.delegation.Status = newStatus
	delegation.Version = s.delegation.Version
	delegation.Status = newStatus
	return nil
}

func (s *stubDelegationStore) ClearSlot(_ context.Context, delegation *models.Delegation, slot models.Slot, newStatus models.DelegationStatus) error {
	kept := s.bindings[:0]
	for _, b := range s.bindings {
		if b.Slot != slot {
			kept = append(kept, b)
		}
	}
	s.bindings = kept
	s.delegation.Version++
	s.delegation.Status = newStatus
	delegation.Version = s.delegation.Version
	delegation.Status = newStatus
	return nil
}

func (s *stubDelegationStore) SaveResponse(_ context.Context, delegation *models.Delegation, binding *models.SlotBinding, newStatus models.DelegationStatus) error {
	for i := range s.bindings {
		if s.bindings[i].Slot == binding.Slot {
			s.bindings[i] = *binding
		}
	}
	s.delegation.Version++
	s.delegation.Status = newStatus
	delegation.Version = s.delegation.Version
	delegation.Status = newStatus
	return nil
}

func (s *stubDelegationStore) UpdateStatus(_ context.Context, delegation *models.Delegation, newStatus models.DelegationStatus) error {
	s.delegation.Version++
	s.delegation.Status = newStatus
	delegation.Version = s.delegation.Version
	delegation.Status = newStatus
	return nil
}

func (s *stubDelegationStore) UpdateNotes(_ context.Context, delegation *models.Delegation, notes *string) error {
	s.delegation.Version++
	s.delegation.Notes = notes
	delegation.Version = s.delegation.Version
	delegation.Notes = notes
	return nil
}

func (s *stubDelegationStore) ListRefereeAssignments(_ context.Context, refereeID string) ([]repository.RefereeAssignment, error) {
	var result []repository.RefereeAssignment
	for _, b := range s.bindings {
		if b.RefereeID == refereeID && b.Response != models.ResponseDeclined {
			result = append(result, repository.RefereeAssignment{MatchID: s.delegation.MatchID, Slot: b.Slot, Response: b.Response})
		}
	}
	return result, nil
}

type stubMatchStore struct {
	matches map[string]*models.MatchDetail
}

func (s *stubMatchStore) FindDetailByID(_ context.Context, id string) (*models.MatchDetail, error) {
	match, ok := s.matches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return match, nil
}

type stubRefereeStore struct {
	referees map[string]*models.Referee
}

func (s *stubRefereeStore) FindByID(_ context.Context, id string) (*models.Referee, error) {
	ref, ok := s.referees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return ref, nil
}

type alwaysAvailable struct{}

func (alwaysAvailable) IsAvailable(_ context.Context, _ string, _ time.Time) (bool, *string, error) {
	return true, nil, nil
}

type neverAvailable struct{ reason string }

func (n neverAvailable) IsAvailable(_ context.Context, _ string, _ time.Time) (bool, *string, error) {
	return false, &n.reason, nil
}

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, claims)
		c.Next()
	}
}

func newDelegationRouter(t *testing.T, claims *models.JWTClaims) (*gin.Engine, *stubDelegationStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	referees := map[string]*models.Referee{
		"ref-1": {ID: "ref-1", FullName: "Ana Kovac", License: models.LicenseInternational, City: "Zagreb", Status: models.RefereeActive},
		"ref-2": {ID: "ref-2", FullName: "Marko Horvat", License: models.LicenseA, City: "Split", Status: models.RefereeActive},
	}
	store := &stubDelegationStore{referees: referees}
	matches := &stubMatchStore{matches: map[string]*models.MatchDetail{
		"match-1": {
			Match:        models.Match{ID: "match-1", Status: models.MatchScheduled, ScheduledAt: time.Now().UTC().Add(48 * time.Hour)},
			HomeTeamName: "Lions",
			AwayTeamName: "Bears",
		},
	}}

	svc := service.NewDelegationService(
		store,
		matches,
		&stubRefereeStore{referees: referees},
		alwaysAvailable{},
		nil,
		nil,
		nil,
		nil,
		nil,
		service.DelegationConfig{AllowUnavailableOverride: true},
	)
	h := NewDelegationHandler(svc, nil)

	router := gin.New()
	router.Use(withClaims(claims))
	matchGroup := router.Group("/matches/:id/delegation")
	matchGroup.GET("", h.Get)
	matchGroup.PUT("/slots/:slot", h.Assign)
	matchGroup.DELETE("/slots/:slot", h.Remove)
	matchGroup.POST("/slots/:slot/respond", h.Respond)
	matchGroup.POST("/confirm", h.Confirm)
	matchGroup.PUT("/notes", h.SetNotes)
	matchGroup.GET("/sheet", h.OfficialsSheet)
	router.GET("/me/assignments", h.MyAssignments)
	return router, store
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") != "" && rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "application/pdf" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-admin", Role: models.RoleAdmin}
}

func TestDelegationHandlerGetEmpty(t *testing.T) {
	router, _ := newDelegationRouter(t, adminClaims())

	rec, env := doJSON(t, router, http.MethodGet, "/matches/match-1/delegation", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		Status  models.DelegationStatus `json:"status"`
		Version int                     `json:"version"`
		Slots   []json.RawMessage       `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, models.DelegationEmpty, view.Status)
	assert.Equal(t, 0, view.Version)
	assert.Len(t, view.Slots, 4)
}

func TestDelegationHandlerGetUnknownMatch(t *testing.T) {
	router, _ := newDelegationRouter(t, adminClaims())

	rec, env := doJSON(t, router, http.MethodGet, "/matches/nope/delegation", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrNotFound.Code, env.Error.Code)
}

func TestDelegationHandlerAssign(t *testing.T) {
	router, store := newDelegationRouter(t, adminClaims())

	rec, env := doJSON(t, router, http.MethodPut, "/matches/match-1/delegation/slots/main",
		map[string]interface{}{"refereeId": "ref-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view struct {
		Status models.DelegationStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, models.DelegationPartiallyAssigned, view.Status)
	require.Len(t, store.bindings, 1)
	assert.Equal(t, "ref-1", store.bindings[0].RefereeID)
}

func TestDelegationHandlerAssignMalformedBody(t *testing.T) {
	router, _ := newDelegationRouter(t, adminClaims())

	req := httptest.NewRequest(http.MethodPut, "/matches/match-1/delegation/slots/main", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelegationHandlerAssignInvalidSlot(t *testing.T) {
	router, _ := newDelegationRouter(t, adminClaims())

	rec, env := doJSON(t, router, http.MethodPut, "/matches/match-1/delegation/slots/goalkeeper",
		map[string]interface{}{"refereeId": "ref-1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrInvalidSlot.Code, env.Error.Code)
}

func TestDelegationHandlerDuplicateAssignmentConflict(t *testing.T) {
	router, _ := newDelegationRouter(t, adminClaims())

	rec, _ := doJSON(t, router, http.MethodPut, "/matches/match-1/delegation/slots/main",
		map[string]interface{}{"refereeId": "ref-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doJSON(t, router, http.MethodPut, "/matches/match-1/delegation/slots/assistant-1",
		map[string]interface{}{"refereeId": "ref-1"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrDuplicateAssignment.Code, env.Error.Code)
}

func TestDelegationHandlerUnavailableConflictIsOverridable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	referees := map[string]*models.Referee{
		"ref-1": {ID: "ref-1", FullName: "Ana Kovac", License: models.LicenseInternational, Status: models.RefereeActive},
	}
	store := &stubDelegationStore{referees: referees}
	matches := &stubMatchStore{matches: map[string]*models.MatchDetail{
		"match-1": {Match: models.Match{ID: "match-1", Status: models.MatchScheduled, ScheduledAt: time.Now().UTC().Add(48 * time.Hour)}},
	}}
	svc := service.NewDelegationService(
		store, matches, &stubRefereeStore{referees: referees},
		neverAvailable{reason: "tournament abroad"},
		nil, nil, nil, nil, nil,
		service.DelegationConfig{AllowUnavailableOverride: true},
	)
	h := NewDelegationHandler(svc, nil)

	router := gin.New()
	router.Use(withClaims(adminClaims()))
	router.PUT("/matches/:id/delegation/slots/:slot", h.Assign)

	rec, env := doJSON(t, router, http.MethodPut, "/matches/match-1/delegation/slots/main",
		map[string]interface{}{"refereeId": "ref-1"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrRefereeUnavailable.Code, env.Error.Code)
	assert.Equal(t, true, env.Meta["overridable"])

	// The same request with override set succeeds.
	rec, _ = doJSON(t, router, http.MethodPut, "/matches/match-1/delegation/slots/main",
		map[string]interface{}{"refereeId": "ref-1", "override": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, store.bindings, 1)
	assert.True(t, store.bindings[0].Overridden)
}

func TestDelegationHandlerRemoveWithBadVersionQuery(t *testing.T) {
	router, _ := newDelegationRouter(t, adminClaims())

	rec, env := doJSON(t, router, http.MethodDelete, "/matches/match-1/delegation/slots/main?expectedVersion=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
}

func TestDelegationHandlerConfirmIncomplete(t *testing.T) {
	router, _ := newDelegationRouter(t, adminClaims())

	rec, _ := doJSON(t, router, http.MethodPut, "/matches/match-1/delegation/slots/main",
		map[string]interface{}{"refereeId": "ref-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doJSON(t, router, http.MethodPost, "/matches/match-1/delegation/confirm", map[string]interface{}{})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrIncompleteDelegation.Code, env.Error.Code)
	assert.NotNil(t, env.Error.Details)
}

func TestDelegationHandlerRespond(t *testing.T) {
	refereeJWT := &models.JWTClaims{UserID: "user-ref-1", RefereeID: "ref-1", Role: models.RoleReferee}
	router, store := newDelegationRouter(t, refereeJWT)

	store.delegation = &models.Delegation{ID: "del-1", MatchID: "match-1", Status: models.DelegationPartiallyAssigned, Version: 2}
	store.bindings = []models.SlotBinding{{
		ID: "bind-MAIN", DelegationID: "del-1", Slot: models.SlotMain,
		RefereeID: "ref-1", Response: models.ResponsePending, AssignedAt: time.Now().UTC(),
	}}

	rec, env := doJSON(t, router, http.MethodPost, "/matches/match-1/delegation/slots/main/respond",
		map[string]interface{}{"action": "decline", "reason": "TRAVEL"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view struct {
		Status models.DelegationStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, models.DelegationEmpty, view.Status)
	assert.Equal(t, models.ResponseDeclined, store.bindings[0].Response)
}

func TestDelegationHandlerRespondFinalized(t *testing.T) {
	refereeJWT := &models.JWTClaims{UserID: "user-ref-1", RefereeID: "ref-1", Role: models.RoleReferee}
	router, store := newDelegationRouter(t, refereeJWT)

	now := time.Now().UTC()
	store.delegation = &models.Delegation{ID: "del-1", MatchID: "match-1", Status: models.DelegationPartiallyAssigned, Version: 2}
	store.bindings = []models.SlotBinding{{
		ID: "bind-MAIN", DelegationID: "del-1", Slot: models.SlotMain,
		RefereeID: "ref-1", Response: models.ResponseAccepted, AssignedAt: now, RespondedAt: &now,
	}}

	rec, env := doJSON(t, router, http.MethodPost, "/matches/match-1/delegation/slots/main/respond",
		map[string]interface{}{"action": "decline", "reason": "HEALTH"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrResponseFinalized.Code, env.Error.Code)
}

func TestDelegationHandlerMyAssignmentsWithoutProfile(t *testing.T) {
	router, _ := newDelegationRouter(t, adminClaims())

	rec, env := doJSON(t, router, http.MethodGet, "/me/assignments", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrForbidden.Code, env.Error.Code)
}

func TestDelegationHandlerMyAssignments(t *testing.T) {
	refereeJWT := &models.JWTClaims{UserID: "user-ref-1", RefereeID: "ref-1", Role: models.RoleReferee}
	router, store := newDelegationRouter(t, refereeJWT)

	store.delegation = &models.Delegation{ID: "del-1", MatchID: "match-1", Status: models.DelegationPartiallyAssigned, Version: 2}
	store.bindings = []models.SlotBinding{{
		ID: "bind-MAIN", DelegationID: "del-1", Slot: models.SlotMain,
		RefereeID: "ref-1", Response: models.ResponseAccepted, AssignedAt: time.Now().UTC(),
	}}

	rec, env := doJSON(t, router, http.MethodGet, "/me/assignments", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var assignments []repository.RefereeAssignment
	require.NoError(t, json.Unmarshal(env.Data, &assignments))
	require.Len(t, assignments, 1)
	assert.Equal(t, models.SlotMain, assignments[0].Slot)
}

func TestDelegationHandlerOfficialsSheet(t *testing.T) {
	router, store := newDelegationRouter(t, adminClaims())

	store.delegation = &models.Delegation{ID: "del-1", MatchID: "match-1", Status: models.DelegationPartiallyAssigned, Version: 2}
	store.bindings = []models.SlotBinding{{
		ID: "bind-MAIN", DelegationID: "del-1", Slot: models.SlotMain,
		RefereeID: "ref-1", Response: models.ResponseAccepted, AssignedAt: time.Now().UTC(),
	}}

	req := httptest.NewRequest(http.MethodGet, "/matches/match-1/delegation/sheet", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "officials-sheet-match-1.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/refdesk/refdesk-api/internal/models"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
)

type mockAuthRepo struct {
	users         map[string]*models.User // keyed by email
	refreshTokens map[string]*models.RefreshToken
	revokedAll    []string
	passwordSet   map[string]string
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:         make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
		passwordSet:   make(map[string]string),
	}
}

func (m *mockAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error { return nil }

func (m *mockAuthRepo) UpdatePassword(_ context.Context, id, hash string, _ time.Time) error {
	m.passwordSet[id] = hash
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(_ context.Context, _ *models.AuditLog) error { return nil }

type mockRefereeLinker struct {
	byUserID map[string]*models.Referee
}

func (m *mockRefereeLinker) FindByUserID(_ context.Context, userID string) (*models.Referee, error) {
	ref, ok := m.byUserID[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return ref, nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthRepo) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newMockAuthRepo()
	repo.users["ana@refdesk.test"] = &models.User{
		ID:           "user-1",
		Email:        "ana@refdesk.test",
		PasswordHash: string(hash),
		FullName:     "Ana Kovac",
		Role:         models.RoleReferee,
		Active:       true,
	}
	repo.users["off@refdesk.test"] = &models.User{
		ID:           "user-2",
		Email:        "off@refdesk.test",
		PasswordHash: string(hash),
		FullName:     "Former Staff",
		Role:         models.RoleAdmin,
		Active:       false,
	}

	referees := &mockRefereeLinker{byUserID: map[string]*models.Referee{
		"user-1": {ID: "ref-1", FullName: "Ana Kovac"},
	}}

	svc := NewAuthService(repo, referees, nil, nil, AuthConfig{
		AccessTokenSecret:  "unit-test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "refdesk-api",
	})
	return svc, repo
}

func TestLoginIssuesTokensWithRefereeClaim(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@refdesk.test", Password: "s3cret!"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "user-1", resp.User.ID)
	require.Contains(t, repo.refreshTokens, resp.RefreshToken)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleReferee, claims.Role)
	assert.Equal(t, "ref-1", claims.RefereeID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@refdesk.test", Password: "wrong"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestLoginUnknownEmailLooksLikeBadCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@refdesk.test", Password: "s3cret!"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "off@refdesk.test", Password: "s3cret!"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInactiveAccount))
}

func TestRefreshTokenRotates(t *testing.T) {
	svc, repo := newAuthFixture(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: "ana@refdesk.test", Password: "s3cret!"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The spent token is revoked and cannot be replayed.
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked)
	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestRefreshTokenExpired(t *testing.T) {
	svc, repo := newAuthFixture(t)

	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "tok-1",
		UserID:    "user-1",
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	svc, repo := newAuthFixture(t)
	ctx := context.Background()

	repo.refreshTokens["mine"] = &models.RefreshToken{
		ID:        "tok-1",
		UserID:    "user-1",
		Token:     "mine",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}

	err := svc.Logout(ctx, "mine", "user-2", models.LoginRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	require.NoError(t, svc.Logout(ctx, "mine", "user-1", models.LoginRequest{}))
	assert.True(t, repo.refreshTokens["mine"].Revoked)
}

func TestChangePassword(t *testing.T) {
	svc, repo := newAuthFixture(t)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, "user-1", models.ChangePasswordRequest{OldPassword: "nope", NewPassword: "brand-new"})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	require.NoError(t, svc.ChangePassword(ctx, "user-1", models.ChangePasswordRequest{OldPassword: "s3cret!", NewPassword: "brand-new"}))
	require.Contains(t, repo.passwordSet, "user-1")
	// Sessions are cut after a password change.
	assert.Contains(t, repo.revokedAll, "user-1")
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-jwt")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	svc, repo := newAuthFixture(t)

	other := NewAuthService(repo, nil, nil, nil, AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: 15 * time.Minute,
	})
	resp, err := other.Login(context.Background(), models.LoginRequest{Email: "ana@refdesk.test", Password: "s3cret!"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
)

type authRepoStub struct {
	users   map[string]*models.User
	byID    map[int64]*models.User
	tokens  map[string]*models.RefreshToken
	revoked []int64
}

func newAuthRepoStub(users ...*models.User) *authRepoStub {
	stub := &authRepoStub{
		users:  make(map[string]*models.User),
		byID:   make(map[int64]*models.User),
		tokens: make(map[string]*models.RefreshToken),
	}
	for _, u := range users {
		stub.users[u.Username] = u
		stub.byID[u.ID] = u
	}
	return stub
}

func (a *authRepoStub) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if u, ok := a.users[username]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (a *authRepoStub) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := a.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (a *authRepoStub) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	if u, ok := a.byID[id]; ok {
		u.LastLogin = &ts
	}
	return nil
}

func (a *authRepoStub) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	if u, ok := a.byID[id]; ok {
		u.PasswordHash = passwordHash
		u.UpdatedAt = updatedAt
		return nil
	}
	return sql.ErrNoRows
}

func (a *authRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID int64) error {
	a.revoked = append(a.revoked, userID)
	for _, token := range a.tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (a *authRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	a.tokens[token.Token] = token
	return nil
}

func (a *authRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := a.tokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (a *authRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range a.tokens {
		if token.ID == id {
			token.Revoked = true
		}
	}
	return nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthServiceForTest(repo *authRepoStub, activity *activityStub) *AuthService {
	return NewAuthService(repo, activity, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "mandoub-api",
	})
}

func activeUser(t *testing.T, id int64, username, password string) *models.User {
	t.Helper()
	return &models.User{
		ID:           id,
		Username:     username,
		PasswordHash: mustHash(t, password),
		FullName:     "سالم العلي",
		Role:         models.RoleManager,
		Active:       true,
	}
}

func TestAuthServiceLoginIssuesValidTokens(t *testing.T) {
	repo := newAuthRepoStub(activeUser(t, 1, "salim", "secret123"))
	activity := &activityStub{}
	svc := newAuthServiceForTest(repo, activity)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "salim", Password: "secret123", IP: "10.0.0.1"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, int64(900), resp.ExpiresIn)
	require.Equal(t, "salim", resp.User.Username)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int64(1), claims.UserID)
	require.Equal(t, models.RoleManager, claims.Role)

	require.NotNil(t, repo.byID[1].LastLogin)
	require.Len(t, activity.entries, 1)
	require.Equal(t, models.ActivityActionLogin, activity.entries[0].Action)
	require.Equal(t, "10.0.0.1", activity.entries[0].IPAddress)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	repo := newAuthRepoStub(activeUser(t, 1, "salim", "secret123"))
	svc := newAuthServiceForTest(repo, &activityStub{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "salim", Password: "wrong"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	// Unknown users produce the same error as wrong passwords.
	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "secret123"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginRejectsInactiveAccount(t *testing.T) {
	user := activeUser(t, 1, "salim", "secret123")
	user.Active = false
	svc := newAuthServiceForTest(newAuthRepoStub(user), &activityStub{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "salim", Password: "secret123"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newAuthRepoStub(activeUser(t, 1, "salim", "secret123"))
	svc := newAuthServiceForTest(repo, &activityStub{})

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "salim", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The consumed token is revoked and cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newAuthRepoStub(activeUser(t, 1, "salim", "secret123"))
	svc := newAuthServiceForTest(repo, &activityStub{})

	err := svc.ChangePassword(context.Background(), 1, models.ChangePasswordRequest{
		OldPassword:     "secret123",
		NewPassword:     "newsecret",
		ConfirmPassword: "other",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrPasswordMismatch.Code, appErrors.FromError(err).Code)

	err = svc.ChangePassword(context.Background(), 1, models.ChangePasswordRequest{
		OldPassword:     "wrong",
		NewPassword:     "newsecret",
		ConfirmPassword: "newsecret",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	err = svc.ChangePassword(context.Background(), 1, models.ChangePasswordRequest{
		OldPassword:     "secret123",
		NewPassword:     "newsecret",
		ConfirmPassword: "newsecret",
	})
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.byID[1].PasswordHash), []byte("newsecret")))
	// Existing sessions are revoked after a password change.
	require.Contains(t, repo.revoked, int64(1))
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	repo := newAuthRepoStub(activeUser(t, 1, "salim", "secret123"))
	svc := newAuthServiceForTest(repo, &activityStub{})

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "salim", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(login.AccessToken + "x")
	require.Error(t, err)

	other := NewAuthService(repo, &activityStub{}, nil, nil, AuthConfig{AccessTokenSecret: "different", AccessTokenExpiry: time.Minute})
	_, err = other.ValidateToken(login.AccessToken)
	require.Error(t, err)
}

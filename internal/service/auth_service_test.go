package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusqa/campus-qa-api/internal/models"
	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
)

type fakeAuthRepo struct {
	usersByID       map[string]*models.User
	usersByEmail    map[string]*models.User
	usersByProvider map[string]*models.User

	created       []*models.User
	linked        []string
	refreshTokens map[string]*models.RefreshToken
	revokedAll    []string
	auditLogs     []*models.AuditLog
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		usersByID:       map[string]*models.User{},
		usersByEmail:    map[string]*models.User{},
		usersByProvider: map[string]*models.User{},
		refreshTokens:   map[string]*models.RefreshToken{},
	}
}

func (f *fakeAuthRepo) add(user *models.User) {
	f.usersByID[user.ID] = user
	f.usersByEmail[user.Email] = user
	if user.ProviderID != nil {
		f.usersByProvider[*user.ProviderID] = user
	}
}

func (f *fakeAuthRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.usersByID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) FindByProviderID(_ context.Context, providerID string) (*models.User, error) {
	if u, ok := f.usersByProvider[providerID]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) Create(_ context.Context, user *models.User) error {
	f.created = append(f.created, user)
	f.add(user)
	return nil
}

func (f *fakeAuthRepo) LinkProvider(_ context.Context, id, providerID, avatar string, role models.Role) error {
	f.linked = append(f.linked, id)
	if u, ok := f.usersByID[id]; ok {
		u.ProviderID = &providerID
		u.Role = role
		if avatar != "" {
			u.Avatar = avatar
		}
		f.usersByProvider[providerID] = u
	}
	return nil
}

func (f *fakeAuthRepo) UpdateProfile(_ context.Context, user *models.User) error {
	f.usersByID[user.ID] = user
	return nil
}

func (f *fakeAuthRepo) UpdateLastLogin(context.Context, string, time.Time) error { return nil }

func (f *fakeAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.refreshTokens[token.Token] = token
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := f.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, t := range f.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	f.revokedAll = append(f.revokedAll, userID)
	return nil
}

func (f *fakeAuthRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

func newTestAuthService(repo *fakeAuthRepo, teacherEmails ...string) *AuthService {
	return NewAuthService(repo, nil, nil, AuthServiceConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "campus-qa-test",
		TeacherEmails:      teacherEmails,
	})
}

func TestProviderSignInCreatesStudent(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := newTestAuthService(repo)

	result, err := svc.ProviderSignIn(context.Background(), models.ProviderSignInRequest{
		ProviderID: "prov-1",
		Email:      "Alex@Campus.edu",
		Name:       "Alex Chen",
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, models.RoleStudent, result.User.Role)
	assert.Equal(t, "alex@campus.edu", result.User.Email)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
}

func TestProviderSignInAllowListCreatesTeacher(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := newTestAuthService(repo, "prof@campus.edu")

	result, err := svc.ProviderSignIn(context.Background(), models.ProviderSignInRequest{
		ProviderID: "prov-2",
		Email:      "prof@campus.edu",
		Name:       "Prof Jordan",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, result.User.Role)
}

func TestProviderSignInLinksByEmailAndPromotes(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{ID: "u1", Email: "prof@campus.edu", Name: "Prof Jordan", Role: models.RoleStudent, Active: true})
	svc := newTestAuthService(repo, "prof@campus.edu")

	result, err := svc.ProviderSignIn(context.Background(), models.ProviderSignInRequest{
		ProviderID: "prov-3",
		Email:      "prof@campus.edu",
		Name:       "Prof Jordan",
	})
	require.NoError(t, err)
	require.Len(t, repo.linked, 1)
	assert.Empty(t, repo.created)
	assert.Equal(t, models.RoleTeacher, result.User.Role)
}

func TestProviderSignInNeverDemotesAdmin(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{ID: "u1", Email: "admin@campus.edu", Name: "Sam Admin", Role: models.RoleAdmin, Active: true})
	svc := newTestAuthService(repo)

	result, err := svc.ProviderSignIn(context.Background(), models.ProviderSignInRequest{
		ProviderID: "prov-4",
		Email:      "admin@campus.edu",
		Name:       "Sam Admin",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, result.User.Role)
}

func TestProviderSignInRejectsInactive(t *testing.T) {
	repo := newFakeAuthRepo()
	providerID := "prov-5"
	repo.add(&models.User{ID: "u1", ProviderID: &providerID, Email: "gone@campus.edu", Name: "Gone", Role: models.RoleStudent, Active: false})
	svc := newTestAuthService(repo)

	_, err := svc.ProviderSignIn(context.Background(), models.ProviderSignInRequest{
		ProviderID: providerID,
		Email:      "gone@campus.edu",
		Name:       "Gone User",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeAuthRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	hashStr := string(hash)
	repo.add(&models.User{ID: "u1", Email: "admin@campus.edu", Name: "Sam", PasswordHash: &hashStr, Role: models.RoleAdmin, Active: true})
	svc := newTestAuthService(repo)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "admin@campus.edu", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	result, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@campus.edu", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, result.User.Role)
}

func TestLoginRejectsProviderOnlyAccount(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{ID: "u1", Email: "student@campus.edu", Name: "Alex", Role: models.RoleStudent, Active: true})
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@campus.edu", Password: "anything"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotation(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{ID: "u1", Email: "alex@campus.edu", Name: "Alex", Role: models.RoleStudent, Active: true})
	svc := newTestAuthService(repo)

	signIn, err := svc.ProviderSignIn(context.Background(), models.ProviderSignInRequest{
		ProviderID: "prov-6",
		Email:      "alex@campus.edu",
		Name:       "Alex Chen",
	})
	require.NoError(t, err)

	rotated, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: signIn.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, signIn.RefreshToken, rotated.RefreshToken)

	// the used token is revoked, a second exchange must fail
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: signIn.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{ID: "u1", Email: "alex@campus.edu", Name: "Alex", Role: models.RoleStudent, Active: true})
	svc := newTestAuthService(repo)

	signIn, err := svc.ProviderSignIn(context.Background(), models.ProviderSignInRequest{
		ProviderID: "prov-7",
		Email:      "alex@campus.edu",
		Name:       "Alex Chen",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(signIn.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)

	_, err = svc.ValidateToken("not-a-token")
	require.Error(t, err)
}

func TestCheckEmail(t *testing.T) {
	repo := newFakeAuthRepo()
	repo.add(&models.User{ID: "u1", Email: "prof@campus.edu", Role: models.RoleTeacher, Active: true})
	svc := newTestAuthService(repo, "new-prof@campus.edu")

	exists, role, err := svc.CheckEmail(context.Background(), "prof@campus.edu")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, models.RoleTeacher, role)

	exists, role, err = svc.CheckEmail(context.Background(), "New-Prof@campus.edu")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, models.RoleTeacher, role)

	exists, role, err = svc.CheckEmail(context.Background(), "someone@campus.edu")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, models.RoleStudent, role)
}

package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusqa/campus-qa-api/internal/models"
	"github.com/campusqa/campus-qa-api/internal/service"
)

type fakeUserStore struct {
	user *models.User
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	if f.user != nil && f.user.ID == id {
		return f.user, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if f.user != nil && f.user.Email == email {
		return f.user, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) FindByProviderID(context.Context, string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) Create(context.Context, *models.User) error { return nil }

func (f *fakeUserStore) LinkProvider(context.Context, string, string, string, models.Role) error {
	return nil
}

func (f *fakeUserStore) UpdateProfile(context.Context, *models.User) error { return nil }

func (f *fakeUserStore) UpdateLastLogin(context.Context, string, time.Time) error { return nil }

func (f *fakeUserStore) CreateRefreshToken(context.Context, *models.RefreshToken) error { return nil }

func (f *fakeUserStore) FindRefreshToken(context.Context, string) (*models.RefreshToken, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) RevokeRefreshToken(context.Context, string, time.Time) error { return nil }

func (f *fakeUserStore) RevokeUserRefreshTokens(context.Context, string) error { return nil }

func (f *fakeUserStore) CreateAuditLog(context.Context, *models.AuditLog) error { return nil }

func newTestAuth(user *models.User) (*service.AuthService, *fakeUserStore) {
	store := &fakeUserStore{user: user}
	svc := service.NewAuthService(store, nil, nil, service.AuthServiceConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "campus-qa-test",
	})
	return svc, store
}

func protectedRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"userId": user.ID})
	})
	r.GET("/protected", chain...)
	return r
}

func tokenFor(t *testing.T, svc *service.AuthService, user *models.User) string {
	t.Helper()
	result, err := svc.ProviderSignIn(context.Background(), models.ProviderSignInRequest{
		ProviderID: "prov-" + user.ID,
		Email:      user.Email,
		Name:       user.Name,
	})
	require.NoError(t, err)
	return result.AccessToken
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	svc, _ := newTestAuth(nil)
	r := protectedRouter(Auth(svc))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsMalformedToken(t *testing.T) {
	svc, _ := newTestAuth(nil)
	r := protectedRouter(Auth(svc))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthResolvesLiveUser(t *testing.T) {
	user := &models.User{ID: "u1", Email: "alex@campus.edu", Name: "Alex Chen", Role: models.RoleStudent, Active: true}
	svc, _ := newTestAuth(user)

	token := tokenFor(t, svc, user)

	r := protectedRouter(Auth(svc))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "u1")
}

func TestAuthRejectsDeactivatedUser(t *testing.T) {
	user := &models.User{ID: "u1", Email: "alex@campus.edu", Name: "Alex Chen", Role: models.RoleStudent, Active: true}
	svc, store := newTestAuth(user)
	token := tokenFor(t, svc, user)

	// the token is still unexpired but the account has been deactivated
	store.user.Active = false

	r := protectedRouter(Auth(svc))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	svc, _ := newTestAuth(nil)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/open", OptionalAuth(svc), func(c *gin.Context) {
		_, ok := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "false")
}

func TestRequireCapability(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		role   models.Role
		action models.Action
		status int
	}{
		{"student cannot moderate", models.RoleStudent, models.ActionModerate, http.StatusForbidden},
		{"teacher can moderate", models.RoleTeacher, models.ActionModerate, http.StatusOK},
		{"teacher cannot delete any content", models.RoleTeacher, models.ActionDeleteAnyContent, http.StatusForbidden},
		{"admin can delete any content", models.RoleAdmin, models.ActionDeleteAnyContent, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/guarded",
				func(c *gin.Context) { c.Set(ContextUserKey, &models.User{ID: "u1", Role: tc.role}) },
				Require(tc.action),
				func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
			)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/guarded", nil))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRequireWithoutUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/guarded", Require(models.ActionModerate), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

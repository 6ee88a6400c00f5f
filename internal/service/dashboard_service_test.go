package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusqa/campus-qa-api/internal/models"
	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
)

type fakeStatsRepo struct {
	stats *models.DashboardStats
	calls int
}

func (f *fakeStatsRepo) DashboardStats(context.Context) (*models.DashboardStats, error) {
	f.calls++
	return f.stats, nil
}

type fakeDashboardUsers struct {
	users map[string]*models.User

	roleUpdates   map[string]models.Role
	tokensRevoked []string
	auditLogs     []*models.AuditLog
	logs          []models.AuditLog
	logsTotal     int
}

func newFakeDashboardUsers(users ...*models.User) *fakeDashboardUsers {
	f := &fakeDashboardUsers{users: map[string]*models.User{}, roleUpdates: map[string]models.Role{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeDashboardUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDashboardUsers) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (f *fakeDashboardUsers) UpdateRole(_ context.Context, id string, role models.Role) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u.Role = role
	f.roleUpdates[id] = role
	return u, nil
}

func (f *fakeDashboardUsers) ToggleActive(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u.Active = !u.Active
	return u, nil
}

func (f *fakeDashboardUsers) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	f.tokensRevoked = append(f.tokensRevoked, userID)
	return nil
}

func (f *fakeDashboardUsers) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

func (f *fakeDashboardUsers) ListAuditLogs(context.Context, int, int) ([]models.AuditLog, int, error) {
	return f.logs, f.logsTotal, nil
}

type fakeDashboardQuestions struct {
	questions map[string]*models.Question
	deleted   []string
}

func (f *fakeDashboardQuestions) FindByID(_ context.Context, id string) (*models.Question, error) {
	if q, ok := f.questions[id]; ok {
		return q, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDashboardQuestions) List(_ context.Context, _ models.QuestionFilter) ([]models.Question, int, error) {
	return nil, 0, nil
}

func (f *fakeDashboardQuestions) ToggleArchive(_ context.Context, id string) (bool, error) {
	q, ok := f.questions[id]
	if !ok {
		return false, sql.ErrNoRows
	}
	q.IsArchived = !q.IsArchived
	return q.IsArchived, nil
}

func (f *fakeDashboardQuestions) DeleteCascade(_ context.Context, id string) error {
	if _, ok := f.questions[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.questions, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeDashboardAnswers struct {
	deleted []string
}

func (f *fakeDashboardAnswers) FindByID(context.Context, string) (*models.Answer, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeDashboardAnswers) DeleteCascade(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCache struct {
	data    map[string][]byte
	deleted []string
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := f.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func newTestDashboardService(stats *fakeStatsRepo, users *fakeDashboardUsers, questions *fakeDashboardQuestions, answers *fakeDashboardAnswers, cache *fakeCache) *DashboardService {
	if stats == nil {
		stats = &fakeStatsRepo{stats: &models.DashboardStats{}}
	}
	if users == nil {
		users = newFakeDashboardUsers()
	}
	if questions == nil {
		questions = &fakeDashboardQuestions{questions: map[string]*models.Question{}}
	}
	if answers == nil {
		answers = &fakeDashboardAnswers{}
	}
	if cache == nil {
		return NewDashboardService(stats, users, questions, answers, nil, time.Minute, nil, nil)
	}
	return NewDashboardService(stats, users, questions, answers, cache, time.Minute, nil, nil)
}

func TestDashboardStatsCaches(t *testing.T) {
	stats := &fakeStatsRepo{stats: &models.DashboardStats{
		Users:   models.UserStats{Total: 12, Active: 9},
		Content: models.ContentStats{Questions: 30, Answers: 64, Comments: 110, Resolved: 18},
	}}
	cache := newFakeCache()
	svc := newTestDashboardService(stats, nil, nil, nil, cache)

	first, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, first.Users.Total)
	assert.Equal(t, 1, stats.calls)

	// second read is served from cache
	second, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, second.Content.Questions)
	assert.Equal(t, 1, stats.calls)
}

func TestDashboardStatsWithoutCache(t *testing.T) {
	stats := &fakeStatsRepo{stats: &models.DashboardStats{}}
	svc := newTestDashboardService(stats, nil, nil, nil, nil)

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.calls)
}

func TestDashboardUpdateUserRole(t *testing.T) {
	users := newFakeDashboardUsers(&models.User{ID: "u1", Role: models.RoleStudent, Active: true})
	cache := newFakeCache()
	cache.data[dashboardStatsCacheKey] = []byte(`{}`)
	svc := newTestDashboardService(nil, users, nil, nil, cache)

	meta := AuditMeta{ActorID: "admin-1", IP: "10.0.0.1", UserAgent: "test"}
	user, err := svc.UpdateUserRole(context.Background(), meta, "u1", models.UpdateRoleRequest{Role: "teacher"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, user.Role)

	require.Len(t, users.auditLogs, 1)
	assert.Equal(t, models.AuditActionRoleUpdate, users.auditLogs[0].Action)
	assert.Contains(t, cache.deleted, dashboardStatsCacheKey)
}

func TestDashboardUpdateOwnRoleForbidden(t *testing.T) {
	users := newFakeDashboardUsers(&models.User{ID: "admin-1", Role: models.RoleAdmin, Active: true})
	svc := newTestDashboardService(nil, users, nil, nil, nil)

	_, err := svc.UpdateUserRole(context.Background(), AuditMeta{ActorID: "admin-1"}, "admin-1", models.UpdateRoleRequest{Role: "student"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, users.roleUpdates)
}

func TestDashboardToggleUserStatusRevokesTokens(t *testing.T) {
	users := newFakeDashboardUsers(&models.User{ID: "u1", Role: models.RoleStudent, Active: true})
	svc := newTestDashboardService(nil, users, nil, nil, nil)

	meta := AuditMeta{ActorID: "admin-1"}
	user, err := svc.ToggleUserStatus(context.Background(), meta, "u1")
	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.Equal(t, []string{"u1"}, users.tokensRevoked)

	// reactivation does not revoke again
	user, err = svc.ToggleUserStatus(context.Background(), meta, "u1")
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.Len(t, users.tokensRevoked, 1)
}

func TestDashboardToggleOwnStatusForbidden(t *testing.T) {
	users := newFakeDashboardUsers(&models.User{ID: "admin-1", Role: models.RoleAdmin, Active: true})
	svc := newTestDashboardService(nil, users, nil, nil, nil)

	_, err := svc.ToggleUserStatus(context.Background(), AuditMeta{ActorID: "admin-1"}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDashboardToggleQuestionArchive(t *testing.T) {
	questions := &fakeDashboardQuestions{questions: map[string]*models.Question{
		"q1": {ID: "q1", Title: "T"},
	}}
	svc := newTestDashboardService(nil, nil, questions, nil, nil)

	archived, err := svc.ToggleQuestionArchive(context.Background(), AuditMeta{ActorID: "mod-1"}, "q1")
	require.NoError(t, err)
	assert.True(t, archived)

	archived, err = svc.ToggleQuestionArchive(context.Background(), AuditMeta{ActorID: "mod-1"}, "q1")
	require.NoError(t, err)
	assert.False(t, archived)

	_, err = svc.ToggleQuestionArchive(context.Background(), AuditMeta{ActorID: "mod-1"}, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDashboardDeleteQuestionAudits(t *testing.T) {
	questions := &fakeDashboardQuestions{questions: map[string]*models.Question{
		"q1": {ID: "q1", Title: "T"},
	}}
	users := newFakeDashboardUsers()
	cache := newFakeCache()
	cache.data[dashboardStatsCacheKey] = []byte(`{}`)
	svc := newTestDashboardService(nil, users, questions, nil, cache)

	require.NoError(t, svc.DeleteQuestion(context.Background(), AuditMeta{ActorID: "admin-1"}, "q1"))
	assert.Equal(t, []string{"q1"}, questions.deleted)
	require.Len(t, users.auditLogs, 1)
	assert.Equal(t, models.AuditActionQuestionDelete, users.auditLogs[0].Action)
	assert.Contains(t, cache.deleted, dashboardStatsCacheKey)
}

func TestDashboardListAuditLogs(t *testing.T) {
	users := newFakeDashboardUsers()
	users.logs = []models.AuditLog{{ID: "l1"}, {ID: "l2"}}
	users.logsTotal = 55
	svc := newTestDashboardService(nil, users, nil, nil, nil)

	logs, pagination, err := svc.ListAuditLogs(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Equal(t, 55, pagination.Total)
	assert.Equal(t, 3, pagination.Pages)
}

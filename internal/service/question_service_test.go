package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusqa/campus-qa-api/internal/models"
	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
)

type fakeQuestionRepo struct {
	questions map[string]*models.Question

	lastFilter models.QuestionFilter
	listTotal  int
	viewsErr   error
	resolved   []string
	deleted    []string
}

func newFakeQuestionRepo(questions ...*models.Question) *fakeQuestionRepo {
	repo := &fakeQuestionRepo{questions: map[string]*models.Question{}}
	for _, q := range questions {
		repo.questions[q.ID] = q
	}
	return repo
}

func (f *fakeQuestionRepo) FindByID(_ context.Context, id string) (*models.Question, error) {
	if q, ok := f.questions[id]; ok {
		copied := *q
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeQuestionRepo) List(_ context.Context, filter models.QuestionFilter) ([]models.Question, int, error) {
	f.lastFilter = filter
	var out []models.Question
	for _, q := range f.questions {
		out = append(out, *q)
	}
	return out, f.listTotal, nil
}

func (f *fakeQuestionRepo) Create(_ context.Context, question *models.Question) error {
	question.ID = uuid.NewString()
	f.questions[question.ID] = question
	return nil
}

func (f *fakeQuestionRepo) Update(_ context.Context, question *models.Question) error {
	f.questions[question.ID] = question
	return nil
}

func (f *fakeQuestionRepo) IncrementViews(_ context.Context, id string) error {
	if f.viewsErr != nil {
		return f.viewsErr
	}
	if q, ok := f.questions[id]; ok {
		q.Views++
	}
	return nil
}

func (f *fakeQuestionRepo) Resolve(_ context.Context, id string) error {
	f.resolved = append(f.resolved, id)
	if q, ok := f.questions[id]; ok {
		q.IsResolved = true
	}
	return nil
}

func (f *fakeQuestionRepo) ToggleLike(_ context.Context, _, _ string) (*models.LikeResult, error) {
	return &models.LikeResult{Likes: 2, IsLiked: false}, nil
}

func (f *fakeQuestionRepo) DeleteCascade(_ context.Context, id string) error {
	if _, ok := f.questions[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.questions, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeQuestionNotifier struct {
	posted []string
}

func (f *fakeQuestionNotifier) NotifyQuestionPosted(_ *models.Question, authorName string) {
	f.posted = append(f.posted, authorName)
}

func TestQuestionListExcludesArchivedByDefault(t *testing.T) {
	repo := newFakeQuestionRepo()
	repo.listTotal = 25
	svc := NewQuestionService(repo, &fakeQuestionNotifier{}, nil, nil)

	_, pagination, err := svc.List(context.Background(), models.QuestionFilter{Page: 2, Limit: 10})
	require.NoError(t, err)
	require.NotNil(t, repo.lastFilter.Archived)
	assert.False(t, *repo.lastFilter.Archived)
	assert.Equal(t, 2, pagination.Current)
	assert.Equal(t, 3, pagination.Pages)
	assert.Equal(t, 25, pagination.Total)

	archived := true
	_, _, err = svc.List(context.Background(), models.QuestionFilter{Archived: &archived, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.NotNil(t, repo.lastFilter.Archived)
	assert.True(t, *repo.lastFilter.Archived)
}

func TestQuestionCreateDefaultsAndNotifies(t *testing.T) {
	repo := newFakeQuestionRepo()
	notifier := &fakeQuestionNotifier{}
	svc := NewQuestionService(repo, notifier, nil, nil)

	actor := &models.User{ID: "student-1", Name: "Alex Chen", Role: models.RoleStudent}
	question, err := svc.Create(context.Background(), actor, models.CreateQuestionRequest{
		Title:   "Where is the exam schedule posted?",
		Content: "I could not find the final exam schedule on the portal anywhere.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryGeneral, question.Category)
	assert.Equal(t, models.PriorityMedium, question.Priority)
	assert.Equal(t, "student-1", question.AuthorID)
	assert.Equal(t, []string{"Alex Chen"}, notifier.posted)
}

func TestQuestionCreateNormalizesTags(t *testing.T) {
	repo := newFakeQuestionRepo()
	svc := NewQuestionService(repo, &fakeQuestionNotifier{}, nil, nil)

	actor := &models.User{ID: "student-1", Name: "Alex Chen", Role: models.RoleStudent}
	question, err := svc.Create(context.Background(), actor, models.CreateQuestionRequest{
		Title:   "Where is the exam schedule posted?",
		Content: "I could not find the final exam schedule on the portal anywhere.",
		Tags:    []string{"Go", "go", " NETWORKING "},
	})
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"go", "networking"}, question.Tags)
}

func TestQuestionUpdateNormalizesTags(t *testing.T) {
	question := &models.Question{ID: uuid.NewString(), Title: "T", AuthorID: "asker", Category: models.CategoryTechnical}
	repo := newFakeQuestionRepo(question)
	svc := NewQuestionService(repo, &fakeQuestionNotifier{}, nil, nil)

	updated, err := svc.Update(context.Background(), &models.User{ID: "asker", Role: models.RoleStudent}, question.ID, models.UpdateQuestionRequest{
		Title:   "Clarified question title here",
		Content: "A clarified question body with enough characters.",
		Tags:    []string{"Campus", "campus", " ", "WiFi"},
	})
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"campus", "wifi"}, updated.Tags)
}

func TestQuestionGetCountsView(t *testing.T) {
	question := &models.Question{ID: uuid.NewString(), Title: "T", AuthorID: "u1", Views: 4}
	repo := newFakeQuestionRepo(question)
	svc := NewQuestionService(repo, &fakeQuestionNotifier{}, nil, nil)

	got, err := svc.Get(context.Background(), question.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Views)
}

func TestQuestionGetSurvivesViewCounterFailure(t *testing.T) {
	question := &models.Question{ID: uuid.NewString(), Title: "T", AuthorID: "u1", Views: 4}
	repo := newFakeQuestionRepo(question)
	repo.viewsErr = sql.ErrConnDone
	svc := NewQuestionService(repo, &fakeQuestionNotifier{}, nil, nil)

	got, err := svc.Get(context.Background(), question.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Views)
}

func TestQuestionResolveOwnershipAndIdempotence(t *testing.T) {
	question := &models.Question{ID: uuid.NewString(), Title: "T", AuthorID: "asker"}
	repo := newFakeQuestionRepo(question)
	svc := NewQuestionService(repo, &fakeQuestionNotifier{}, nil, nil)

	_, err := svc.Resolve(context.Background(), &models.User{ID: "stranger", Role: models.RoleStudent}, question.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	resolved, err := svc.Resolve(context.Background(), &models.User{ID: "asker", Role: models.RoleStudent}, question.ID)
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	assert.Len(t, repo.resolved, 1)

	// resolving twice does not hit the repository again
	resolved, err = svc.Resolve(context.Background(), &models.User{ID: "asker", Role: models.RoleStudent}, question.ID)
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	assert.Len(t, repo.resolved, 1)
}

func TestQuestionUpdateOwnership(t *testing.T) {
	question := &models.Question{ID: uuid.NewString(), Title: "Original question title", Content: "original body", AuthorID: "asker", Category: models.CategoryTechnical}
	repo := newFakeQuestionRepo(question)
	svc := NewQuestionService(repo, &fakeQuestionNotifier{}, nil, nil)

	req := models.UpdateQuestionRequest{
		Title:   "Clarified question title here",
		Content: "A reworded body with more useful detail in it.",
	}

	_, err := svc.Update(context.Background(), &models.User{ID: "stranger", Role: models.RoleStudent}, question.ID, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	updated, err := svc.Update(context.Background(), &models.User{ID: "asker", Role: models.RoleStudent}, question.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Clarified question title here", updated.Title)
	// omitted category keeps the stored one
	assert.Equal(t, models.CategoryTechnical, updated.Category)
}

func TestQuestionDeletePermissions(t *testing.T) {
	question := &models.Question{ID: uuid.NewString(), Title: "T", AuthorID: "asker"}

	t.Run("stranger forbidden", func(t *testing.T) {
		repo := newFakeQuestionRepo(question)
		svc := NewQuestionService(repo, &fakeQuestionNotifier{}, nil, nil)
		err := svc.Delete(context.Background(), &models.User{ID: "stranger", Role: models.RoleStudent}, question.ID)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	})

	t.Run("teacher bypasses ownership", func(t *testing.T) {
		repo := newFakeQuestionRepo(question)
		svc := NewQuestionService(repo, &fakeQuestionNotifier{}, nil, nil)
		require.NoError(t, svc.Delete(context.Background(), &models.User{ID: "prof", Role: models.RoleTeacher}, question.ID))
		assert.Equal(t, []string{question.ID}, repo.deleted)
	})

	t.Run("author allowed", func(t *testing.T) {
		repo := newFakeQuestionRepo(question)
		svc := NewQuestionService(repo, &fakeQuestionNotifier{}, nil, nil)
		require.NoError(t, svc.Delete(context.Background(), &models.User{ID: "asker", Role: models.RoleStudent}, question.ID))
		assert.Equal(t, []string{question.ID}, repo.deleted)
	})

	t.Run("admin allowed", func(t *testing.T) {
		repo := newFakeQuestionRepo(question)
		svc := NewQuestionService(repo, &fakeQuestionNotifier{}, nil, nil)
		require.NoError(t, svc.Delete(context.Background(), &models.User{ID: "root", Role: models.RoleAdmin}, question.ID))
	})
}

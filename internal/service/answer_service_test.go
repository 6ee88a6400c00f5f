package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusqa/campus-qa-api/internal/models"
	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
)

type fakeAnswerRepo struct {
	answers map[string]*models.Answer

	accepted    [][2]string
	verifyCalls []string
	deleted     []string
	likeResult  *models.LikeResult
}

func newFakeAnswerRepo(answers ...*models.Answer) *fakeAnswerRepo {
	repo := &fakeAnswerRepo{answers: map[string]*models.Answer{}}
	for _, a := range answers {
		repo.answers[a.ID] = a
	}
	return repo
}

func (f *fakeAnswerRepo) FindByID(_ context.Context, id string) (*models.Answer, error) {
	if a, ok := f.answers[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAnswerRepo) ListByQuestion(_ context.Context, questionID string, _, _ int) ([]models.Answer, int, error) {
	var out []models.Answer
	for _, a := range f.answers {
		if a.QuestionID == questionID {
			out = append(out, *a)
		}
	}
	return out, len(out), nil
}

func (f *fakeAnswerRepo) Create(_ context.Context, answer *models.Answer) error {
	answer.ID = uuid.NewString()
	f.answers[answer.ID] = answer
	return nil
}

func (f *fakeAnswerRepo) UpdateContent(_ context.Context, id, content string) error {
	a, ok := f.answers[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Content = content
	a.IsEdited = true
	return nil
}

func (f *fakeAnswerRepo) Accept(_ context.Context, answerID, questionID string) error {
	f.accepted = append(f.accepted, [2]string{answerID, questionID})
	for _, a := range f.answers {
		if a.QuestionID == questionID {
			a.IsAccepted = a.ID == answerID
		}
	}
	return nil
}

func (f *fakeAnswerRepo) ToggleVerify(_ context.Context, id, verifierID string) (bool, error) {
	a, ok := f.answers[id]
	if !ok {
		return false, sql.ErrNoRows
	}
	f.verifyCalls = append(f.verifyCalls, verifierID)
	a.IsVerified = !a.IsVerified
	if a.IsVerified {
		a.VerifiedBy = &verifierID
	} else {
		a.VerifiedBy = nil
	}
	return a.IsVerified, nil
}

func (f *fakeAnswerRepo) ToggleLike(_ context.Context, _, _ string) (*models.LikeResult, error) {
	return f.likeResult, nil
}

func (f *fakeAnswerRepo) DeleteCascade(_ context.Context, id string) error {
	if _, ok := f.answers[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.answers, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeQuestionLookup struct {
	questions map[string]*models.Question
}

func (f *fakeQuestionLookup) FindByID(_ context.Context, id string) (*models.Question, error) {
	if q, ok := f.questions[id]; ok {
		return q, nil
	}
	return nil, sql.ErrNoRows
}

type fakeCommentLister struct {
	comments map[string][]models.Comment
}

func (f *fakeCommentLister) ListByAnswer(_ context.Context, answerID string) ([]models.Comment, error) {
	return f.comments[answerID], nil
}

type fakeAnswerNotifier struct {
	posted []string
}

func (f *fakeAnswerNotifier) NotifyAnswerPosted(_ *models.Answer, questionTitle, _ string) {
	f.posted = append(f.posted, questionTitle)
}

func TestAnswerCreateNotifiesStaff(t *testing.T) {
	questionID := uuid.NewString()
	lookup := &fakeQuestionLookup{questions: map[string]*models.Question{
		questionID: {ID: questionID, Title: "How do goroutines work?", AuthorID: "author-1"},
	}}
	repo := newFakeAnswerRepo()
	notifier := &fakeAnswerNotifier{}
	svc := NewAnswerService(repo, lookup, &fakeCommentLister{}, notifier, nil, nil)

	actor := &models.User{ID: "student-1", Name: "Alex Chen", Role: models.RoleStudent}
	answer, err := svc.Create(context.Background(), actor, models.CreateAnswerRequest{
		Content:  "Goroutines are scheduled by the runtime onto OS threads.",
		Question: questionID,
	})
	require.NoError(t, err)
	assert.Equal(t, "student-1", answer.AuthorID)
	require.Len(t, notifier.posted, 1)
	assert.Equal(t, "How do goroutines work?", notifier.posted[0])
}

func TestAnswerCreateUnknownQuestion(t *testing.T) {
	svc := NewAnswerService(newFakeAnswerRepo(), &fakeQuestionLookup{questions: map[string]*models.Question{}}, &fakeCommentLister{}, &fakeAnswerNotifier{}, nil, nil)

	_, err := svc.Create(context.Background(), &models.User{ID: "u1", Role: models.RoleStudent}, models.CreateAnswerRequest{
		Content:  "An answer to a question that does not exist.",
		Question: uuid.NewString(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAnswerAcceptPermissions(t *testing.T) {
	questionID := uuid.NewString()
	answer := &models.Answer{ID: uuid.NewString(), QuestionID: questionID, AuthorID: "answerer"}
	lookup := &fakeQuestionLookup{questions: map[string]*models.Question{
		questionID: {ID: questionID, Title: "T", AuthorID: "asker"},
	}}

	cases := []struct {
		name    string
		actor   *models.User
		allowed bool
	}{
		{"question author", &models.User{ID: "asker", Role: models.RoleStudent}, true},
		{"other student", &models.User{ID: "bystander", Role: models.RoleStudent}, false},
		{"answer author", &models.User{ID: "answerer", Role: models.RoleStudent}, false},
		{"teacher bypass", &models.User{ID: "staff", Role: models.RoleTeacher}, true},
		{"admin bypass", &models.User{ID: "root", Role: models.RoleAdmin}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeAnswerRepo(answer)
			svc := NewAnswerService(repo, lookup, &fakeCommentLister{}, &fakeAnswerNotifier{}, nil, nil)

			accepted, err := svc.Accept(context.Background(), tc.actor, answer.ID)
			if !tc.allowed {
				require.Error(t, err)
				assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
				return
			}
			require.NoError(t, err)
			assert.True(t, accepted.IsAccepted)
			require.Len(t, repo.accepted, 1)
			assert.Equal(t, [2]string{answer.ID, questionID}, repo.accepted[0])
		})
	}
}

func TestAnswerToggleVerifyRequiresRole(t *testing.T) {
	answer := &models.Answer{ID: uuid.NewString(), QuestionID: uuid.NewString(), AuthorID: "answerer"}
	repo := newFakeAnswerRepo(answer)
	svc := NewAnswerService(repo, &fakeQuestionLookup{}, &fakeCommentLister{}, &fakeAnswerNotifier{}, nil, nil)

	_, err := svc.ToggleVerify(context.Background(), &models.User{ID: "u1", Role: models.RoleStudent}, answer.ID)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.NotNil(t, appErr.Details)

	verified, err := svc.ToggleVerify(context.Background(), &models.User{ID: "prof", Role: models.RoleTeacher}, answer.ID)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, "prof", *verified.VerifiedBy)

	// a second toggle clears the mark
	verified, err = svc.ToggleVerify(context.Background(), &models.User{ID: "prof", Role: models.RoleTeacher}, answer.ID)
	require.NoError(t, err)
	assert.False(t, verified.IsVerified)
	assert.Nil(t, verified.VerifiedBy)
}

func TestAnswerUpdateOwnership(t *testing.T) {
	answer := &models.Answer{ID: uuid.NewString(), QuestionID: uuid.NewString(), AuthorID: "answerer", Content: "original content here"}
	repo := newFakeAnswerRepo(answer)
	svc := NewAnswerService(repo, &fakeQuestionLookup{}, &fakeCommentLister{}, &fakeAnswerNotifier{}, nil, nil)

	req := models.UpdateAnswerRequest{Content: "a corrected answer body"}

	_, err := svc.Update(context.Background(), &models.User{ID: "someone-else", Role: models.RoleStudent}, answer.ID, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	updated, err := svc.Update(context.Background(), &models.User{ID: "answerer", Role: models.RoleStudent}, answer.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "a corrected answer body", updated.Content)
	assert.True(t, updated.IsEdited)
}

func TestAnswerDeleteRequiresAuthorOrModerator(t *testing.T) {
	answer := &models.Answer{ID: uuid.NewString(), QuestionID: uuid.NewString(), AuthorID: "answerer"}

	t.Run("stranger forbidden", func(t *testing.T) {
		repo := newFakeAnswerRepo(answer)
		svc := NewAnswerService(repo, &fakeQuestionLookup{}, &fakeCommentLister{}, &fakeAnswerNotifier{}, nil, nil)
		err := svc.Delete(context.Background(), &models.User{ID: "stranger", Role: models.RoleStudent}, answer.ID)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	})

	t.Run("teacher bypasses ownership", func(t *testing.T) {
		repo := newFakeAnswerRepo(answer)
		svc := NewAnswerService(repo, &fakeQuestionLookup{}, &fakeCommentLister{}, &fakeAnswerNotifier{}, nil, nil)
		require.NoError(t, svc.Delete(context.Background(), &models.User{ID: "prof", Role: models.RoleTeacher}, answer.ID))
		assert.Equal(t, []string{answer.ID}, repo.deleted)
	})

	t.Run("author allowed", func(t *testing.T) {
		repo := newFakeAnswerRepo(answer)
		svc := NewAnswerService(repo, &fakeQuestionLookup{}, &fakeCommentLister{}, &fakeAnswerNotifier{}, nil, nil)
		require.NoError(t, svc.Delete(context.Background(), &models.User{ID: "answerer", Role: models.RoleStudent}, answer.ID))
		assert.Equal(t, []string{answer.ID}, repo.deleted)
	})

	t.Run("admin allowed", func(t *testing.T) {
		repo := newFakeAnswerRepo(answer)
		svc := NewAnswerService(repo, &fakeQuestionLookup{}, &fakeCommentLister{}, &fakeAnswerNotifier{}, nil, nil)
		require.NoError(t, svc.Delete(context.Background(), &models.User{ID: "root", Role: models.RoleAdmin}, answer.ID))
	})
}

func TestAnswerToggleLike(t *testing.T) {
	answer := &models.Answer{ID: uuid.NewString(), QuestionID: uuid.NewString(), AuthorID: "answerer"}
	repo := newFakeAnswerRepo(answer)
	repo.likeResult = &models.LikeResult{Likes: 3, IsLiked: true}
	svc := NewAnswerService(repo, &fakeQuestionLookup{}, &fakeCommentLister{}, &fakeAnswerNotifier{}, nil, nil)

	result, err := svc.ToggleLike(context.Background(), "u1", answer.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Likes)
	assert.True(t, result.IsLiked)

	_, err = svc.ToggleLike(context.Background(), "u1", uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

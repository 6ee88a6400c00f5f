package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusqa/campus-qa-api/internal/models"
	"github.com/campusqa/campus-qa-api/internal/service"
	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
	"github.com/campusqa/campus-qa-api/pkg/response"
)

// QuestionHandler exposes question endpoints.
type QuestionHandler struct {
	questions *service.QuestionService
	answers   *service.AnswerService
}

// NewQuestionHandler constructs QuestionHandler.
func NewQuestionHandler(questions *service.QuestionService, answers *service.AnswerService) *QuestionHandler {
	return &QuestionHandler{questions: questions, answers: answers}
}

func questionFilterFromQuery(c *gin.Context) models.QuestionFilter {
	var filter models.QuestionFilter
	filter.Category = c.Query("category")
	filter.Priority = c.Query("priority")
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Resolved = boolQuery(c, "isResolved")
	if tags := c.Query("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				filter.Tags = append(filter.Tags, trimmed)
			}
		}
	}
	filter.Page, filter.Limit = pageParams(c, 10)
	return filter
}

// List godoc
// @Summary List questions
// @Tags Questions
// @Produce json
// @Param category query string false "Filter by category"
// @Param priority query string false "Filter by priority"
// @Param isResolved query bool false "Filter by resolution state"
// @Param tags query string false "Comma separated tags, any-match"
// @Param search query string false "Search in title and content"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /questions [get]
func (h *QuestionHandler) List(c *gin.Context) {
	filter := questionFilterFromQuery(c)

	questions, pagination, err := h.questions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"questions": questions, "pagination": pagination})
}

// ListByUser godoc
// @Summary List questions authored by a user
// @Tags Questions
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Router /questions/user/{userId} [get]
func (h *QuestionHandler) ListByUser(c *gin.Context) {
	page, limit := pageParams(c, 10)

	questions, pagination, err := h.questions.ListByUser(c.Request.Context(), c.Param("userId"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"questions": questions, "pagination": pagination})
}

// Get godoc
// @Summary Get a question
// @Tags Questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} map[string]interface{}
// @Router /questions/{id} [get]
func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.questions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	answers, _, err := h.answers.ListByQuestion(c.Request.Context(), question.ID, 1, 100)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"question": question, "answers": answers})
}

// Create godoc
// @Summary Post a question
// @Tags Questions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateQuestionRequest true "Question payload"
// @Success 201 {object} map[string]interface{}
// @Router /questions [post]
func (h *QuestionHandler) Create(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	question, err := h.questions.Create(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"question": question})
}

// Update godoc
// @Summary Edit a question
// @Tags Questions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param payload body models.UpdateQuestionRequest true "Question payload"
// @Success 200 {object} map[string]interface{}
// @Router /questions/{id} [put]
func (h *QuestionHandler) Update(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	question, err := h.questions.Update(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"question": question})
}

// Delete godoc
// @Summary Delete a question
// @Tags Questions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} map[string]interface{}
// @Router /questions/{id} [delete]
func (h *QuestionHandler) Delete(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.questions.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "question deleted"})
}

// ToggleLike godoc
// @Summary Toggle a like on a question
// @Tags Questions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} models.LikeResult
// @Router /questions/{id}/like [post]
func (h *QuestionHandler) ToggleLike(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.questions.ToggleLike(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"likes": result.Likes, "isLiked": result.IsLiked})
}

// Resolve godoc
// @Summary Mark a question resolved
// @Tags Questions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} map[string]interface{}
// @Router /questions/{id}/resolve [patch]
func (h *QuestionHandler) Resolve(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	question, err := h.questions.Resolve(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"question": question})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusqa/campus-qa-api/internal/models"
	"github.com/campusqa/campus-qa-api/internal/service"
	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
	"github.com/campusqa/campus-qa-api/pkg/response"
)

// AnswerHandler exposes answer endpoints.
type AnswerHandler struct {
	answers *service.AnswerService
}

// NewAnswerHandler constructs AnswerHandler.
func NewAnswerHandler(answers *service.AnswerService) *AnswerHandler {
	return &AnswerHandler{answers: answers}
}

// ListByQuestion godoc
// @Summary List a question's answers with their comments
// @Tags Answers
// @Produce json
// @Param questionId path string true "Question ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /answers/question/{questionId} [get]
func (h *AnswerHandler) ListByQuestion(c *gin.Context) {
	page, limit := pageParams(c, 10)

	answers, pagination, err := h.answers.ListByQuestion(c.Request.Context(), c.Param("questionId"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"answers": answers, "pagination": pagination})
}

// Create godoc
// @Summary Post an answer
// @Tags Answers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateAnswerRequest true "Answer payload"
// @Success 201 {object} map[string]interface{}
// @Router /answers [post]
func (h *AnswerHandler) Create(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	answer, err := h.answers.Create(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"answer": answer})
}

// Update godoc
// @Summary Edit an answer
// @Tags Answers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Answer ID"
// @Param payload body models.UpdateAnswerRequest true "Answer payload"
// @Success 200 {object} map[string]interface{}
// @Router /answers/{id} [put]
func (h *AnswerHandler) Update(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	answer, err := h.answers.Update(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"answer": answer})
}

// Accept godoc
// @Summary Accept an answer
// @Tags Answers
// @Security BearerAuth
// @Produce json
// @Param id path string true "Answer ID"
// @Success 200 {object} map[string]interface{}
// @Router /answers/{id}/accept [patch]
func (h *AnswerHandler) Accept(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	answer, err := h.answers.Accept(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"answer": answer})
}

// ToggleVerify godoc
// @Summary Toggle an answer's verification mark
// @Tags Answers
// @Security BearerAuth
// @Produce json
// @Param id path string true "Answer ID"
// @Success 200 {object} map[string]interface{}
// @Router /answers/{id}/verify [patch]
func (h *AnswerHandler) ToggleVerify(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	answer, err := h.answers.ToggleVerify(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"answer": answer})
}

// ToggleLike godoc
// @Summary Toggle a like on an answer
// @Tags Answers
// @Security BearerAuth
// @Produce json
// @Param id path string true "Answer ID"
// @Success 200 {object} models.LikeResult
// @Router /answers/{id}/like [post]
func (h *AnswerHandler) ToggleLike(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.answers.ToggleLike(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"likes": result.Likes, "isLiked": result.IsLiked})
}

// Delete godoc
// @Summary Delete an answer
// @Tags Answers
// @Security BearerAuth
// @Produce json
// @Param id path string true "Answer ID"
// @Success 200 {object} map[string]interface{}
// @Router /answers/{id} [delete]
func (h *AnswerHandler) Delete(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.answers.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "answer deleted"})
}

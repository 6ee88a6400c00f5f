package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusqa/campus-qa-api/internal/models"
	"github.com/campusqa/campus-qa-api/internal/service"
	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
	"github.com/campusqa/campus-qa-api/pkg/response"
)

// CommentHandler exposes comment endpoints nested under answers.
type CommentHandler struct {
	comments *service.CommentService
}

// NewCommentHandler constructs CommentHandler.
func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// Create godoc
// @Summary Comment on an answer
// @Tags Comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Answer ID"
// @Param payload body models.CreateCommentRequest true "Comment payload"
// @Success 201 {object} map[string]interface{}
// @Router /answers/{id}/comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"comment": comment})
}

// Update godoc
// @Summary Edit a comment
// @Tags Comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param commentId path string true "Comment ID"
// @Param payload body models.UpdateCommentRequest true "Comment payload"
// @Success 200 {object} map[string]interface{}
// @Router /answers/comments/{commentId} [put]
func (h *CommentHandler) Update(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	comment, err := h.comments.Update(c.Request.Context(), user, c.Param("commentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"comment": comment})
}

// ToggleLike godoc
// @Summary Toggle a like on a comment
// @Tags Comments
// @Security BearerAuth
// @Produce json
// @Param commentId path string true "Comment ID"
// @Success 200 {object} models.LikeResult
// @Router /answers/comments/{commentId}/like [post]
func (h *CommentHandler) ToggleLike(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.comments.ToggleLike(c.Request.Context(), user.ID, c.Param("commentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"likes": result.Likes, "isLiked": result.IsLiked})
}

// Delete godoc
// @Summary Delete a comment
// @Tags Comments
// @Security BearerAuth
// @Produce json
// @Param commentId path string true "Comment ID"
// @Success 200 {object} map[string]interface{}
// @Router /answers/comments/{commentId} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.comments.Delete(c.Request.Context(), user, c.Param("commentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "comment deleted"})
}

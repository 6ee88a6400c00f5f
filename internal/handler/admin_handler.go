package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusqa/campus-qa-api/internal/models"
	"github.com/campusqa/campus-qa-api/internal/service"
	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
	"github.com/campusqa/campus-qa-api/pkg/response"
)

// AdminHandler exposes the moderation dashboard, account management,
// content moderation, exports and the audit trail.
type AdminHandler struct {
	dashboard *service.DashboardService
	exports   *service.ExportService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(dashboard *service.DashboardService, exports *service.ExportService) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, exports: exports}
}

func auditMetaFromContext(c *gin.Context) service.AuditMeta {
	meta := service.AuditMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	if user := userFromContext(c); user != nil {
		meta.ActorID = user.ID
	}
	return meta
}

// Dashboard godoc
// @Summary Moderation dashboard aggregates
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.DashboardStats
// @Router /admin/stats [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"stats": stats})
}

// ListUsers godoc
// @Summary List accounts
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param role query string false "Filter by role"
// @Param search query string false "Search name or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var filter models.UserFilter
	if raw := c.Query("role"); raw != "" && models.ValidRole(raw) {
		role := models.Role(raw)
		filter.Role = &role
	}
	filter.Search = c.Query("search")
	filter.Page, filter.Limit = pageParams(c, 20)

	users, pagination, err := h.dashboard.ListUsers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"users": users, "pagination": pagination})
}

// UpdateUserRole godoc
// @Summary Change an account's role
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body models.UpdateRoleRequest true "Role payload"
// @Success 200 {object} map[string]interface{}
// @Router /admin/users/{id}/role [patch]
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	user, err := h.dashboard.UpdateUserRole(c.Request.Context(), auditMetaFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": user})
}

// ToggleUserStatus godoc
// @Summary Toggle an account between active and inactive
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Router /admin/users/{id}/status [patch]
func (h *AdminHandler) ToggleUserStatus(c *gin.Context) {
	user, err := h.dashboard.ToggleUserStatus(c.Request.Context(), auditMetaFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": user})
}

// ListQuestions godoc
// @Summary List questions for moderation, archived included
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param archived query bool false "Filter by archive state"
// @Success 200 {object} map[string]interface{}
// @Router /admin/questions [get]
func (h *AdminHandler) ListQuestions(c *gin.Context) {
	filter := questionFilterFromQuery(c)
	filter.Archived = boolQuery(c, "archived")

	questions, pagination, err := h.dashboard.ListQuestions(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"questions": questions, "pagination": pagination})
}

// ToggleQuestionArchive godoc
// @Summary Toggle a question in or out of the archive
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} map[string]interface{}
// @Router /admin/questions/{id}/archive [patch]
func (h *AdminHandler) ToggleQuestionArchive(c *gin.Context) {
	archived, err := h.dashboard.ToggleQuestionArchive(c.Request.Context(), auditMetaFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"isArchived": archived})
}

// DeleteQuestion godoc
// @Summary Delete any question
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} map[string]interface{}
// @Router /admin/questions/{id} [delete]
func (h *AdminHandler) DeleteQuestion(c *gin.Context) {
	if err := h.dashboard.DeleteQuestion(c.Request.Context(), auditMetaFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "question deleted"})
}

// DeleteAnswer godoc
// @Summary Delete any answer
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Answer ID"
// @Success 200 {object} map[string]interface{}
// @Router /admin/answers/{id} [delete]
func (h *AdminHandler) DeleteAnswer(c *gin.Context) {
	if err := h.dashboard.DeleteAnswer(c.Request.Context(), auditMetaFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "answer deleted"})
}

// ListAuditLogs godoc
// @Summary List the audit trail
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /admin/logs [get]
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	page, limit := pageParams(c, 20)

	logs, pagination, err := h.dashboard.ListAuditLogs(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"logs": logs, "pagination": pagination})
}

// ExportQuestionsCSV godoc
// @Summary Export the question list as CSV
// @Tags Admin
// @Security BearerAuth
// @Produce text/csv
// @Success 200 {string} string
// @Router /admin/exports/questions [get]
func (h *AdminHandler) ExportQuestionsCSV(c *gin.Context) {
	filter := questionFilterFromQuery(c)
	filter.Archived = boolQuery(c, "archived")

	raw, err := h.exports.QuestionsCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("questions-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", raw)
}

// ExportStatsPDF godoc
// @Summary Export the dashboard stats as PDF
// @Tags Admin
// @Security BearerAuth
// @Produce application/pdf
// @Success 200 {string} string
// @Router /admin/exports/stats [get]
func (h *AdminHandler) ExportStatsPDF(c *gin.Context) {
	raw, err := h.exports.StatsPDF(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("forum-stats-%s.pdf", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", raw)
}

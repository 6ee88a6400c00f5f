package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campusqa/campus-qa-api/internal/middleware"
	"github.com/campusqa/campus-qa-api/internal/models"
	"github.com/campusqa/campus-qa-api/internal/service"
)

// Handlers bundles every route handler the router mounts.
type Handlers struct {
	Auth          *AuthHandler
	Questions     *QuestionHandler
	Answers       *AnswerHandler
	Comments      *CommentHandler
	Notifications *NotificationHandler
	Admin         *AdminHandler
	Metrics       *MetricsHandler
}

// RouterConfig toggles optional surfaces.
type RouterConfig struct {
	APIPrefix      string
	ExportsEnabled bool
}

// RegisterRoutes mounts every API route group under the prefix. Public
// reads stay open; writes require a valid token; the moderation surface is
// additionally capability-guarded.
func RegisterRoutes(r *gin.Engine, h Handlers, auth *service.AuthService, cfg RouterConfig) {
	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api"
	}
	api := r.Group(prefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/provider", h.Auth.ProviderSignIn)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/check-email", h.Auth.CheckEmail)
		authGroup.POST("/logout", middleware.Auth(auth), h.Auth.Logout)
		authGroup.GET("/me", middleware.Auth(auth), h.Auth.Me)
		authGroup.PUT("/profile", middleware.Auth(auth), h.Auth.UpdateProfile)
	}

	questions := api.Group("/questions")
	{
		questions.GET("", h.Questions.List)
		questions.GET("/:id", h.Questions.Get)
		questions.GET("/user/:userId", h.Questions.ListByUser)
		questions.POST("", middleware.Auth(auth), h.Questions.Create)
		questions.PUT("/:id", middleware.Auth(auth), h.Questions.Update)
		questions.DELETE("/:id", middleware.Auth(auth), h.Questions.Delete)
		questions.POST("/:id/like", middleware.Auth(auth), h.Questions.ToggleLike)
		questions.PATCH("/:id/resolve", middleware.Auth(auth), h.Questions.Resolve)
	}

	answers := api.Group("/answers")
	{
		answers.GET("/question/:questionId", h.Answers.ListByQuestion)
		answers.POST("", middleware.Auth(auth), h.Answers.Create)
		answers.PUT("/:id", middleware.Auth(auth), h.Answers.Update)
		answers.DELETE("/:id", middleware.Auth(auth), h.Answers.Delete)
		answers.PATCH("/:id/accept", middleware.Auth(auth), h.Answers.Accept)
		answers.PATCH("/:id/verify", middleware.Auth(auth), h.Answers.ToggleVerify)
		answers.POST("/:id/like", middleware.Auth(auth), h.Answers.ToggleLike)

		answers.POST("/:id/comments", middleware.Auth(auth), h.Comments.Create)
		answers.PUT("/comments/:commentId", middleware.Auth(auth), h.Comments.Update)
		answers.DELETE("/comments/:commentId", middleware.Auth(auth), h.Comments.Delete)
		answers.POST("/comments/:commentId/like", middleware.Auth(auth), h.Comments.ToggleLike)
	}

	notifications := api.Group("/notifications", middleware.Auth(auth))
	{
		notifications.GET("", h.Notifications.List)
		notifications.PUT("/read-all", h.Notifications.MarkAllRead)
		notifications.PUT("/:id/read", h.Notifications.MarkRead)
		notifications.DELETE("/:id", h.Notifications.Delete)
	}

	admin := api.Group("/admin", middleware.Auth(auth), middleware.Require(models.ActionModerate))
	{
		admin.GET("/stats", h.Admin.Dashboard)
		admin.GET("/users", h.Admin.ListUsers)
		admin.GET("/questions", h.Admin.ListQuestions)
		admin.PATCH("/users/:id/role", h.Admin.UpdateUserRole)
		admin.PATCH("/users/:id/status", h.Admin.ToggleUserStatus)
		admin.PATCH("/questions/:id/archive", h.Admin.ToggleQuestionArchive)

		adminOnly := admin.Group("", middleware.Require(models.ActionDeleteAnyContent))
		{
			adminOnly.DELETE("/questions/:id", h.Admin.DeleteQuestion)
			adminOnly.DELETE("/answers/:id", h.Admin.DeleteAnswer)
		}

		admin.GET("/logs", middleware.Require(models.ActionViewAuditLogs), h.Admin.ListAuditLogs)

		if cfg.ExportsEnabled {
			admin.GET("/exports/questions", h.Admin.ExportQuestionsCSV)
			admin.GET("/exports/stats", h.Admin.ExportStatsPDF)
		}
	}

	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
}

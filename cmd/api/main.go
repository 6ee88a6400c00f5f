package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusqa/campus-qa-api/api/swagger"
	"github.com/campusqa/campus-qa-api/internal/handler"
	internalmiddleware "github.com/campusqa/campus-qa-api/internal/middleware"
	"github.com/campusqa/campus-qa-api/internal/repository"
	"github.com/campusqa/campus-qa-api/internal/service"
	"github.com/campusqa/campus-qa-api/pkg/cache"
	"github.com/campusqa/campus-qa-api/pkg/config"
	"github.com/campusqa/campus-qa-api/pkg/database"
	"github.com/campusqa/campus-qa-api/pkg/jobs"
	"github.com/campusqa/campus-qa-api/pkg/logger"
	corsmiddleware "github.com/campusqa/campus-qa-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusqa/campus-qa-api/pkg/middleware/requestid"
)

// @title Campus Q&A API
// @version 1.0.0
// @description Campus question and answer forum REST API
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	metricsService := service.NewMetricsService()

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthServiceConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		TeacherEmails:      cfg.Auth.TeacherEmails,
		SingleSession:      cfg.Auth.SingleSession,
	})

	notificationService := service.NewNotificationService(notificationRepo, userRepo, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
	}, logr).WithMetrics(metricsService)

	questionService := service.NewQuestionService(questionRepo, notificationService, validate, logr)
	answerService := service.NewAnswerService(answerRepo, questionRepo, commentRepo, notificationService, validate, logr)
	commentService := service.NewCommentService(commentRepo, answerRepo, validate, logr)

	var dashboardService *service.DashboardService
	if cfg.Dashboard.Enabled {
		dashboardService = service.NewDashboardService(statsRepo, userRepo, questionRepo, answerRepo, cacheRepo, cfg.Dashboard.CacheTTL, validate, logr)
	} else {
		dashboardService = service.NewDashboardService(statsRepo, userRepo, questionRepo, answerRepo, nil, cfg.Dashboard.CacheTTL, validate, logr)
	}
	dashboardService = dashboardService.WithMetrics(metricsService)
	exportService := service.NewExportService(questionRepo, statsRepo, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notificationService.Start(ctx)
	defer notificationService.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, handler.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Questions:     handler.NewQuestionHandler(questionService, answerService),
		Answers:       handler.NewAnswerHandler(answerService),
		Comments:      handler.NewCommentHandler(commentService),
		Notifications: handler.NewNotificationHandler(notificationService),
		Admin:         handler.NewAdminHandler(dashboardService, exportService),
		Metrics:       handler.NewMetricsHandler(metricsService),
	}, authService, handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		ExportsEnabled: cfg.Exports.Enabled,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/refdesk/refdesk-api/api/swagger"
	"github.com/refdesk/refdesk-api/internal/handler"
	"github.com/refdesk/refdesk-api/internal/middleware"
	"github.com/refdesk/refdesk-api/internal/models"
	"github.com/refdesk/refdesk-api/internal/repository"
	"github.com/refdesk/refdesk-api/internal/service"
	"github.com/refdesk/refdesk-api/pkg/cache"
	"github.com/refdesk/refdesk-api/pkg/config"
	"github.com/refdesk/refdesk-api/pkg/database"
	"github.com/refdesk/refdesk-api/pkg/export"
	"github.com/refdesk/refdesk-api/pkg/jobs"
	"github.com/refdesk/refdesk-api/pkg/logger"
	corsmiddleware "github.com/refdesk/refdesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/refdesk/refdesk-api/pkg/middleware/requestid"
	"github.com/refdesk/refdesk-api/pkg/storage"
)

// @title RefDesk API
// @version 1.0.0
// @description Referee delegation service for basketball competitions
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	refereeRepo := repository.NewRefereeRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	competitionRepo := repository.NewCompetitionRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	delegationRepo := repository.NewDelegationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsService := service.NewMetricsService()

	authService := service.NewAuthService(userRepo, refereeRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "refdesk-api",
	})

	userService := service.NewUserService(userRepo, validate, logr)
	refereeService := service.NewRefereeService(refereeRepo, userRepo, cacheRepo, validate, logr)
	teamService := service.NewTeamService(teamRepo, validate, logr)
	venueService := service.NewVenueService(venueRepo, validate, logr)
	competitionService := service.NewCompetitionService(competitionRepo, validate, logr)
	matchService := service.NewMatchService(matchRepo, competitionRepo, teamRepo, venueRepo, cacheRepo, validate, logr)
	availabilityService := service.NewAvailabilityService(availabilityRepo, refereeRepo, userRepo, cacheRepo, validate, logr)

	notificationService := service.NewNotificationService(notificationRepo, refereeRepo, userRepo, logr, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})

	delegationService := service.NewDelegationService(
		delegationRepo,
		matchRepo,
		refereeRepo,
		availabilityService,
		userRepo,
		notificationService,
		cacheRepo,
		validate,
		logr,
		service.DelegationConfig{
			AllowUnavailableOverride: cfg.Delegation.AllowUnavailableOverride,
			EditLockBefore:           cfg.Delegation.EditLockBefore,
		},
	)
	delegationService.UseMetrics(metricsService)

	rosterService := service.NewRosterService(refereeRepo, matchRepo, availabilityRepo, delegationRepo, cacheRepo, cfg.Roster.CacheTTL, logr)
	dashboardService := service.NewDashboardService(delegationRepo, matchRepo, refereeRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)

	var reportService *service.ReportService
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportService = service.NewReportService(reportRepo, store, signer, validate, logr, service.ReportConfig{
			Workers:         cfg.Reports.WorkerConcurrency,
			MaxRetries:      cfg.Reports.WorkerRetries,
			RetryDelay:      cfg.Reports.WorkerRetryDelay,
			FileTTL:         cfg.Reports.FileTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		})
		reportService.UseMetrics(metricsService)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	refereeHandler := handler.NewRefereeHandler(refereeService)
	teamHandler := handler.NewTeamHandler(teamService)
	venueHandler := handler.NewVenueHandler(venueService)
	competitionHandler := handler.NewCompetitionHandler(competitionService)
	matchHandler := handler.NewMatchHandler(matchService)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService)
	delegationHandler := handler.NewDelegationHandler(delegationService, export.NewPDFExporter())
	rosterHandler := handler.NewRosterHandler(rosterService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		session := auth.Group("", middleware.JWT(authService))
		session.POST("/logout", authHandler.Logout)
		session.POST("/change-password", authHandler.ChangePassword)
		session.GET("/me", authHandler.Me)
	}

	protected := api.Group("", middleware.JWT(authService))

	admin := string(models.RoleAdmin)
	delegate := string(models.RoleDelegate)
	referee := string(models.RoleReferee)

	users := protected.Group("/users", middleware.RBAC(admin))
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.POST("", middleware.Audit(userRepo, "create", "user"), userHandler.Create)
		users.PUT("/:id", middleware.Audit(userRepo, "update", "user"), userHandler.Update)
		users.DELETE("/:id", middleware.Audit(userRepo, "deactivate", "user"), userHandler.Deactivate)
	}

	referees := protected.Group("/referees")
	{
		referees.GET("", refereeHandler.List)
		referees.GET("/:id", refereeHandler.Get)
		referees.POST("", middleware.RBAC(admin), middleware.Audit(userRepo, "create", "referee"), refereeHandler.Create)
		referees.PUT("/:id", middleware.RBAC(admin, delegate), middleware.Audit(userRepo, "update", "referee"), refereeHandler.Update)
		referees.PUT("/:id/status", middleware.RBAC(admin, delegate), middleware.Audit(userRepo, "set_status", "referee"), refereeHandler.SetStatus)

		referees.GET("/:id/availability", availabilityHandler.List)
		referees.PUT("/:id/availability", middleware.RBAC(admin, delegate, "SELF"), availabilityHandler.Set)
		referees.PUT("/:id/availability/range", middleware.RBAC(admin, delegate, "SELF"), availabilityHandler.SetRange)
	}

	teams := protected.Group("/teams")
	{
		teams.GET("", teamHandler.List)
		teams.GET("/:id", teamHandler.Get)
		teams.POST("", middleware.RBAC(admin, delegate), teamHandler.Create)
		teams.PUT("/:id", middleware.RBAC(admin, delegate), teamHandler.Update)
		teams.DELETE("/:id", middleware.RBAC(admin), teamHandler.Deactivate)
	}

	venues := protected.Group("/venues")
	{
		venues.GET("", venueHandler.List)
		venues.GET("/:id", venueHandler.Get)
		venues.POST("", middleware.RBAC(admin, delegate), venueHandler.Create)
		venues.PUT("/:id", middleware.RBAC(admin, delegate), venueHandler.Update)
		venues.DELETE("/:id", middleware.RBAC(admin), venueHandler.Deactivate)
	}

	competitions := protected.Group("/competitions")
	{
		competitions.GET("", competitionHandler.List)
		competitions.GET("/:id", competitionHandler.Get)
		competitions.POST("", middleware.RBAC(admin), competitionHandler.Create)
		competitions.PUT("/:id", middleware.RBAC(admin), competitionHandler.Update)
		competitions.DELETE("/:id", middleware.RBAC(admin), competitionHandler.Deactivate)
	}

	matches := protected.Group("/matches")
	{
		matches.GET("", matchHandler.List)
		matches.GET("/:id", matchHandler.Get)
		matches.POST("", middleware.RBAC(admin, delegate), matchHandler.Create)
		matches.PUT("/:id", middleware.RBAC(admin, delegate), matchHandler.Update)
		matches.PUT("/:id/status", middleware.RBAC(admin, delegate), matchHandler.SetStatus)

		matches.GET("/:id/candidates", middleware.RBAC(admin, delegate), rosterHandler.Candidates)

		matches.GET("/:id/delegation", delegationHandler.Get)
		matches.GET("/:id/delegation/sheet", delegationHandler.OfficialsSheet)
		matches.PUT("/:id/delegation/slots/:slot", middleware.RBAC(admin, delegate), middleware.Audit(userRepo, "assign", "delegation"), delegationHandler.Assign)
		matches.DELETE("/:id/delegation/slots/:slot", middleware.RBAC(admin, delegate), middleware.Audit(userRepo, "remove", "delegation"), delegationHandler.Remove)
		matches.POST("/:id/delegation/slots/:slot/respond", middleware.RBAC(admin, delegate, referee), delegationHandler.Respond)
		matches.POST("/:id/delegation/confirm", middleware.RBAC(admin, delegate), middleware.Audit(userRepo, "confirm", "delegation"), delegationHandler.Confirm)
		matches.PUT("/:id/delegation/notes", middleware.RBAC(admin, delegate), delegationHandler.SetNotes)
	}

	protected.GET("/me/assignments", middleware.RBAC(referee), delegationHandler.MyAssignments)

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
	}

	if cfg.Dashboard.Enabled {
		protected.GET("/dashboard/summary", middleware.RBAC(admin, delegate), dashboardHandler.Summary)
	}

	if reportService != nil {
		reportHandler := handler.NewReportHandler(reportService)
		reports := protected.Group("/reports", middleware.RBAC(admin, delegate))
		{
			reports.POST("", reportHandler.Create)
			reports.GET("/:id", reportHandler.Get)
		}
		// Download tokens are self-authorizing; the signed token is the
		// credential.
		api.GET("/downloads/:token", reportHandler.Download)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Notifications.Enabled {
		notificationService.Start(ctx)
		defer notificationService.Stop()
	}
	if reportService != nil {
		reportService.Start(ctx)
		defer reportService.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

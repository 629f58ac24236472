package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/solidario/donation-api/api/swagger"
	"github.com/solidario/donation-api/internal/handler"
	"github.com/solidario/donation-api/internal/middleware"
	"github.com/solidario/donation-api/internal/models"
	"github.com/solidario/donation-api/internal/repository"
	"github.com/solidario/donation-api/internal/service"
	"github.com/solidario/donation-api/pkg/cache"
	"github.com/solidario/donation-api/pkg/config"
	"github.com/solidario/donation-api/pkg/database"
	"github.com/solidario/donation-api/pkg/logger"
	corsmiddleware "github.com/solidario/donation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/solidario/donation-api/pkg/middleware/requestid"
	"github.com/solidario/donation-api/pkg/storage"
)

// @title Solidario Donation API
// @version 1.0.0
// @description Donation and distribution management backend for NGO operations
// @BasePath /api/v1
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, analytics cache disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	donationRepo := repository.NewDonationRepository(db)
	distributionRepo := repository.NewDistributionRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	beneficiaryRepo := repository.NewBeneficiaryRepository(db)
	volunteerRepo := repository.NewVolunteerRepository(db)
	eventRepo := repository.NewEventRepository(db)
	userRepo := repository.NewUserRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr,
		cfg.Analytics.CacheEnabled && redisClient != nil)
	authSvc := service.NewAuthService(userRepo, logr, cfg.JWT)
	categorySvc := service.NewCategoryService(categoryRepo, logr)
	donationSvc := service.NewDonationService(donationRepo, categoryRepo, distributionRepo, logr,
		service.WithDonationCache(cacheSvc))
	distributionSvc := service.NewDistributionService(distributionRepo, donationRepo, familyRepo, logr,
		service.WithDistributionCache(cacheSvc))
	familySvc := service.NewFamilyService(familyRepo, beneficiaryRepo, logr)
	volunteerSvc := service.NewVolunteerService(volunteerRepo, logr)
	eventSvc := service.NewEventService(eventRepo, donationRepo, familyRepo, logr)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, cfg.Analytics, logr,
		service.WithAnalyticsCache(cacheSvc))

	var exportSvc *service.ExportService
	if cfg.Reports.Enabled {
		reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		exportSvc = service.NewExportService(donationRepo, analyticsRepo, reportStore, cfg.Reports, cfg.APIPrefix, logr)
		exportSvc.Start(context.Background())
		defer exportSvc.Stop()
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	donationHandler := handler.NewDonationHandler(donationSvc, distributionSvc)
	distributionHandler := handler.NewDistributionHandler(distributionSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	familyHandler := handler.NewFamilyHandler(familySvc)
	volunteerHandler := handler.NewVolunteerHandler(volunteerSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	reportHandler := handler.NewReportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	}

	// Reports downloads carry their own signed token.
	api.GET("/reports/download/:token", reportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		categories := protected.Group("/categories")
		{
			categories.GET("", categoryHandler.List)
			categories.GET("/:id", categoryHandler.Get)
			categories.POST("", categoryHandler.Create)
			categories.PUT("/:id", categoryHandler.Update)
			categories.POST("/:id/activate", categoryHandler.Activate)
			categories.POST("/:id/deactivate", categoryHandler.Deactivate)
			categories.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), categoryHandler.Delete)
		}

		donations := protected.Group("/donations")
		{
			donations.GET("", donationHandler.List)
			donations.GET("/:id", donationHandler.Get)
			donations.GET("/:id/stats", donationHandler.Stats)
			donations.GET("/:id/distributions", distributionHandler.ListForDonation)
			donations.POST("", donationHandler.Create)
			donations.PUT("/:id", donationHandler.Update)
			donations.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), donationHandler.Delete)
		}

		distributions := protected.Group("/distributions")
		{
			distributions.GET("", distributionHandler.List)
			distributions.GET("/donation/:donationId", distributionHandler.ListByDonation)
			distributions.GET("/family/:familyId", distributionHandler.ListByFamily)
			distributions.GET("/:id", distributionHandler.Get)
			distributions.POST("", distributionHandler.Create)
			distributions.PUT("/:id", distributionHandler.Update)
			distributions.POST("/:id/cancel", distributionHandler.Cancel)
			distributions.POST("/:id/deliver", distributionHandler.ConfirmDelivery)
		}

		families := protected.Group("/families")
		{
			families.GET("", familyHandler.List)
			families.GET("/:id", familyHandler.Get)
			families.GET("/:id/distributions", distributionHandler.ListForFamily)
			families.POST("", familyHandler.Create)
			families.PUT("/:id", familyHandler.Update)
			families.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), familyHandler.Delete)
		}

		beneficiaries := protected.Group("/beneficiaries")
		{
			beneficiaries.GET("", familyHandler.ListBeneficiaries)
			beneficiaries.POST("", familyHandler.CreateBeneficiary)
			beneficiaries.PUT("/:id", familyHandler.UpdateBeneficiary)
			beneficiaries.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), familyHandler.DeleteBeneficiary)
		}

		volunteers := protected.Group("/volunteers")
		{
			volunteers.GET("", volunteerHandler.List)
			volunteers.GET("/:id", volunteerHandler.Get)
			volunteers.POST("", volunteerHandler.Create)
			volunteers.PUT("/:id", volunteerHandler.Update)
			volunteers.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), volunteerHandler.Delete)
		}

		events := protected.Group("/events")
		{
			events.GET("", eventHandler.List)
			events.GET("/:id", eventHandler.Get)
			events.POST("", eventHandler.Create)
			events.PUT("/:id", eventHandler.Update)
			events.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), eventHandler.Delete)
		}

		analytics := protected.Group("/analytics")
		{
			analytics.GET("/overview", analyticsHandler.Overview)
			analytics.GET("/trends", analyticsHandler.Trends)
			analytics.GET("/categories", analyticsHandler.Categories)
			analytics.GET("/donors", analyticsHandler.Donors)
			analytics.GET("/efficiency", analyticsHandler.Efficiency)
		}

		reports := protected.Group("/reports")
		{
			reports.POST("/export", reportHandler.Export)
			reports.GET("/:id", reportHandler.Status)
		}

		protected.GET("/metrics/system", metricsHandler.Snapshot)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}

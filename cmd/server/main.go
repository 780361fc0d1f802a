package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lennart897/ProPlan-sub001/internal/config"
	"github.com/Lennart897/ProPlan-sub001/internal/middleware"
	"github.com/Lennart897/ProPlan-sub001/internal/shared/notify"
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/entity"
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/handler"
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/repository"
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/service"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	zapLogger.Info("Starting proplan service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Project{},
		&entity.HistoryEntry{},
		&entity.LocationApproval{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}

	// Raw SQL for what AutoMigrate cannot express: partial indexes, the
	// append-only guarantee on the history table and the session GUCs the
	// policies read.
	migrationSQL := []string{
		"CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status) WHERE archived = false",
		"CREATE INDEX IF NOT EXISTS idx_projects_archived_at ON projects(archived_at) WHERE archived = true",
		"CREATE INDEX IF NOT EXISTS idx_project_history_project ON project_history(project_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_project_history_actor ON project_history(actor_id, created_at)",

		// The audit trail is append-only. Row-level security grants SELECT
		// and INSERT; the absence of UPDATE/DELETE policies makes mutation
		// impossible even for the application role.
		"ALTER TABLE project_history ENABLE ROW LEVEL SECURITY",
		"ALTER TABLE project_history FORCE ROW LEVEL SECURITY",
		`DO $$ BEGIN
			CREATE POLICY project_history_read ON project_history FOR SELECT USING (true);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		`DO $$ BEGIN
			CREATE POLICY project_history_append ON project_history FOR INSERT
				WITH CHECK (actor_id = COALESCE(NULLIF(current_setting('app.actor_id', true), ''), actor_id));
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	}
	for _, sql := range migrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			zapLogger.Warn("Migration SQL warning (may already exist)", zap.String("sql", sql), zap.Error(err))
		}
	}
	zapLogger.Info("Database migration completed")

	rdb := initRedis(cfg.Redis)

	var notifier *notify.Client
	if cfg.Notify.Endpoint != "" {
		notifier = notify.NewClient(cfg.Notify.Endpoint, cfg.Notify.Token)
		zapLogger.Info("Notification webhook configured", zap.String("endpoint", cfg.Notify.Endpoint))
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, rdb, notifier, zapLogger)
	handlers := handler.NewHandlers(services)

	// Nightly sweep: GENEHMIGT projects past their last delivery date move
	// to ABGESCHLOSSEN.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Sweep.Schedule, func() {
		n, err := services.Workflow.AutoComplete(context.Background())
		if err != nil {
			zapLogger.Error("Auto-complete sweep failed", zap.Error(err))
			return
		}
		if n > 0 {
			zapLogger.Info("Auto-complete sweep finished", zap.Int("completed", n))
		}
	}); err != nil {
		zapLogger.Fatal("Invalid sweep schedule", zap.String("schedule", cfg.Sweep.Schedule), zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // Disable for SSE long-lived connections
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	{
		// SSE push (token via query param, EventSource cannot set headers)
		sseGroup := v1.Group("/sse")
		sseGroup.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			sseGroup.GET("/events", h.SSE.Stream)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			authorized.GET("/users/me", h.User.Me)

			projects := authorized.Group("/projects")
			{
				projects.POST("", middleware.RequireRole(entity.RoleVertrieb), h.Project.Create)
				projects.GET("", h.Project.List)

				// Static segments before /:id so gin does not treat
				// "archive" or "number" as a project id.
				projects.GET("/archive", h.Project.ListArchive)
				projects.GET("/archive/export", h.Export.ExportArchive)
				projects.GET("/number/:number", h.Project.GetByNumber)

				projects.GET("/:id", h.Project.Get)
				projects.POST("/:id/approve", h.Project.Approve)
				projects.POST("/:id/approve-location", h.Project.ApproveLocation)
				projects.POST("/:id/reject", h.Project.Reject)
				projects.POST("/:id/correct", h.Project.Correct)
				projects.POST("/:id/archive", middleware.RequireRole(entity.RoleVertrieb), h.Project.Archive)
				projects.GET("/:id/history", h.History.ListByProject)
				projects.GET("/:id/location-approvals", h.Project.LocationApprovals)
			}

			history := authorized.Group("/history")
			{
				history.GET("/actor/:actorId", h.History.ListByActor)
			}
		}
	}
}

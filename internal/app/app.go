package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"shikkha_backend/internal/config"
	"shikkha_backend/internal/controller"
	"shikkha_backend/internal/i18n"
	"shikkha_backend/internal/repository"
	"shikkha_backend/internal/service"
	"shikkha_backend/pkg/configwatcher"
	"shikkha_backend/pkg/database"
	"shikkha_backend/pkg/logger"
	"shikkha_backend/pkg/monitoring"
	"shikkha_backend/pkg/security"
	"shikkha_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Policy          *service.PolicyStore
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	exam       *repository.ExamRepository
	submission *repository.SubmissionRepository
	draft      *repository.DraftRepository
}

type services struct {
	archive    *service.ArchiveService
	exam       *service.ExamService
	draft      *service.DraftService
	submission *service.SubmissionService
	result     *service.ResultService
}

type controllers struct {
	exam       *controller.ExamController
	draft      *controller.DraftController
	submission *controller.SubmissionController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热更新后调用所有回调
func (a *App) ApplyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	repos := &repositories{
		exam:       repository.NewExamRepository(db),
		submission: repository.NewSubmissionRepository(db),
	}
	// 没有 Redis 时草稿功能关闭
	if rdb != nil {
		repos.draft = repository.NewDraftRepository(rdb)
	}
	return repos
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.archive = service.NewArchiveService(cfg)
	s.exam = service.NewExamService(repos.exam, s.archive, a.Policy)
	s.draft = service.NewDraftService(repos.draft, repos.exam, cfg.Redis.DraftTTL)
	s.submission = service.NewSubmissionService(repos.submission, repos.exam, s.draft, s.archive, a.Policy)
	s.result = service.NewResultService(repos.submission, repos.exam, s.archive)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		exam:       controller.NewExamController(s.exam, s.draft),
		draft:      controller.NewDraftController(s.draft),
		submission: controller.NewSubmissionController(s.submission, s.result),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
	router.Use(i18n.Middleware())
}

// New wires the HTTP stack on top of already opened connections. rdb may be nil.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Policy: service.NewPolicyStore(cfg.Exam),
	}

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		if err := app.Policy.Update(newCfg.Exam); err != nil {
			logger.Log.Error("exam policy not reloaded", zap.Error(err))
			return
		}
		logger.Log.Info("exam policy reloaded",
			zap.Float64("passing_ratio", newCfg.Exam.PassingRatio),
			zap.Bool("allow_multiple_attempts", newCfg.Exam.AllowMultipleAttempts),
			zap.String("late_policy", newCfg.Exam.LatePolicy))
	})

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	return app
}

// NewApp opens the database, redis and tracer described by cfg.
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	if err := i18n.Init(cfg.I18n.DefaultLanguage); err != nil {
		return nil, err
	}

	// release 模式下只有显式指定才迁移
	migrate := cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Error("Failed to initialize database", zap.Error(err))
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Error("Failed to initialize redis", zap.Error(err))
			return nil, err
		}
	} else {
		logger.Log.Warn("redis not configured, drafts and attempt start times are disabled")
	}

	app := New(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("shikkha-exam", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	return app, nil
}

// Run serves until SIGINT/SIGTERM or ctx is cancelled, then shuts down gracefully.
// A non-empty configFile is watched for exam policy changes.
func (a *App) Run(ctx context.Context, configFile string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if configFile != "" {
		go func() {
			if err := configwatcher.WatchConfig(ctx, configFile, a.ApplyConfig); err != nil {
				logger.Log.Warn("config watcher stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Close()
		return err
	case <-ctx.Done():
	}
	logger.Log.Info("Shutting down server...")

	// 设置5秒的超时时间
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	a.Close()

	logger.Log.Info("Server exiting")
	return err
}

// Close releases the tracer, redis and database connections.
func (a *App) Close() {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = logger.Log.Sync()
}

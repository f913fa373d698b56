package app

import (
	"caretrain_backend/internal/config"
	"caretrain_backend/internal/controller"
	"caretrain_backend/internal/middleware"
	"caretrain_backend/internal/repository"
	"caretrain_backend/internal/service"
	"caretrain_backend/pkg/configwatcher"
	"caretrain_backend/pkg/database"
	"caretrain_backend/pkg/logger"
	"caretrain_backend/pkg/monitoring"
	"caretrain_backend/pkg/security"
	"caretrain_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	scenario *repository.ScenarioRepository
	attempt  *repository.AttemptRepository
}

type services struct {
	ai          *service.AIService
	auth        *service.AuthService
	user        *service.UserService
	scenario    *service.ScenarioService
	attempt     *service.AttemptService
	adaptive    *service.AdaptiveDifficultyService
	enhancement *service.LearningEnhancementService
	dashboard   *service.DashboardService
	transcripts *service.TranscriptStore
}

type controllers struct {
	auth      *controller.AuthController
	user      *controller.UserController
	scenario  *controller.ScenarioController
	attempt   *controller.AttemptController
	adaptive  *controller.AdaptiveController
	coaching  *controller.CoachingController
	dashboard *controller.DashboardController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		scenario: repository.NewScenarioRepository(db),
		attempt:  repository.NewAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.ai = service.NewAIService(cfg.AI)
	s.transcripts = service.NewTranscriptStore(rdb)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.scenario = service.NewScenarioService(repos.scenario)
	s.attempt = service.NewAttemptService(repos.attempt, repos.scenario, s.ai, s.transcripts)
	s.adaptive = service.NewAdaptiveDifficultyService(repos.attempt, repos.user, repos.scenario, s.ai, rdb, cfg)
	s.enhancement = service.NewLearningEnhancementService(s.ai)
	s.dashboard = service.NewDashboardService(repos.user, repos.attempt, s.adaptive)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		user:      controller.NewUserController(s.user),
		scenario:  controller.NewScenarioController(s.scenario),
		attempt:   controller.NewAttemptController(s.attempt),
		adaptive:  controller.NewAdaptiveController(s.adaptive),
		coaching:  controller.NewCoachingController(s.enhancement, s.transcripts),
		dashboard: controller.NewDashboardController(s.dashboard),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	// Schema always migrates outside release mode; release deploys opt in
	// via the migrate flags.
	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode != "release" || cfg.ForceMigrate)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	if cfg.MigrateOnly {
		return app
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("caretrain-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	// Hot-swap the AI endpoint and model when the config file changes.
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		services.ai.UpdateConfig(newCfg.AI)
		logger.Log.Info("AI configuration reloaded",
			zap.String("model", newCfg.AI.Model))
	})
	go configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
		for _, cb := range app.configCallbacks {
			cb(newCfg)
		}
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

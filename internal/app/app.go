package app

import (
	"context"
	"log"
	"net/http"
	"noted_backend/internal/config"
	"noted_backend/internal/controller"
	"noted_backend/internal/repository"
	"noted_backend/internal/service"
	"noted_backend/pkg/configwatcher"
	"noted_backend/pkg/database"
	"noted_backend/pkg/logger"
	"noted_backend/pkg/monitoring"
	"noted_backend/pkg/security"
	"noted_backend/pkg/tracing"
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
	session   *repository.SessionRepository
	asset     *repository.AssetRepository
	flashcard *repository.FlashcardRepository
	quiz      *repository.QuizRepository
	course    *repository.CourseRepository
	calendar  *repository.CalendarRepository
	proposal  *repository.ProposalRepository
}

type services struct {
	bus       *service.EventBus
	ai        *service.AIService
	storage   *service.StorageService
	liveAudio *service.LiveAudioService
	session   *service.SessionService
	media     *service.MediaService
	flashcard *service.FlashcardService
	study     *service.StudyService
	quiz      *service.QuizService
	course    *service.CourseService
	email     *service.EmailService
	calendar  *service.CalendarService
}

type controllers struct {
	health    *controller.HealthController
	session   *controller.SessionController
	notify    *controller.NotifyController
	flashcard *controller.FlashcardController
	study     *controller.StudyController
	quiz      *controller.QuizController
	course    *controller.CourseController
	calendar  *controller.CalendarController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		session:   repository.NewSessionRepository(db),
		asset:     repository.NewAssetRepository(db),
		flashcard: repository.NewFlashcardRepository(db),
		quiz:      repository.NewQuizRepository(db),
		course:    repository.NewCourseRepository(db),
		calendar:  repository.NewCalendarRepository(db),
		proposal:  repository.NewProposalRepository(db, rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.bus = service.NewEventBus()
	s.ai = service.NewAIService(cfg.AI)
	s.storage = service.NewStorageService(cfg)

	s.liveAudio = service.NewLiveAudioService(s.ai, repos.session, s.bus, cfg.LiveAudio)
	s.session = service.NewSessionService(repos.session, s.bus)
	s.media = service.NewMediaService(s.storage, repos.asset, repos.session, s.ai, s.ai, s.bus)
	s.flashcard = service.NewFlashcardService(repos.flashcard, repos.session, repos.course, s.ai, s.bus)
	s.study = service.NewStudyService(repos.session, s.ai, s.bus)
	s.quiz = service.NewQuizService(repos.quiz, repos.flashcard, repos.session, s.bus)
	s.course = service.NewCourseService(repos.course, repos.session, s.bus)
	s.email = service.NewEmailService(repos.proposal, s.ai, s.bus, cfg.Auth.EmailWebhookSecret)
	s.calendar = service.NewCalendarService(repos.calendar, repos.proposal, s.bus)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		health:    controller.NewHealthController(db),
		session:   controller.NewSessionController(s.session, s.media),
		notify:    controller.NewNotifyController(s.bus, s.liveAudio, s.session),
		flashcard: controller.NewFlashcardController(s.flashcard),
		study:     controller.NewStudyController(s.study),
		quiz:      controller.NewQuizController(s.quiz),
		course:    controller.NewCourseController(s.course),
		calendar:  controller.NewCalendarController(s.email, s.calendar),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 300
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
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Warn("Redis unavailable, continuing without dedup cache", zap.Error(err))
			rdb = nil
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("noted-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		updated, ok := newCfg.(*config.Config)
		if !ok {
			return
		}
		logger.Log.Info("Configuration reloaded")
		for _, cb := range app.configCallbacks {
			cb(updated)
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

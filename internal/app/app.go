package app

import (
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

	"cybersafe_backend/internal/config"
	"cybersafe_backend/internal/controller"
	"cybersafe_backend/internal/repository"
	"cybersafe_backend/internal/service"
	"cybersafe_backend/internal/store"
	"cybersafe_backend/internal/util"
	"cybersafe_backend/pkg/database"
	"cybersafe_backend/pkg/logger"
	"cybersafe_backend/pkg/monitoring"
	"cybersafe_backend/pkg/tracing"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
	tiered   *store.Fallback
}

type repositories struct {
	user       *repository.UserRepository
	progress   *repository.ProgressRepository
	completion *repository.CompletionRepository
}

type services struct {
	auth        *service.AuthService
	user        *service.UserService
	progress    *service.ProgressService
	sync        *service.SyncService
	completion  *service.CompletionService
	storage     *service.StorageService
	certificate *service.CertificateService
	catalogue   *service.CatalogueService
	eventsHub   *service.EventsHub
}

type controllers struct {
	auth       *controller.AuthController
	progress   *controller.ProgressController
	completion *controller.CompletionController
	admin      *controller.AdminController
	content    *controller.ContentController
	events     *controller.EventsController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	// Progress documents live behind the tiered store: database rows
	// first, Redis keys second, process memory as the last resort.
	tiered := store.NewFallback(
		store.NewGormStore(db),
		store.NewRedisStore(rdb),
	)
	a.tiered = tiered

	return &repositories{
		user:       repository.NewUserRepository(db),
		progress:   repository.NewProgressRepository(tiered),
		completion: repository.NewCompletionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg.JWT.Secret, cfg.JWT.ExpireTime)
	s.user = service.NewUserService(repos.user)
	s.completion = service.NewCompletionService(repos.completion)
	s.certificate = service.NewCertificateService(repos.user, s.storage)

	catalogue, err := service.NewCatalogueService(cfg.Catalogue.Path)
	if err != nil {
		logger.Log.Warn("catalogue load failed, content endpoints will be empty", zap.Error(err))
		catalogue = &service.CatalogueService{}
	}
	s.catalogue = catalogue

	s.progress = service.NewProgressService(repos.progress, s.catalogue)

	var remote service.RemoteClient
	if cfg.Sync.Enabled && cfg.Sync.RemoteURL != "" {
		remote = service.NewHTTPRemote(cfg.Sync.RemoteURL)
	}
	s.sync = service.NewSyncService(repos.progress, remote, cfg.Sync)
	s.progress.SetCommitHook(s.sync)

	s.eventsHub = service.NewEventsHub(rdb)
	go s.eventsHub.Run()
	s.progress.Subscribe(s.eventsHub.BroadcastProgress)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth, s.user, s.sync),
		progress:   controller.NewProgressController(s.progress, s.user),
		completion: controller.NewCompletionController(s.completion),
		admin:      controller.NewAdminController(s.user, s.auth, s.certificate),
		content:    controller.NewContentController(s.catalogue),
		events:     controller.NewEventsController(s.eventsHub),
		health:     controller.NewHealthController(db, rdb, s.progress, s.sync),
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("cybersafe-training", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/artifacts", cfg.Storage.LocalPath)
	}

	return app
}

// ReprobeStorage re-runs backend selection for the progress store. Called
// on config reload so a database that was down at startup gets another
// chance before the session settles on a fallback.
func (a *App) ReprobeStorage() {
	if a.tiered != nil {
		a.tiered.Reprobe()
	}
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

	if a.services != nil && a.services.eventsHub != nil {
		a.services.eventsHub.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Sync()
	log.Println("Server exiting")
}

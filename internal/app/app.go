package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vinnodrive/vinnodrive/internal/config"
	"github.com/vinnodrive/vinnodrive/internal/db"
	"github.com/vinnodrive/vinnodrive/internal/markdown"
	"github.com/vinnodrive/vinnodrive/internal/metrics"
	"github.com/vinnodrive/vinnodrive/internal/ratelimit"
	"github.com/vinnodrive/vinnodrive/internal/repository"
	"github.com/vinnodrive/vinnodrive/internal/service"
	"github.com/vinnodrive/vinnodrive/internal/storage"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB
	Metrics        *metrics.Metrics
	AuthService    *service.AuthService
	UsageService   *service.UsageService
	UploadService  *service.UploadService
	FileService    *service.FileService
	ShareService   *service.ShareService
	PreviewService *service.PreviewService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	fileRepository := repository.NewFileRepository(database)
	shareRepository := repository.NewShareRepository(database)

	// Storage
	objectStorage, err := storage.New(cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}
	stager, err := storage.NewStager(cfg.StagingPath)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize staging area: %v", err)
	}

	if local, ok := objectStorage.(*storage.LocalStorage); ok {
		err = local.CheckStaging(stager.Dir())
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to verify staging area: %v", err)
		}
	}

	m := metrics.Init(nil)
	locks := service.NewUserLocks()

	// Services
	authService := service.NewAuthService(userRepository, cfg.JWTSecret, cfg.IsProduction(), cfg.JWTExpiry)
	usageService := service.NewUsageService(fileRepository, userRepository, cfg.QuotaLimit)
	shareService := service.NewShareService(fileRepository, shareRepository, userRepository)
	fileService := service.NewFileService(database, fileRepository, shareService, objectStorage, locks, m)
	uploadService := service.NewUploadService(
		database,
		fileRepository,
		usageService,
		objectStorage,
		stager,
		ratelimit.NewCooldown(cfg.UploadCooldown),
		locks,
		m,
	)
	previewService := service.NewPreviewService(fileService, markdown.NewRenderer())

	return &App{
		Cfg:            cfg,
		DB:             database,
		Metrics:        m,
		AuthService:    authService,
		UsageService:   usageService,
		UploadService:  uploadService,
		FileService:    fileService,
		ShareService:   shareService,
		PreviewService: previewService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

package app

import (
	"context"

	"stayops/config"
	"stayops/internal/controllers"
	"stayops/internal/database"
	"stayops/internal/handlers/middleware"
	"stayops/internal/jobs"
	"stayops/internal/repositories"
	"stayops/internal/services"
	"stayops/internal/timewindow"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database    database.DB
	Middleware  middleware.Middleware
	Config      config.Config
	Repos       repositories.Repository
	Services    services.Service
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	repos := repositories.New(db)

	civilZone := timewindow.Location(config.CivilOffsetMinutes)

	transactionService := services.NewTransactionService(db)
	tokenService := services.NewTokenService(repos.Token, transactionService, db)
	schedulerService := services.NewSchedulerService(civilZone)
	notifier := services.NewNotifier(config)
	photoRetentionService := services.NewPhotoRetentionService(
		repos.Task,
		transactionService,
		config,
	)

	service := services.Service{
		Transaction:    transactionService,
		Token:          tokenService,
		Scheduler:      schedulerService,
		Notify:         notifier,
		PhotoRetention: photoRetentionService,
	}

	middleware := middleware.New(db, config)
	controllers := controllers.New(service, repos, config, db)

	if config.SchedulerEnabled {
		photoCleanupJob := jobs.NewPhotoCleanupJob(photoRetentionService, services.Nightly)
		if err := schedulerService.AddJob(photoCleanupJob); err != nil {
			return &App{}, log.Err("failed to register photo cleanup job", err)
		}

		autolistJob := jobs.NewAutolistJob(controllers.Schedule, civilZone, services.Morning)
		if err := schedulerService.AddJob(autolistJob); err != nil {
			return &App{}, log.Err("failed to register autolist job", err)
		}

		log.Info("Registered scheduled jobs", "jobCount", schedulerService.GetJobCount())
	}

	app := &App{
		Database:    db,
		Config:      config,
		Middleware:  middleware,
		Repos:       repos,
		Services:    service,
		Controllers: controllers,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Services.Transaction,
		a.Services.Token,
		a.Services.Scheduler,
		a.Services.Notify,
		a.Services.PhotoRetention,
		a.Controllers.Occupancy,
		a.Controllers.Cleaning,
		a.Controllers.Schedule,
		a.Controllers.Settlement,
		a.Controllers.Reservation,
		a.Repos.Room,
		a.Repos.Worker,
		a.Repos.Reservation,
		a.Repos.Event,
		a.Repos.Task,
		a.Repos.Rate,
		a.Repos.Token,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) StartScheduler(ctx context.Context) error {
	return a.Services.Scheduler.Start(ctx)
}

func (a *App) Close() (err error) {
	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}

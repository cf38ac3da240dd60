package app

import (
	"context"

	"pricewatch/config"
	"pricewatch/internal/database"
	"pricewatch/internal/jobs"
	"pricewatch/internal/repositories"
	"pricewatch/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database database.DB
	Config   config.Config

	// Services
	SchedulerService *services.SchedulerService
	PipelineService  *services.PipelineService
	Services         services.Service

	// Repositories
	RawFileRepo   repositories.RawFileRepository
	PriceRepo     repositories.PriceRepository
	IngestRunRepo repositories.IngestRunRepository
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	if err := db.MigrateModels(); err != nil {
		return &App{}, log.Err("failed to migrate models", err)
	}

	repos := repositories.New(db)

	svcs, err := services.New(db, config)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	if config.SchedulerEnabled {
		if err := jobs.RegisterAllJobs(svcs.Scheduler, config, svcs); err != nil {
			return &App{}, log.Err("failed to register jobs", err)
		}
	}

	app := &App{
		Database:         db,
		Config:           config,
		SchedulerService: svcs.Scheduler,
		PipelineService:  svcs.Pipeline,
		Services:         svcs,
		RawFileRepo:      repos.RawFile,
		PriceRepo:        repos.Price,
		IngestRunRepo:    repos.IngestRun,
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

	nilChecks := []any{
		a.SchedulerService,
		a.PipelineService,
		a.RawFileRepo,
		a.PriceRepo,
		a.IngestRunRepo,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.SchedulerService != nil {
		if closeErr := a.SchedulerService.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}

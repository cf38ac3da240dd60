package repositories

import (
	"context"

	"pricewatch/internal/database"
	"pricewatch/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

type IngestRunRepository interface {
	Create(ctx context.Context, run *models.IngestRun) (*models.IngestRun, error)
	Update(ctx context.Context, run *models.IngestRun) error
	GetRecent(ctx context.Context, limit int) ([]*models.IngestRun, error)
}

type ingestRunRepository struct {
	db  database.DB
	log logger.Logger
}

func NewIngestRunRepository(db database.DB) IngestRunRepository {
	return &ingestRunRepository{
		db:  db,
		log: logger.New("ingestRunRepository"),
	}
}

func (r *ingestRunRepository) Create(ctx context.Context, run *models.IngestRun) (*models.IngestRun, error) {
	log := r.log.Function("Create")

	if err := r.db.SQLWithContext(ctx).Create(run).Error; err != nil {
		return nil, log.Err("failed to create ingest run record", err, "chain", run.Chain)
	}

	log.Info("Created ingest run record", "id", run.ID, "chain", run.Chain)
	return run, nil
}

func (r *ingestRunRepository) Update(ctx context.Context, run *models.IngestRun) error {
	log := r.log.Function("Update")

	if err := r.db.SQLWithContext(ctx).Save(run).Error; err != nil {
		return log.Err("failed to update ingest run record", err, "id", run.ID)
	}

	return nil
}

func (r *ingestRunRepository) GetRecent(ctx context.Context, limit int) ([]*models.IngestRun, error) {
	log := r.log.Function("GetRecent")

	if limit <= 0 {
		limit = 20
	}

	var runs []*models.IngestRun
	if err := r.db.SQLWithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, log.Err("failed to list recent ingest runs", err)
	}

	return runs, nil
}

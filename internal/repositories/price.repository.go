package repositories

import (
	"context"
	"time"

	"pricewatch/internal/database"
	"pricewatch/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

type PriceRepository interface {
	// DeleteByRawFileID clears the previous generation of rows before a
	// (re)load; the wholesale replace keeps stale rows from lingering
	// when a reparse produces fewer or reshaped rows.
	DeleteByRawFileID(ctx context.Context, rawFileID int) error

	// InsertBatch inserts one parser batch in arrival order. Plain
	// insert, not upsert: the delete above already cleared the file's
	// rows.
	InsertBatch(ctx context.Context, rows []*models.Price) error

	CountByRawFileID(ctx context.Context, rawFileID int) (int64, error)

	// AggregateDailyStats invokes the server-side per-product stats
	// recompute for one chain and day.
	AggregateDailyStats(ctx context.Context, day time.Time, chain string) error
}

type priceRepository struct {
	db  database.DB
	log logger.Logger
}

func NewPriceRepository(db database.DB) PriceRepository {
	return &priceRepository{
		db:  db,
		log: logger.New("priceRepository"),
	}
}

func (r *priceRepository) DeleteByRawFileID(ctx context.Context, rawFileID int) error {
	log := r.log.Function("DeleteByRawFileID")

	tx := r.db.SQLWithContext(ctx).
		Where("raw_file_id = ?", rawFileID).
		Delete(&models.Price{})
	if tx.Error != nil {
		return log.Err("failed to delete prices for raw file", tx.Error, "rawFileID", rawFileID)
	}

	if tx.RowsAffected > 0 {
		log.Info("Deleted existing price rows", "rawFileID", rawFileID, "rows", tx.RowsAffected)
	}
	return nil
}

func (r *priceRepository) InsertBatch(ctx context.Context, rows []*models.Price) error {
	log := r.log.Function("InsertBatch")

	if len(rows) == 0 {
		return nil
	}

	if err := r.db.SQLWithContext(ctx).Create(rows).Error; err != nil {
		return log.Err("failed to insert price batch", err, "count", len(rows))
	}

	return nil
}

func (r *priceRepository) CountByRawFileID(ctx context.Context, rawFileID int) (int64, error) {
	log := r.log.Function("CountByRawFileID")

	var count int64
	if err := r.db.SQLWithContext(ctx).
		Model(&models.Price{}).
		Where("raw_file_id = ?", rawFileID).
		Count(&count).Error; err != nil {
		return 0, log.Err("failed to count prices for raw file", err, "rawFileID", rawFileID)
	}

	return count, nil
}

func (r *priceRepository) AggregateDailyStats(ctx context.Context, day time.Time, chain string) error {
	log := r.log.Function("AggregateDailyStats")

	err := r.db.SQLWithContext(ctx).
		Exec("SELECT aggregate_product_stats_daily(?::date, ?)", day.UTC().Format("2006-01-02"), chain).
		Error
	if err != nil {
		return log.Err("failed to aggregate daily product stats", err,
			"day", day.UTC().Format("2006-01-02"),
			"chain", chain,
		)
	}

	return nil
}

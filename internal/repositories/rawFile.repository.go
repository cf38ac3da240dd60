package repositories

import (
	"context"
	"time"

	"pricewatch/internal/database"
	"pricewatch/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RawFilePatch is a partial update for a raw file record. Nil fields
// are left untouched; ClearError explicitly nulls the error column,
// since a nil Error pointer means "no change".
type RawFilePatch struct {
	Status      *models.RawFileStatus
	StoragePath *string
	FetchedAt   *time.Time
	ProcessedAt *time.Time
	Error       *string
	ClearError  bool
}

type RawFileRepository interface {
	// UpsertByChainAndHash is the dedup gate: it returns the existing
	// record for (chain, content_hash) with alreadyExists true, or
	// inserts the given record in status discovered.
	UpsertByChainAndHash(ctx context.Context, record *models.RawFile) (*models.RawFile, bool, error)

	// Update applies a partial update; a missing record is an error.
	Update(ctx context.Context, id int, patch RawFilePatch) error

	// ClaimForLoading attempts the atomic conditional transition to
	// loading. It succeeds only when the record's current status is in
	// allowedFrom, which is the sole cross-run mutual exclusion.
	ClaimForLoading(ctx context.Context, id int, allowedFrom []models.RawFileStatus) (bool, error)

	GetByID(ctx context.Context, id int) (*models.RawFile, error)
	GetRecent(ctx context.Context, limit int) ([]*models.RawFile, error)
}

type rawFileRepository struct {
	db  database.DB
	log logger.Logger
}

func NewRawFileRepository(db database.DB) RawFileRepository {
	return &rawFileRepository{
		db:  db,
		log: logger.New("rawFileRepository"),
	}
}

func (r *rawFileRepository) UpsertByChainAndHash(
	ctx context.Context,
	record *models.RawFile,
) (*models.RawFile, bool, error) {
	log := r.log.Function("UpsertByChainAndHash")

	if record.Status == "" {
		record.Status = models.RawFileStatusDiscovered
	}

	// ON CONFLICT DO NOTHING keeps the gate race-free: whichever run
	// inserts first wins, every other run reads the winner's record.
	tx := r.db.SQLWithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chain"}, {Name: "content_hash"}},
			DoNothing: true,
		}).
		Create(record)
	if tx.Error != nil {
		return nil, false, log.Err("failed to create raw file record", tx.Error,
			"chain", record.Chain,
			"contentHash", record.ContentHash,
		)
	}

	if tx.RowsAffected > 0 {
		log.Info("Created raw file record",
			"id", record.ID,
			"chain", record.Chain,
			"filename", record.Filename,
		)
		return record, false, nil
	}

	var existing models.RawFile
	if err := r.db.SQLWithContext(ctx).
		Where("chain = ? AND content_hash = ?", record.Chain, record.ContentHash).
		First(&existing).Error; err != nil {
		return nil, false, log.Err("failed to look up raw file by chain and hash", err,
			"chain", record.Chain,
			"contentHash", record.ContentHash,
		)
	}

	log.Debug("Found existing raw file record",
		"id", existing.ID,
		"chain", existing.Chain,
		"status", existing.Status,
	)
	return &existing, true, nil
}

func (r *rawFileRepository) Update(ctx context.Context, id int, patch RawFilePatch) error {
	log := r.log.Function("Update")

	updates := map[string]any{}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.StoragePath != nil {
		updates["storage_path"] = *patch.StoragePath
	}
	if patch.FetchedAt != nil {
		updates["fetched_at"] = *patch.FetchedAt
	}
	if patch.ProcessedAt != nil {
		updates["processed_at"] = *patch.ProcessedAt
	}
	if patch.Error != nil {
		updates["error"] = models.TruncateError(*patch.Error)
	} else if patch.ClearError {
		updates["error"] = nil
	}

	if len(updates) == 0 {
		return nil
	}

	tx := r.db.SQLWithContext(ctx).
		Model(&models.RawFile{}).
		Where("id = ?", id).
		Updates(updates)
	if tx.Error != nil {
		return log.Err("failed to update raw file record", tx.Error, "id", id)
	}
	if tx.RowsAffected == 0 {
		return log.Err("raw file record not found", gorm.ErrRecordNotFound, "id", id)
	}

	return nil
}

func (r *rawFileRepository) ClaimForLoading(
	ctx context.Context,
	id int,
	allowedFrom []models.RawFileStatus,
) (bool, error) {
	log := r.log.Function("ClaimForLoading")

	if len(allowedFrom) == 0 {
		allowedFrom = []models.RawFileStatus{models.RawFileStatusUploaded}
	}

	// Single conditional UPDATE; Postgres guarantees at most one
	// concurrent claimant matches the precondition.
	tx := r.db.SQLWithContext(ctx).
		Model(&models.RawFile{}).
		Where("id = ? AND status IN ?", id, allowedFrom).
		Updates(map[string]any{
			"status": models.RawFileStatusLoading,
			"error":  nil,
		})
	if tx.Error != nil {
		return false, log.Err("failed to claim raw file for loading", tx.Error, "id", id)
	}

	claimed := tx.RowsAffected > 0
	log.Debug("Claim attempt finished", "id", id, "claimed", claimed)
	return claimed, nil
}

func (r *rawFileRepository) GetByID(ctx context.Context, id int) (*models.RawFile, error) {
	log := r.log.Function("GetByID")

	var record models.RawFile
	if err := r.db.SQLWithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get raw file by ID", err, "id", id)
	}

	return &record, nil
}

func (r *rawFileRepository) GetRecent(ctx context.Context, limit int) ([]*models.RawFile, error) {
	log := r.log.Function("GetRecent")

	if limit <= 0 {
		limit = 50
	}

	var records []*models.RawFile
	if err := r.db.SQLWithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, log.Err("failed to list recent raw files", err)
	}

	return records, nil
}

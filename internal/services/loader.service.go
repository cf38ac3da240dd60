package services

import (
	"context"
	"io"
	"time"

	"pricewatch/internal/models"
	"pricewatch/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
)

// LoadOptions bounds one load pass.
type LoadOptions struct {
	BatchSize int
	MaxItems  int
}

// LoaderService replaces a raw file's price rows from its archive
// stream. Replacement is replace-by-source-file: existing rows for the
// raw file are removed before any new batch is inserted, so a re-run
// never doubles data.
type LoaderService struct {
	prices repositories.PriceRepository
	parser *ParserService
	log    logger.Logger
}

func NewLoaderService(prices repositories.PriceRepository, parser *ParserService) *LoaderService {
	return &LoaderService{
		prices: prices,
		parser: parser,
		log:    logger.New("loaderService"),
	}
}

// Load deletes any rows previously produced by rawFile, then streams
// the archive into batched inserts. Returns the number of rows inserted.
func (s *LoaderService) Load(
	ctx context.Context,
	rawFile *models.RawFile,
	gz io.Reader,
	opts LoadOptions,
) (int, error) {
	log := s.log.Function("Load")

	if err := s.prices.DeleteByRawFileID(ctx, rawFile.ID); err != nil {
		return 0, log.Err("failed to clear previous rows for raw file", err, "rawFileID", rawFile.ID)
	}

	count, err := s.parser.ParsePriceFull(ctx, gz, ParseOptions{
		RawFileID:     rawFile.ID,
		Chain:         rawFile.Chain,
		StoreID:       rawFile.StoreID,
		FetchedAt:     rawFile.FetchedAt,
		BatchSize:     opts.BatchSize,
		MaxItems:      opts.MaxItems,
		ProgressEvery: DefaultProgressEvery,
		OnBatch: func(ctx context.Context, batch []*models.Price) error {
			return s.prices.InsertBatch(ctx, batch)
		},
	})
	if err != nil {
		return count, err
	}

	log.Info("Raw file loaded", "rawFileID", rawFile.ID, "filename", rawFile.Filename, "items", count)
	return count, nil
}

// TriggerAggregation refreshes daily product stats after successful
// loads. Aggregation failure never fails the load that triggered it.
func (s *LoaderService) TriggerAggregation(ctx context.Context, day time.Time, chain string) {
	log := s.log.Function("TriggerAggregation")
	if err := s.prices.AggregateDailyStats(ctx, day, chain); err != nil {
		log.Warn("Daily stats aggregation failed",
			"chain", chain,
			"day", day.Format("2006-01-02"),
			"error", err,
		)
		return
	}
	log.Debug("Daily stats aggregated", "chain", chain, "day", day.Format("2006-01-02"))
}

package repositories

import (
	"pricewatch/internal/database"
)

type Repository struct {
	RawFile   RawFileRepository
	Price     PriceRepository
	IngestRun IngestRunRepository
}

func New(db database.DB) Repository {
	return Repository{
		RawFile:   NewRawFileRepository(db),
		Price:     NewPriceRepository(db),
		IngestRun: NewIngestRunRepository(db),
	}
}

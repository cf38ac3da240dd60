package services

import (
	"context"

	"pricewatch/config"
	"pricewatch/internal/database"
	"pricewatch/internal/repositories"
)

type Service struct {
	Scheduler *SchedulerService
	HTTPText  *HTTPTextService
	Discovery *DiscoveryService
	Fetch     *FetchService
	Parser    *ParserService
	Loader    *LoaderService
	Storage   BlobStorage
	Pipeline  *PipelineService
}

func New(db database.DB, config config.Config) (Service, error) {
	repos := repositories.New(db)

	schedulerService := NewSchedulerService()
	httpTextService := NewHTTPTextService()
	discoveryService := NewDiscoveryService(config, httpTextService)
	fetchService := NewFetchService(config)
	parserService := NewParserService()
	loaderService := NewLoaderService(repos.Price, parserService)

	storageService, err := NewStorageService(context.Background(), config)
	if err != nil {
		return Service{}, err
	}

	pipelineService := NewPipelineService(
		config,
		discoveryService,
		fetchService,
		loaderService,
		storageService,
		repos.RawFile,
		repos.IngestRun,
	)

	return Service{
		Scheduler: schedulerService,
		HTTPText:  httpTextService,
		Discovery: discoveryService,
		Fetch:     fetchService,
		Parser:    parserService,
		Loader:    loaderService,
		Storage:   storageService,
		Pipeline:  pipelineService,
	}, nil
}

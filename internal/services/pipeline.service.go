package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"pricewatch/config"
	"pricewatch/internal/chains"
	"pricewatch/internal/models"
	"pricewatch/internal/repositories"
	"pricewatch/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
)

// RunReport summarizes one ingest pass over a chain.
type RunReport struct {
	RunID           string
	Chain           string
	FilesDiscovered int
	FilesLoaded     int
	FilesSkipped    int
	FilesFailed     int
	ItemsLoaded     int64
}

// PipelineService drives the full ingest for a chain: discover, fetch,
// upload, claim, load. Each file is processed independently so one bad
// archive never aborts the run.
type PipelineService struct {
	config    config.Config
	discovery *DiscoveryService
	fetch     *FetchService
	loader    *LoaderService
	storage   BlobStorage
	rawFiles  repositories.RawFileRepository
	runs      repositories.IngestRunRepository
	log       logger.Logger
}

func NewPipelineService(
	cfg config.Config,
	discovery *DiscoveryService,
	fetch *FetchService,
	loader *LoaderService,
	storage BlobStorage,
	rawFiles repositories.RawFileRepository,
	runs repositories.IngestRunRepository,
) *PipelineService {
	return &PipelineService{
		config:    cfg,
		discovery: discovery,
		fetch:     fetch,
		loader:    loader,
		storage:   storage,
		rawFiles:  rawFiles,
		runs:      runs,
		log:       logger.New("pipelineService"),
	}
}

// ProcessChain runs one end-to-end ingest for a chain and records an
// IngestRun audit row covering it. Discovery failure fails the run;
// per-file failures are recorded and the run continues.
func (s *PipelineService) ProcessChain(
	ctx context.Context,
	chain chains.Chain,
) (*RunReport, error) {
	log := s.log.Function("ProcessChain")

	run := &models.IngestRun{
		Chain:     chain.Code,
		Status:    models.IngestRunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if _, err := s.runs.Create(ctx, run); err != nil {
		return nil, log.Err("failed to record ingest run", err)
	}

	finish := func(status models.IngestRunStatus, runErr *string) {
		now := time.Now().UTC()
		run.Status = status
		run.FinishedAt = &now
		run.Error = runErr
		if err := s.runs.Update(ctx, run); err != nil {
			log.Er("failed to finalize ingest run record", err, "runID", run.ID)
		}
	}

	discovered, err := s.discovery.Discover(ctx, chain)
	if err != nil {
		msg := models.TruncateError(err.Error())
		finish(models.IngestRunStatusFailed, &msg)
		return nil, log.Err("discovery failed", err)
	}

	run.FilesDiscovered = len(discovered)
	log.Info("Starting ingest", "chain", chain.Code, "files", len(discovered), "runID", run.ID)

	outcomes := make([]models.FileOutcome, 0, len(discovered))

	for _, file := range discovered {
		if err := ctx.Err(); err != nil {
			msg := models.TruncateError(err.Error())
			finish(models.IngestRunStatusFailed, &msg)
			return nil, log.Err("ingest cancelled", err)
		}

		outcome := s.processFile(ctx, chain, file)
		outcomes = append(outcomes, outcome)

		switch outcome.Outcome {
		case models.FileOutcomeLoaded:
			run.FilesLoaded++
			run.ItemsLoaded += int64(outcome.Items)
		case models.FileOutcomeSkipped:
			run.FilesSkipped++
		case models.FileOutcomeFailed:
			run.FilesFailed++
		}
	}

	if err := run.SetFileOutcomes(outcomes); err != nil {
		log.Er("failed to encode file outcomes", err, "runID", run.ID)
	}

	finish(models.IngestRunStatusCompleted, nil)

	report := &RunReport{
		RunID:           run.ID.String(),
		Chain:           chain.Code,
		FilesDiscovered: run.FilesDiscovered,
		FilesLoaded:     run.FilesLoaded,
		FilesSkipped:    run.FilesSkipped,
		FilesFailed:     run.FilesFailed,
		ItemsLoaded:     run.ItemsLoaded,
	}

	log.Info("Ingest complete",
		"chain", chain.Code,
		"loaded", report.FilesLoaded,
		"skipped", report.FilesSkipped,
		"failed", report.FilesFailed,
		"items", report.ItemsLoaded,
	)
	return report, nil
}

// processFile moves one discovered archive through the raw file state
// machine. Every exit path leaves the raw file row in a terminal or
// recoverable state; the scratch copy is always removed.
func (s *PipelineService) processFile(
	ctx context.Context,
	chain chains.Chain,
	file models.DiscoveredFile,
) models.FileOutcome {
	log := s.log.Function("processFile")

	outcome := models.FileOutcome{
		Filename: file.Filename,
		FileURL:  file.FileURL,
	}

	failed := func(msg string) models.FileOutcome {
		truncated := models.TruncateError(msg)
		outcome.Outcome = models.FileOutcomeFailed
		outcome.Error = &truncated
		return outcome
	}

	// Mark the raw file failed when it exists; before the upsert there
	// is nothing durable to mark.
	failRawFile := func(rawFile *models.RawFile, msg string) models.FileOutcome {
		truncated := models.TruncateError(msg)
		status := models.RawFileStatusFailed
		if err := s.rawFiles.Update(ctx, rawFile.ID, repositories.RawFilePatch{
			Status: &status,
			Error:  &truncated,
		}); err != nil {
			log.Er("failed to mark raw file failed", err, "rawFileID", rawFile.ID)
		}
		return failed(msg)
	}

	fetched, err := s.fetch.FetchToScratch(ctx, chain, file)
	if err != nil {
		log.Er("fetch failed", err, "chain", chain.Code, "filename", file.Filename)
		return failed(fmt.Sprintf("fetch failed: %v", err))
	}
	defer s.fetch.Cleanup(fetched.LocalPath)

	outcome.ContentHash = fetched.ContentHash
	now := time.Now().UTC()

	rawFile := &models.RawFile{
		Chain:       chain.Code,
		ContentHash: fetched.ContentHash,
		StoreID:     file.StoreID,
		FileURL:     file.FileURL,
		Filename:    file.Filename,
		ByteCount:   fetched.ByteCount,
		Status:      models.RawFileStatusDiscovered,
	}

	rawFile, alreadyExists, err := s.rawFiles.UpsertByChainAndHash(ctx, rawFile)
	if err != nil {
		log.Er("raw file upsert failed", err, "chain", chain.Code, "filename", file.Filename)
		return failed(fmt.Sprintf("raw file upsert failed: %v", err))
	}
	outcome.RawFileID = &rawFile.ID

	if alreadyExists {
		if rawFile.Status == models.RawFileStatusLoaded && !s.config.ForceReprocess {
			log.Info("Content already loaded, skipping", "rawFileID", rawFile.ID)
			outcome.Outcome = models.FileOutcomeSkipped
			return outcome
		}
		log.Info("Reprocessing known content",
			"rawFileID", rawFile.ID,
			"status", rawFile.Status,
			"force", s.config.ForceReprocess,
		)
	}

	storagePath := utils.StoragePath(chain.Code, now, rawFile.StoreID, rawFile.ContentHash)
	if err := s.storage.UploadFile(
		ctx, s.config.StorageBucket, storagePath, fetched.LocalPath, ContentTypeGzip,
	); err != nil {
		log.Er("archive upload failed", err, "rawFileID", rawFile.ID)
		return failRawFile(rawFile, fmt.Sprintf("upload failed: %v", err))
	}

	uploaded := models.RawFileStatusUploaded
	if err := s.rawFiles.Update(ctx, rawFile.ID, repositories.RawFilePatch{
		Status:      &uploaded,
		StoragePath: &storagePath,
		FetchedAt:   &now,
		ClearError:  true,
	}); err != nil {
		log.Er("failed to mark raw file uploaded", err, "rawFileID", rawFile.ID)
		return failRawFile(rawFile, fmt.Sprintf("status update failed: %v", err))
	}
	rawFile.StoragePath = &storagePath
	rawFile.FetchedAt = &now

	claimed, err := s.rawFiles.ClaimForLoading(ctx, rawFile.ID, nil)
	if err != nil {
		log.Er("claim failed", err, "rawFileID", rawFile.ID)
		return failRawFile(rawFile, fmt.Sprintf("claim failed: %v", err))
	}
	if !claimed {
		if !s.config.ForceReprocess {
			log.Info("Raw file claimed elsewhere, skipping", "rawFileID", rawFile.ID)
			outcome.Outcome = models.FileOutcomeSkipped
			return outcome
		}
		loading := models.RawFileStatusLoading
		if err := s.rawFiles.Update(ctx, rawFile.ID, repositories.RawFilePatch{
			Status:     &loading,
			ClearError: true,
		}); err != nil {
			log.Er("forced claim failed", err, "rawFileID", rawFile.ID)
			return failRawFile(rawFile, fmt.Sprintf("forced claim failed: %v", err))
		}
	}

	scratch, err := os.Open(fetched.LocalPath)
	if err != nil {
		log.Er("failed to reopen scratch file", err, "rawFileID", rawFile.ID)
		return failRawFile(rawFile, fmt.Sprintf("scratch reopen failed: %v", err))
	}
	defer scratch.Close()

	items, err := s.loader.Load(ctx, rawFile, scratch, LoadOptions{
		BatchSize: s.config.LoadBatchSize,
		MaxItems:  s.config.MaxItemsPerFile,
	})
	if err != nil {
		log.Er("load failed", err, "rawFileID", rawFile.ID, "items", items)
		return failRawFile(rawFile, fmt.Sprintf("load failed: %v", err))
	}

	loaded := models.RawFileStatusLoaded
	processedAt := time.Now().UTC()
	if err := s.rawFiles.Update(ctx, rawFile.ID, repositories.RawFilePatch{
		Status:      &loaded,
		ProcessedAt: &processedAt,
		ClearError:  true,
	}); err != nil {
		log.Er("failed to mark raw file loaded", err, "rawFileID", rawFile.ID)
		return failRawFile(rawFile, fmt.Sprintf("final status update failed: %v", err))
	}

	// Aggregate immediately so a killed run leaves no loaded-but-
	// unaggregated files behind. Failure is logged, never fatal.
	s.loader.TriggerAggregation(ctx, processedAt, chain.Code)

	outcome.Outcome = models.FileOutcomeLoaded
	outcome.Items = items
	return outcome
}

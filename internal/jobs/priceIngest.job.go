package jobs

import (
	"context"
	"fmt"

	"pricewatch/internal/chains"
	"pricewatch/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// PriceIngestJob runs the full ingest pipeline for each configured
// chain. A failing chain is logged and the remaining chains still run.
type PriceIngestJob struct {
	pipeline   *services.PipelineService
	chainCodes []string
	log        logger.Logger
	schedule   services.Schedule
}

func NewPriceIngestJob(
	pipeline *services.PipelineService,
	chainCodes []string,
	schedule services.Schedule,
) *PriceIngestJob {
	log := logger.New("priceIngestJob")
	log.Info("Creating new price ingest job", "chains", chainCodes, "schedule", schedule)

	return &PriceIngestJob{
		pipeline:   pipeline,
		chainCodes: chainCodes,
		log:        log,
		schedule:   schedule,
	}
}

func (j *PriceIngestJob) Name() string {
	return "DailyPriceIngest"
}

func (j *PriceIngestJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	log.Info("Starting scheduled price ingest", "chains", j.chainCodes)

	var failures int
	for _, code := range j.chainCodes {
		chain, err := chains.Get(code)
		if err != nil {
			failures++
			log.Er("unknown chain configured, skipping", err, "chain", code)
			continue
		}

		report, err := j.pipeline.ProcessChain(ctx, chain)
		if err != nil {
			failures++
			log.Er("chain ingest failed", err, "chain", code)
			continue
		}

		log.Info("Chain ingest completed",
			"chain", code,
			"loaded", report.FilesLoaded,
			"skipped", report.FilesSkipped,
			"failed", report.FilesFailed,
			"items", report.ItemsLoaded,
		)
	}

	if failures == len(j.chainCodes) && failures > 0 {
		err := fmt.Errorf("all %d chains failed", failures)
		return log.Err("price ingest failed for every chain", err)
	}

	log.Info("Scheduled price ingest completed", "failures", failures)
	return nil
}

func (j *PriceIngestJob) Schedule() services.Schedule {
	return j.schedule
}

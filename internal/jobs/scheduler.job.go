package jobs

import (
	"strings"

	"pricewatch/config"
	"pricewatch/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// Import schedule constants
const (
	Daily        = services.Daily
	Hourly       = services.Hourly
	DailyCleanup = services.DailyCleanup
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	services services.Service,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")
	log.Info("Registering jobs")

	chainCodes := splitChains(config.IngestChains)

	priceIngestJob := NewPriceIngestJob(
		services.Pipeline,
		chainCodes,
		Daily,
	)
	if err := schedulerService.AddJob(priceIngestJob); err != nil {
		return log.Err("failed to register price ingest job", err)
	}
	log.Info("Registered price ingest job", "schedule", "daily", "chains", chainCodes)

	scratchCleanupJob := NewScratchCleanupJob(
		config.ScratchDir,
		DailyCleanup,
	)
	if err := schedulerService.AddJob(scratchCleanupJob); err != nil {
		return log.Err("failed to register scratch cleanup job", err)
	}
	log.Info("Registered scratch cleanup job", "schedule", "dailyCleanup")

	return nil
}

func splitChains(configured string) []string {
	var codes []string
	for _, part := range strings.Split(configured, ",") {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

package jobs

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"pricewatch/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// ScratchRetention is how long a scratch archive may linger before the
// cleanup job removes it. Normal runs delete their own scratch copies;
// this sweeps up after crashes.
const ScratchRetention = 24 * time.Hour

type ScratchCleanupJob struct {
	scratchDir string
	log        logger.Logger
	schedule   services.Schedule
}

func NewScratchCleanupJob(scratchDir string, schedule services.Schedule) *ScratchCleanupJob {
	log := logger.New("scratchCleanupJob")
	log.Info("Creating new scratch cleanup job", "dir", scratchDir, "schedule", schedule)

	return &ScratchCleanupJob{
		scratchDir: scratchDir,
		log:        log,
		schedule:   schedule,
	}
}

func (j *ScratchCleanupJob) Name() string {
	return "DailyScratchCleanup"
}

func (j *ScratchCleanupJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	log.Info("Starting scratch cleanup", "dir", j.scratchDir)

	cutoff := time.Now().Add(-ScratchRetention)
	var removed, kept int

	err := filepath.WalkDir(j.scratchDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			kept++
			return nil
		}

		if err := os.Remove(path); err != nil {
			log.Warn("Failed to remove stale scratch file", "path", path, "error", err)
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		return log.Err("scratch cleanup walk failed", err)
	}

	log.Info("Scratch cleanup completed", "removed", removed, "kept", kept)
	return nil
}

func (j *ScratchCleanupJob) Schedule() services.Schedule {
	return j.schedule
}

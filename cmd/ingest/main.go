package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"strings"

	"pricewatch/internal/app"
	"pricewatch/internal/chains"

	logger "github.com/Bparsons0904/goLogger"
)

// One-shot ingest: runs the pipeline for the chains given as arguments
// (or the configured chains when none are given) and exits non-zero if
// any chain fails.
func main() {
	log := logger.New("ingest")

	app, err := app.New()
	if err != nil {
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Er("failed to close app", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	codes := os.Args[1:]
	if len(codes) == 0 {
		codes = configuredChains(app.Config.IngestChains)
	}
	if len(codes) == 0 {
		_ = log.Error("no chains to ingest")
		os.Exit(1)
	}

	var failed bool
	for _, code := range codes {
		chain, err := chains.Get(code)
		if err != nil {
			failed = true
			log.Er("unknown chain", err, "chain", code)
			continue
		}

		report, err := app.PipelineService.ProcessChain(ctx, chain)
		if err != nil {
			failed = true
			log.Er("chain ingest failed", err, "chain", code)
			continue
		}

		log.Info("Chain ingest finished",
			"chain", code,
			"discovered", report.FilesDiscovered,
			"loaded", report.FilesLoaded,
			"skipped", report.FilesSkipped,
			"failed", report.FilesFailed,
			"items", report.ItemsLoaded,
		)
	}

	if failed {
		os.Exit(1)
	}
}

func configuredChains(configured string) []string {
	var codes []string
	for _, part := range strings.Split(configured, ",") {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

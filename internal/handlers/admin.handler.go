package handlers

import (
	"context"
	"strconv"

	"pricewatch/internal/app"
	"pricewatch/internal/chains"
	"pricewatch/internal/repositories"
	"pricewatch/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Handler
	pipeline  *services.PipelineService
	rawFiles  repositories.RawFileRepository
	ingestRun repositories.IngestRunRepository
}

func NewAdminHandler(app app.App, router fiber.Router) *AdminHandler {
	log := logger.New("handlers").Function("admin")
	return &AdminHandler{
		pipeline:  app.PipelineService,
		rawFiles:  app.RawFileRepo,
		ingestRun: app.IngestRunRepo,
		Handler: Handler{
			log:    log,
			router: router,
		},
	}
}

func (h *AdminHandler) Register() {
	admin := h.router.Group("/admin")

	admin.Get("/raw-files", h.listRawFiles)
	admin.Get("/runs", h.listRuns)
	admin.Post("/ingest/:chain", h.triggerIngest)
}

func (h *AdminHandler) listRawFiles(c *fiber.Ctx) error {
	log := h.log.Function("listRawFiles")

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}

	rawFiles, err := h.rawFiles.GetRecent(c.Context(), limit)
	if err != nil {
		_ = log.Error("Failed to list raw files", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list raw files",
		})
	}

	return c.JSON(fiber.Map{"raw_files": rawFiles})
}

func (h *AdminHandler) listRuns(c *fiber.Ctx) error {
	log := h.log.Function("listRuns")

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 20
	}

	runs, err := h.ingestRun.GetRecent(c.Context(), limit)
	if err != nil {
		_ = log.Error("Failed to list ingest runs", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list ingest runs",
		})
	}

	return c.JSON(fiber.Map{"runs": runs})
}

// triggerIngest kicks off a chain ingest in the background and returns
// immediately; progress is visible through the runs endpoint.
func (h *AdminHandler) triggerIngest(c *fiber.Ctx) error {
	log := h.log.Function("triggerIngest")

	chain, err := chains.Get(c.Params("chain"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown chain",
		})
	}

	log.Info("Manual ingest triggered", "chain", chain.Code)

	go func() {
		if _, err := h.pipeline.ProcessChain(context.Background(), chain); err != nil {
			log.Er("Manual ingest failed", err, "chain", chain.Code)
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "started",
		"chain":  chain.Code,
	})
}

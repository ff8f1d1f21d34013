package handlers

import (
	"github.com/gofiber/fiber/v2"

	"mutualfund-backend/jobs"
)

type FundHandler struct {
	Job *jobs.FundDataUpdateJob
}

func NewFundHandler(job *jobs.FundDataUpdateJob) *FundHandler {
	return &FundHandler{Job: job}
}

// GetFunds serves the flat fund table from the latest successful run.
func (h *FundHandler) GetFunds(c *fiber.Ctx) error {
	dataset := h.Job.LatestDataset()
	if dataset == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "no completed scrape run yet",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dataset.Funds,
	})
}

// GetLatestRun serves the record of the most recent pipeline run.
func (h *FundHandler) GetLatestRun(c *fiber.Ctx) error {
	run := h.Job.LatestRun()
	if run == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "no scrape run recorded yet",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    run,
	})
}

// TriggerScrape starts a pipeline run in the background. A run already in
// progress is reported as a conflict rather than queued.
func (h *FundHandler) TriggerScrape(c *fiber.Ctx) error {
	if h.Job.IsRunning() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "scrape run already in progress",
		})
	}

	go h.Job.TryRun()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"message": "scrape run started",
	})
}

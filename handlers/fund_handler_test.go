package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"mutualfund-backend/config"
	"mutualfund-backend/jobs"
)

func newHandlerTestApp() *fiber.App {
	job := jobs.NewFundDataUpdateJob(nil, nil, nil, nil, &config.Config{})
	handler := NewFundHandler(job)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Get("/funds", handler.GetFunds)
	api.Get("/runs/latest", handler.GetLatestRun)
	return app
}

func TestGetFundsBeforeFirstRun(t *testing.T) {
	app := newHandlerTestApp()

	response, err := app.Test(httptest.NewRequest("GET", "/api/v1/funds", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if response.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want %d before any completed run", response.StatusCode, fiber.StatusNotFound)
	}
}

func TestGetLatestRunBeforeFirstRun(t *testing.T) {
	app := newHandlerTestApp()

	response, err := app.Test(httptest.NewRequest("GET", "/api/v1/runs/latest", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if response.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want %d before any run", response.StatusCode, fiber.StatusNotFound)
	}
}

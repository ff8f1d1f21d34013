package main

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"mutualfund-backend/config"
	"mutualfund-backend/handlers"
	"mutualfund-backend/jobs"
	"mutualfund-backend/services"
	"mutualfund-backend/shared"
)

func main() {
	// Load config
	cfg := config.LoadConfig()
	cfg.ConfigureLogging()

	// Initialize services
	utilityService := services.NewUtilityService()

	listingConfig := shared.NewListingScraperConfig()
	listingConfig.RequestRateLimit = cfg.PageDelay
	discoveryService := services.NewFundDiscoveryService(listingConfig, utilityService, "https://groww.in", cfg.ChromeFallback)

	navService := services.NewNavHistoryService(shared.NewNavAPIConfig(), shared.NewAMFIFeedConfig())
	statsService := services.NewPortfolioStatsService(shared.NewPortfolioStatsConfig(), cfg.StatsRetryDelay)
	detailService := services.NewFundDetailService(shared.NewDetailScraperConfig(), navService, statsService, utilityService, cfg.NavWindowMonths)

	normalizer := services.NewNormalizationService(utilityService)
	exporter := services.NewExportService()

	logrus.Info("Mutual fund backend services initialized:")
	logrus.Infof("  - Listing scraper (rate limit: %v, max funds: %d)", cfg.PageDelay, cfg.MaxFunds)
	logrus.Infof("  - Detail scraper (fund delay: %v, NAV window: %d months)", cfg.FundDelay, cfg.NavWindowMonths)
	logrus.Infof("  - Exporter (output file: %s)", cfg.OutputFile)

	// Initialize the pipeline job and its schedule
	updateJob := jobs.NewFundDataUpdateJob(discoveryService, detailService, normalizer, exporter, cfg)

	scheduler := cron.New()
	if _, err := scheduler.AddJob(cfg.ScrapeCron, updateJob); err != nil {
		logrus.Fatalf("Invalid SCRAPE_CRON expression %q: %v", cfg.ScrapeCron, err)
	}
	scheduler.Start()
	logrus.Infof("Scheduled fund data update with cron expression %q", cfg.ScrapeCron)

	// Initialize handlers
	fundHandler := handlers.NewFundHandler(updateJob)

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	// Routes
	api := app.Group("/api/v1")
	api.Get("/funds", fundHandler.GetFunds)
	api.Get("/runs/latest", fundHandler.GetLatestRun)

	admin := api.Group("/admin")
	admin.Post("/scrape", fundHandler.TriggerScrape)

	// Start server
	logrus.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logrus.Fatalf("Server failed to start: %v", err)
	}
}

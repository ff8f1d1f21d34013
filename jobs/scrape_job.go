package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"mutualfund-backend/config"
	"mutualfund-backend/models"
	"mutualfund-backend/services"
	"mutualfund-backend/shared"
)

// FundDataUpdateJob runs the full pipeline: discover fund listings, extract
// every fund's detail page, normalize into typed tables and export the
// workbook. One job instance is shared by the cron schedule and the manual
// trigger endpoint; overlapping runs are skipped, not queued.
type FundDataUpdateJob struct {
	DiscoveryService *services.FundDiscoveryService
	DetailService    *services.FundDetailService
	Normalizer       *services.NormalizationService
	Exporter         *services.ExportService

	maxFunds   int
	fundPacer  *shared.HTTPRequestRateLimiter
	outputFile string

	mutex     sync.Mutex
	isRunning bool
	latestRun *models.PipelineRun
	dataset   *models.CleanedDataset

	logger *logrus.Entry
}

// NewFundDataUpdateJob creates the pipeline job.
func NewFundDataUpdateJob(
	discoveryService *services.FundDiscoveryService,
	detailService *services.FundDetailService,
	normalizer *services.NormalizationService,
	exporter *services.ExportService,
	cfg *config.Config,
) *FundDataUpdateJob {
	return &FundDataUpdateJob{
		DiscoveryService: discoveryService,
		DetailService:    detailService,
		Normalizer:       normalizer,
		Exporter:         exporter,
		maxFunds:         cfg.MaxFunds,
		fundPacer:        shared.NewHTTPRequestRateLimiter(cfg.FundDelay),
		outputFile:       cfg.OutputFile,
		logger:           logrus.WithField("component", "FundDataUpdateJob"),
	}
}

// TryRun starts a pipeline run unless one is already in progress. It returns
// the run record when started, or nil when skipped.
func (j *FundDataUpdateJob) TryRun() *models.PipelineRun {
	j.mutex.Lock()
	if j.isRunning {
		j.mutex.Unlock()
		j.logger.Warn("Fund data update already running, skipping")
		return nil
	}
	j.isRunning = true

	run := &models.PipelineRun{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	j.latestRun = run
	j.mutex.Unlock()

	defer func() {
		j.mutex.Lock()
		j.isRunning = false
		j.mutex.Unlock()
	}()

	j.execute(run)
	return j.LatestRun()
}

// Run satisfies cron.Job.
func (j *FundDataUpdateJob) Run() {
	j.TryRun()
}

func (j *FundDataUpdateJob) execute(run *models.PipelineRun) {
	startTime := time.Now()
	j.logger.WithField("run_id", run.ID).Info("Starting Fund Data Update Job")

	summaries := j.DiscoveryService.DiscoverFunds(j.maxFunds)
	if len(summaries) == 0 {
		j.finishRun(run, nil, "listing discovery returned no funds")
		return
	}
	j.logger.Infof("Discovered %d funds for detail extraction", len(summaries))

	details := make([]models.FundDetail, 0, len(summaries))
	for i, summary := range summaries {
		// Paces consecutive funds; the first one goes through immediately.
		j.fundPacer.EnforceRateLimit()

		j.logger.WithFields(logrus.Fields{
			"fund_index":  i + 1,
			"total_funds": len(summaries),
			"fund_name":   summary.Name,
		}).Infof("Processing fund %d/%d: %s", i+1, len(summaries), summary.Name)

		details = append(details, j.DetailService.ExtractDetail(summary))
	}

	dataset := j.Normalizer.Normalize(details)

	if err := j.Exporter.Export(dataset, j.outputFile); err != nil {
		j.finishRun(run, dataset, err.Error())
		return
	}

	j.finishRun(run, dataset, "")
	j.logger.WithFields(logrus.Fields{
		"run_id":   run.ID,
		"funds":    len(dataset.Funds),
		"warnings": len(dataset.Warnings),
		"duration": time.Since(startTime).String(),
	}).Info("Fund Data Update Job completed")
}

// finishRun records the terminal state of a run. A successful run also
// replaces the served dataset snapshot; a failed run keeps the previous one.
func (j *FundDataUpdateJob) finishRun(run *models.PipelineRun, dataset *models.CleanedDataset, errorMessage string) {
	now := time.Now()

	j.mutex.Lock()
	defer j.mutex.Unlock()

	run.CompletedAt = &now
	if errorMessage != "" {
		run.Status = models.RunStatusFailed
		run.Error = errorMessage
		j.logger.Errorf("Fund Data Update Job failed: %s", errorMessage)
	} else {
		run.Status = models.RunStatusCompleted
		run.OutputFile = j.outputFile
	}

	if dataset != nil {
		run.FundCount = len(dataset.Funds)
		run.NavRows = len(dataset.NAVHistory)
		run.HoldingRows = len(dataset.Holdings)
		run.SectorRows = len(dataset.Sectors)
		run.WarningCount = len(dataset.Warnings)
	}
	if errorMessage == "" && dataset != nil {
		j.dataset = dataset
	}
}

// LatestRun returns a copy of the most recent run record, or nil before the
// first run.
func (j *FundDataUpdateJob) LatestRun() *models.PipelineRun {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.latestRun == nil {
		return nil
	}
	runCopy := *j.latestRun
	return &runCopy
}

// LatestDataset returns the dataset from the most recent successful run, or
// nil when no run has completed yet.
func (j *FundDataUpdateJob) LatestDataset() *models.CleanedDataset {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	return j.dataset
}

// IsRunning reports whether a run is currently in progress.
func (j *FundDataUpdateJob) IsRunning() bool {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	return j.isRunning
}

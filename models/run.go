package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus tracks the lifecycle of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// PipelineRun records one execution of the scrape-normalize-export pipeline.
type PipelineRun struct {
	ID          uuid.UUID  `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Status      RunStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`

	FundCount    int    `json:"fund_count"`
	NavRows      int    `json:"nav_rows"`
	HoldingRows  int    `json:"holding_rows"`
	SectorRows   int    `json:"sector_rows"`
	WarningCount int    `json:"warning_count"`
	OutputFile   string `json:"output_file,omitempty"`
}

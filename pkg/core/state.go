package core

import "time"

// Store defines the interface for run-history state management.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	// Run operations
	CreateRun(configPath string, workers int, dryRun bool) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	ListRuns(limit int) ([]*Run, error)

	// Instance run operations
	RecordInstanceRun(ir *InstanceRun) error
	UpdateInstanceRun(id string, status InstanceRunStatus, workDir, errMsg string, durationMS int64) error
	GetInstanceRunsForRun(runID string) ([]*InstanceRun, error)
}

// RunStatus represents the status of a sweep run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents one invocation of the dispatcher over an expanded run space.
type Run struct {
	ID          string
	ConfigPath  string
	Workers     int
	DryRun      bool
	Status      RunStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// InstanceRunStatus represents the status of a single run instance.
type InstanceRunStatus string

// Instance run status constants.
const (
	InstanceRunStatusPending InstanceRunStatus = "pending"
	InstanceRunStatusRunning InstanceRunStatus = "running"
	InstanceRunStatusSuccess InstanceRunStatus = "success"
	InstanceRunStatusFailed  InstanceRunStatus = "failed"
	InstanceRunStatusSkipped InstanceRunStatus = "skipped"
)

// InstanceRun records the outcome of one run instance within a Run.
type InstanceRun struct {
	ID         string
	RunID      string
	Group      string
	Index      int
	WorkDir    string
	Status     InstanceRunStatus
	Error      string
	StartedAt  time.Time
	DurationMS int64
}

package api

import "time"

// RunStatus is the lifecycle status of a single sandbox run.
type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunTimeout   RunStatus = "TIMEOUT"
	RunFailed    RunStatus = "FAILED"
)

// RunMetrics holds the per-run domain metrics produced by output
// validation. The tournament category decides which fields carry signal:
// analytics tournaments use the pattern and novelty fields, ml tournaments
// use the model quality fields.
type RunMetrics struct {
	PatternsExpected      int     `json:"patterns_expected"`
	PatternsFound         int     `json:"patterns_found"`
	PatternRecall         float64 `json:"pattern_recall"`
	NoveltyReported       int     `json:"novelty_reported"`
	NoveltyValidated      int     `json:"novelty_validated"`
	AddressesValid        bool    `json:"addresses_valid"`
	ConnectionsValid      bool    `json:"connections_valid"`
	AUCROC                float64 `json:"auc_roc"`
	PrecisionAtRecall80   float64 `json:"precision_at_recall_80"`
	DataCorrectnessPassed bool    `json:"data_correctness_passed"`
}

// RunResource represents a stored run: one participant executed once
// against one (network, window) cell of one test day.
type RunResource struct {
	Resource
	TournamentID     string          `json:"tournament_id"`
	EpochID          string          `json:"epoch_id"`
	Hotkey           string          `json:"hotkey"`
	ParticipantType  ParticipantType `json:"participant_type"`
	TestDate         time.Time       `json:"test_date"`
	Network          string          `json:"network"`
	WindowDays       int             `json:"window_days"`
	RunOrder         int             `json:"run_order"`
	Status           RunStatus       `json:"status"`
	ExecutionSeconds float64         `json:"execution_seconds"`
	ExitCode         int             `json:"exit_code"`
	MemoryPeakMB     float64         `json:"memory_peak_mb"`
	Metrics          RunMetrics      `json:"metrics"`
	ErrorMessage     string          `json:"error_message,omitempty"`
}

// RunResourceList represents a list of runs
type RunResourceList struct {
	Items []RunResource `json:"items"`
	Page
}

// RunOutcome is the terminal state written back onto a run after execution.
type RunOutcome struct {
	Status           RunStatus   `json:"status"`
	ExecutionSeconds float64     `json:"execution_seconds"`
	ExitCode         int         `json:"exit_code"`
	MemoryPeakMB     float64     `json:"memory_peak_mb"`
	Metrics          *RunMetrics `json:"metrics,omitempty"`
	ErrorMessage     string      `json:"error_message,omitempty"`
}

// DaySummary reports the outcome of one scheduled test day.
type DaySummary struct {
	TournamentID     string    `json:"tournament_id"`
	TestDate         time.Time `json:"test_date"`
	TotalRuns        int       `json:"total_runs"`
	Succeeded        int       `json:"succeeded"`
	Failed           int       `json:"failed"`
	TimedOut         int       `json:"timed_out"`
	AlreadyExecuted  bool      `json:"already_executed"`
}

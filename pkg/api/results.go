package api

import "time"

// Disqualification reasons recorded on results and participants.
const (
	ReasonNoCompletedRuns       = "no_completed_runs"
	ReasonDataCorrectnessFailed = "data_correctness_failed"
	ReasonTimeLimitExceeded     = "time_limit_exceeded"
)

// ResultResource represents the final scored outcome of one participant in
// one tournament. Results are overwritten idempotently; the leaderboard is
// read exclusively from this entity.
type ResultResource struct {
	Resource
	TournamentID            string          `json:"tournament_id"`
	Hotkey                  string          `json:"hotkey"`
	ParticipantType         ParticipantType `json:"participant_type"`
	PatternAccuracyScore    float64         `json:"pattern_accuracy_score"`
	DataCorrectnessScore    float64         `json:"data_correctness_score"`
	PerformanceScore        float64         `json:"performance_score"`
	FinalScore              float64         `json:"final_score"`
	DataCorrectnessAllRuns  bool            `json:"data_correctness_all_runs"`
	AllRunsWithinTimeLimit  bool            `json:"all_runs_within_time_limit"`
	DaysCompleted           int             `json:"days_completed"`
	TotalRunsCompleted      int             `json:"total_runs_completed"`
	AverageExecutionSeconds float64         `json:"average_execution_seconds"`
	BaselineComparisonRatio float64         `json:"baseline_comparison_ratio"`
	Rank                    int             `json:"rank"`
	IsWinner                bool            `json:"is_winner"`
	BeatBaseline            bool            `json:"beat_baseline"`
	MinersBeaten            int             `json:"miners_beaten"`
	Disqualified            bool            `json:"disqualified"`
	DisqualifiedReason      string          `json:"disqualified_reason,omitempty"`
	CalculatedAt            time.Time       `json:"calculated_at"`
}

// ResultResourceList represents a list of results
type ResultResourceList struct {
	Items []ResultResource `json:"items"`
	Page
}

package scoring

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/pkg/api"
)

// Final score weights. The three sub-scores are each in [0, 1] so the
// final score is too.
const (
	WeightAccuracy        = 0.50
	WeightDataCorrectness = 0.30
	WeightPerformance     = 0.20
)

// Engine computes the final results of a tournament from its stored runs.
// Scoring is deterministic for a fixed set of runs and a fixed asOf time,
// and results are overwritten idempotently on re-scoring.
type Engine struct {
	storage       abstractions.Storage
	logger        *slog.Logger
	maxRunSeconds float64
}

func New(storage abstractions.Storage, logger *slog.Logger, runTimeout time.Duration) *Engine {
	return &Engine{
		storage:       storage,
		logger:        logger,
		maxRunSeconds: runTimeout.Seconds(),
	}
}

// Score computes, ranks and persists the results of every participant.
// Ties rank in first-seen order, which is registration order since the
// participant list is sorted by it. The asOf time stamps the results so
// repeated scoring of the same tournament state is byte-identical.
func (e *Engine) Score(ctx context.Context, tournament *api.TournamentResource, asOf time.Time) ([]api.ResultResource, error) {
	storage := e.storage.WithContext(ctx)

	participants, err := storage.GetParticipants(tournament.ID)
	if err != nil {
		return nil, err
	}

	baselineAvg, baselineHotkey, err := e.baselineAverageSeconds(storage, tournament, participants)
	if err != nil {
		return nil, err
	}

	results := make([]api.ResultResource, 0, len(participants))
	for i := range participants {
		participant := &participants[i]
		runs, err := storage.GetParticipantRuns(tournament.ID, participant.Hotkey)
		if err != nil {
			return nil, err
		}
		result := e.scoreParticipant(tournament, participant, runs, baselineAvg, asOf)
		results = append(results, *result)
	}

	rank(results, baselineHotkey)

	for i := range results {
		result := &results[i]
		if err := storage.UpsertResult(result); err != nil {
			return nil, err
		}
		if result.Disqualified {
			err = storage.DisqualifyParticipant(tournament.ID, result.Hotkey, result.DisqualifiedReason, tournament.CurrentDay)
		} else {
			err = storage.UpdateParticipantStatus(tournament.ID, result.Hotkey, api.ParticipantCompleted)
		}
		if err != nil {
			return nil, err
		}
	}

	e.logger.Info("Scored tournament", constants.LogFieldTournamentID, tournament.ID, "participants", len(results))
	return results, nil
}

// baselineAverageSeconds computes the mean execution time of the baseline
// participant's own COMPLETED runs within this tournament. A baseline with
// no completed runs yields zero, which disables the performance ratio.
func (e *Engine) baselineAverageSeconds(storage abstractions.Storage, tournament *api.TournamentResource, participants []api.ParticipantResource) (float64, string, error) {
	var baselineHotkey string
	for i := range participants {
		if participants[i].Type == api.ParticipantBaseline {
			baselineHotkey = participants[i].Hotkey
			break
		}
	}
	if baselineHotkey == "" {
		return 0, "", nil
	}
	runs, err := storage.GetParticipantRuns(tournament.ID, baselineHotkey)
	if err != nil {
		return 0, "", err
	}
	var total float64
	var count int
	for i := range runs {
		if runs[i].Status == api.RunCompleted {
			total += runs[i].ExecutionSeconds
			count++
		}
	}
	if count == 0 {
		return 0, baselineHotkey, nil
	}
	return total / float64(count), baselineHotkey, nil
}

func (e *Engine) scoreParticipant(tournament *api.TournamentResource, participant *api.ParticipantResource, runs []api.RunResource, baselineAvg float64, asOf time.Time) *api.ResultResource {
	result := &api.ResultResource{
		TournamentID:    tournament.ID,
		Hotkey:          participant.Hotkey,
		ParticipantType: participant.Type,
		CalculatedAt:    asOf,
	}

	completed := completedRuns(runs)
	result.TotalRunsCompleted = len(completed)
	result.DaysCompleted = distinctDays(completed)

	if len(completed) == 0 {
		result.Disqualified = true
		result.DisqualifiedReason = api.ReasonNoCompletedRuns
		return result
	}

	var totalSeconds float64
	for i := range completed {
		totalSeconds += completed[i].ExecutionSeconds
	}
	result.AverageExecutionSeconds = totalSeconds / float64(len(completed))

	result.DataCorrectnessAllRuns = allDataCorrect(completed)
	result.AllRunsWithinTimeLimit = e.allWithinTimeLimit(runs, completed)

	// The correctness gate is checked ahead of the time limit gate; when
	// both fail the recorded reason is the correctness failure.
	if !result.DataCorrectnessAllRuns {
		result.Disqualified = true
		result.DisqualifiedReason = api.ReasonDataCorrectnessFailed
		return result
	}
	if !result.AllRunsWithinTimeLimit {
		result.Disqualified = true
		result.DisqualifiedReason = api.ReasonTimeLimitExceeded
		return result
	}

	accuracy, correctness := subScores(tournament.Category, completed)
	result.PatternAccuracyScore = accuracy
	result.DataCorrectnessScore = correctness

	if baselineAvg > 0 && result.AverageExecutionSeconds > 0 {
		ratio := baselineAvg / result.AverageExecutionSeconds
		result.BaselineComparisonRatio = ratio
		if ratio > 1.0 {
			ratio = 1.0
		}
		result.PerformanceScore = ratio
	}

	result.FinalScore = WeightAccuracy*result.PatternAccuracyScore +
		WeightDataCorrectness*result.DataCorrectnessScore +
		WeightPerformance*result.PerformanceScore
	return result
}

// rank sorts results by final score descending, assigns ranks 1..N and
// derives the baseline-relative fields. The sort is stable so equal scores
// keep their first-seen (registration) order.
func rank(results []api.ResultResource, baselineHotkey string) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})

	var baselineScore float64
	for i := range results {
		if results[i].Hotkey == baselineHotkey {
			baselineScore = results[i].FinalScore
			break
		}
	}

	for i := range results {
		result := &results[i]
		result.Rank = i + 1
		result.IsWinner = result.Rank == 1
		result.BeatBaseline = baselineHotkey != "" && result.FinalScore > baselineScore
		beaten := 0
		for j := range results {
			if j == i {
				continue
			}
			if results[j].ParticipantType == api.ParticipantMiner && results[j].FinalScore < result.FinalScore {
				beaten++
			}
		}
		result.MinersBeaten = beaten
	}
}

func completedRuns(runs []api.RunResource) []api.RunResource {
	var completed []api.RunResource
	for i := range runs {
		if runs[i].Status == api.RunCompleted {
			completed = append(completed, runs[i])
		}
	}
	return completed
}

func distinctDays(runs []api.RunResource) int {
	days := map[string]struct{}{}
	for i := range runs {
		days[api.DayString(runs[i].TestDate)] = struct{}{}
	}
	return len(days)
}

func allDataCorrect(completed []api.RunResource) bool {
	for i := range completed {
		if !completed[i].Metrics.DataCorrectnessPassed {
			return false
		}
	}
	return true
}

// allWithinTimeLimit fails when any run timed out or any completed run
// overran the wall-clock limit.
func (e *Engine) allWithinTimeLimit(runs []api.RunResource, completed []api.RunResource) bool {
	for i := range runs {
		if runs[i].Status == api.RunTimeout {
			return false
		}
	}
	if e.maxRunSeconds <= 0 {
		return true
	}
	for i := range completed {
		if completed[i].ExecutionSeconds > e.maxRunSeconds {
			return false
		}
	}
	return true
}

package sql

import (
	"time"

	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/pkg/api"
)

//#######################################################################
// Run operations
//#######################################################################

// CreateRun stores a new run row. The (tournament, hotkey, date, network,
// window) uniqueness constraint makes duplicate scheduling of the same
// cell a database error, which backs the scheduler's idempotency check.
func (s *SQLStorage) CreateRun(run *api.RunResource) (*api.RunResource, error) {
	id := s.generateID()
	now := time.Now().UTC()
	stored := *run
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.logger.Info("Creating run", constants.LogFieldRunID, id,
		constants.LogFieldTournamentID, run.TournamentID,
		constants.LogFieldHotkey, run.Hotkey,
		"test_date", api.DayString(run.TestDate),
		"network", run.Network,
		"window_days", run.WindowDays,
		"run_order", run.RunOrder)
	err := insertEntity(s, TABLE_RUNS, constants.ResourceTypeRun, id, &stored,
		[]string{"tournament_id", "hotkey", "test_date", "network", "window_days", "run_order", "status"},
		run.TournamentID, run.Hotkey, api.DayString(run.TestDate), run.Network, run.WindowDays, run.RunOrder, string(run.Status))
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *SQLStorage) getRun(id string) (*api.RunResource, error) {
	return getEntity[api.RunResource](s, TABLE_RUNS, constants.ResourceTypeRun, id, []string{"id"}, id)
}

func (s *SQLStorage) UpdateRunStatus(id string, status api.RunStatus) error {
	run, err := s.getRun(id)
	if err != nil {
		return err
	}
	run.Status = status
	run.UpdatedAt = time.Now().UTC()
	return updateEntity(s, TABLE_RUNS, constants.ResourceTypeRun, id, run,
		[]string{"status"}, string(status))
}

// UpdateRunOutcome writes the terminal state of a run: status, timing,
// exit code and the validated metrics when present.
func (s *SQLStorage) UpdateRunOutcome(id string, outcome *api.RunOutcome) error {
	run, err := s.getRun(id)
	if err != nil {
		return err
	}
	run.Status = outcome.Status
	run.ExecutionSeconds = outcome.ExecutionSeconds
	run.ExitCode = outcome.ExitCode
	run.MemoryPeakMB = outcome.MemoryPeakMB
	run.ErrorMessage = outcome.ErrorMessage
	if outcome.Metrics != nil {
		run.Metrics = *outcome.Metrics
	}
	run.UpdatedAt = time.Now().UTC()
	s.logger.Info("Updating run outcome", constants.LogFieldRunID, id, "status", outcome.Status,
		"execution_seconds", outcome.ExecutionSeconds, "exit_code", outcome.ExitCode)
	return updateEntity(s, TABLE_RUNS, constants.ResourceTypeRun, id, run,
		[]string{"status"}, string(outcome.Status))
}

// GetRunsForDay returns all runs of a tournament for one calendar day in
// run order.
func (s *SQLStorage) GetRunsForDay(tournamentID string, testDate time.Time) ([]api.RunResource, error) {
	return listEntities[api.RunResource](s, TABLE_RUNS, constants.ResourceTypeRun, "run_order",
		[]string{"tournament_id", "test_date"}, tournamentID, api.DayString(testDate))
}

// GetParticipantRuns returns all runs of one participant in a tournament
// ordered by day then run order.
func (s *SQLStorage) GetParticipantRuns(tournamentID string, hotkey string) ([]api.RunResource, error) {
	return listEntities[api.RunResource](s, TABLE_RUNS, constants.ResourceTypeRun, "test_date, run_order",
		[]string{"tournament_id", "hotkey"}, tournamentID, hotkey)
}

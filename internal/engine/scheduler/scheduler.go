package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/internal/metrics"
	"github.com/bench-arena/bench-arena/pkg/api"
)

// Scheduler executes one test day of a tournament: every competing
// participant runs once against every (network, window) cell, in
// registration order with a shared run-order counter. A failing run never
// aborts the day; its outcome is recorded and execution moves on.
type Scheduler struct {
	storage    abstractions.Storage
	sandbox    abstractions.Sandbox
	datasets   abstractions.DatasetProvider
	validator  abstractions.OutputValidator
	logger     *slog.Logger
	metrics    *metrics.Metrics
	runTimeout time.Duration
}

func New(
	storage abstractions.Storage,
	sandbox abstractions.Sandbox,
	datasets abstractions.DatasetProvider,
	validator abstractions.OutputValidator,
	logger *slog.Logger,
	m *metrics.Metrics,
	runTimeout time.Duration,
) *Scheduler {
	return &Scheduler{
		storage:    storage,
		sandbox:    sandbox,
		datasets:   datasets,
		validator:  validator,
		logger:     logger,
		metrics:    m,
		runTimeout: runTimeout,
	}
}

// RunDay executes the given calendar day of a tournament. If any runs
// already exist for that day the invocation is a no-op reporting
// AlreadyExecuted, which makes retried ticks safe.
func (s *Scheduler) RunDay(ctx context.Context, tournament *api.TournamentResource, day time.Time) (*api.DaySummary, error) {
	storage := s.storage.WithContext(ctx)
	day = api.Day(day)
	summary := &api.DaySummary{
		TournamentID: tournament.ID,
		TestDate:     day,
	}

	existing, err := storage.GetRunsForDay(tournament.ID, day)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		s.logger.Info("Day already executed, skipping",
			constants.LogFieldTournamentID, tournament.ID, constants.LogFieldDay, api.DayString(day), "existing_runs", len(existing))
		summary.AlreadyExecuted = true
		return summary, nil
	}

	epoch, err := storage.GetEpoch(tournament.ID)
	if err != nil {
		return nil, err
	}

	participants, err := storage.GetParticipants(tournament.ID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	runOrder := 0
	for i := range participants {
		participant := &participants[i]
		if !participant.Competing() {
			continue
		}
		for _, network := range tournament.TestNetworks {
			for _, windowDays := range tournament.TestWindowDays {
				runOrder++
				outcome := s.executeRun(ctx, storage, tournament, epoch, participant, day, network, windowDays, runOrder)
				summary.TotalRuns++
				switch outcome {
				case api.RunCompleted:
					summary.Succeeded++
				case api.RunTimeout:
					summary.TimedOut++
				default:
					summary.Failed++
				}
				if s.metrics != nil {
					s.metrics.RunsTotal.WithLabelValues(string(outcome)).Inc()
				}
			}
		}
	}

	if s.metrics != nil {
		s.metrics.DayExecutionDuration.Observe(time.Since(start).Seconds())
	}
	s.logger.Info("Day executed",
		constants.LogFieldTournamentID, tournament.ID,
		constants.LogFieldDay, api.DayString(day),
		"total", summary.TotalRuns, "succeeded", summary.Succeeded,
		"failed", summary.Failed, "timed_out", summary.TimedOut)
	return summary, nil
}

// executeRun drives one (participant, network, window) cell from PENDING to
// a terminal status and returns that status. Errors from collaborators are
// recorded as FAILED on the run, never returned, so the day continues.
func (s *Scheduler) executeRun(
	ctx context.Context,
	storage abstractions.Storage,
	tournament *api.TournamentResource,
	epoch *api.EpochResource,
	participant *api.ParticipantResource,
	day time.Time,
	network string,
	windowDays int,
	runOrder int,
) api.RunStatus {
	run, err := storage.CreateRun(&api.RunResource{
		TournamentID:    tournament.ID,
		EpochID:         epoch.ID,
		Hotkey:          participant.Hotkey,
		ParticipantType: participant.Type,
		TestDate:        day,
		Network:         network,
		WindowDays:      windowDays,
		RunOrder:        runOrder,
		Status:          api.RunPending,
	})
	if err != nil {
		s.logger.Error("Failed to create run",
			constants.LogFieldTournamentID, tournament.ID,
			constants.LogFieldHotkey, participant.Hotkey,
			"network", network, "window_days", windowDays, "error", err)
		return api.RunFailed
	}

	datasetPath, err := s.datasets.FetchDataset(ctx, network, day, windowDays)
	if err != nil {
		return s.failRun(storage, run, fmt.Errorf("fetching dataset: %w", err))
	}
	mountPath, err := s.datasets.PrepareMount(ctx, datasetPath)
	if err != nil {
		return s.failRun(storage, run, fmt.Errorf("preparing dataset mount: %w", err))
	}

	if err := storage.UpdateRunStatus(run.ID, api.RunRunning); err != nil {
		return s.failRun(storage, run, err)
	}

	outcome, err := s.sandbox.Run(ctx, &abstractions.SandboxSpec{
		RunID:        run.ID,
		TournamentID: tournament.ID,
		Hotkey:       participant.Hotkey,
		ImageRef:     participant.ImageRef,
		DatasetPath:  mountPath,
		OutputPath:   mountPath,
		DatabaseName: participant.DatabaseName,
		Network:      network,
		WindowDays:   windowDays,
		Timeout:      s.runTimeout,
	})
	if err != nil {
		return s.failRun(storage, run, fmt.Errorf("sandbox execution: %w", err))
	}

	return s.classifyOutcome(ctx, storage, tournament, run, mountPath, datasetPath, network, windowDays, outcome)
}

// classifyOutcome maps a sandbox outcome to the run's terminal status:
// TIMEOUT when the wall clock expired, FAILED on a non-zero exit, otherwise
// output validation decides the metrics and the run is COMPLETED.
func (s *Scheduler) classifyOutcome(
	ctx context.Context,
	storage abstractions.Storage,
	tournament *api.TournamentResource,
	run *api.RunResource,
	mountPath string,
	datasetPath string,
	network string,
	windowDays int,
	outcome *abstractions.SandboxOutcome,
) api.RunStatus {
	update := &api.RunOutcome{
		ExecutionSeconds: outcome.Duration.Seconds(),
		ExitCode:         outcome.ExitCode,
		MemoryPeakMB:     outcome.MemoryPeakMB,
	}

	switch {
	case outcome.TimedOut:
		update.Status = api.RunTimeout
		update.ErrorMessage = fmt.Sprintf("run exceeded the %s wall-clock limit", s.runTimeout)
	case outcome.ExitCode != 0:
		update.Status = api.RunFailed
		update.ErrorMessage = fmt.Sprintf("artifact exited with code %d", outcome.ExitCode)
	default:
		// the artifact writes its findings into the mount; the ground truth
		// lives one level up in the dataset directory, outside the mount
		runMetrics, err := s.validator.ValidateRun(ctx, tournament.Category, mountPath, datasetPath, network, windowDays)
		if err != nil {
			update.Status = api.RunFailed
			update.ErrorMessage = fmt.Sprintf("output validation: %v", err)
		} else {
			update.Status = api.RunCompleted
			update.Metrics = runMetrics
		}
	}

	if err := storage.UpdateRunOutcome(run.ID, update); err != nil {
		s.logger.Error("Failed to record run outcome", constants.LogFieldRunID, run.ID, "error", err)
		return api.RunFailed
	}
	return update.Status
}

func (s *Scheduler) failRun(storage abstractions.Storage, run *api.RunResource, cause error) api.RunStatus {
	s.logger.Warn("Run failed", constants.LogFieldRunID, run.ID, constants.LogFieldHotkey, run.Hotkey, "error", cause)
	err := storage.UpdateRunOutcome(run.ID, &api.RunOutcome{
		Status:       api.RunFailed,
		ErrorMessage: cause.Error(),
	})
	if err != nil {
		s.logger.Error("Failed to record run failure", constants.LogFieldRunID, run.ID, "error", err)
	}
	return api.RunFailed
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/internal/engine/promotion"
	"github.com/bench-arena/bench-arena/internal/engine/scheduler"
	"github.com/bench-arena/bench-arena/internal/engine/scoring"
	"github.com/bench-arena/bench-arena/internal/metrics"
	"github.com/bench-arena/bench-arena/pkg/api"
)

// Orchestrator owns the tournament phase machine. It is the only writer of
// phase transitions; every tick re-derives the next action from persisted
// state, so ticks are safe to repeat and to resume after a crash.
type Orchestrator struct {
	storage   abstractions.Storage
	scheduler *scheduler.Scheduler
	scoring   *scoring.Engine
	promotion *promotion.Workflow
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func New(
	storage abstractions.Storage,
	daySched *scheduler.Scheduler,
	scoringEngine *scoring.Engine,
	promotionWorkflow *promotion.Workflow,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Orchestrator {
	return &Orchestrator{
		storage:   storage,
		scheduler: daySched,
		scoring:   scoringEngine,
		promotion: promotionWorkflow,
		logger:    logger,
		metrics:   m,
	}
}

// activePhases are the phases a tick has work to do in, in lifecycle order.
var activePhases = []api.TournamentPhase{
	api.PhaseDraft,
	api.PhaseRegistration,
	api.PhaseInProgress,
	api.PhaseScoring,
}

// Tick processes every non-terminal tournament of the category (all
// categories when empty) against the given wall-clock time. A failing
// tournament does not stop the others; the errors are joined.
func (o *Orchestrator) Tick(ctx context.Context, category api.ArtifactCategory, now time.Time) error {
	storage := o.storage.WithContext(ctx)

	var errs []error
	for _, phase := range activePhases {
		tournaments, err := storage.GetTournaments(category, phase)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for i := range tournaments {
			if err := o.ProcessTournament(ctx, &tournaments[i], now); err != nil {
				o.logger.Error("Tournament processing failed",
					constants.LogFieldTournamentID, tournaments[i].ID,
					constants.LogFieldPhase, tournaments[i].Phase, "error", err)
				errs = append(errs, fmt.Errorf("tournament %s: %w", tournaments[i].ID, err))
			}
		}
	}
	return errors.Join(errs...)
}

// ProcessTournament advances one tournament by at most one phase
// transition, executing the in-phase work first.
func (o *Orchestrator) ProcessTournament(ctx context.Context, tournament *api.TournamentResource, now time.Time) error {
	switch tournament.Phase {
	case api.PhaseDraft:
		return o.processDraft(ctx, tournament, now)
	case api.PhaseRegistration:
		return o.processRegistration(ctx, tournament, now)
	case api.PhaseInProgress:
		return o.processInProgress(ctx, tournament, now)
	case api.PhaseScoring:
		return o.processScoring(ctx, tournament, now)
	case api.PhaseCompleted, api.PhaseCancelled:
		return nil
	default:
		return fmt.Errorf("tournament %s is in unknown phase %q", tournament.ID, tournament.Phase)
	}
}

// Cancel moves a non-terminal tournament to CANCELLED. Terminal phases
// reject the transition.
func (o *Orchestrator) Cancel(ctx context.Context, tournamentID string) error {
	storage := o.storage.WithContext(ctx)
	tournament, err := storage.GetTournament(tournamentID)
	if err != nil {
		return err
	}
	if tournament.Phase.IsTerminal() {
		return fmt.Errorf("tournament %s is already %s", tournamentID, tournament.Phase)
	}
	return o.transition(ctx, tournament, api.PhaseCancelled, tournament.CurrentDay)
}

// processDraft opens registration once the registration window has started
// and seeds the baseline participant at phase entry.
func (o *Orchestrator) processDraft(ctx context.Context, tournament *api.TournamentResource, now time.Time) error {
	if now.Before(tournament.RegistrationStart) {
		return nil
	}
	if err := o.ensureBaselineParticipant(ctx, tournament); err != nil {
		return err
	}
	return o.transition(ctx, tournament, api.PhaseRegistration, 0)
}

// processRegistration closes registration after the window ends: the epoch
// is created, registered participants are activated, and day one begins.
func (o *Orchestrator) processRegistration(ctx context.Context, tournament *api.TournamentResource, now time.Time) error {
	if !now.After(tournament.RegistrationEnd) {
		return nil
	}
	storage := o.storage.WithContext(ctx)

	// re-entrancy: the epoch may exist from a tick that failed after
	// creating it
	if _, err := storage.GetEpoch(tournament.ID); err != nil {
		if !isNotFound(err) {
			return err
		}
		_, err = storage.CreateEpoch(&api.EpochResource{
			TournamentID: tournament.ID,
			StartDate:    api.Day(tournament.CompetitionStart),
			EndDate:      api.Day(tournament.CompetitionEnd),
			Status:       api.EpochRunning,
		})
		if err != nil {
			return err
		}
	}

	participants, err := storage.GetParticipants(tournament.ID)
	if err != nil {
		return err
	}
	for i := range participants {
		if participants[i].Status != api.ParticipantRegistered {
			continue
		}
		if err := storage.UpdateParticipantStatus(tournament.ID, participants[i].Hotkey, api.ParticipantActive); err != nil {
			return err
		}
	}

	return o.transition(ctx, tournament, api.PhaseInProgress, 1)
}

// processInProgress runs the current test day, or closes the epoch and
// moves to SCORING once the competition window is over.
func (o *Orchestrator) processInProgress(ctx context.Context, tournament *api.TournamentResource, now time.Time) error {
	storage := o.storage.WithContext(ctx)

	if api.Day(now).After(api.Day(tournament.CompetitionEnd)) {
		epoch, err := storage.GetEpoch(tournament.ID)
		if err != nil {
			return err
		}
		if epoch.Status != api.EpochCompleted {
			if err := storage.UpdateEpochStatus(epoch.ID, api.EpochCompleted); err != nil {
				return err
			}
		}
		return o.transition(ctx, tournament, api.PhaseScoring, tournament.CurrentDay)
	}

	if api.Day(now).Before(api.Day(tournament.CompetitionStart)) {
		// registration closed early relative to the competition window
		return nil
	}

	day := api.DaysBetween(tournament.CompetitionStart, now) + 1
	if day > tournament.EpochDays {
		day = tournament.EpochDays
	}
	// current_day never moves backwards
	if day > tournament.CurrentDay {
		if err := storage.UpdateTournamentCurrentDay(tournament.ID, day); err != nil {
			return err
		}
		tournament.CurrentDay = day
	}

	_, err := o.scheduler.RunDay(ctx, tournament, now)
	return err
}

// processScoring scores the tournament, records the winner, completes the
// tournament and triggers baseline promotion.
func (o *Orchestrator) processScoring(ctx context.Context, tournament *api.TournamentResource, now time.Time) error {
	storage := o.storage.WithContext(ctx)

	results, err := o.scoring.Score(ctx, tournament, now)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		o.logger.Warn("Tournament has no participants to score", constants.LogFieldTournamentID, tournament.ID)
		return o.completeAndTransition(ctx, storage, tournament, "", false, now)
	}

	winner := &results[0]
	tournament.WinnerHotkey = winner.Hotkey
	tournament.BaselineBeaten = winner.BeatBaseline

	// promotion runs while the tournament is still SCORING: a failed build
	// leaves the phase unchanged and the next tick retries the promotion
	if _, err := o.promotion.Promote(ctx, tournament); err != nil {
		return err
	}
	return o.completeAndTransition(ctx, storage, tournament, winner.Hotkey, winner.BeatBaseline, now)
}

func (o *Orchestrator) completeAndTransition(ctx context.Context, storage abstractions.Storage, tournament *api.TournamentResource, winnerHotkey string, baselineBeaten bool, now time.Time) error {
	if err := storage.CompleteTournament(tournament.ID, winnerHotkey, baselineBeaten, now); err != nil {
		return err
	}
	o.countTransition(tournament.Phase, api.PhaseCompleted)
	o.logger.Info("Tournament completed",
		constants.LogFieldTournamentID, tournament.ID,
		"winner", winnerHotkey, "baseline_beaten", baselineBeaten)
	tournament.Phase = api.PhaseCompleted
	return nil
}

// ensureBaselineParticipant registers the category's ACTIVE baseline as
// participant zero. A category without a baseline competes without one.
func (o *Orchestrator) ensureBaselineParticipant(ctx context.Context, tournament *api.TournamentResource) error {
	storage := o.storage.WithContext(ctx)

	baseline, err := storage.GetActiveBaseline(tournament.Category)
	if err != nil {
		if isNotFound(err) {
			o.logger.Warn("No active baseline for category, tournament runs without one",
				constants.LogFieldTournamentID, tournament.ID, "category", tournament.Category)
			return nil
		}
		return err
	}

	hotkey := fmt.Sprintf("baseline-%s-%s", tournament.Category, baseline.Version)
	if _, err := storage.GetParticipant(tournament.ID, hotkey); err == nil {
		return nil
	} else if !isNotFound(err) {
		return err
	}

	_, err = storage.CreateParticipant(&api.ParticipantResource{
		TournamentID:      tournament.ID,
		Hotkey:            hotkey,
		Type:              api.ParticipantBaseline,
		RegistrationOrder: 0,
		SourceRepository:  baseline.SourceRepository,
		CommitHash:        baseline.CommitHash,
		ImageRef:          baseline.ImageRef,
		DatabaseName:      fmt.Sprintf("baseline_%s", tournament.Category),
		BaselineID:        baseline.ID,
		Status:            api.ParticipantRegistered,
	})
	if err != nil {
		return err
	}
	return storage.SetTournamentBaseline(tournament.ID, baseline.ID)
}

func (o *Orchestrator) transition(ctx context.Context, tournament *api.TournamentResource, to api.TournamentPhase, currentDay int) error {
	storage := o.storage.WithContext(ctx)
	from := tournament.Phase
	if err := storage.UpdateTournamentPhase(tournament.ID, to, currentDay); err != nil {
		return err
	}
	o.countTransition(from, to)
	o.logger.Info("Tournament phase transition",
		constants.LogFieldTournamentID, tournament.ID,
		"from", from, "to", to, "current_day", currentDay)
	tournament.Phase = to
	tournament.CurrentDay = currentDay
	return nil
}

func (o *Orchestrator) countTransition(from, to api.TournamentPhase) {
	if o.metrics != nil {
		o.metrics.PhaseTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	}
}

func isNotFound(err error) bool {
	var se abstractions.ServiceError
	if errors.As(err, &se) {
		return se.MessageCode().GetCode() == 404
	}
	return false
}

package promotion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/internal/metrics"
	"github.com/bench-arena/bench-arena/internal/serviceerrors"
	"github.com/bench-arena/bench-arena/pkg/api"
)

// Outcome classifies one promotion attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Skip and failure reasons.
const (
	ReasonBaselineNotBeaten = "baseline_not_beaten"
	ReasonWinnerIsBaseline  = "winner_is_baseline"
	ReasonCommitHashMissing = "commit_hash_missing"
	ReasonAlreadyPromoted   = "already_promoted"
)

// Promotion is the recorded result of one promotion attempt.
type Promotion struct {
	Outcome  Outcome
	Reason   string
	Baseline *api.BaselineResource
}

// Workflow promotes the winner of a completed tournament into the next
// baseline version of its category: fork the winning artifact, build its
// image, activate it and deprecate the previous baseline.
type Workflow struct {
	storage abstractions.Storage
	builder abstractions.ArtifactBuilder
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(storage abstractions.Storage, builder abstractions.ArtifactBuilder, logger *slog.Logger, m *metrics.Metrics) *Workflow {
	return &Workflow{
		storage: storage,
		builder: builder,
		logger:  logger,
		metrics: m,
	}
}

// Promote runs the promotion workflow for a completed tournament. A
// tournament whose winner did not beat the baseline, or whose winner is
// the baseline itself, is skipped without side effects. Once the new
// baseline row exists, any later failure marks that row FAILED before the
// error is returned.
func (w *Workflow) Promote(ctx context.Context, tournament *api.TournamentResource) (*Promotion, error) {
	storage := w.storage.WithContext(ctx)

	if !tournament.BaselineBeaten {
		return w.skip(tournament, ReasonBaselineNotBeaten), nil
	}

	winner, err := storage.GetParticipant(tournament.ID, tournament.WinnerHotkey)
	if err != nil {
		return nil, err
	}
	if winner.Type == api.ParticipantBaseline {
		return w.skip(tournament, ReasonWinnerIsBaseline), nil
	}

	// The commit hash was pinned at registration; promotion never falls
	// back to a branch head.
	if winner.CommitHash == "" {
		w.count(OutcomeFailed)
		return &Promotion{Outcome: OutcomeFailed, Reason: ReasonCommitHashMissing},
			serviceerrors.NewStorageError("participant %s has no recorded commit hash", winner.Hotkey)
	}

	previousVersion := ""
	previousID := ""
	active, err := storage.GetActiveBaseline(tournament.Category)
	if err == nil {
		// a retried attempt after a successful promotion must not bump the
		// version a second time
		if active.OriginTournamentID == tournament.ID {
			return w.skip(tournament, ReasonAlreadyPromoted), nil
		}
		previousVersion = active.Version
		previousID = active.ID
	} else if !isNotFound(err) {
		return nil, err
	}

	version, err := api.NextBaselineVersion(previousVersion)
	if err != nil {
		return nil, err
	}

	baseline, err := storage.CreateBaseline(&api.BaselineResource{
		Category:           tournament.Category,
		Version:            version,
		SourceRepository:   winner.SourceRepository,
		CommitHash:         winner.CommitHash,
		Status:             api.BaselineBuilding,
		OriginTournamentID: tournament.ID,
		OriginHotkey:       winner.Hotkey,
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("Promoting tournament winner",
		constants.LogFieldTournamentID, tournament.ID,
		constants.LogFieldHotkey, winner.Hotkey,
		"version", version, "previous_version", previousVersion)

	repository, err := w.builder.ForkRepository(ctx, winner.SourceRepository, winner.CommitHash, tournament.Category, version)
	if err != nil {
		return w.fail(storage, baseline, fmt.Errorf("forking winner repository: %w", err))
	}

	imageRef, err := w.builder.BuildImage(ctx, repository, winner.CommitHash, version)
	if err != nil {
		return w.fail(storage, baseline, fmt.Errorf("building baseline image: %w", err))
	}
	if err := storage.SetBaselineImage(baseline.ID, imageRef); err != nil {
		return w.fail(storage, baseline, err)
	}

	if err := storage.ActivateBaseline(baseline.ID, previousID, time.Now().UTC()); err != nil {
		return w.fail(storage, baseline, err)
	}

	baseline.ImageRef = imageRef
	baseline.Status = api.BaselineActive
	w.count(OutcomeSuccess)
	w.logger.Info("Baseline promoted", "id", baseline.ID, "version", version, "image", imageRef)
	return &Promotion{Outcome: OutcomeSuccess, Baseline: baseline}, nil
}

func (w *Workflow) skip(tournament *api.TournamentResource, reason string) *Promotion {
	w.logger.Info("Promotion skipped", constants.LogFieldTournamentID, tournament.ID, "reason", reason)
	w.count(OutcomeSkipped)
	return &Promotion{Outcome: OutcomeSkipped, Reason: reason}
}

// fail marks the half-built baseline FAILED and propagates the cause.
func (w *Workflow) fail(storage abstractions.Storage, baseline *api.BaselineResource, cause error) (*Promotion, error) {
	w.logger.Error("Promotion failed", "id", baseline.ID, "version", baseline.Version, "error", cause)
	if err := storage.UpdateBaselineStatus(baseline.ID, api.BaselineFailed); err != nil {
		w.logger.Error("Failed to mark baseline FAILED", "id", baseline.ID, "error", err)
	}
	w.count(OutcomeFailed)
	return &Promotion{Outcome: OutcomeFailed, Baseline: baseline}, cause
}

func (w *Workflow) count(outcome Outcome) {
	if w.metrics != nil {
		w.metrics.PromotionsTotal.WithLabelValues(string(outcome)).Inc()
	}
}

func isNotFound(err error) bool {
	if se, ok := err.(abstractions.ServiceError); ok {
		return se.MessageCode().GetCode() == 404
	}
	return false
}

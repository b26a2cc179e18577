package abstractions

import (
	"context"
	"log/slog"
	"time"

	"github.com/bench-arena/bench-arena/pkg/api"
)

// Storage is the persistence contract of the tournament engine. The
// orchestrator is the sole writer of tournament phase transitions; runs are
// append/update-only; results are overwritten idempotently per
// (tournament, hotkey).
type Storage interface {
	WithLogger(logger *slog.Logger) Storage
	WithContext(ctx context.Context) Storage

	// This is used to identify the storage implementation in the logs and error messages
	GetDatasourceName() string

	Ping(timeout time.Duration) error

	// Tournament operations
	CreateTournament(config *api.TournamentConfig) (*api.TournamentResource, error)
	GetTournament(id string) (*api.TournamentResource, error)
	GetTournaments(category api.ArtifactCategory, phase api.TournamentPhase) ([]api.TournamentResource, error)
	UpdateTournamentPhase(id string, phase api.TournamentPhase, currentDay int) error
	UpdateTournamentCurrentDay(id string, currentDay int) error
	SetTournamentBaseline(id string, baselineID string) error
	CompleteTournament(id string, winnerHotkey string, baselineBeaten bool, completedAt time.Time) error

	// Participant operations
	CreateParticipant(participant *api.ParticipantResource) (*api.ParticipantResource, error)
	GetParticipant(tournamentID string, hotkey string) (*api.ParticipantResource, error)
	GetParticipants(tournamentID string) ([]api.ParticipantResource, error)
	CountParticipants(tournamentID string) (int, error)
	UpdateParticipantStatus(tournamentID string, hotkey string, status api.ParticipantStatus) error
	DisqualifyParticipant(tournamentID string, hotkey string, reason string, day int) error

	// Epoch operations
	CreateEpoch(epoch *api.EpochResource) (*api.EpochResource, error)
	GetEpoch(tournamentID string) (*api.EpochResource, error)
	UpdateEpochStatus(id string, status api.EpochStatus) error

	// Run operations
	CreateRun(run *api.RunResource) (*api.RunResource, error)
	UpdateRunStatus(id string, status api.RunStatus) error
	UpdateRunOutcome(id string, outcome *api.RunOutcome) error
	GetRunsForDay(tournamentID string, testDate time.Time) ([]api.RunResource, error)
	GetParticipantRuns(tournamentID string, hotkey string) ([]api.RunResource, error)

	// Result operations
	UpsertResult(result *api.ResultResource) error
	GetResults(tournamentID string) ([]api.ResultResource, error)

	// Baseline operations
	CreateBaseline(baseline *api.BaselineResource) (*api.BaselineResource, error)
	GetActiveBaseline(category api.ArtifactCategory) (*api.BaselineResource, error)
	GetBaselines(category api.ArtifactCategory) ([]api.BaselineResource, error)
	UpdateBaselineStatus(id string, status api.BaselineStatus) error
	SetBaselineImage(id string, imageRef string) error
	// ActivateBaseline atomically marks one baseline ACTIVE and, when
	// previousID is non-empty, the previous one DEPRECATED. This is what
	// keeps at most one baseline per category ACTIVE.
	ActivateBaseline(id string, previousID string, activatedAt time.Time) error

	Close() error
}

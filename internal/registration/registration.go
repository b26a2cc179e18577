package registration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/internal/messages"
	"github.com/bench-arena/bench-arena/internal/serviceerrors"
	"github.com/bench-arena/bench-arena/pkg/api"
)

// Service admits miners into a tournament: the registration window must be
// open, the tournament must have capacity, the hotkey must be new and the
// artifact must pass the admission scan. Registration pins the commit hash
// the participant competes with.
type Service struct {
	storage abstractions.Storage
	scanner abstractions.ArtifactScanner
	logger  *slog.Logger
}

func New(storage abstractions.Storage, scanner abstractions.ArtifactScanner, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		scanner: scanner,
		logger:  logger,
	}
}

func (s *Service) Register(ctx context.Context, tournamentID string, participantConfig *api.ParticipantConfig) (*api.ParticipantResource, error) {
	storage := s.storage.WithContext(ctx)

	tournament, err := storage.GetTournament(tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Phase != api.PhaseRegistration {
		return nil, serviceerrors.NewServiceError(messages.RegistrationClosed,
			"TournamentId", tournamentID, "Phase", tournament.Phase)
	}

	if _, err := storage.GetParticipant(tournamentID, participantConfig.Hotkey); err == nil {
		return nil, serviceerrors.NewServiceError(messages.AlreadyRegistered,
			"Hotkey", participantConfig.Hotkey, "TournamentId", tournamentID)
	} else if !isNotFound(err) {
		return nil, err
	}

	count, err := storage.CountParticipants(tournamentID)
	if err != nil {
		return nil, err
	}
	miners := count
	if tournament.BaselineID != "" {
		// the baseline participant does not consume a miner slot
		miners = count - 1
	}
	if tournament.MaxParticipants > 0 && miners >= tournament.MaxParticipants {
		return nil, serviceerrors.NewServiceError(messages.TournamentFull,
			"TournamentId", tournamentID, "Max", tournament.MaxParticipants)
	}

	report, err := s.scanner.ScanArtifact(ctx, participantConfig.SourceRepository, participantConfig.CommitHash)
	if err != nil {
		return nil, err
	}
	if !report.Passed {
		s.logger.Warn("Artifact rejected at registration",
			constants.LogFieldTournamentID, tournamentID,
			constants.LogFieldHotkey, participantConfig.Hotkey,
			"findings", report.Findings)
		return nil, serviceerrors.NewServiceError(messages.ArtifactRejected,
			"Hotkey", participantConfig.Hotkey, "Reason", strings.Join(report.Findings, "; "))
	}

	participant, err := storage.CreateParticipant(&api.ParticipantResource{
		TournamentID:      tournamentID,
		Hotkey:            participantConfig.Hotkey,
		Type:              api.ParticipantMiner,
		RegistrationOrder: count,
		SourceRepository:  participantConfig.SourceRepository,
		CommitHash:        participantConfig.CommitHash,
		ImageRef:          participantConfig.ImageRef,
		DatabaseName:      fmt.Sprintf("%s_%s", tournament.Category, participantConfig.Hotkey),
		Status:            api.ParticipantRegistered,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Participant registered",
		constants.LogFieldTournamentID, tournamentID,
		constants.LogFieldHotkey, participant.Hotkey,
		"registration_order", participant.RegistrationOrder)
	return participant, nil
}

func isNotFound(err error) bool {
	if se, ok := err.(abstractions.ServiceError); ok {
		return se.MessageCode().GetCode() == 404
	}
	return false
}

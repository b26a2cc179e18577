package sql

import (
	"time"

	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/internal/messages"
	"github.com/bench-arena/bench-arena/internal/serviceerrors"
	"github.com/bench-arena/bench-arena/pkg/api"
)

//#######################################################################
// Participant operations
//#######################################################################

// CreateParticipant stores a new participant. The registration order must
// already be assigned by the caller; the (tournament_id, hotkey) uniqueness
// constraint rejects double registration at the database level.
func (s *SQLStorage) CreateParticipant(participant *api.ParticipantResource) (*api.ParticipantResource, error) {
	id := s.generateID()
	now := time.Now().UTC()
	stored := *participant
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.logger.Info("Creating participant", "id", id,
		constants.LogFieldTournamentID, participant.TournamentID,
		constants.LogFieldHotkey, participant.Hotkey,
		"registration_order", participant.RegistrationOrder)
	err := insertEntity(s, TABLE_PARTICIPANTS, constants.ResourceTypeParticipant, id, &stored,
		[]string{"tournament_id", "hotkey", "registration_order", "status"},
		participant.TournamentID, participant.Hotkey, participant.RegistrationOrder, string(participant.Status))
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *SQLStorage) GetParticipant(tournamentID string, hotkey string) (*api.ParticipantResource, error) {
	return getEntity[api.ParticipantResource](s, TABLE_PARTICIPANTS, constants.ResourceTypeParticipant, hotkey,
		[]string{"tournament_id", "hotkey"}, tournamentID, hotkey)
}

// GetParticipants returns the participants of a tournament ordered by
// registration order. The baseline participant holds order zero and
// therefore always comes first.
func (s *SQLStorage) GetParticipants(tournamentID string) ([]api.ParticipantResource, error) {
	return listEntities[api.ParticipantResource](s, TABLE_PARTICIPANTS, constants.ResourceTypeParticipant,
		"registration_order", []string{"tournament_id"}, tournamentID)
}

func (s *SQLStorage) CountParticipants(tournamentID string) (int, error) {
	query, err := createCountEntitiesStatement(s.sqlConfig.Driver, TABLE_PARTICIPANTS, "tournament_id")
	if err != nil {
		return 0, err
	}
	var count int
	if err := s.pool.QueryRowContext(s.ctx, query, tournamentID).Scan(&count); err != nil {
		s.logger.Error("Failed to count participants", "error", err, constants.LogFieldTournamentID, tournamentID)
		return 0, serviceerrors.NewServiceError(messages.QueryFailed, "Type", constants.ResourceTypeParticipant, "Error", err.Error())
	}
	return count, nil
}

func (s *SQLStorage) UpdateParticipantStatus(tournamentID string, hotkey string, status api.ParticipantStatus) error {
	participant, err := s.GetParticipant(tournamentID, hotkey)
	if err != nil {
		return err
	}
	participant.Status = status
	participant.UpdatedAt = time.Now().UTC()
	s.logger.Info("Updating participant status",
		constants.LogFieldTournamentID, tournamentID, constants.LogFieldHotkey, hotkey, "status", status)
	return updateEntity(s, TABLE_PARTICIPANTS, constants.ResourceTypeParticipant, participant.ID, participant,
		[]string{"status"}, string(status))
}

// DisqualifyParticipant marks a participant DISQUALIFIED with the reason
// and the tournament day on which the disqualification happened.
func (s *SQLStorage) DisqualifyParticipant(tournamentID string, hotkey string, reason string, day int) error {
	participant, err := s.GetParticipant(tournamentID, hotkey)
	if err != nil {
		return err
	}
	participant.Status = api.ParticipantDisqualified
	participant.Disqualified = true
	participant.DisqualifiedReason = reason
	participant.DisqualifiedOnDay = day
	participant.UpdatedAt = time.Now().UTC()
	s.logger.Info("Disqualifying participant",
		constants.LogFieldTournamentID, tournamentID, constants.LogFieldHotkey, hotkey, "reason", reason, constants.LogFieldDay, day)
	return updateEntity(s, TABLE_PARTICIPANTS, constants.ResourceTypeParticipant, participant.ID, participant,
		[]string{"status"}, string(api.ParticipantDisqualified))
}

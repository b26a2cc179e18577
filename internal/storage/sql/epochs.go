package sql

import (
	"time"

	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/pkg/api"
)

//#######################################################################
// Epoch operations
//#######################################################################

func (s *SQLStorage) CreateEpoch(epoch *api.EpochResource) (*api.EpochResource, error) {
	id := s.generateID()
	now := time.Now().UTC()
	stored := *epoch
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.logger.Info("Creating epoch", "id", id, constants.LogFieldTournamentID, epoch.TournamentID, "status", epoch.Status)
	err := insertEntity(s, TABLE_EPOCHS, constants.ResourceTypeEpoch, id, &stored,
		[]string{"tournament_id", "status"}, epoch.TournamentID, string(epoch.Status))
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetEpoch returns the epoch of a tournament. There is exactly one.
func (s *SQLStorage) GetEpoch(tournamentID string) (*api.EpochResource, error) {
	return getEntity[api.EpochResource](s, TABLE_EPOCHS, constants.ResourceTypeEpoch, tournamentID,
		[]string{"tournament_id"}, tournamentID)
}

func (s *SQLStorage) UpdateEpochStatus(id string, status api.EpochStatus) error {
	epoch, err := getEntity[api.EpochResource](s, TABLE_EPOCHS, constants.ResourceTypeEpoch, id, []string{"id"}, id)
	if err != nil {
		return err
	}
	epoch.Status = status
	epoch.UpdatedAt = time.Now().UTC()
	s.logger.Info("Updating epoch status", "id", id, "status", status)
	return updateEntity(s, TABLE_EPOCHS, constants.ResourceTypeEpoch, id, epoch,
		[]string{"status"}, string(status))
}

package sql

import (
	"database/sql"
	"time"

	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/internal/messages"
	"github.com/bench-arena/bench-arena/internal/serviceerrors"
	"github.com/bench-arena/bench-arena/pkg/api"
)

//#######################################################################
// Result operations
//#######################################################################

// UpsertResult writes a scored result, overwriting any previous result for
// the same (tournament, hotkey). Re-scoring a tournament is therefore
// idempotent at the storage level.
func (s *SQLStorage) UpsertResult(result *api.ResultResource) error {
	existingID, err := s.findResultID(result.TournamentID, result.Hotkey)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	stored := *result
	stored.UpdatedAt = now

	if existingID != "" {
		stored.ID = existingID
		s.logger.Info("Overwriting result", "id", existingID,
			constants.LogFieldTournamentID, result.TournamentID, constants.LogFieldHotkey, result.Hotkey, "rank", result.Rank)
		return updateEntity(s, TABLE_RESULTS, constants.ResourceTypeResult, existingID, &stored,
			[]string{"rank"}, result.Rank)
	}

	stored.ID = s.generateID()
	stored.CreatedAt = now
	s.logger.Info("Creating result", "id", stored.ID,
		constants.LogFieldTournamentID, result.TournamentID, constants.LogFieldHotkey, result.Hotkey, "rank", result.Rank)
	return insertEntity(s, TABLE_RESULTS, constants.ResourceTypeResult, stored.ID, &stored,
		[]string{"tournament_id", "hotkey", "rank"}, result.TournamentID, result.Hotkey, result.Rank)
}

// GetResults returns the results of a tournament ordered by rank. This is
// the leaderboard read path.
func (s *SQLStorage) GetResults(tournamentID string) ([]api.ResultResource, error) {
	return listEntities[api.ResultResource](s, TABLE_RESULTS, constants.ResourceTypeResult, "rank",
		[]string{"tournament_id"}, tournamentID)
}

func (s *SQLStorage) findResultID(tournamentID string, hotkey string) (string, error) {
	query, err := createGetEntityStatement(s.sqlConfig.Driver, TABLE_RESULTS, "tournament_id", "hotkey")
	if err != nil {
		return "", err
	}
	var id string
	var entityJSON string
	err = s.pool.QueryRowContext(s.ctx, query, tournamentID, hotkey).Scan(&id, &entityJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		s.logger.Error("Failed to look up result", "error", err,
			constants.LogFieldTournamentID, tournamentID, constants.LogFieldHotkey, hotkey)
		return "", serviceerrors.NewServiceError(messages.QueryFailed, "Type", constants.ResourceTypeResult, "Error", err.Error())
	}
	return id, nil
}

package sql

import (
	"time"

	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/pkg/api"
)

//#######################################################################
// Tournament operations
//#######################################################################

// CreateTournament stores a new tournament in DRAFT phase. The tournament
// is stored in the tournaments table as a JSON entity with category and
// phase kept as filter columns.
func (s *SQLStorage) CreateTournament(config *api.TournamentConfig) (*api.TournamentResource, error) {
	id := s.generateID()
	now := time.Now().UTC()
	tournament := &api.TournamentResource{
		Resource: api.Resource{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		TournamentConfig: *config,
		Phase:            api.PhaseDraft,
		CurrentDay:       0,
	}
	s.logger.Info("Creating tournament", "id", id, "name", config.Name, "category", config.Category)
	err := insertEntity(s, TABLE_TOURNAMENTS, constants.ResourceTypeTournament, id, tournament,
		[]string{"category", "phase"}, string(config.Category), string(api.PhaseDraft))
	if err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *SQLStorage) GetTournament(id string) (*api.TournamentResource, error) {
	return getEntity[api.TournamentResource](s, TABLE_TOURNAMENTS, constants.ResourceTypeTournament, id, []string{"id"}, id)
}

// GetTournaments lists tournaments, optionally filtered by category and/or
// phase. Empty filter values match everything.
func (s *SQLStorage) GetTournaments(category api.ArtifactCategory, phase api.TournamentPhase) ([]api.TournamentResource, error) {
	var filterColumns []string
	var args []any
	if category != "" {
		filterColumns = append(filterColumns, "category")
		args = append(args, string(category))
	}
	if phase != "" {
		filterColumns = append(filterColumns, "phase")
		args = append(args, string(phase))
	}
	return listEntities[api.TournamentResource](s, TABLE_TOURNAMENTS, constants.ResourceTypeTournament, "created_at, id", filterColumns, args...)
}

// UpdateTournamentPhase moves a tournament to the given phase and sets the
// current day. The orchestrator is the only caller.
func (s *SQLStorage) UpdateTournamentPhase(id string, phase api.TournamentPhase, currentDay int) error {
	tournament, err := s.GetTournament(id)
	if err != nil {
		return err
	}
	tournament.Phase = phase
	tournament.CurrentDay = currentDay
	tournament.UpdatedAt = time.Now().UTC()
	s.logger.Info("Updating tournament phase", "id", id, "phase", phase, "current_day", currentDay)
	return updateEntity(s, TABLE_TOURNAMENTS, constants.ResourceTypeTournament, id, tournament,
		[]string{"phase"}, string(phase))
}

func (s *SQLStorage) UpdateTournamentCurrentDay(id string, currentDay int) error {
	tournament, err := s.GetTournament(id)
	if err != nil {
		return err
	}
	tournament.CurrentDay = currentDay
	tournament.UpdatedAt = time.Now().UTC()
	return updateEntity(s, TABLE_TOURNAMENTS, constants.ResourceTypeTournament, id, tournament,
		[]string{"phase"}, string(tournament.Phase))
}

func (s *SQLStorage) SetTournamentBaseline(id string, baselineID string) error {
	tournament, err := s.GetTournament(id)
	if err != nil {
		return err
	}
	tournament.BaselineID = baselineID
	tournament.UpdatedAt = time.Now().UTC()
	return updateEntity(s, TABLE_TOURNAMENTS, constants.ResourceTypeTournament, id, tournament,
		[]string{"phase"}, string(tournament.Phase))
}

// CompleteTournament records the winner and moves the tournament to
// COMPLETED in one write.
func (s *SQLStorage) CompleteTournament(id string, winnerHotkey string, baselineBeaten bool, completedAt time.Time) error {
	tournament, err := s.GetTournament(id)
	if err != nil {
		return err
	}
	tournament.Phase = api.PhaseCompleted
	tournament.WinnerHotkey = winnerHotkey
	tournament.BaselineBeaten = baselineBeaten
	tournament.CompletedAt = &completedAt
	tournament.UpdatedAt = time.Now().UTC()
	s.logger.Info("Completing tournament", "id", id, "winner", winnerHotkey, "baseline_beaten", baselineBeaten)
	return updateEntity(s, TABLE_TOURNAMENTS, constants.ResourceTypeTournament, id, tournament,
		[]string{"phase"}, string(api.PhaseCompleted))
}

package handlers

import (
	"net/http"
	"net/url"

	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/internal/executioncontext"
	"github.com/bench-arena/bench-arena/internal/serialization"
	"github.com/bench-arena/bench-arena/pkg/api"
)

// HandleCreateTournament handles POST /api/v1/tournaments
func (h *Handlers) HandleCreateTournament(ctx *executioncontext.ExecutionContext, w http.ResponseWriter) {
	if !h.checkMethod(ctx, http.MethodPost, w) {
		return
	}
	bodyBytes, err := ctx.GetBodyAsBytes()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	tournament := &api.TournamentConfig{}
	h.applyTournamentDefaults(tournament)
	err = serialization.Unmarshal(h.validate, ctx, bodyBytes, tournament)
	if err != nil {
		h.serializationError(ctx, w, err, http.StatusBadRequest)
		return
	}
	if err := tournament.Validate(); err != nil {
		h.serializationError(ctx, w, err, http.StatusBadRequest)
		return
	}

	response, err := h.requestStorage(ctx).CreateTournament(tournament)
	if err != nil {
		h.serviceError(ctx, w, err)
		return
	}

	h.successResponse(ctx, w, response, http.StatusCreated)
}

// HandleListTournaments handles GET /api/v1/tournaments
func (h *Handlers) HandleListTournaments(ctx *executioncontext.ExecutionContext, w http.ResponseWriter) {
	if !h.checkMethod(ctx, http.MethodGet, w) {
		return
	}

	query, err := url.ParseQuery(ctx.RawQuery)
	if err != nil {
		h.serializationError(ctx, w, err, http.StatusBadRequest)
		return
	}

	var category api.ArtifactCategory
	if value := query.Get(constants.QueryParameterCategory); value != "" {
		category, err = api.GetArtifactCategory(value)
		if err != nil {
			h.serializationError(ctx, w, err, http.StatusBadRequest)
			return
		}
	}
	var phase api.TournamentPhase
	if value := query.Get(constants.QueryParameterPhase); value != "" {
		phase, err = api.GetTournamentPhase(value)
		if err != nil {
			h.serializationError(ctx, w, err, http.StatusBadRequest)
			return
		}
	}

	tournaments, err := h.requestStorage(ctx).GetTournaments(category, phase)
	if err != nil {
		h.serviceError(ctx, w, err)
		return
	}

	h.successResponse(ctx, w, &api.TournamentResourceList{
		Items: tournaments,
		Page:  api.Page{TotalCount: len(tournaments), Limit: len(tournaments)},
	}, http.StatusOK)
}

// HandleGetTournament handles GET /api/v1/tournaments/{id}
func (h *Handlers) HandleGetTournament(ctx *executioncontext.ExecutionContext, w http.ResponseWriter) {
	if !h.checkMethod(ctx, http.MethodGet, w) {
		return
	}

	tournament, err := h.requestStorage(ctx).GetTournament(pathPart(ctx, 0))
	if err != nil {
		h.serviceError(ctx, w, err)
		return
	}

	h.successResponse(ctx, w, tournament, http.StatusOK)
}

// HandleCancelTournament handles DELETE /api/v1/tournaments/{id}
func (h *Handlers) HandleCancelTournament(ctx *executioncontext.ExecutionContext, w http.ResponseWriter) {
	if !h.checkMethod(ctx, http.MethodDelete, w) {
		return
	}

	tournamentID := pathPart(ctx, 0)
	if err := h.orchestrator.Cancel(ctx.Ctx, tournamentID); err != nil {
		h.serviceError(ctx, w, err)
		return
	}

	tournament, err := h.requestStorage(ctx).GetTournament(tournamentID)
	if err != nil {
		h.serviceError(ctx, w, err)
		return
	}

	h.successResponse(ctx, w, tournament, http.StatusOK)
}

// HandleGetLeaderboard handles GET /api/v1/tournaments/{id}/leaderboard
func (h *Handlers) HandleGetLeaderboard(ctx *executioncontext.ExecutionContext, w http.ResponseWriter) {
	if !h.checkMethod(ctx, http.MethodGet, w) {
		return
	}

	storage := h.requestStorage(ctx)
	tournamentID := pathPart(ctx, 1)

	// the tournament lookup gives a proper 404 for unknown IDs
	if _, err := storage.GetTournament(tournamentID); err != nil {
		h.serviceError(ctx, w, err)
		return
	}

	results, err := storage.GetResults(tournamentID)
	if err != nil {
		h.serviceError(ctx, w, err)
		return
	}

	h.successResponse(ctx, w, &api.ResultResourceList{
		Items: results,
		Page:  api.Page{TotalCount: len(results), Limit: len(results)},
	}, http.StatusOK)
}

func (h *Handlers) applyTournamentDefaults(tournament *api.TournamentConfig) {
	if h.tournamentDefaults == nil {
		return
	}
	tournament.EpochDays = h.tournamentDefaults.EpochDays
	tournament.MaxParticipants = h.tournamentDefaults.MaxParticipants
	tournament.TestNetworks = h.tournamentDefaults.TestNetworks
	tournament.TestWindowDays = h.tournamentDefaults.TestWindowDays
}

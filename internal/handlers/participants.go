package handlers

import (
	"net/http"

	"github.com/bench-arena/bench-arena/internal/executioncontext"
	"github.com/bench-arena/bench-arena/internal/serialization"
	"github.com/bench-arena/bench-arena/pkg/api"
)

// HandleRegisterParticipant handles POST /api/v1/tournaments/{id}/participants
func (h *Handlers) HandleRegisterParticipant(ctx *executioncontext.ExecutionContext, w http.ResponseWriter) {
	if !h.checkMethod(ctx, http.MethodPost, w) {
		return
	}
	bodyBytes, err := ctx.GetBodyAsBytes()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	participant := &api.ParticipantConfig{}
	err = serialization.Unmarshal(h.validate, ctx, bodyBytes, participant)
	if err != nil {
		h.serializationError(ctx, w, err, http.StatusBadRequest)
		return
	}

	response, err := h.registration.Register(ctx.Ctx, pathPart(ctx, 1), participant)
	if err != nil {
		h.serviceError(ctx, w, err)
		return
	}

	h.successResponse(ctx, w, response, http.StatusCreated)
}

// HandleListParticipants handles GET /api/v1/tournaments/{id}/participants
func (h *Handlers) HandleListParticipants(ctx *executioncontext.ExecutionContext, w http.ResponseWriter) {
	if !h.checkMethod(ctx, http.MethodGet, w) {
		return
	}

	participants, err := h.requestStorage(ctx).GetParticipants(pathPart(ctx, 1))
	if err != nil {
		h.serviceError(ctx, w, err)
		return
	}

	h.successResponse(ctx, w, &api.ParticipantResourceList{
		Items: participants,
		Page:  api.Page{TotalCount: len(participants), Limit: len(participants)},
	}, http.StatusOK)
}

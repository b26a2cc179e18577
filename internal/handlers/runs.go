package handlers

import (
	"net/http"
	"net/url"

	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/internal/executioncontext"
	"github.com/bench-arena/bench-arena/internal/messages"
	"github.com/bench-arena/bench-arena/internal/serviceerrors"
	"github.com/bench-arena/bench-arena/pkg/api"
)

// HandleGetDayRuns handles GET /api/v1/tournaments/{id}/runs?date=YYYY-MM-DD
func (h *Handlers) HandleGetDayRuns(ctx *executioncontext.ExecutionContext, w http.ResponseWriter) {
	if !h.checkMethod(ctx, http.MethodGet, w) {
		return
	}

	query, err := url.ParseQuery(ctx.RawQuery)
	if err != nil {
		h.serializationError(ctx, w, err, http.StatusBadRequest)
		return
	}
	value := query.Get(constants.QueryParameterDate)
	if value == "" {
		h.serviceError(ctx, w, serviceerrors.NewServiceError(messages.QueryParameterRequired,
			"ParameterName", constants.QueryParameterDate))
		return
	}
	testDate, err := api.ParseDay(value)
	if err != nil {
		h.serviceError(ctx, w, serviceerrors.NewServiceError(messages.QueryParameterInvalid,
			"ParameterName", constants.QueryParameterDate, "Type", "date", "Value", value))
		return
	}

	runs, err := h.requestStorage(ctx).GetRunsForDay(pathPart(ctx, 1), testDate)
	if err != nil {
		h.serviceError(ctx, w, err)
		return
	}

	h.successResponse(ctx, w, &api.RunResourceList{
		Items: runs,
		Page:  api.Page{TotalCount: len(runs), Limit: len(runs)},
	}, http.StatusOK)
}

// HandleGetParticipantRuns handles GET /api/v1/tournaments/{id}/participants/{hotkey}/runs
func (h *Handlers) HandleGetParticipantRuns(ctx *executioncontext.ExecutionContext, w http.ResponseWriter) {
	if !h.checkMethod(ctx, http.MethodGet, w) {
		return
	}

	runs, err := h.requestStorage(ctx).GetParticipantRuns(pathPart(ctx, 3), pathPart(ctx, 1))
	if err != nil {
		h.serviceError(ctx, w, err)
		return
	}

	h.successResponse(ctx, w, &api.RunResourceList{
		Items: runs,
		Page:  api.Page{TotalCount: len(runs), Limit: len(runs)},
	}, http.StatusOK)
}

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

// HandleListBaselines handles GET /api/v1/baselines?category=
func (h *Handlers) HandleListBaselines(ctx *executioncontext.ExecutionContext, w http.ResponseWriter) {
	if !h.checkMethod(ctx, http.MethodGet, w) {
		return
	}

	query, err := url.ParseQuery(ctx.RawQuery)
	if err != nil {
		h.serializationError(ctx, w, err, http.StatusBadRequest)
		return
	}
	value := query.Get(constants.QueryParameterCategory)
	if value == "" {
		h.serviceError(ctx, w, serviceerrors.NewServiceError(messages.QueryParameterRequired,
			"ParameterName", constants.QueryParameterCategory))
		return
	}
	category, err := api.GetArtifactCategory(value)
	if err != nil {
		h.serviceError(ctx, w, serviceerrors.NewServiceError(messages.QueryParameterInvalid,
			"ParameterName", constants.QueryParameterCategory, "Type", "artifact category", "Value", value))
		return
	}

	baselines, err := h.requestStorage(ctx).GetBaselines(category)
	if err != nil {
		h.serviceError(ctx, w, err)
		return
	}

	h.successResponse(ctx, w, &api.BaselineResourceList{
		Items: baselines,
		Page:  api.Page{TotalCount: len(baselines), Limit: len(baselines)},
	}, http.StatusOK)
}

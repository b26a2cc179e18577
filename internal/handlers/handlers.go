package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/config"
	"github.com/bench-arena/bench-arena/internal/engine/orchestrator"
	"github.com/bench-arena/bench-arena/internal/executioncontext"
	"github.com/bench-arena/bench-arena/internal/logging"
	"github.com/bench-arena/bench-arena/internal/registration"
	"github.com/bench-arena/bench-arena/internal/serviceerrors"
)

type Handlers struct {
	storage            abstractions.Storage
	registration       *registration.Service
	orchestrator       *orchestrator.Orchestrator
	validate           *validator.Validate
	tournamentDefaults *config.TournamentConfig
}

func New(
	storage abstractions.Storage,
	registrationService *registration.Service,
	orch *orchestrator.Orchestrator,
	validate *validator.Validate,
	tournamentDefaults *config.TournamentConfig,
) *Handlers {
	return &Handlers{
		storage:            storage,
		registration:       registrationService,
		orchestrator:       orch,
		validate:           validate,
		tournamentDefaults: tournamentDefaults,
	}
}

// requestStorage scopes the storage to the request's context and logger.
func (h *Handlers) requestStorage(ctx *executioncontext.ExecutionContext) abstractions.Storage {
	return h.storage.WithContext(ctx.Ctx).WithLogger(ctx.Logger)
}

func (h *Handlers) checkMethod(ctx *executioncontext.ExecutionContext, method string, w http.ResponseWriter) bool {
	if ctx.Method != method {
		http.Error(w, fmt.Sprintf("Method %s not allowed, expecting %s", ctx.Method, method), http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// pathPart returns the URI path segment counted from the end, so routes
// like /tournaments/{id}/leaderboard can pick {id} with indexFromEnd 1.
func pathPart(ctx *executioncontext.ExecutionContext, indexFromEnd int) string {
	pathParts := strings.Split(strings.TrimRight(ctx.URI, "/"), "/")
	index := len(pathParts) - 1 - indexFromEnd
	if index < 0 {
		return ""
	}
	return pathParts[index]
}

func (h *Handlers) getErrorMessage(ctx *executioncontext.ExecutionContext, errorMessage string, code int) string {
	return fmt.Sprintf(`{"error":"%s","code":%d,"trace":"%s"}`, errorMessage, code, ctx.RequestID)
}

func (h *Handlers) setApplicationJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
}

func (h *Handlers) serializationError(ctx *executioncontext.ExecutionContext, w http.ResponseWriter, err error, code int) {
	// we might want to check the error type and create a more meaningful error message
	msg := err.Error()
	h.errorResponse(ctx, w, msg, code)
}

// serviceError maps a service or storage error to its HTTP status.
func (h *Handlers) serviceError(ctx *executioncontext.ExecutionContext, w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if se, ok := err.(abstractions.ServiceError); ok {
		code = se.MessageCode().GetCode()
	} else if storageErr, ok := err.(*serviceerrors.StorageError); ok {
		code = storageErr.Code
	}
	h.errorResponse(ctx, w, err.Error(), code)
}

func (h *Handlers) errorResponse(ctx *executioncontext.ExecutionContext, w http.ResponseWriter, errorMessage string, code int) {
	header := w.Header()
	header.Del("Content-Length")

	h.setApplicationJSON(w)
	header.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	fmt.Fprintln(w, h.getErrorMessage(ctx, errorMessage, code))

	logging.LogRequestFailed(ctx, code, errorMessage)
}

func (h *Handlers) successResponse(ctx *executioncontext.ExecutionContext, w http.ResponseWriter, response any, code int) {
	jsonBytes, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		h.errorResponse(ctx, w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.setApplicationJSON(w)
	w.WriteHeader(code)
	w.Write(jsonBytes)

	logging.LogRequestSuccess(ctx, code, response)
}

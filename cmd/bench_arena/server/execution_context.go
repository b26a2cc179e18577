package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bench-arena/bench-arena/internal/executioncontext"
	"github.com/bench-arena/bench-arena/internal/logging"
)

// newExecutionContext creates the request-scoped ExecutionContext at the
// route level before invoking a handler. The logger is already enhanced
// with the request fields so every log entry for the request carries the
// same metadata.
func (s *Server) newExecutionContext(r *http.Request) *executioncontext.ExecutionContext {
	requestID, enhancedLogger := s.loggerWithRequest(r)

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	baseURL := scheme + "://" + r.Host

	ctx := executioncontext.NewExecutionContext(
		context.Background(),
		requestID,
		enhancedLogger,
		r.Method,
		r.URL.Path,
		baseURL,
		r.URL.RawQuery,
		r.Header,
		r.Body,
		time.Minute*60,
	)
	logging.LogRequestStarted(ctx)
	return ctx
}

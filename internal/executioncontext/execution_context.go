package executioncontext

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ExecutionContext carries the request-scoped state that flows from the
// route level down into handlers and services: the context, the request
// identifier, and a logger already enriched with the request fields.
type ExecutionContext struct {
	Ctx       context.Context
	RequestID string
	Logger    *slog.Logger
	Method    string
	URI       string
	BaseURL   string
	RawQuery  string
	Header    http.Header
	Body      io.ReadCloser
	Timeout   time.Duration

	bodyBytes []byte
}

func NewExecutionContext(
	ctx context.Context,
	requestID string,
	logger *slog.Logger,
	method string,
	uri string,
	baseURL string,
	rawQuery string,
	header http.Header,
	body io.ReadCloser,
	timeout time.Duration,
) *ExecutionContext {
	return &ExecutionContext{
		Ctx:       ctx,
		RequestID: requestID,
		Logger:    logger,
		Method:    method,
		URI:       uri,
		BaseURL:   baseURL,
		RawQuery:  rawQuery,
		Header:    header,
		Body:      body,
		Timeout:   timeout,
	}
}

// NewBackgroundContext builds an ExecutionContext for non-HTTP work such as
// the task runner ticks. The request ID identifies the tick in the logs.
func NewBackgroundContext(ctx context.Context, requestID string, logger *slog.Logger) *ExecutionContext {
	return &ExecutionContext{
		Ctx:       ctx,
		RequestID: requestID,
		Logger:    logger.With("request_id", requestID),
		Timeout:   time.Minute * 60,
	}
}

// GetBodyAsBytes reads and caches the request body. Repeated calls return
// the cached bytes since the underlying reader can only be drained once.
func (e *ExecutionContext) GetBodyAsBytes() ([]byte, error) {
	if e.bodyBytes != nil {
		return e.bodyBytes, nil
	}
	if e.Body == nil {
		return nil, fmt.Errorf("request has no body")
	}
	defer e.Body.Close()
	bodyBytes, err := io.ReadAll(e.Body)
	if err != nil {
		return nil, err
	}
	e.bodyBytes = bodyBytes
	return bodyBytes, nil
}

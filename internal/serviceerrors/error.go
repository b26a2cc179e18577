package serviceerrors

import (
	"github.com/bench-arena/bench-arena/internal/messages"
)

// ServiceError pairs a catalogue message with its formatting parameters.
// The handlers map the message code to the HTTP response; the storage
// layer inspects the rollback flag inside transactions.
type ServiceError struct {
	code     *messages.MessageCode
	params   []any
	rollback bool
}

func NewServiceError(code *messages.MessageCode, params ...any) *ServiceError {
	// errors commit by default; use WithRollback inside transactions
	return &ServiceError{code: code, params: params}
}

func (e *ServiceError) Error() string {
	return messages.GetErrorMessage(e.code, e.params...)
}

func (e *ServiceError) MessageCode() *messages.MessageCode {
	return e.code
}

func (e *ServiceError) MessageParams() []any {
	return e.params
}

func (e *ServiceError) ShouldRollback() bool {
	return e.rollback
}

func (e *ServiceError) WithRollback() *ServiceError {
	return &ServiceError{code: e.code, params: e.params, rollback: true}
}

// WithRollback marks any error as a rolling-back ServiceError, wrapping
// non-service errors as internal ones.
func WithRollback(err error) *ServiceError {
	if se, ok := err.(*ServiceError); ok {
		return se.WithRollback()
	}
	return &ServiceError{
		code:     messages.InternalServerError,
		params:   []any{"Error", err.Error()},
		rollback: true,
	}
}

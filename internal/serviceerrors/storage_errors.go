package serviceerrors

import "fmt"

// StorageError is the error type of the storage layer. The code is an HTTP
// status so the handlers can map storage failures directly.
type StorageError struct {
	Message string
	Code    int
}

func (e *StorageError) Error() string {
	return e.Message
}

func NewStorageError(format string, a ...any) *StorageError {
	return NewStorageErrorWithCode(500, format, a...)
}

func NewStorageErrorWithCode(code int, format string, a ...any) *StorageError {
	return &StorageError{Message: fmt.Sprintf(format, a...), Code: code}
}

// NewStorageErrorWithError wraps an underlying error with context.
func NewStorageErrorWithError(err error, format string, a ...any) *StorageError {
	return NewStorageErrorWithCode(500, "%s: %s", fmt.Sprintf(format, a...), err.Error())
}

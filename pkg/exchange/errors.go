package exchange

import "fmt"

// StorageError represents an error from an exchange store backend.
type StorageError struct {
	Backend   string // store backend type ("jsonl", "sqlite", "memory")
	Operation string // operation that failed ("append", "prune", "close", ...)
	Cause     error  // underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("exchange storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// RecordError represents a failure to record an exchange. Record errors
// are logged and swallowed; they never reach the client response path.
type RecordError struct {
	Path  string // request path of the dropped exchange
	Cause error  // underlying error
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	return fmt.Sprintf("record error [path=%s]: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RecordError) Unwrap() error {
	return e.Cause
}

// NewRecordError creates a new RecordError.
func NewRecordError(path string, cause error) *RecordError {
	return &RecordError{Path: path, Cause: cause}
}

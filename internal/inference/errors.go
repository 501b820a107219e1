package inference

import "fmt"

// SchemaMismatchError reports a persisted schema that is empty, unreadable
// or inconsistent with its model. The service must not start with one.
type SchemaMismatchError struct {
	Err error
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: %s", e.Err)
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }

// PredictionError wraps a model invocation failure for one request.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed: %s", e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }

// RequestError reports a request that failed validation or cleaning.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

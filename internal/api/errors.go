package api

import "fmt"

// APIError is a structured error returned by the HTTP API.
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	Message   string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Status > 0 {
		return fmt.Sprintf("api error: %d", e.Status)
	}
	return "api error"
}

// IsAuth reports whether the request was rejected for credentials.
func (e *APIError) IsAuth() bool {
	return e != nil && (e.Status == 401 || e.Status == 403)
}

// IsConflict reports workflow precondition and sync conflict failures:
// the task moved out from under the caller.
func (e *APIError) IsConflict() bool {
	return e != nil && e.Status == 409
}

// IsThrottled reports the bulk import/export concurrency guard.
func (e *APIError) IsThrottled() bool {
	return e != nil && e.Status == 429
}

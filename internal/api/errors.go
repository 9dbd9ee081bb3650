package api

import "fmt"

// ServerValidationError is the backend's structured rejection of a
// create/update request. Fields lists the payload field names the server
// considered invalid; the wizard maps them 1:1 into its local error map.
type ServerValidationError struct {
	Message string   `json:"error"`
	Fields  []string `json:"fields"`
}

func (e *ServerValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server rejected %d fields", len(e.Fields))
}

// StatusError is any non-2xx response that is not a structured validation
// failure.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("api: unexpected status %d", e.Status)
}

package client

import (
	"fmt"
	"strings"
)

// TransportError means the HTTP exchange itself failed: the request could not
// be sent or the response body could not be read.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError means the API answered but the answer is unusable: a non-2xx
// status, a body that is not JSON, a GraphQL errors array, or missing
// invoice data.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if e.StatusCode != 0 {
		return fmt.Sprintf("api error (HTTP %d): %s", e.StatusCode, msg)
	}
	return "api error: " + msg
}

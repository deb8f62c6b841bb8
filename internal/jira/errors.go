package jira

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError is a non-200 response from Jira. Body holds the raw response so
// callers can surface it verbatim.
type APIError struct {
	StatusCode int
	Body       string
	Messages   []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Body)
}

// Summary joins the messages Jira reported, falling back to the raw body.
func (e *APIError) Summary() string {
	if len(e.Messages) == 0 {
		return e.Body
	}
	return strings.Join(e.Messages, "; ")
}

// IsBadRequest reports whether Jira rejected the request parameters.
func (e *APIError) IsBadRequest() bool {
	return e.StatusCode == http.StatusBadRequest
}

// errorBody is the error payload Jira returns for rejected requests.
type errorBody struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

// parseAPIError builds an APIError, pulling messages out of a Jira error
// payload when there is one.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(bytes.TrimSpace(body)),
	}

	var payload errorBody
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}

	apiErr.Messages = append(apiErr.Messages, payload.ErrorMessages...)

	fields := make([]string, 0, len(payload.Errors))
	for field := range payload.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		apiErr.Messages = append(apiErr.Messages, field+": "+payload.Errors[field])
	}

	return apiErr
}

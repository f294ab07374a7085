package apiclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StatusError carries a non-2xx answer from the school API.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *StatusError) UpstreamStatus() int  { return e.Status }
func (e *StatusError) UpstreamBody() string { return e.Body }

// PublicMessage prefers the API's own message field when the body has one.
func (e *StatusError) PublicMessage() string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(e.Body), &payload); err == nil {
		if m := strings.TrimSpace(payload.Message); m != "" {
			return m
		}
		if m := strings.TrimSpace(payload.Error); m != "" {
			return m
		}
	}
	return fmt.Sprintf("school api returned status %d", e.Status)
}

package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxErrorBody = 512

// StatusError is returned for every non-2xx backend response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: backend returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: backend returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

// newStatusError extracts the FastAPI style {"detail": ...} payload when present and falls back to
// a truncated copy of the raw body.
func newStatusError(method, path string, status int, body []byte) *StatusError {
	e := &StatusError{Method: method, Path: path, StatusCode: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && len(eb.Detail) > 0 {
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil {
			e.Detail = s
		} else {
			e.Detail = string(eb.Detail)
		}
	} else {
		e.Detail = strings.TrimSpace(string(body))
	}

	if len(e.Detail) > maxErrorBody {
		e.Detail = e.Detail[:maxErrorBody] + "…"
	}
	return e
}

package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
)

// Timestamp decodes the backend's datetime fields. The backend emits ISO-8601 values that may or
// may not carry a zone offset; values without one are interpreted as UTC. A JSON null decodes to
// the zero time.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "timestamp is not a string")
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return errors.Wrapf(err, "could not parse timestamp %q", s)
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// Article is a single news item as sourced from the backend. Articles are read-only.
type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	URL         string    `json:"url"`
	PublishedAt Timestamp `json:"published_at"`
	CreatedAt   Timestamp `json:"created_at"`
}

// Briefing is the daily generated news digest.
type Briefing struct {
	Summary     string    `json:"summary"`
	Articles    []Article `json:"articles"`
	GeneratedAt Timestamp `json:"generated_at"`
	Categories  []string  `json:"categories"`
}

type NewSessionRequest struct {
	UserID string `json:"user_id"`
}

type NewSessionResponse struct {
	SessionID string `json:"session_id"`
}

// MessageRequest is the body of POST /api/chat/message. A nil SessionID is sent as JSON null.
type MessageRequest struct {
	Message   string  `json:"message"`
	SessionID *string `json:"session_id"`
	UserID    string  `json:"user_id"`
}

type MessageResponse struct {
	Response  string   `json:"response"`
	SessionID string   `json:"session_id,omitempty"`
	Sources   []string `json:"sources,omitempty"`
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

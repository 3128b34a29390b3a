package model

import "encoding/json"

// Response is a generic struct for API responses
type Response struct {
	Data    interface{} `json:"data,omitempty"`
	Error   *string     `json:"error,omitempty"`
	Message string      `json:"message"`
}

// ErrorPayload wraps a raw upstream error body verbatim, so consumers see
// provider-specific error shapes unchanged.
type ErrorPayload struct {
	Error json.RawMessage `json:"error"`
}

// NewErrorPayload builds an ErrorPayload from a raw upstream body, falling
// back to a quoted message when the body is empty or not valid JSON.
func NewErrorPayload(raw []byte, fallback string) ErrorPayload {
	if len(raw) > 0 && json.Valid(raw) {
		return ErrorPayload{Error: json.RawMessage(raw)}
	}
	quoted, _ := json.Marshal(fallback)
	return ErrorPayload{Error: quoted}
}

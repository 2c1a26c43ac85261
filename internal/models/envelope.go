package models

import "encoding/json"

// Envelope is the wire contract every platform API response satisfies:
// success==true implies data is present, success==false implies error
// (or message) is present.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ErrorText returns the server-supplied failure text, preferring the
// error field over the informational message field.
func (e *Envelope) ErrorText() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

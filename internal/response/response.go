package response

import (
	"encoding/json"
	"fmt"
)

// Envelope is the standard shape of every exam service response.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Decode parses a response body into an Envelope. An empty or non-JSON body
// yields an Envelope with Success false and no message, so callers fall back
// to their generic message.
func Decode(body []byte) Envelope {
	var env Envelope
	if len(body) == 0 {
		return env
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}
	}
	return env
}

// Into unmarshals the envelope's data block into dst.
func (e Envelope) Into(dst interface{}) error {
	if dst == nil {
		return nil
	}
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return fmt.Errorf("response has no data")
	}
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// MessageOr returns the service-provided message or fallback when absent.
func (e Envelope) MessageOr(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

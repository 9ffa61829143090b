package services

import (
	"encoding/json"
	"fmt"
)

// ErrBadEnvelope indicates a response body that held none of the expected
// payload shapes.
type envelopeError struct {
	detail string
}

func (e *envelopeError) Error() string {
	return "unexpected response envelope: " + e.detail
}

// unwrapArray resolves which key of a JSON response body holds the payload
// array. Each key is tried in order; when none matches, the body itself is
// decoded as an array. The upstream API has shipped all three shapes
// ({"heroes":[...]}, {"data":[...]}, bare [...]) across versions.
func unwrapArray(body []byte, keys ...string) ([]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, key := range keys {
			raw, ok := envelope[key]
			if !ok {
				continue
			}
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, &envelopeError{detail: fmt.Sprintf("key %q is not an array", key)}
			}
			return items, nil
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &envelopeError{detail: "no payload array found"}
	}
	return items, nil
}

// unwrapObject is the single-object variant of unwrapArray: it returns the
// raw JSON of the first matching envelope key, falling back to the body
// itself when no key matches.
func unwrapObject(body []byte, keys ...string) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &envelopeError{detail: "body is not a JSON object"}
	}

	for _, key := range keys {
		if raw, ok := envelope[key]; ok {
			var probe map[string]json.RawMessage
			if err := json.Unmarshal(raw, &probe); err == nil {
				return raw, nil
			}
		}
	}

	return json.RawMessage(body), nil
}

package services

import (
	"encoding/json"
	"testing"
)

func TestUnwrapArray(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{"heroes key", `{"heroes": [{"name":"a"},{"name":"b"}]}`, 2},
		{"data key", `{"data": [{"name":"a"}]}`, 1},
		{"bare array", `[{"name":"a"},{"name":"b"},{"name":"c"}]`, 3},
		{"empty array", `{"heroes": []}`, 0},
		{"heroes preferred over data", `{"heroes": [{"name":"a"}], "data": []}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := unwrapArray([]byte(tt.body), "heroes", "data")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(items) != tt.expected {
				t.Errorf("got %d items, want %d", len(items), tt.expected)
			}
		})
	}
}

func TestUnwrapArrayErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"object without payload", `{"message": "hi"}`},
		{"key holds non-array", `{"heroes": {"name":"a"}}`},
		{"scalar body", `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := unwrapArray([]byte(tt.body), "heroes", "data"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestUnwrapObject(t *testing.T) {
	type player struct {
		Username string `json:"username"`
	}

	tests := []struct {
		name string
		body string
	}{
		{"player key", `{"player": {"username": "x"}}`},
		{"data key", `{"data": {"username": "x"}}`},
		{"bare object", `{"username": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := unwrapObject([]byte(tt.body), "player", "data")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var p player
			if err := json.Unmarshal(raw, &p); err != nil {
				t.Fatalf("decoding payload: %v", err)
			}
			if p.Username != "x" {
				t.Errorf("got username %q, want %q", p.Username, "x")
			}
		})
	}
}

func TestUnwrapObjectNonObject(t *testing.T) {
	if _, err := unwrapObject([]byte(`[1,2,3]`), "player"); err == nil {
		t.Error("expected an error for a non-object body")
	}
}

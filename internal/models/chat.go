package models

import "time"

// ChatRole identifies who produced a conversation turn.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn in the assistant's in-memory conversation history.
// The history is a bounded FIFO owned by the assistant service; it is never
// persisted across restarts.
type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// AIComparison is the structured result of comparing two heroes. All six
// fields are always populated, even on the local fallback path.
type AIComparison struct {
	Hero1Pros      []string `json:"hero1_pros"`
	Hero1Cons      []string `json:"hero1_cons"`
	Hero2Pros      []string `json:"hero2_pros"`
	Hero2Cons      []string `json:"hero2_cons"`
	Verdict        string   `json:"verdict"`
	Recommendation string   `json:"recommendation"`
}

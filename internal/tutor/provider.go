package tutor

import "context"

// Message is one turn in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider produces a grounded textual answer from a conversation. The
// tutoring model runtime is an external capability; everything behind this
// interface is a thin wrapper over a hosted chat-completion API.
type Provider interface {
	ChatCompletion(ctx context.Context, messages []Message) (string, error)
}

// History stores per-session conversation turns.
type History interface {
	Append(ctx context.Context, sessionID string, msgs ...Message) error
	List(ctx context.Context, sessionID string, limit int) ([]Message, error)
}

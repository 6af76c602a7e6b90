package domain

// DefaultTurnRole is applied to chat turns that arrive without a role.
const DefaultTurnRole = "user"

// ChatMessage is the provider-agnostic chat message shape sent to the
// completion capability.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatTurn is a single caller-supplied conversation turn. Order is significant.
type ChatTurn struct {
	Role    string
	Content string
}

// CompletionRequest describes one call to the completion capability.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float32
	MaxRetries  int
}

package llm

import "github.com/zoobzio/capitan"

// Completion call lifecycle signals.
var (
	CallStarted   = capitan.NewSignal("llm.call.started", "")
	CallCompleted = capitan.NewSignal("llm.call.completed", "")
	CallFailed    = capitan.NewSignal("llm.call.failed", "")
)

// Event fields.
var (
	ModelKey        = capitan.NewStringKey("llm.model")
	MessagesKey     = capitan.NewIntKey("llm.messages")
	MaxTokensKey    = capitan.NewIntKey("llm.max_tokens")
	AttemptsKey     = capitan.NewIntKey("llm.attempts")
	DurationMsKey   = capitan.NewIntKey("llm.duration.ms")
	StatusCodeKey   = capitan.NewIntKey("llm.http.status.code")
	FinishReasonKey = capitan.NewStringKey("llm.finish_reason")
	TotalTokensKey  = capitan.NewIntKey("llm.tokens.total")
	ErrorKey        = capitan.NewStringKey("llm.error")
)

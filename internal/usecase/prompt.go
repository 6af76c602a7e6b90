package usecase

import (
	"codecraft-agent/internal/domain"
	"codecraft-agent/internal/prompttemplate"
)

const classificationInstruction = "Return either node or react based on what do you think this project should be. " +
	"Only return a single word either 'node' or 'react'. Do not return anything extra"

// classificationTemplate binds the caller's prompt as the {topic} variable,
// so the prompt itself is never parsed as template text.
var classificationTemplate = mustTemplate(prompttemplate.FromMessages(
	prompttemplate.Message{Role: prompttemplate.RoleSystem, Template: classificationInstruction},
	prompttemplate.Message{Role: prompttemplate.RoleUser, Template: "{topic}"},
))

func mustTemplate(t *prompttemplate.ChatTemplate, err error) *prompttemplate.ChatTemplate {
	if err != nil {
		panic(err)
	}
	return t
}

// chatTemplateMessages escapes the system prompt and every turn's content
// once and lays them out as system first, then turns in caller order. Roles
// are never escaped.
func chatTemplateMessages(systemPrompt string, turns []domain.ChatTurn) []prompttemplate.Message {
	msgs := make([]prompttemplate.Message, 0, len(turns)+1)
	msgs = append(msgs, prompttemplate.Message{
		Role:     prompttemplate.RoleSystem,
		Template: prompttemplate.Escape(systemPrompt),
	})
	for _, t := range turns {
		role := t.Role
		if role == "" {
			role = domain.DefaultTurnRole
		}
		msgs = append(msgs, prompttemplate.Message{
			Role:     role,
			Template: prompttemplate.Escape(t.Content),
		})
	}
	return msgs
}

// Package prompttemplate renders role-tagged chat templates that use
// single-brace placeholders: {name} substitutes a variable, {{ and }} are
// literal braces.
package prompttemplate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"codecraft-agent/internal/domain"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single template message before rendering.
type Message struct {
	Role     string
	Template string
}

type segment struct {
	literal  string
	variable string
}

type parsedMessage struct {
	role     string
	segments []segment
}

// ChatTemplate is an ordered, pre-parsed sequence of template messages.
// It is immutable once built and safe for concurrent use.
type ChatTemplate struct {
	messages  []parsedMessage
	variables []string
}

// FromMessages parses msgs into a ChatTemplate. Malformed templates and
// unsupported roles are reported here rather than at Format time.
func FromMessages(msgs ...Message) (*ChatTemplate, error) {
	if len(msgs) == 0 {
		return nil, errors.New("prompttemplate: at least one message is required")
	}
	seen := make(map[string]struct{})
	t := &ChatTemplate{messages: make([]parsedMessage, 0, len(msgs))}
	for i, m := range msgs {
		role, err := normalizeRole(m.Role)
		if err != nil {
			return nil, fmt.Errorf("prompttemplate: message %d: %w", i, err)
		}
		segs, err := parse(m.Template)
		if err != nil {
			return nil, fmt.Errorf("prompttemplate: message %d: %w", i, err)
		}
		for _, s := range segs {
			if s.variable == "" {
				continue
			}
			if _, ok := seen[s.variable]; !ok {
				seen[s.variable] = struct{}{}
				t.variables = append(t.variables, s.variable)
			}
		}
		t.messages = append(t.messages, parsedMessage{role: role, segments: segs})
	}
	sort.Strings(t.variables)
	return t, nil
}

// InputVariables returns the sorted placeholder names referenced by the template.
func (t *ChatTemplate) InputVariables() []string {
	return append([]string(nil), t.variables...)
}

// Format renders every message with vars. Variable values are inserted as
// is and never parsed as template text.
func (t *ChatTemplate) Format(vars map[string]string) ([]domain.ChatMessage, error) {
	out := make([]domain.ChatMessage, 0, len(t.messages))
	for i, m := range t.messages {
		var b strings.Builder
		for _, s := range m.segments {
			if s.variable == "" {
				b.WriteString(s.literal)
				continue
			}
			v, ok := vars[s.variable]
			if !ok {
				return nil, fmt.Errorf("prompttemplate: message %d: missing value for variable %q", i, s.variable)
			}
			b.WriteString(v)
		}
		out = append(out, domain.ChatMessage{Role: m.role, Content: b.String()})
	}
	return out, nil
}

func normalizeRole(role string) (string, error) {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return role, nil
	case "human":
		return RoleUser, nil
	case "ai":
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("unsupported message role %q", role)
	}
}

func parse(tmpl string) ([]segment, error) {
	var (
		segs []segment
		lit  strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{literal: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(tmpl); i++ {
		switch c := tmpl[i]; c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unclosed '{' at offset %d", i)
			}
			name := tmpl[i+1 : i+1+end]
			if !validVariableName(name) {
				return nil, fmt.Errorf("invalid placeholder %q at offset %d", name, i)
			}
			flush()
			segs = append(segs, segment{variable: name})
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("single '}' at offset %d", i)
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return segs, nil
}

func validVariableName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

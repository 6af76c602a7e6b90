package domain

import "strings"

// ProjectKind is the label the classifier assigns to a project description.
type ProjectKind int

const (
	ProjectUnknown ProjectKind = iota
	ProjectNode
	ProjectReact
)

func (k ProjectKind) String() string {
	switch k {
	case ProjectNode:
		return "node"
	case ProjectReact:
		return "react"
	default:
		return "unknown"
	}
}

// ParseProjectKind maps raw model output to a ProjectKind and returns the
// normalized label it matched against. Only an exact "node" or "react"
// after trimming and lower-casing is recognized.
func ParseProjectKind(raw string) (ProjectKind, string) {
	label := strings.ToLower(strings.TrimSpace(raw))
	switch label {
	case "react":
		return ProjectReact, label
	case "node":
		return ProjectNode, label
	default:
		return ProjectUnknown, label
	}
}

// PromptBundle is the static scaffold prompt set returned for a project kind.
type PromptBundle struct {
	Prompts   []string `json:"prompts"`
	UIPrompts []string `json:"uiPrompts"`
}

// Package scaffold holds the static starter prompts returned for each
// project kind and the system instruction used by the chat relay.
package scaffold

import (
	_ "embed"
	"fmt"
	"strings"

	"codecraft-agent/internal/domain"
)

var (
	//go:embed prompts/base.md
	basePrompt string
	//go:embed prompts/node.md
	nodeBasePrompt string
	//go:embed prompts/react.md
	reactBasePrompt string
	//go:embed prompts/system.md
	systemPrompt string
)

// Embedded files end with a newline that is not part of the prompt text.
func init() {
	for _, p := range []*string{&basePrompt, &nodeBasePrompt, &reactBasePrompt, &systemPrompt} {
		*p = strings.TrimRight(*p, "\r\n")
	}
}

// HiddenFiles exist in every scaffold but are withheld from the artifact.
var HiddenFiles = []string{".gitignore", "package-lock.json"}

// BasePrompt is the design guidance sent ahead of the React artifact.
func BasePrompt() string { return basePrompt }

// NodeBasePrompt is the Node.js starter artifact.
func NodeBasePrompt() string { return nodeBasePrompt }

// ReactBasePrompt is the React starter artifact.
func ReactBasePrompt() string { return reactBasePrompt }

// SystemPrompt is the operator instruction prepended to every chat relay.
func SystemPrompt() string { return systemPrompt }

// Bundle returns the prompt bundle for kind. ProjectUnknown has no bundle.
// Each call returns freshly allocated slices.
func Bundle(kind domain.ProjectKind) (domain.PromptBundle, bool) {
	switch kind {
	case domain.ProjectReact:
		return domain.PromptBundle{
			Prompts:   []string{basePrompt, artifactPrompt(reactBasePrompt)},
			UIPrompts: []string{reactBasePrompt},
		}, true
	case domain.ProjectNode:
		return domain.PromptBundle{
			Prompts:   []string{artifactPrompt(nodeBasePrompt)},
			UIPrompts: []string{nodeBasePrompt},
		}, true
	default:
		return domain.PromptBundle{}, false
	}
}

func artifactPrompt(files string) string {
	hidden := ""
	for _, name := range HiddenFiles {
		hidden += fmt.Sprintf("  - %s\n", name)
	}
	return "Here is an artifact that contains all files of the project visible to you.\n" +
		"Consider the contents of ALL files in the project.\n\n" +
		files +
		"\n\nHere is a list of files that exist on the file system but are not being shown to you:\n\n" +
		hidden
}

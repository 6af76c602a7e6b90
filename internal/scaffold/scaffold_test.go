package scaffold

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"codecraft-agent/internal/domain"
)

func TestEmbeddedPromptsLoaded(t *testing.T) {
	require.NotEmpty(t, BasePrompt())
	require.Contains(t, NodeBasePrompt(), `filePath="index.js"`)
	require.Contains(t, ReactBasePrompt(), `filePath="src/App.tsx"`)
	require.Contains(t, SystemPrompt(), "<artifact_info>")
}

func TestEmbeddedPromptsHaveNoTrailingNewline(t *testing.T) {
	for name, p := range map[string]string{
		"base":   BasePrompt(),
		"node":   NodeBasePrompt(),
		"react":  ReactBasePrompt(),
		"system": SystemPrompt(),
	} {
		require.False(t, strings.HasSuffix(p, "\n"), "%s prompt ends with a newline", name)
	}

	b, ok := Bundle(domain.ProjectNode)
	require.True(t, ok)
	require.Contains(t, b.Prompts[0], NodeBasePrompt()+"\n\nHere is a list of files")
}

func TestBundle_React(t *testing.T) {
	b, ok := Bundle(domain.ProjectReact)
	require.True(t, ok)
	require.Equal(t, []string{ReactBasePrompt()}, b.UIPrompts)
	require.Len(t, b.Prompts, 2)
	require.Equal(t, BasePrompt(), b.Prompts[0])
	require.Contains(t, b.Prompts[1], ReactBasePrompt())
	require.NotContains(t, b.Prompts[1], NodeBasePrompt())
}

func TestBundle_Node(t *testing.T) {
	b, ok := Bundle(domain.ProjectNode)
	require.True(t, ok)
	require.Equal(t, []string{NodeBasePrompt()}, b.UIPrompts)
	require.Len(t, b.Prompts, 1)
	require.Contains(t, b.Prompts[0], NodeBasePrompt())
	require.NotContains(t, b.Prompts[0], ReactBasePrompt())
}

func TestBundle_Unknown(t *testing.T) {
	b, ok := Bundle(domain.ProjectUnknown)
	require.False(t, ok)
	require.Empty(t, b.Prompts)
	require.Empty(t, b.UIPrompts)
}

func TestArtifactPrompt_Shape(t *testing.T) {
	got := artifactPrompt("FILES")
	require.True(t, strings.HasPrefix(got, "Here is an artifact that contains all files of the project visible to you.\nConsider the contents of ALL files in the project.\n\nFILES\n\n"))
	require.True(t, strings.HasSuffix(got, "not being shown to you:\n\n  - .gitignore\n  - package-lock.json\n"))
}

func TestBundle_ReturnsIndependentSlices(t *testing.T) {
	a, _ := Bundle(domain.ProjectNode)
	a.UIPrompts[0] = "mutated"
	b, _ := Bundle(domain.ProjectNode)
	require.Equal(t, NodeBasePrompt(), b.UIPrompts[0])
}

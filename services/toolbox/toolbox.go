// ABOUTME: toolbox holds the deterministic, locally executed tools a team can expose as a teamservice.Service.
// ABOUTME: Each tool is a small teamservice.Tool; EchoDefinition, WordCountDefinition and RenderMarkdownDefinition describe them for an LLM-backed reasoner's tool list.
package toolbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/2389-research/chorus/agents/reasoner/llm"
	"github.com/yuin/goldmark"
)

// Echo returns its "text" argument unchanged, a minimal tool for exercising
// the team service round trip without any real work.
type Echo struct{}

func (Echo) Name() string { return "echo" }

func (Echo) Invoke(ctx context.Context, args map[string]any) (any, error) {
	text, _ := args["text"].(string)
	return text, nil
}

// EchoDefinition describes Echo's call signature for a reasoner's tool list.
func EchoDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "echo",
		Description: "Return the given text unchanged.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
			"required":   []any{"text"},
		},
	}
}

// WordCount counts words, lines, and characters in its "text" argument.
type WordCount struct{}

func (WordCount) Name() string { return "wordcount" }

func (WordCount) Invoke(ctx context.Context, args map[string]any) (any, error) {
	text, _ := args["text"].(string)
	words := len(strings.Fields(text))
	lines := 1
	if text != "" {
		lines = strings.Count(text, "\n") + 1
	}
	return map[string]any{
		"words":      words,
		"lines":      lines,
		"characters": len([]rune(text)),
	}, nil
}

// WordCountDefinition describes WordCount's call signature.
func WordCountDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "wordcount",
		Description: "Count words, lines, and characters in the given text.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
			"required":   []any{"text"},
		},
	}
}

// RenderMarkdown converts its "markdown" argument to HTML via goldmark.
type RenderMarkdown struct {
	md goldmark.Markdown
}

// NewRenderMarkdown builds a RenderMarkdown tool with goldmark defaults.
func NewRenderMarkdown() *RenderMarkdown {
	return &RenderMarkdown{md: goldmark.New()}
}

func (RenderMarkdown) Name() string { return "render_markdown" }

func (t *RenderMarkdown) Invoke(ctx context.Context, args map[string]any) (any, error) {
	markdown, _ := args["markdown"].(string)
	var buf strings.Builder
	if err := t.md.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("toolbox: render_markdown: %w", err)
	}
	return buf.String(), nil
}

// RenderMarkdownDefinition describes RenderMarkdown's call signature.
func RenderMarkdownDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "render_markdown",
		Description: "Render a Markdown string to HTML.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"markdown": map[string]any{"type": "string"}},
			"required":   []any{"markdown"},
		},
	}
}

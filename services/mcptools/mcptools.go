// ABOUTME: mcptools proxies a single MCP server tool as a teamservice.Tool, so a team service can expose
// ABOUTME: tools it doesn't implement itself — just connects out to whatever an MCP server advertises.
package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Connect establishes an MCP client session over transport, identifying
// this process to the server. Callers are responsible for closing the
// returned session once every Tool built from it is done.
func Connect(ctx context.Context, transport mcp.Transport) (*mcp.ClientSession, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "chorus", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcptools: connect: %w", err)
	}
	return session, nil
}

// Tool adapts one named tool exposed by an MCP session to teamservice.Tool.
type Tool struct {
	session *mcp.ClientSession
	name    string
}

// NewTool wraps toolName, already advertised by session, as a teamservice.Tool.
func NewTool(session *mcp.ClientSession, toolName string) *Tool {
	return &Tool{session: session, name: toolName}
}

func (t *Tool) Name() string { return t.name }

func (t *Tool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	result, err := t.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      t.name,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("mcptools: call %s: %w", t.name, err)
	}
	if result.IsError {
		return nil, fmt.Errorf("mcptools: %s reported an error: %s", t.name, contentText(result.Content))
	}
	return contentText(result.Content), nil
}

func contentText(blocks []mcp.Content) string {
	var b strings.Builder
	for _, block := range blocks {
		if tc, ok := block.(*mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

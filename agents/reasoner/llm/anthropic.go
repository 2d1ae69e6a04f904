// ABOUTME: AnthropicProvider adapts Request/Response onto the Anthropic Messages API.
package llm

import (
	"context"
	"encoding/json"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider calls the Anthropic Messages API via the official SDK.
type AnthropicProvider struct {
	client       sdk.Client
	defaultModel string
}

// NewAnthropicProvider builds a provider from an API key and default model
// identifier (e.g. "claude-sonnet-4-5-20250929").
func NewAnthropicProvider(apiKey, defaultModel string) *AnthropicProvider {
	return &AnthropicProvider{
		client:       sdk.NewClient(option.WithAPIKey(apiKey)),
		defaultModel: defaultModel,
	}
}

func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	messages, err := anthropicMessages(req.Messages)
	if err != nil {
		return nil, &RequestError{Kind: ErrInvalidRequest, Provider: "anthropic", Cause: err}
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	if len(req.Tools) > 0 {
		params.Tools = anthropicTools(req.Tools)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropicError(err)
	}
	return anthropicResponse(msg), nil
}

func anthropicMessages(msgs []Message) ([]sdk.MessageParam, error) {
	out := make([]sdk.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleUser, RoleTool:
			blocks := []sdk.ContentBlockParamUnion{}
			if m.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(m.Content))
			}
			for _, tr := range m.ToolResults {
				blocks = append(blocks, sdk.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
			}
			if len(blocks) == 0 {
				blocks = append(blocks, sdk.NewTextBlock(""))
			}
			out = append(out, sdk.NewUserMessage(blocks...))
		case RoleAssistant:
			blocks := []sdk.ContentBlockParamUnion{}
			if m.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
			}
			out = append(out, sdk.NewAssistantMessage(blocks...))
		case RoleSystem:
			continue
		default:
			return nil, errors.New("anthropic: unsupported role")
		}
	}
	if len(out) == 0 {
		return nil, errors.New("anthropic: at least one user/assistant message is required")
	}
	return out, nil
}

func anthropicTools(defs []ToolDefinition) []sdk.ToolUnionParam {
	tools := make([]sdk.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		schema := sdk.ToolInputSchemaParam{}
		if props, ok := d.InputSchema["properties"].(map[string]any); ok {
			schema.Properties = props
		}
		tool := sdk.ToolUnionParamOfTool(schema, d.Name)
		if tool.OfTool != nil {
			tool.OfTool.Description = sdk.String(d.Description)
		}
		tools = append(tools, tool)
	}
	return tools
}

func anthropicResponse(msg *sdk.Message) *Response {
	resp := &Response{
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Content += block.Text
		case "tool_use":
			var input map[string]any
			_ = json.Unmarshal(block.Input, &input)
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{ID: block.ID, Name: block.Name, Arguments: input})
		}
	}
	switch msg.StopReason {
	case "tool_use":
		resp.StopReason = StopToolUse
	case "max_tokens":
		resp.StopReason = StopMaxTokens
	default:
		resp.StopReason = StopEndTurn
	}
	return resp
}

func classifyAnthropicError(err error) *RequestError {
	re := &RequestError{Kind: ErrUnknown, Provider: "anthropic", Cause: err}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		re.StatusCode = apiErr.StatusCode
		switch apiErr.StatusCode {
		case 401:
			re.Kind = ErrAuthentication
		case 429:
			re.Kind = ErrRateLimited
		case 400, 404, 422:
			re.Kind = ErrInvalidRequest
		case 500, 502, 503, 529:
			re.Kind = ErrServer
		}
	}
	return re
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"noesis/internal/observability"
)

const anthropicDefaultMaxTokens int64 = 4096

// AnthropicProvider adapts the Anthropic Messages API to Provider.
type AnthropicProvider struct {
	sdk       sdk.Client
	model     string
	maxTokens int64
}

// NewAnthropicProvider builds an AnthropicProvider from the LLM_PROVIDER=anthropic
// config block.
func NewAnthropicProvider(apiKey, model, baseURL string) *AnthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(apiKey))}
	if base := strings.TrimSpace(baseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}
	if model = strings.TrimSpace(model); model == "" {
		model = string(sdk.ModelClaudeSonnet4_5)
	}
	return &AnthropicProvider{sdk: sdk.NewClient(opts...), model: model, maxTokens: anthropicDefaultMaxTokens}
}

func (c *AnthropicProvider) pickModel(model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return c.model
}

func (c *AnthropicProvider) Chat(ctx context.Context, msgs []Message, tools []ToolSchema, model string) (Message, error) {
	sys, converted, err := anthropicAdaptMessages(msgs)
	if err != nil {
		return Message{}, err
	}
	toolDefs, err := anthropicAdaptTools(tools)
	if err != nil {
		return Message{}, err
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.pickModel(model)),
		Messages:  converted,
		System:    sys,
		Tools:     toolDefs,
		MaxTokens: c.maxTokens,
	}

	ctx, span := StartRequestSpan(ctx, "Anthropic Chat", string(params.Model), len(tools), len(msgs))
	defer span.End()
	LogRedactedPrompt(ctx, msgs)
	log := observability.LoggerWithTrace(ctx)

	start := time.Now()
	resp, err := c.sdk.Messages.New(ctx, params)
	dur := time.Since(start)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Str("model", string(params.Model)).Dur("duration", dur).Msg("anthropic_chat_error")
		return Message{}, err
	}
	LogRedactedResponse(ctx, resp)

	out := anthropicMessageFromResponse(resp)
	promptTokens := int(resp.Usage.InputTokens)
	completionTokens := int(resp.Usage.OutputTokens)
	RecordTokenAttributes(span, promptTokens, completionTokens, promptTokens+completionTokens)
	RecordTokenMetrics(string(params.Model), promptTokens, completionTokens)
	return out, nil
}

func (c *AnthropicProvider) ChatStream(ctx context.Context, msgs []Message, tools []ToolSchema, model string, h StreamHandler) error {
	msg, err := c.Chat(ctx, msgs, tools, model)
	if err != nil {
		return err
	}
	h.OnDelta(msg.Content)
	for _, tc := range msg.ToolCalls {
		h.OnToolCall(tc)
	}
	return nil
}

func anthropicAdaptTools(tools []ToolSchema) ([]sdk.ToolUnionParam, error) {
	if len(tools) == 0 {
		return nil, nil
	}
	out := make([]sdk.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("anthropic provider: tool name required")
		}
		schema := sdk.ToolInputSchemaParam{Type: constant.ValueOf[constant.Object]()}
		extras := map[string]any{}
		for k, v := range t.Parameters {
			extras[k] = v
		}
		if props, ok := extras["properties"]; ok {
			schema.Properties = props
			delete(extras, "properties")
		}
		delete(extras, "type")
		if len(extras) > 0 {
			schema.ExtraFields = extras
		}
		p := sdk.ToolParam{Name: name, InputSchema: schema}
		if desc := strings.TrimSpace(t.Description); desc != "" {
			p.Description = sdk.String(desc)
		}
		out = append(out, sdk.ToolUnionParam{OfTool: &p})
	}
	return out, nil
}

func anthropicAdaptMessages(msgs []Message) ([]sdk.TextBlockParam, []sdk.MessageParam, error) {
	if len(msgs) == 0 {
		return nil, nil, fmt.Errorf("anthropic provider: messages required")
	}
	var system []sdk.TextBlockParam
	out := make([]sdk.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			system = append(system, sdk.TextBlockParam{Text: m.Content})
		case "assistant":
			out = append(out, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		}
	}
	return system, out, nil
}

func anthropicMessageFromResponse(resp *sdk.Message) Message {
	if resp == nil {
		return Message{}
	}
	var sb strings.Builder
	var calls []ToolCall
	callIdx := 0
	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case sdk.TextBlock:
			sb.WriteString(v.Text)
		case sdk.ToolUseBlock:
			callIdx++
			id := strings.TrimSpace(v.ID)
			if id == "" {
				id = fmt.Sprintf("call-%d", callIdx)
			}
			args := v.Input
			if len(args) == 0 {
				if b, err := json.Marshal(v.Input); err == nil {
					args = b
				}
			}
			calls = append(calls, ToolCall{Name: v.Name, Args: args, ID: id})
		}
	}
	return Message{Role: "assistant", Content: sb.String(), ToolCalls: calls}
}

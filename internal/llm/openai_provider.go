package llm

import (
	"strings"
	"time"

	"context"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"noesis/internal/observability"
)

// OpenAIProvider adapts the Chat Completions API to Provider. It is also
// used for OpenAI-compatible local servers via BaseURL.
type OpenAIProvider struct {
	sdk   sdk.Client
	model string
}

// NewOpenAIProvider builds an OpenAIProvider from the LLM_PROVIDER=openai
// config block.
func NewOpenAIProvider(apiKey, model, baseURL string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(apiKey))}
	if base := strings.TrimSpace(baseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}
	if model = strings.TrimSpace(model); model == "" {
		model = sdk.ChatModelGPT4oMini
	}
	return &OpenAIProvider{sdk: sdk.NewClient(opts...), model: model}
}

func (c *OpenAIProvider) Chat(ctx context.Context, msgs []Message, tools []ToolSchema, model string) (Message, error) {
	effectiveModel := firstNonEmptyString(model, c.model)
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(effectiveModel),
		Messages: openaiAdaptMessages(msgs),
	}
	if len(tools) > 0 {
		params.Tools = openaiAdaptSchemas(tools)
	}

	ctx, span := StartRequestSpan(ctx, "OpenAI Chat", string(params.Model), len(tools), len(msgs))
	defer span.End()
	LogRedactedPrompt(ctx, msgs)
	log := observability.LoggerWithTrace(ctx)

	start := time.Now()
	comp, err := c.sdk.Chat.Completions.New(ctx, params)
	dur := time.Since(start)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Str("model", string(params.Model)).Dur("duration", dur).Msg("openai_chat_error")
		return Message{}, err
	}
	LogRedactedResponse(ctx, comp)

	out := openaiMessageFromCompletion(comp)
	promptTokens := int(comp.Usage.PromptTokens)
	completionTokens := int(comp.Usage.CompletionTokens)
	RecordTokenAttributes(span, promptTokens, completionTokens, promptTokens+completionTokens)
	RecordTokenMetrics(string(params.Model), promptTokens, completionTokens)
	return out, nil
}

func (c *OpenAIProvider) ChatStream(ctx context.Context, msgs []Message, tools []ToolSchema, model string, h StreamHandler) error {
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

func openaiAdaptSchemas(schemas []ToolSchema) []sdk.ChatCompletionToolUnionParam {
	out := make([]sdk.ChatCompletionToolUnionParam, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, sdk.ChatCompletionFunctionTool(sdk.FunctionDefinitionParam{
			Name:        s.Name,
			Description: sdk.String(s.Description),
			Parameters:  s.Parameters,
		}))
	}
	return out
}

func openaiAdaptMessages(msgs []Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, sdk.SystemMessage(m.Content))
		case "assistant":
			out = append(out, sdk.AssistantMessage(m.Content))
		default:
			out = append(out, sdk.UserMessage(m.Content))
		}
	}
	return out
}

func openaiMessageFromCompletion(comp *sdk.ChatCompletion) Message {
	if comp == nil || len(comp.Choices) == 0 {
		return Message{}
	}
	choice := comp.Choices[0]
	var calls []ToolCall
	for _, tc := range choice.Message.ToolCalls {
		calls = append(calls, ToolCall{
			Name: tc.Function.Name,
			Args: []byte(tc.Function.Arguments),
			ID:   tc.ID,
		})
	}
	return Message{Role: "assistant", Content: choice.Message.Content, ToolCalls: calls}
}

func firstNonEmptyString(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"noesis/internal/observability"
)

// GoogleProvider adapts the Gemini GenerateContent API to Provider.
type GoogleProvider struct {
	client *genai.Client
	model  string
}

// NewGoogleProvider builds a GoogleProvider from the LLM_PROVIDER=google
// config block.
func NewGoogleProvider(ctx context.Context, apiKey, model, baseURL string) (*GoogleProvider, error) {
	if model = strings.TrimSpace(model); model == "" {
		model = "gemini-2.0-flash"
	}
	httpOpts := genai.HTTPOptions{}
	if base := strings.TrimSpace(baseURL); base != "" {
		httpOpts.BaseURL = strings.TrimSuffix(base, "/") + "/"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      strings.TrimSpace(apiKey),
		HTTPOptions: httpOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("init google provider: %w", err)
	}
	return &GoogleProvider{client: client, model: model}, nil
}

func (c *GoogleProvider) pickModel(model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return c.model
}

func (c *GoogleProvider) Chat(ctx context.Context, msgs []Message, tools []ToolSchema, model string) (Message, error) {
	effectiveModel := c.pickModel(model)
	ctx, span := StartRequestSpan(ctx, "Google Chat", effectiveModel, len(tools), len(msgs))
	defer span.End()
	LogRedactedPrompt(ctx, msgs)
	log := observability.LoggerWithTrace(ctx)

	contents := googleToContents(msgs)

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, effectiveModel, contents, &genai.GenerateContentConfig{})
	dur := time.Since(start)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Str("model", effectiveModel).Dur("duration", dur).Msg("google_chat_error")
		return Message{}, err
	}
	LogRedactedResponse(ctx, resp)

	out, err := googleMessageFromResponse(resp)
	if err != nil {
		span.RecordError(err)
		return Message{}, err
	}
	if resp.UsageMetadata != nil {
		promptTokens := int(resp.UsageMetadata.PromptTokenCount)
		completionTokens := int(resp.UsageMetadata.CandidatesTokenCount)
		RecordTokenAttributes(span, promptTokens, completionTokens, promptTokens+completionTokens)
		RecordTokenMetrics(effectiveModel, promptTokens, completionTokens)
	}
	return out, nil
}

func (c *GoogleProvider) ChatStream(ctx context.Context, msgs []Message, tools []ToolSchema, model string, h StreamHandler) error {
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

func googleToContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		switch m.Role {
		case "assistant":
			role = "model"
		case "system":
			// Gemini has no distinct system role in the basic Content list;
			// fold it in as a leading user turn.
			role = "user"
		}
		out = append(out, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}
	return out
}

func googleMessageFromResponse(resp *genai.GenerateContentResponse) (Message, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return Message{}, fmt.Errorf("google provider: no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return Message{Role: "assistant"}, nil
	}
	var sb strings.Builder
	var calls []ToolCall
	callIdx := 0
	for _, part := range candidate.Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			callIdx++
			out := ToolCall{Name: part.FunctionCall.Name, ID: fmt.Sprintf("call-%d", callIdx)}
			calls = append(calls, out)
			continue
		}
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return Message{Role: "assistant", Content: sb.String(), ToolCalls: calls}, nil
}

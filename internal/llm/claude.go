package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var claudeModels = map[string]string{
	"haiku":  "claude-haiku-4-5-20251001",
	"sonnet": "claude-sonnet-4-5-20250929",
}

// ClaudeGenerator calls the Anthropic Messages API.
type ClaudeGenerator struct {
	client anthropic.Client
	model  string
}

// NewClaudeGenerator creates a generator. An empty apiKey falls back to
// ANTHROPIC_API_KEY from the environment.
func NewClaudeGenerator(model, apiKey string) *ClaudeGenerator {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &ClaudeGenerator{
		client: anthropic.NewClient(opts...),
		model:  resolveModel(claudeModels, model, "haiku"),
	}
}

func (g *ClaudeGenerator) Name() string { return "anthropic" }

func (g *ClaudeGenerator) Generate(ctx context.Context, req Request) Result {
	system, turns := req.split()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   int64(maxTokens(req)),
		Temperature: anthropic.Float(req.Temperature),
		Messages:    make([]anthropic.MessageParam, 0, len(turns)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, m := range turns {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	return generate(ctx, g.Name(), g.model, req, func(ctx context.Context) (string, error) {
		message, err := g.client.Messages.New(ctx, params)
		if err != nil {
			return "", err
		}
		return extractText(message), nil
	})
}

func extractText(msg *anthropic.Message) string {
	var parts []string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	return strings.Join(parts, "")
}

// maxTokens applies a floor so a zero request still gets a usable reply.
func maxTokens(req Request) int {
	if req.MaxTokens <= 0 {
		return 300
	}
	return req.MaxTokens
}

// Package llm wraps the chat-completion providers behind one Generator
// interface. Failures are returned as values so callers pick their own
// fallback text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Role is the author of a message in a request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// System, User and Assistant build single messages.
func System(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Request is a single generation call.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// split joins the system messages into one prompt and returns the rest in order.
func (r Request) split() (string, []Message) {
	var system []string
	turns := make([]Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return strings.Join(system, "\n\n"), turns
}

// Result is the outcome of a generation. Exactly one of Text or Err is meaningful.
type Result struct {
	Text string
	Err  error
}

// OK reports whether the generation produced usable text.
func (r Result) OK() bool {
	return r.Err == nil && strings.TrimSpace(r.Text) != ""
}

// TextOr returns the generated text, or fallback when the call failed.
func (r Result) TextOr(fallback string) string {
	if !r.OK() {
		return fallback
	}
	return strings.TrimSpace(r.Text)
}

// Generator produces text from a request.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) Result
}

var (
	// ErrEmptyResponse is returned when a provider answers with no text.
	ErrEmptyResponse = errors.New("empty response")
	// ErrOffline is returned by the offline generator.
	ErrOffline = errors.New("text generation disabled")
)

// Options selects and configures a provider.
type Options struct {
	Provider string // anthropic, openai, gemini, bedrock, offline
	Model    string // provider model ID or alias; empty for the provider default
	APIKey   string
	Region   string // bedrock only
}

// New returns the generator named by opts.Provider.
func New(ctx context.Context, opts Options) (Generator, error) {
	switch strings.ToLower(opts.Provider) {
	case "anthropic", "claude":
		return NewClaudeGenerator(opts.Model, opts.APIKey), nil
	case "openai", "":
		return NewOpenAIGenerator(opts.Model, opts.APIKey), nil
	case "gemini":
		return NewGeminiGenerator(ctx, opts.Model, opts.APIKey)
	case "bedrock", "nova":
		return NewBedrockGenerator(ctx, opts.Model, opts.Region)
	case "offline", "static":
		return Offline(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (valid: anthropic, openai, gemini, bedrock, offline)", opts.Provider)
	}
}

// resolveModel maps an alias to a model ID, falling back to def.
func resolveModel(aliases map[string]string, model, def string) string {
	if model == "" {
		return aliases[def]
	}
	if id, ok := aliases[model]; ok {
		return id
	}
	return model
}

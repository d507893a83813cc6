// Package assistant implements the fan-facing services: conversation, sales
// and engagement content, and the facade that ties them to fan profiles and
// history.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/apresai/creatorpilot/internal/fans"
	"github.com/apresai/creatorpilot/internal/llm"
	"github.com/apresai/creatorpilot/internal/persona"
)

// historyLimit is the number of turns kept per fan before each request.
const historyLimit = 10

// Chat holds one conversation per fan.
type Chat struct {
	gen     llm.Generator
	persona persona.Persona

	mu      sync.Mutex
	history map[string][]llm.Message
}

func NewChat(gen llm.Generator, p persona.Persona) *Chat {
	return &Chat{gen: gen, persona: p, history: make(map[string][]llm.Message)}
}

// Respond answers a fan's message in character. The fan's message is kept in
// history even when generation fails; the reply is kept only on success.
func (c *Chat) Respond(ctx context.Context, fanID, message string, fc fans.Context) string {
	c.mu.Lock()
	turns := append(c.history[fanID], llm.User(withContextTags(message, fc)))
	if len(turns) > historyLimit {
		turns = turns[len(turns)-historyLimit:]
	}
	c.history[fanID] = turns

	req := llm.Request{
		Messages:    append([]llm.Message{llm.System(c.persona.ChatSystemPrompt())}, turns...),
		Temperature: c.persona.Temperature,
		MaxTokens:   300,
	}
	c.mu.Unlock()

	res := c.gen.Generate(ctx, req)
	if !res.OK() {
		return persona.ChatFallback
	}

	reply := strings.TrimSpace(res.Text)
	c.mu.Lock()
	c.history[fanID] = append(c.history[fanID], llm.Assistant(reply))
	c.mu.Unlock()
	return reply
}

// withContextTags appends what is known about the fan to their message.
func withContextTags(message string, fc fans.Context) string {
	var tags []string
	if fc.IsSubscriber {
		tags = append(tags, "(This fan is a subscriber)")
	}
	if fc.HasTipped {
		tags = append(tags, "(This fan has tipped before)")
	}
	if fc.PurchasedContent {
		tags = append(tags, "(This fan has purchased content)")
	}
	if len(tags) == 0 {
		return message
	}
	return message + " " + strings.Join(tags, " ")
}

// History returns a copy of a fan's conversation.
func (c *Chat) History(fanID string) []llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.Message(nil), c.history[fanID]...)
}

// Clear forgets a fan's conversation.
func (c *Chat) Clear(fanID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.history, fanID)
}

// Summary recaps a fan's conversation. ok is false when there is nothing to summarise.
func (c *Chat) Summary(ctx context.Context, fanID string) (summary string, ok bool) {
	turns := c.History(fanID)
	if len(turns) == 0 {
		return "", false
	}

	lines := make([]string, 0, len(turns))
	for _, m := range turns {
		who := "You"
		if m.Role == llm.RoleUser {
			who = "Fan"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", who, m.Content))
	}

	res := c.gen.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System(persona.SummarySystemPrompt),
			llm.User(strings.Join(lines, "\n")),
		},
		Temperature: 0.5,
		MaxTokens:   150,
	})
	return res.TextOr(persona.SummaryFallback), true
}

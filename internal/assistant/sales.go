package assistant

import (
	"context"
	"strings"

	"github.com/apresai/creatorpilot/internal/llm"
	"github.com/apresai/creatorpilot/internal/persona"
)

// Suggestion is the sales read of a fan message.
type Suggestion struct {
	ContentType    persona.ContentType `json:"content_type"`
	Confidence     string              `json:"confidence"` // high, medium or low
	Reason         string              `json:"reason"`
	SuggestedPitch string              `json:"suggested_pitch"`
	Price          float64             `json:"price"`
}

// Actionable reports whether the suggestion is confident enough to act on.
func (s Suggestion) Actionable() bool {
	return s.Confidence == "high" || s.Confidence == "medium"
}

func noSuggestion() Suggestion {
	return Suggestion{
		ContentType: persona.NoContent,
		Confidence:  "low",
		Reason:      persona.SuggestionReason,
	}
}

// Sales writes pitches and tip thank-yous and spots buying signals.
type Sales struct {
	gen     llm.Generator
	persona persona.Persona
}

func NewSales(gen llm.Generator, p persona.Persona) *Sales {
	return &Sales{gen: gen, persona: p}
}

// Suggest classifies a fan message. Any failure, including an unparseable
// reply, yields a low-confidence "none".
func (s *Sales) Suggest(ctx context.Context, message string, interests []string) Suggestion {
	res := s.gen.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System(persona.SalesAnalystSystemPrompt),
			llm.User(persona.SuggestionPrompt(message, interests)),
		},
		Temperature: 0.3,
		MaxTokens:   200,
	})
	if !res.OK() {
		return noSuggestion()
	}

	var sug Suggestion
	if err := llm.DecodeJSON(res.Text, &sug); err != nil {
		return noSuggestion()
	}
	sug.ContentType = persona.ContentType(strings.ToLower(strings.TrimSpace(string(sug.ContentType))))
	if sug.ContentType == "" {
		sug.ContentType = persona.NoContent
	}
	sug.Confidence = strings.ToLower(strings.TrimSpace(sug.Confidence))
	sug.Price = s.persona.PriceFor(sug.ContentType)
	return sug
}

// Pitch offers a content type in reply to a fan message.
func (s *Sales) Pitch(ctx context.Context, message string, ct persona.ContentType, details string) string {
	res := s.gen.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System(s.persona.SystemFor("creating natural sales messages")),
			llm.User(s.persona.PitchPrompt(message, ct, details)),
		},
		Temperature: 0.8,
		MaxTokens:   200,
	})
	return res.TextOr(persona.PitchFallback)
}

// ThankTip writes a thank-you scaled to the tip amount.
func (s *Sales) ThankTip(ctx context.Context, amount float64, fanName string) string {
	res := s.gen.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System(s.persona.SystemFor("thanking a generous fan")),
			llm.User(s.persona.TipPrompt(amount, fanName)),
		},
		Temperature: 0.9,
		MaxTokens:   100,
	})
	return res.TextOr(persona.TipFallback)
}

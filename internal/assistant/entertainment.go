package assistant

import (
	"context"
	"math/rand/v2"

	"github.com/apresai/creatorpilot/internal/llm"
	"github.com/apresai/creatorpilot/internal/persona"
)

// Entertainment produces engagement content: games, teasers, greetings.
type Entertainment struct {
	gen     llm.Generator
	persona persona.Persona
	pick    func(n int) int
}

func NewEntertainment(gen llm.Generator, p persona.Persona) *Entertainment {
	return &Entertainment{gen: gen, persona: p, pick: rand.IntN}
}

func (e *Entertainment) generate(ctx context.Context, task, prompt string, temp float64, maxTokens int) llm.Result {
	return e.gen.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System(e.persona.SystemFor(task)),
			llm.User(prompt),
		},
		Temperature: temp,
		MaxTokens:   maxTokens,
	})
}

// Game proposes one interactive game.
func (e *Entertainment) Game(ctx context.Context, fanName string) string {
	res := e.generate(ctx, "creating fun interactive games", e.persona.GamePrompt(fanName), 0.9, 150)
	return res.TextOr(persona.GameFallback)
}

// Story writes a teaser, optionally on a theme.
func (e *Entertainment) Story(ctx context.Context, theme string) string {
	res := e.generate(ctx, "teasing an exciting story", e.persona.StoryPrompt(theme), 0.9, 150)
	return res.TextOr(persona.StoryFallback)
}

// Compliment replies to a compliment.
func (e *Entertainment) Compliment(ctx context.Context, compliment string) string {
	res := e.generate(ctx, "responding to a compliment", e.persona.ComplimentPrompt(compliment), 0.8, 100)
	return res.TextOr(persona.ComplimentFallback)
}

// Greeting writes a greeting for the given time of day.
func (e *Entertainment) Greeting(ctx context.Context, timeOfDay string) string {
	res := e.generate(ctx, "greeting your fans", e.persona.GreetingPrompt(timeOfDay), 0.8, 120)
	return res.TextOr(persona.GreetingFallback(timeOfDay))
}

// Starter opens a conversation with a randomly chosen lead-in.
func (e *Entertainment) Starter(ctx context.Context) string {
	opener := persona.StarterOpeners[e.pick(len(persona.StarterOpeners))]
	res := e.generate(ctx, "starting a fun conversation", e.persona.StarterPrompt(opener), 0.9, 100)
	return res.TextOr(persona.StarterFallback)
}

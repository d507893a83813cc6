package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/apresai/creatorpilot/internal/fans"
	"github.com/apresai/creatorpilot/internal/llm"
	"github.com/apresai/creatorpilot/internal/persona"
	"github.com/apresai/creatorpilot/internal/recorder"
)

// Broadcast kinds.
const (
	BroadcastGreeting = "greeting"
	BroadcastStarter  = "starter"
	BroadcastGame     = "game"
)

// Assistant is the single entry point for fan interactions.
type Assistant struct {
	persona persona.Persona
	chat    *Chat
	sales   *Sales
	fun     *Entertainment
	fans    *fans.Directory
	rec     recorder.Recorder
	log     *slog.Logger
	now     func() time.Time
}

// New wires the services around gen. rec may be a NoopRecorder.
func New(gen llm.Generator, p persona.Persona, rec recorder.Recorder, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Assistant{
		persona: p,
		chat:    NewChat(gen, p),
		sales:   NewSales(gen, p),
		fun:     NewEntertainment(gen, p),
		fans:    fans.NewDirectory(),
		rec:     rec,
		log:     logger,
		now:     time.Now,
	}
}

// Persona returns the configured persona.
func (a *Assistant) Persona() persona.Persona { return a.persona }

// Fans exposes the profile directory.
func (a *Assistant) Fans() *fans.Directory { return a.fans }

// MessageResult is the reply to a fan message.
type MessageResult struct {
	FanID            string      `json:"fan_id"`
	Response         string      `json:"response"`
	SalesOpportunity *Suggestion `json:"sales_opportunity,omitempty"`
}

// SendMessage replies to a fan. When analyzeSales is set the message is also
// checked for a buying signal, kept only at medium or high confidence.
func (a *Assistant) SendMessage(ctx context.Context, fanID, message string, analyzeSales bool) MessageResult {
	profile := a.fans.Ensure(fanID)
	a.fans.Touch(fanID)

	reply := a.chat.Respond(ctx, fanID, message, profile.Context())
	reply = persona.Sanitize(reply, a.persona.MaxResponseLength)
	a.record(ctx, fanID, message, reply, recorder.TypeChat)

	result := MessageResult{FanID: fanID, Response: reply}
	if analyzeSales {
		if sug := a.sales.Suggest(ctx, message, profile.Interests); sug.Actionable() {
			result.SalesOpportunity = &sug
		}
	}
	return result
}

// SendGreeting greets a fan. An empty timeOfDay uses the current time.
func (a *Assistant) SendGreeting(ctx context.Context, fanID, timeOfDay string) string {
	if timeOfDay == "" {
		timeOfDay = fans.TimeOfDay(a.now())
	}
	greeting := a.fun.Greeting(ctx, timeOfDay)
	a.record(ctx, fanID, "[greeting request]", greeting, recorder.TypeGreeting)
	return greeting
}

// Summary recaps the conversation with a fan.
func (a *Assistant) Summary(ctx context.Context, fanID string) (string, bool) {
	return a.chat.Summary(ctx, fanID)
}

// ClearConversation forgets a fan's conversation history.
func (a *Assistant) ClearConversation(fanID string) {
	a.chat.Clear(fanID)
}

// SalesPitch offers ct in reply to a fan message.
func (a *Assistant) SalesPitch(ctx context.Context, fanID, message string, ct persona.ContentType, details string) string {
	pitch := a.sales.Pitch(ctx, message, ct, details)
	a.record(ctx, fanID, message, pitch, recorder.TypeSalesPitch)
	return pitch
}

// ThankForTip credits the tip to the fan and thanks them.
func (a *Assistant) ThankForTip(ctx context.Context, fanID string, amount float64, fanName string) string {
	a.fans.AddTip(fanID, amount)
	if amount < a.persona.TipMinimum {
		a.log.InfoContext(ctx, "tip below minimum", "fan_id", fanID, "amount", amount, "minimum", a.persona.TipMinimum)
	}
	thanks := a.sales.ThankTip(ctx, amount, fanName)
	a.record(ctx, fanID, fmt.Sprintf("[tip: $%.2f]", amount), thanks, recorder.TypeTipThanks)
	return thanks
}

// AnalyzeSales checks a message for a buying signal without replying.
func (a *Assistant) AnalyzeSales(ctx context.Context, message string, interests []string) Suggestion {
	return a.sales.Suggest(ctx, message, interests)
}

// Game sends a game idea.
func (a *Assistant) Game(ctx context.Context, fanID, fanName string) string {
	game := a.fun.Game(ctx, fanName)
	a.record(ctx, fanID, "[game request]", game, recorder.TypeGame)
	return game
}

// Story sends a story teaser.
func (a *Assistant) Story(ctx context.Context, fanID, theme string) string {
	story := a.fun.Story(ctx, theme)
	a.record(ctx, fanID, "[story request]", story, recorder.TypeStory)
	return story
}

// Compliment replies to a compliment.
func (a *Assistant) Compliment(ctx context.Context, fanID, compliment string) string {
	reply := a.fun.Compliment(ctx, compliment)
	a.record(ctx, fanID, compliment, reply, recorder.TypeCompliment)
	return reply
}

// Starter sends a conversation starter.
func (a *Assistant) Starter(ctx context.Context, fanID string) string {
	starter := a.fun.Starter(ctx)
	a.record(ctx, fanID, "[starter request]", starter, recorder.TypeStarter)
	return starter
}

// UpdateProfile merges u into a fan's profile.
func (a *Assistant) UpdateProfile(fanID string, u fans.Update) fans.Profile {
	return a.fans.Apply(fanID, u)
}

// RecordPurchase counts a content purchase for a fan.
func (a *Assistant) RecordPurchase(fanID string) fans.Profile {
	return a.fans.RecordPurchase(fanID)
}

// Broadcast sends the same kind of message to each fan in order.
func (a *Assistant) Broadcast(ctx context.Context, fanIDs []string, kind string) (map[string]string, error) {
	switch kind {
	case BroadcastGreeting, BroadcastStarter, BroadcastGame:
	default:
		return nil, fmt.Errorf("unknown broadcast kind %q (valid: greeting, starter, game)", kind)
	}

	out := make(map[string]string, len(fanIDs))
	for _, id := range fanIDs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		switch kind {
		case BroadcastGreeting:
			out[id] = a.SendGreeting(ctx, id, "")
		case BroadcastStarter:
			out[id] = a.Starter(ctx, id)
		case BroadcastGame:
			var name string
			if p, ok := a.fans.Get(id); ok {
				name = p.Name
			}
			out[id] = a.Game(ctx, id, name)
		}
	}
	a.log.InfoContext(ctx, "broadcast sent", "kind", kind, "fans", len(out))
	return out, nil
}

// History returns the recorded exchanges with a fan, oldest first.
func (a *Assistant) History(ctx context.Context, fanID string, limit int) ([]recorder.Entry, error) {
	return a.rec.RecentMessages(ctx, fanID, limit)
}

// record logs an exchange. A failed write is logged, never returned.
func (a *Assistant) record(ctx context.Context, fanID, message, response, kind string) {
	err := a.rec.RecordMessage(ctx, recorder.Entry{
		Timestamp: a.now(),
		FanID:     fanID,
		Message:   message,
		Response:  response,
		Type:      kind,
	})
	if err != nil {
		a.log.WarnContext(ctx, "could not record message", "fan_id", fanID, "type", kind, "error", err)
	}
}

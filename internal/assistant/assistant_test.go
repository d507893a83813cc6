package assistant

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/apresai/creatorpilot/internal/fans"
	"github.com/apresai/creatorpilot/internal/llm"
	"github.com/apresai/creatorpilot/internal/persona"
	"github.com/apresai/creatorpilot/internal/recorder"
)

// funcGen answers each request with fn.
type funcGen struct {
	mu   sync.Mutex
	fn   func(req llm.Request) llm.Result
	reqs []llm.Request
}

func (g *funcGen) Name() string { return "func" }

func (g *funcGen) Generate(_ context.Context, req llm.Request) llm.Result {
	g.mu.Lock()
	g.reqs = append(g.reqs, req)
	g.mu.Unlock()
	return g.fn(req)
}

// memRecorder keeps entries in memory.
type memRecorder struct {
	recorder.NoopRecorder
	mu      sync.Mutex
	entries []recorder.Entry
}

func (m *memRecorder) RecordMessage(_ context.Context, e recorder.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memRecorder) RecentMessages(_ context.Context, fanID string, limit int) ([]recorder.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []recorder.Entry
	for _, e := range m.entries {
		if fanID == "" || e.FanID == fanID {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func lastUserMessage(req llm.Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == llm.RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

func TestChat_HistoryTrimmedToTen(t *testing.T) {
	gen := &llm.Static{Text: "reply"}
	c := NewChat(gen, persona.Default())
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		c.Respond(ctx, "fan1", "message", fans.Context{})
	}

	req, _ := gen.Last()
	if req.Messages[0].Role != llm.RoleSystem {
		t.Fatalf("first message role = %s, want system", req.Messages[0].Role)
	}
	if got := len(req.Messages) - 1; got != historyLimit {
		t.Errorf("turns sent = %d, want %d", got, historyLimit)
	}
	if got := len(c.History("fan1")); got != historyLimit+1 {
		t.Errorf("stored history = %d, want %d", got, historyLimit+1)
	}
	if req.MaxTokens != 300 || req.Temperature != persona.Default().Temperature {
		t.Errorf("request params = %d tokens, temp %v", req.MaxTokens, req.Temperature)
	}
}

func TestChat_FailureKeepsFanMessageOnly(t *testing.T) {
	gen := llm.Offline()
	c := NewChat(gen, persona.Default())

	got := c.Respond(context.Background(), "fan1", "hello?", fans.Context{})
	if got != persona.ChatFallback {
		t.Errorf("reply = %q, want fallback", got)
	}
	h := c.History("fan1")
	if len(h) != 1 || h[0].Role != llm.RoleUser {
		t.Errorf("history = %+v", h)
	}
}

func TestChat_ContextTags(t *testing.T) {
	gen := &llm.Static{Text: "ok"}
	c := NewChat(gen, persona.Default())

	c.Respond(context.Background(), "fan1", "hey", fans.Context{IsSubscriber: true, PurchasedContent: true})
	req, _ := gen.Last()
	want := "hey (This fan is a subscriber) (This fan has purchased content)"
	if got := lastUserMessage(req); got != want {
		t.Errorf("user message = %q, want %q", got, want)
	}
}

func TestChat_SummaryAndClear(t *testing.T) {
	gen := &llm.Static{Text: "They talked about the gym."}
	c := NewChat(gen, persona.Default())
	ctx := context.Background()

	if _, ok := c.Summary(ctx, "fan1"); ok {
		t.Fatal("summary of empty conversation should not be ok")
	}

	c.Respond(ctx, "fan1", "just left the gym", fans.Context{})
	sum, ok := c.Summary(ctx, "fan1")
	if !ok || sum != "They talked about the gym." {
		t.Errorf("summary = %q, %v", sum, ok)
	}
	req, _ := gen.Last()
	if got := lastUserMessage(req); !strings.Contains(got, "Fan: just left the gym") || !strings.Contains(got, "You: They talked") {
		t.Errorf("transcript = %q", got)
	}

	c.Clear("fan1")
	if len(c.History("fan1")) != 0 {
		t.Error("history not cleared")
	}
}

func TestSales_Suggest(t *testing.T) {
	tests := []struct {
		name      string
		reply     llm.Result
		wantType  persona.ContentType
		wantPrice float64
		wantConf  string
	}{
		{"custom", llm.Result{Text: `{"content_type":"custom_video","confidence":"high","reason":"asked for a video","suggested_pitch":"I can make that"}`}, persona.CustomVideo, 29.99, "high"},
		{"premium fenced", llm.Result{Text: "```json\n{\"content_type\":\"premium_photo\",\"confidence\":\"Medium\",\"reason\":\"r\",\"suggested_pitch\":\"p\"}\n```"}, persona.PremiumPhoto, 9.99, "medium"},
		{"none", llm.Result{Text: `{"content_type":"none","confidence":"high","reason":"chatting","suggested_pitch":""}`}, persona.NoContent, 0, "high"},
		{"garbage", llm.Result{Text: "no idea"}, persona.NoContent, 0, "low"},
		{"failure", llm.Result{Err: llm.ErrOffline}, persona.NoContent, 0, "low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &funcGen{fn: func(llm.Request) llm.Result { return tt.reply }}
			s := NewSales(gen, persona.Default())
			got := s.Suggest(context.Background(), "can I get a video?", []string{"beach"})
			if got.ContentType != tt.wantType || got.Price != tt.wantPrice || got.Confidence != tt.wantConf {
				t.Errorf("got %+v", got)
			}
			if tt.wantConf == "low" && got.Reason != persona.SuggestionReason {
				t.Errorf("reason = %q", got.Reason)
			}
			if gen.reqs[0].Temperature != 0.3 || gen.reqs[0].MaxTokens != 200 {
				t.Errorf("request params = %+v", gen.reqs[0])
			}
		})
	}
}

func TestServices_FallbacksOnFailure(t *testing.T) {
	gen := llm.Offline()
	p := persona.Default()
	s := NewSales(gen, p)
	e := NewEntertainment(gen, p)
	ctx := context.Background()

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"pitch", s.Pitch(ctx, "hi", persona.PremiumVideo, ""), persona.PitchFallback},
		{"tip", s.ThankTip(ctx, 50, "Sam"), persona.TipFallback},
		{"game", e.Game(ctx, ""), persona.GameFallback},
		{"story", e.Story(ctx, ""), persona.StoryFallback},
		{"compliment", e.Compliment(ctx, "you're gorgeous"), persona.ComplimentFallback},
		{"starter", e.Starter(ctx), persona.StarterFallback},
		{"greeting evening", e.Greeting(ctx, fans.Evening), persona.GreetingFallback(fans.Evening)},
		{"greeting unknown", e.Greeting(ctx, "teatime"), "Hey there! 💕 How are you?"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
}

func TestEntertainment_StarterUsesOpener(t *testing.T) {
	gen := &llm.Static{Text: "I'm curious... beach or mountains? 🏖️"}
	e := NewEntertainment(gen, persona.Default())
	e.pick = func(n int) int { return n - 1 }

	got := e.Starter(context.Background())
	if got != "I'm curious... beach or mountains? 🏖️" {
		t.Errorf("starter = %q", got)
	}
	req, _ := gen.Last()
	if !strings.Contains(lastUserMessage(req), `"I'm curious..."`) {
		t.Errorf("prompt = %q", lastUserMessage(req))
	}
}

func newTestAssistant(gen llm.Generator) (*Assistant, *memRecorder) {
	rec := &memRecorder{}
	a := New(gen, persona.Default(), rec, nil)
	a.now = func() time.Time { return time.Date(2026, 10, 19, 19, 0, 0, 0, time.UTC) }
	return a, rec
}

func TestAssistant_SendMessage(t *testing.T) {
	long := strings.Repeat("so much fun ", 60) + "end."
	gen := &funcGen{fn: func(req llm.Request) llm.Result {
		if req.Temperature == 0.3 {
			return llm.Result{Text: `{"content_type":"premium_video","confidence":"medium","reason":"asked","suggested_pitch":"check my new vid"}`}
		}
		return llm.Result{Text: long}
	}}
	a, rec := newTestAssistant(gen)

	res := a.SendMessage(context.Background(), "fan1", "got any new videos?", true)
	if persona.Length(strings.TrimSuffix(res.Response, "...")) > a.persona.MaxResponseLength {
		t.Errorf("response not sanitised: %d characters", persona.Length(res.Response))
	}
	if res.SalesOpportunity == nil || res.SalesOpportunity.Price != 9.99 {
		t.Fatalf("sales opportunity = %+v", res.SalesOpportunity)
	}
	if len(rec.entries) != 1 || rec.entries[0].Type != recorder.TypeChat || rec.entries[0].Message != "got any new videos?" {
		t.Errorf("recorded = %+v", rec.entries)
	}
	if _, ok := a.Fans().Get("fan1"); !ok {
		t.Error("profile not created")
	}
}

func TestAssistant_SendMessage_LowConfidenceDropped(t *testing.T) {
	gen := &funcGen{fn: func(req llm.Request) llm.Result {
		if req.Temperature == 0.3 {
			return llm.Result{Text: `{"content_type":"premium_photo","confidence":"low","reason":"meh","suggested_pitch":""}`}
		}
		return llm.Result{Text: "hey you"}
	}}
	a, _ := newTestAssistant(gen)

	res := a.SendMessage(context.Background(), "fan1", "hi", true)
	if res.SalesOpportunity != nil {
		t.Errorf("low confidence suggestion attached: %+v", res.SalesOpportunity)
	}
	if res.Response != "hey you" {
		t.Errorf("response = %q", res.Response)
	}

	a.SendMessage(context.Background(), "fan1", "hi", false)
	if len(gen.reqs) != 3 {
		t.Errorf("requests = %d, want 3 (no analysis on second call)", len(gen.reqs))
	}
}

func TestAssistant_ThankForTipUpdatesProfile(t *testing.T) {
	a, rec := newTestAssistant(&llm.Static{Text: "omg thank you!!"})
	ctx := context.Background()

	a.ThankForTip(ctx, "fan1", 60, "Alex")
	a.ThankForTip(ctx, "fan1", 40, "Alex")

	p, _ := a.Fans().Get("fan1")
	if p.TotalTips != 100 || !p.Context().IsVIP {
		t.Errorf("profile = %+v", p)
	}
	if rec.entries[0].Message != "[tip: $60.00]" || rec.entries[0].Type != recorder.TypeTipThanks {
		t.Errorf("entry = %+v", rec.entries[0])
	}
}

func TestAssistant_GreetingUsesTimeOfDay(t *testing.T) {
	a, rec := newTestAssistant(llm.Offline())

	got := a.SendGreeting(context.Background(), "fan1", "")
	if got != persona.GreetingFallback(fans.Evening) {
		t.Errorf("greeting = %q", got)
	}
	if rec.entries[0].Message != "[greeting request]" {
		t.Errorf("entry = %+v", rec.entries[0])
	}
}

func TestAssistant_Broadcast(t *testing.T) {
	gen := &funcGen{fn: func(llm.Request) llm.Result {
		return llm.Result{Text: "two truths and a lie, go!"}
	}}
	a, rec := newTestAssistant(gen)
	name := "Robin"
	a.UpdateProfile("fan2", fans.Update{Name: &name})

	out, err := a.Broadcast(context.Background(), []string{"fan1", "fan2"}, BroadcastGame)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("results = %d", len(out))
	}
	if !strings.Contains(gen.reqs[0].Messages[1].Content, "for you!") {
		t.Errorf("unnamed fan prompt = %q", gen.reqs[0].Messages[1].Content)
	}
	if !strings.Contains(gen.reqs[1].Messages[1].Content, "for Robin!") {
		t.Errorf("named fan prompt = %q", gen.reqs[1].Messages[1].Content)
	}
	if len(rec.entries) != 2 || rec.entries[1].Type != recorder.TypeGame {
		t.Errorf("entries = %+v", rec.entries)
	}

	if _, err := a.Broadcast(context.Background(), []string{"fan1"}, "poll"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestAssistant_PurchaseAndHistory(t *testing.T) {
	a, _ := newTestAssistant(&llm.Static{Text: "aww thanks"})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		a.RecordPurchase("fan1")
	}
	if p, _ := a.Fans().Get("fan1"); !p.Context().IsVIP {
		t.Error("five purchases should make a VIP")
	}

	a.Compliment(ctx, "fan1", "love your style")
	a.Story(ctx, "fan1", "beach")
	a.Starter(ctx, "fan1")

	h, err := a.History(ctx, "fan1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(h) != 2 || h[0].Type != recorder.TypeStory || h[1].Type != recorder.TypeStarter {
		t.Errorf("history = %+v", h)
	}
}

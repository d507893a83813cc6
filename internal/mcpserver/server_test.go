package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/apresai/creatorpilot/internal/assistant"
	"github.com/apresai/creatorpilot/internal/llm"
	"github.com/apresai/creatorpilot/internal/persona"
	"github.com/apresai/creatorpilot/internal/progress"
	"github.com/apresai/creatorpilot/internal/recorder"
)

type fixture struct {
	h    *Handlers
	file string
	rec  *recorder.SQLiteRecorder
}

func newFixture(t *testing.T, gen llm.Generator) *fixture {
	t.Helper()
	dir := t.TempDir()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	t.Cleanup(func() { rec.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	asst := assistant.New(gen, persona.Default(), rec, logger)
	file := filepath.Join(dir, "week.json")
	return &fixture{
		h:    NewHandlers(progress.New(), file, asst, rec, logger),
		file: file,
		rec:  rec,
	}
}

func call(t *testing.T, handler server.ToolHandlerFunc, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	tc, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("content is %T, want text", res.Content[0])
	}
	return tc.Text
}

func decode(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), v); err != nil {
		t.Fatalf("decode %q: %v", resultText(t, res), err)
	}
}

func TestTools_Registered(t *testing.T) {
	f := newFixture(t, llm.Offline())
	seen := map[string]bool{}
	for _, tool := range f.h.Tools() {
		if seen[tool.Tool.Name] {
			t.Errorf("duplicate tool %q", tool.Tool.Name)
		}
		seen[tool.Tool.Name] = true
		if tool.Handler == nil {
			t.Errorf("tool %q has no handler", tool.Tool.Name)
		}
		if tool.Tool.Description == "" {
			t.Errorf("tool %q has no description", tool.Tool.Name)
		}
	}
	for _, name := range []string{
		"progress_report", "update_content", "update_revenue", "update_subscribers",
		"update_customs", "complete_self_check", "save_progress", "greeting",
		"sales_pitch", "suggest_content",
	} {
		if !seen[name] {
			t.Errorf("missing tool %q", name)
		}
	}
}

func TestUpdateContent_SavesEachMutation(t *testing.T) {
	f := newFixture(t, llm.Offline())

	var rep progress.Report
	decode(t, call(t, f.h.HandleUpdateContent, map[string]any{"metric": "feed_posts", "amount": 3.0}), &rep)
	if rep.ContentProgress[0].Percentage != 100 || rep.ContentProgress[0].Status != progress.StatusComplete {
		t.Errorf("feed posts line = %+v", rep.ContentProgress[0])
	}

	decode(t, call(t, f.h.HandleUpdateRevenue, map[string]any{"amount": 99.5}), &rep)
	decode(t, call(t, f.h.HandleUpdateSubscribers, map[string]any{"count": 4.0}), &rep)
	decode(t, call(t, f.h.HandleUpdateCustoms, map[string]any{"count": 2.0}), &rep)

	saved, err := progress.LoadFile(f.file)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := progress.WeeklyMetrics{FeedPosts: 3, Revenue: 99.5, NewSubscribers: 4, CustomsCompleted: 2}
	if saved.Metrics() != want {
		t.Errorf("saved metrics = %+v, want %+v", saved.Metrics(), want)
	}
}

func TestUpdateTools_InvalidArguments(t *testing.T) {
	f := newFixture(t, llm.Offline())

	tests := []struct {
		name    string
		handler server.ToolHandlerFunc
		args    map[string]any
	}{
		{"unknown metric", f.h.HandleUpdateContent, map[string]any{"metric": "followers", "amount": 1.0}},
		{"missing amount", f.h.HandleUpdateContent, map[string]any{"metric": "feed_posts"}},
		{"revenue not a number", f.h.HandleUpdateRevenue, map[string]any{"amount": "lots"}},
		{"revenue NaN", f.h.HandleUpdateRevenue, map[string]any{"amount": "NaN"}},
		{"content infinite", f.h.HandleUpdateContent, map[string]any{"metric": "feed_posts", "amount": "+Inf"}},
		{"missing count", f.h.HandleUpdateSubscribers, map[string]any{}},
		{"partial self-check", f.h.HandleCompleteSelfCheck, map[string]any{"protected_energy": true, "stayed_calm": false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := call(t, tt.handler, tt.args); !res.IsError {
				t.Errorf("expected tool error, got %s", resultText(t, res))
			}
		})
	}
	if _, err := os.Stat(f.file); !os.IsNotExist(err) {
		t.Error("rejected updates should not write the progress file")
	}
}

func TestCompleteSelfCheck(t *testing.T) {
	f := newFixture(t, llm.Offline())
	var rep progress.Report
	decode(t, call(t, f.h.HandleCompleteSelfCheck, map[string]any{
		"protected_energy": true, "reinforced_value": true, "stayed_calm": true, "felt_intentional": true,
	}), &rep)
	if rep.SelfCheckStatus != progress.SelfCheckExcellent {
		t.Errorf("self-check status = %q", rep.SelfCheckStatus)
	}

	var out struct {
		SelfCheck progress.SelfCheck `json:"self_check"`
	}
	decode(t, call(t, f.h.HandleProgressReport, nil), &out)
	if !out.SelfCheck.Completed() {
		t.Errorf("self_check = %+v", out.SelfCheck)
	}
}

func TestSaveAndReset_RecordHistory(t *testing.T) {
	f := newFixture(t, llm.Offline())
	call(t, f.h.HandleUpdateRevenue, map[string]any{"amount": 250.0})
	call(t, f.h.HandleSaveProgress, nil)
	call(t, f.h.HandleUpdateRevenue, map[string]any{"amount": 50.0})

	var reset struct {
		Closing progress.Report `json:"closing"`
		Report  progress.Report `json:"report"`
	}
	decode(t, call(t, f.h.HandleResetWeek, nil), &reset)
	if reset.Closing.RevenueMetrics.WeeklyRevenue != 300 {
		t.Errorf("closing revenue = %v, want 300", reset.Closing.RevenueMetrics.WeeklyRevenue)
	}
	if reset.Report.RevenueMetrics.WeeklyRevenue != 0 || reset.Report.SelfCheckStatus != progress.SelfCheckPending {
		t.Errorf("report after reset = %+v", reset.Report)
	}

	var hist struct {
		Reports []struct {
			WeeklyRevenue float64 `json:"weekly_revenue"`
		} `json:"reports"`
		Count int `json:"count"`
	}
	decode(t, call(t, f.h.HandleReportHistory, map[string]any{"limit": 5.0}), &hist)
	if hist.Count != 2 {
		t.Fatalf("history count = %d, want 2", hist.Count)
	}
	if hist.Reports[0].WeeklyRevenue != 300 || hist.Reports[1].WeeklyRevenue != 250 {
		t.Errorf("history = %+v, want closing week (300) first", hist.Reports)
	}

	saved, err := progress.LoadFile(f.file)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Metrics() != (progress.WeeklyMetrics{}) {
		t.Errorf("saved metrics after reset = %+v", saved.Metrics())
	}
}

func TestResetWeek_SaveFailureKeepsWeek(t *testing.T) {
	f := newFixture(t, llm.Offline())
	tracker := progress.New()
	tracker.UpdateRevenue(120)
	tracker.UpdateContent(progress.FeedPosts, 2)
	f.h.tracker = tracker
	f.h.file = filepath.Join(t.TempDir(), "missing", "week.json")

	if _, err := f.h.ResetWeek(context.Background()); err == nil {
		t.Fatal("expected save error")
	}
	if res := call(t, f.h.HandleResetWeek, nil); !res.IsError {
		t.Errorf("expected tool error, got %s", resultText(t, res))
	}

	var out struct {
		Report progress.Report `json:"report"`
	}
	decode(t, call(t, f.h.HandleProgressReport, nil), &out)
	if out.Report.RevenueMetrics.WeeklyRevenue != 120 {
		t.Errorf("revenue after failed reset = %v, want 120", out.Report.RevenueMetrics.WeeklyRevenue)
	}

	reports, err := f.rec.Reports(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 0 {
		t.Errorf("failed reset recorded %d closing reports", len(reports))
	}
}

func TestUpdateContent_Concurrent(t *testing.T) {
	f := newFixture(t, llm.Offline())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := mcp.CallToolRequest{}
			req.Params.Arguments = map[string]any{"metric": "story_posts", "amount": 0.5}
			f.h.HandleUpdateContent(context.Background(), req)
		}()
	}
	wg.Wait()

	saved, err := progress.LoadFile(f.file)
	if err != nil {
		t.Fatal(err)
	}
	if got := saved.Metrics().StoryPosts; got != 10 {
		t.Errorf("story posts = %v, want 10", got)
	}
}

func TestPersonaTools_Offline(t *testing.T) {
	f := newFixture(t, llm.Offline())

	var greet struct {
		Greeting string `json:"greeting"`
	}
	decode(t, call(t, f.h.HandleGreeting, map[string]any{"time_of_day": "night"}), &greet)
	if greet.Greeting != persona.GreetingFallback("night") {
		t.Errorf("greeting = %q", greet.Greeting)
	}

	var pitch struct {
		Pitch string  `json:"pitch"`
		Price float64 `json:"price"`
	}
	decode(t, call(t, f.h.HandleSalesPitch, map[string]any{"message": "something special?", "content_type": "custom_video"}), &pitch)
	if pitch.Pitch != persona.PitchFallback || pitch.Price != 29.99 {
		t.Errorf("pitch = %+v", pitch)
	}

	var sug assistant.Suggestion
	decode(t, call(t, f.h.HandleSuggestContent, map[string]any{"message": "got any videos?", "interests": "yoga, travel"}), &sug)
	if sug.ContentType != persona.NoContent || sug.Reason != persona.SuggestionReason {
		t.Errorf("suggestion = %+v", sug)
	}

	var tip struct {
		Message   string  `json:"message"`
		TotalTips float64 `json:"total_tips"`
	}
	decode(t, call(t, f.h.HandleThankTip, map[string]any{"fan_id": "amy", "amount": 10.0}), &tip)
	decode(t, call(t, f.h.HandleThankTip, map[string]any{"fan_id": "amy", "amount": 15.0}), &tip)
	if tip.Message != persona.TipFallback || tip.TotalTips != 25 {
		t.Errorf("tip = %+v", tip)
	}

	var bc struct {
		Messages map[string]string `json:"messages"`
		Count    int               `json:"count"`
	}
	decode(t, call(t, f.h.HandleBroadcast, map[string]any{"fan_ids": "amy, ben,", "kind": "starter"}), &bc)
	if bc.Count != 2 || bc.Messages["ben"] != persona.StarterFallback {
		t.Errorf("broadcast = %+v", bc)
	}
}

func TestPersonaTools_InvalidArguments(t *testing.T) {
	f := newFixture(t, llm.Offline())
	tests := []struct {
		name    string
		handler server.ToolHandlerFunc
		args    map[string]any
	}{
		{"bad time of day", f.h.HandleGreeting, map[string]any{"time_of_day": "brunch"}},
		{"pitch for none", f.h.HandleSalesPitch, map[string]any{"message": "hi", "content_type": "none"}},
		{"negative tip", f.h.HandleThankTip, map[string]any{"amount": -5.0}},
		{"unknown entertainment", f.h.HandleEntertain, map[string]any{"kind": "poem"}},
		{"compliment without text", f.h.HandleEntertain, map[string]any{"kind": "compliment"}},
		{"empty broadcast", f.h.HandleBroadcast, map[string]any{"fan_ids": " , "}},
		{"unknown broadcast kind", f.h.HandleBroadcast, map[string]any{"fan_ids": "amy", "kind": "poem"}},
		{"message without fan", f.h.HandleSendMessage, map[string]any{"message": "hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := call(t, tt.handler, tt.args); !res.IsError {
				t.Errorf("expected tool error, got %s", resultText(t, res))
			}
		})
	}
}

func TestSendMessageAndHistory(t *testing.T) {
	f := newFixture(t, &llm.Static{Text: "missed you!"})

	var prof struct {
		Context struct {
			IsSubscriber     bool `json:"is_subscriber"`
			PurchasedContent bool `json:"purchased_content"`
		} `json:"context"`
	}
	decode(t, call(t, f.h.HandleUpdateFan, map[string]any{
		"fan_id": "cara", "name": "Cara", "is_subscriber": true, "interests": "music", "purchased": true,
	}), &prof)
	if !prof.Context.IsSubscriber || !prof.Context.PurchasedContent {
		t.Errorf("context = %+v", prof.Context)
	}

	var msg assistant.MessageResult
	decode(t, call(t, f.h.HandleSendMessage, map[string]any{"fan_id": "cara", "message": "hey!"}), &msg)
	if msg.Response != "missed you!" || msg.SalesOpportunity != nil {
		t.Errorf("message result = %+v", msg)
	}

	var story struct {
		Message string `json:"message"`
	}
	decode(t, call(t, f.h.HandleEntertain, map[string]any{"fan_id": "cara", "kind": "story", "text": "beach"}), &story)
	if story.Message != "missed you!" {
		t.Errorf("story = %q", story.Message)
	}

	var hist struct {
		Messages []recorder.Entry `json:"messages"`
		Count    int              `json:"count"`
	}
	decode(t, call(t, f.h.HandleFanMessages, map[string]any{"fan_id": "cara"}), &hist)
	if hist.Count != 2 {
		t.Fatalf("history count = %d, want 2", hist.Count)
	}
	if hist.Messages[0].Type != recorder.TypeChat || hist.Messages[1].Type != recorder.TypeStory {
		t.Errorf("history types = %s, %s", hist.Messages[0].Type, hist.Messages[1].Type)
	}
}

func TestNew_LoadsSavedWeek(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	asst := assistant.New(llm.Offline(), persona.Default(), nil, logger)
	dir := t.TempDir()

	t.Run("missing file starts fresh", func(t *testing.T) {
		if _, err := New(Config{ProgressFile: filepath.Join(dir, "none.json")}, asst, nil, logger); err != nil {
			t.Fatalf("New: %v", err)
		}
	})

	t.Run("saved week restored", func(t *testing.T) {
		path := filepath.Join(dir, "week.json")
		tr := progress.New()
		tr.UpdateContent(progress.PPVDrops, 2)
		if err := tr.Save(path); err != nil {
			t.Fatal(err)
		}
		srv, err := New(Config{ProgressFile: path, Version: "test"}, asst, nil, logger)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		var out struct {
			Report progress.Report `json:"report"`
		}
		decode(t, call(t, srv.handlers.HandleProgressReport, nil), &out)
		if out.Report.ContentProgress[1].Actual != 2 {
			t.Errorf("ppv drops = %v, want 2", out.Report.ContentProgress[1].Actual)
		}
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		path := filepath.Join(dir, "corrupt.json")
		if err := os.WriteFile(path, []byte(`{"weekly_data": 7}`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := New(Config{ProgressFile: path}, asst, nil, logger); err == nil {
			t.Error("expected error for corrupt progress file")
		}
	})
}

package persona

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   string
	}{
		{"trims whitespace", "  hello there  ", 50, "hello there"},
		{"under limit untouched", "Short one.", 20, "Short one."},
		{"no limit", strings.Repeat("a", 1000), 0, strings.Repeat("a", 1000)},
		{"cuts at late sentence end", "This is long. Keep this bit! tail goes", 30, "This is long. Keep this bit!"},
		{"hard cut when sentence end too early", "Hi. this keeps going and going without stopping", 20, "Hi. this keeps going..."},
		{"hard cut without punctuation", "abcdefghij", 5, "abcde..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.text, tt.maxLen); got != tt.want {
				t.Errorf("Sanitize(%q, %d) = %q, want %q", tt.text, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestSanitize_GraphemeSafe(t *testing.T) {
	// Each flag and family emoji is one grapheme made of several runes.
	text := "🇺🇸🇫🇷👨‍👩‍👧🇯🇵🇩🇪"
	got := Sanitize(text, 3)
	if got != "🇺🇸🇫🇷👨‍👩‍👧..." {
		t.Errorf("Sanitize = %q", got)
	}
	if Length(text) != 5 {
		t.Errorf("Length = %d, want 5", Length(text))
	}
}

func TestSanitize_NeverExceedsLimit(t *testing.T) {
	text := "Hey babe! Thanks so much for stopping by. I just got back from the gym and I'm feeling amazing? Let's chat!"
	for maxLen := 10; maxLen < len(text); maxLen += 7 {
		got := Sanitize(text, maxLen)
		if n := Length(strings.TrimSuffix(got, "...")); n > maxLen {
			t.Errorf("maxLen %d: kept %d characters: %q", maxLen, n, got)
		}
	}
}

func TestTipEnthusiasm(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{150, "extremely excited and grateful"},
		{100, "extremely excited and grateful"},
		{99.99, "very excited and appreciative"},
		{50, "very excited and appreciative"},
		{20, "happy and thankful"},
		{19.99, "appreciative and sweet"},
		{5, "appreciative and sweet"},
	}
	for _, tt := range tests {
		if got := TipEnthusiasm(tt.amount); got != tt.want {
			t.Errorf("TipEnthusiasm(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestPriceFor(t *testing.T) {
	p := Default()
	tests := []struct {
		ct   ContentType
		want float64
	}{
		{CustomPhoto, 29.99},
		{CustomVideo, 29.99},
		{PremiumPhoto, 9.99},
		{PremiumVideo, 9.99},
		{ExclusiveMessage, 9.99},
		{NoContent, 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := p.PriceFor(tt.ct); got != tt.want {
			t.Errorf("PriceFor(%q) = %v, want %v", tt.ct, got, tt.want)
		}
	}
}

func TestParseContentType(t *testing.T) {
	if ct, err := ParseContentType(" Custom_Video "); err != nil || ct != CustomVideo {
		t.Errorf("ParseContentType = %q, %v", ct, err)
	}
	if _, err := ParseContentType("none"); err == nil {
		t.Error("none is not sellable")
	}
	if _, err := ParseContentType("hologram"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestGreetingFallback(t *testing.T) {
	if got := GreetingFallback("morning"); !strings.HasPrefix(got, "Good morning!") {
		t.Errorf("morning = %q", got)
	}
	if got := GreetingFallback("brunch"); got != "Hey there! 💕 How are you?" {
		t.Errorf("unknown = %q", got)
	}
}

func TestPrompts_IncludePersona(t *testing.T) {
	p := Default()
	p.Name = "Luna"

	sys := p.ChatSystemPrompt()
	for _, want := range []string{"Luna", "flirty, playful, engaging", "fitness, travel, photography", "under 500 characters", "$9.99", "$29.99", "$5.00"} {
		if !strings.Contains(sys, want) {
			t.Errorf("chat system prompt missing %q", want)
		}
	}

	if got := p.PitchPrompt("show me more", CustomVideo, "beach theme"); !strings.Contains(got, "custom_video content ($29.99)") || !strings.Contains(got, "Custom details: beach theme") {
		t.Errorf("pitch prompt = %q", got)
	}
	if got := p.TipPrompt(120, "Sam"); !strings.Contains(got, "extremely excited") || !strings.Contains(got, "to Sam") {
		t.Errorf("tip prompt = %q", got)
	}
	if got := p.GamePrompt(""); !strings.Contains(got, "for you!") {
		t.Errorf("game prompt = %q", got)
	}
	if got := SuggestionPrompt("hi", []string{"yoga"}); !strings.Contains(got, "Fan's known interests: yoga") {
		t.Errorf("suggestion prompt = %q", got)
	}
	if got := SuggestionPrompt("hi", nil); strings.Contains(got, "known interests") {
		t.Errorf("suggestion prompt should omit empty interests: %q", got)
	}
	if got := p.SystemFor("greeting your fans"); got != "You are Luna, greeting your fans." {
		t.Errorf("SystemFor = %q", got)
	}
}

func TestValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default persona invalid: %v", err)
	}
	bad := Default()
	bad.MaxResponseLength = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero max length")
	}
	bad = Default()
	bad.CustomPrice = -1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for negative price")
	}
}

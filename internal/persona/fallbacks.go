package persona

// Canned replies used when text generation fails.
const (
	ChatFallback       = "I'm having trouble responding right now, but I'll get back to you soon! 💕"
	SummaryFallback    = "Unable to generate summary at this time."
	PitchFallback      = "I'd love to create something special for you! Let's chat about what you're looking for 💕"
	TipFallback        = "Thank you so much for the tip! You're amazing! 💖✨"
	GameFallback       = "Let's play a game! Two truths and a lie about me - guess which is the lie! 😘"
	StoryFallback      = "Just had the craziest experience... you're not going to believe this! 😏✨"
	ComplimentFallback = "Aww, you're so sweet! Thank you! 💕 You're making me blush!"
	StarterFallback    = "Quick question for you... if you could take me anywhere right now, where would we go? 🌴✨"
	SuggestionReason   = "Unable to analyze"
)

var greetingFallbacks = map[string]string{
	"morning":   "Good morning! ☀️ Hope you slept well! What are you up to today?",
	"afternoon": "Hey there! 😊 How's your day going?",
	"evening":   "Good evening! 🌙 How was your day?",
	"night":     "Hey you! 🌙 Still up? What are you up to? 😘",
}

// GreetingFallback returns the canned greeting for a time of day.
func GreetingFallback(timeOfDay string) string {
	if g, ok := greetingFallbacks[timeOfDay]; ok {
		return g
	}
	return "Hey there! 💕 How are you?"
}

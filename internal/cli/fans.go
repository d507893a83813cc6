package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/apresai/creatorpilot/internal/assistant"
	"github.com/apresai/creatorpilot/internal/fans"
	"github.com/apresai/creatorpilot/internal/persona"
	"github.com/apresai/creatorpilot/internal/progress"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat as a fan with the persona (interactive)",
	RunE:  runChat,
}

var greetCmd = &cobra.Command{
	Use:   "greet",
	Short: "Write a daily greeting",
	Args:  cobra.NoArgs,
	RunE:  runGreet,
}

var pitchCmd = &cobra.Command{
	Use:   "pitch <fan message>",
	Short: "Write a sales pitch in reply to a fan message",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPitch,
}

var tipCmd = &cobra.Command{
	Use:   "tip <amount>",
	Short: "Thank a fan for a tip",
	Args:  cobra.ExactArgs(1),
	RunE:  runTip,
}

var gameCmd = &cobra.Command{
	Use:   "game",
	Short: "Suggest a flirty game",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPersona(cmd, func(ctx context.Context, asst *assistant.Assistant) string {
			return asst.Game(ctx, flagFan, flagFanName)
		})
	},
}

var storyCmd = &cobra.Command{
	Use:   "story [theme]",
	Short: "Write a short story teaser",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPersona(cmd, func(ctx context.Context, asst *assistant.Assistant) string {
			return asst.Story(ctx, flagFan, strings.Join(args, " "))
		})
	},
}

var complimentCmd = &cobra.Command{
	Use:   "compliment <compliment>",
	Short: "Respond to a compliment",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPersona(cmd, func(ctx context.Context, asst *assistant.Assistant) string {
			return asst.Compliment(ctx, flagFan, strings.Join(args, " "))
		})
	},
}

var starterCmd = &cobra.Command{
	Use:   "starter",
	Short: "Write a conversation starter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPersona(cmd, func(ctx context.Context, asst *assistant.Assistant) string {
			return asst.Starter(ctx, flagFan)
		})
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <fan message>",
	Short: "Check a fan message for a content sales opportunity",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSuggest,
}

var broadcastCmd = &cobra.Command{
	Use:   "broadcast <fan-id>...",
	Short: "Send a greeting, starter or game to several fans",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBroadcast,
}

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Show recorded exchanges with a fan",
	RunE:  runMessages,
}

var (
	flagFan           string
	flagFanName       string
	flagSubscriber    bool
	flagInterests     []string
	flagTimeOfDay     string
	flagContentType   string
	flagDetails       string
	flagBroadcastKind string
	flagAnalyzeSales  bool
	flagMessagesLimit int
)

func init() {
	rootCmd.AddCommand(chatCmd, greetCmd, pitchCmd, tipCmd, gameCmd, storyCmd, complimentCmd,
		starterCmd, suggestCmd, broadcastCmd, messagesCmd)

	for _, c := range []*cobra.Command{chatCmd, greetCmd, pitchCmd, tipCmd, gameCmd, storyCmd, complimentCmd, starterCmd, messagesCmd} {
		c.Flags().StringVarP(&flagFan, "fan", "f", "cli", "Fan ID")
	}
	for _, c := range []*cobra.Command{chatCmd, tipCmd, gameCmd} {
		c.Flags().StringVar(&flagFanName, "name", "", "Fan display name")
	}
	chatCmd.Flags().BoolVar(&flagSubscriber, "subscriber", false, "Treat the fan as a subscriber")
	chatCmd.Flags().BoolVar(&flagAnalyzeSales, "sales", true, "Check each message for a sales opportunity")
	for _, c := range []*cobra.Command{chatCmd, suggestCmd} {
		c.Flags().StringSliceVar(&flagInterests, "interests", nil, "Fan interests (comma-separated)")
	}
	greetCmd.Flags().StringVarP(&flagTimeOfDay, "time", "t", "", "morning, afternoon, evening or night (default: now)")
	pitchCmd.Flags().StringVarP(&flagContentType, "type", "T", string(persona.PremiumPhoto),
		"Content type: "+strings.Join(contentTypeNames(), ", "))
	pitchCmd.Flags().StringVarP(&flagDetails, "details", "d", "", "Extra details about the content")
	broadcastCmd.Flags().StringVarP(&flagBroadcastKind, "kind", "k", assistant.BroadcastGreeting, "Message kind: greeting, starter, game")
	messagesCmd.Flags().IntVarP(&flagMessagesLimit, "limit", "n", 20, "Number of exchanges to show")
}

func contentTypeNames() []string {
	names := make([]string, len(persona.ContentTypes))
	for i, ct := range persona.ContentTypes {
		names[i] = string(ct)
	}
	return names
}

// runPersona builds the assistant and prints the single reply fn returns.
func runPersona(cmd *cobra.Command, fn func(ctx context.Context, asst *assistant.Assistant) string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		asst, err := a.assistant(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), fn(ctx, asst))
		return nil
	})
}

func runGreet(cmd *cobra.Command, args []string) error {
	switch flagTimeOfDay {
	case "", fans.Morning, fans.Afternoon, fans.Evening, fans.Night:
	default:
		return fmt.Errorf("invalid --time %q: must be morning, afternoon, evening or night", flagTimeOfDay)
	}
	return runPersona(cmd, func(ctx context.Context, asst *assistant.Assistant) string {
		return asst.SendGreeting(ctx, flagFan, flagTimeOfDay)
	})
}

func runPitch(cmd *cobra.Command, args []string) error {
	ct, err := persona.ParseContentType(flagContentType)
	if err != nil {
		return err
	}
	return runPersona(cmd, func(ctx context.Context, asst *assistant.Assistant) string {
		return asst.SalesPitch(ctx, flagFan, strings.Join(args, " "), ct, flagDetails)
	})
}

func runTip(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(strings.TrimPrefix(args[0], "$"), 64)
	if err == nil {
		err = progress.CheckAmount(amount)
	}
	if err != nil || amount <= 0 {
		return fmt.Errorf("invalid tip amount %q", args[0])
	}
	return runPersona(cmd, func(ctx context.Context, asst *assistant.Assistant) string {
		return asst.ThankForTip(ctx, flagFan, amount, flagFanName)
	})
}

func runSuggest(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		asst, err := a.assistant(ctx)
		if err != nil {
			return err
		}
		sug := asst.AnalyzeSales(ctx, strings.Join(args, " "), flagInterests)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sug)
	})
}

func runBroadcast(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		asst, err := a.assistant(ctx)
		if err != nil {
			return err
		}
		sent, err := asst.Broadcast(ctx, args, flagBroadcastKind)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, id := range args {
			fmt.Fprintf(out, "[%s] %s\n", id, sent[id])
		}
		return nil
	})
}

func runMessages(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		entries, err := a.rec.RecentMessages(ctx, flagFan, flagMessagesLimit)
		if err != nil {
			return fmt.Errorf("read messages: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintf(out, "No recorded messages for %s.\n", flagFan)
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %-11s fan: %s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Type, e.Message)
			fmt.Fprintf(out, "%s  %-11s you: %s\n", strings.Repeat(" ", 16), "", e.Response)
		}
		return nil
	})
}

func runChat(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		asst, err := a.assistant(ctx)
		if err != nil {
			return err
		}

		u := fans.Update{IsSubscriber: &flagSubscriber}
		if flagFanName != "" {
			u.Name = &flagFanName
		}
		if len(flagInterests) > 0 {
			u.Interests = flagInterests
		}
		asst.UpdateProfile(flagFan, u)

		rl, err := newLineReader("you> ")
		if err != nil {
			return err
		}
		defer rl.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Chatting with %s as fan %q. /help for commands, /quit to leave.\n", asst.Persona().Name, flagFan)
		return chatLoop(ctx, rl, out, asst, flagFan, flagAnalyzeSales)
	})
}

func printSuggestion(out io.Writer, s *assistant.Suggestion) {
	fmt.Fprintf(out, "  [sales] %s at $%.2f (%s confidence): %s\n", s.ContentType, s.Price, s.Confidence, s.Reason)
	if s.SuggestedPitch != "" {
		fmt.Fprintf(out, "          pitch idea: %s\n", s.SuggestedPitch)
	}
}

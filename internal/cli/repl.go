package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apresai/creatorpilot/internal/assistant"
	"github.com/chzyer/readline"
)

// lineReader is the part of readline.Instance the chat loop needs.
type lineReader interface {
	Readline() (string, error)
}

func newLineReader(prompt string) (*readline.Instance, error) {
	cfg := &readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.HistoryFile = filepath.Join(home, ".creatorpilot_history")
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, fmt.Errorf("start prompt: %w", err)
	}
	return rl, nil
}

const chatHelp = `Commands:
  /summary   summarise the conversation so far
  /clear     forget the conversation
  /starter   send a conversation starter
  /game      suggest a game
  /quit      leave`

// chatLoop reads fan messages until /quit, EOF or an interrupt on an empty line.
func chatLoop(ctx context.Context, r lineReader, out io.Writer, asst *assistant.Assistant, fanID string, analyzeSales bool) error {
	name := asst.Persona().Name
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := r.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(out, chatHelp)
			continue
		case "/clear":
			asst.ClearConversation(fanID)
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		case "/summary":
			if summary, ok := asst.Summary(ctx, fanID); ok {
				fmt.Fprintf(out, "Summary: %s\n", summary)
			} else {
				fmt.Fprintln(out, "Nothing to summarise yet.")
			}
			continue
		case "/starter":
			fmt.Fprintf(out, "%s: %s\n", name, asst.Starter(ctx, fanID))
			continue
		case "/game":
			var fanName string
			if p, ok := asst.Fans().Get(fanID); ok {
				fanName = p.Name
			}
			fmt.Fprintf(out, "%s: %s\n", name, asst.Game(ctx, fanID, fanName))
			continue
		}
		if strings.HasPrefix(line, "/") {
			fmt.Fprintf(out, "Unknown command %s. /help lists commands.\n", line)
			continue
		}

		res := asst.SendMessage(ctx, fanID, line, analyzeSales)
		fmt.Fprintf(out, "%s: %s\n", name, res.Response)
		if res.SalesOpportunity != nil {
			printSuggestion(out, res.SalesOpportunity)
		}
	}
}

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/apresai/creatorpilot/internal/assistant"
	"github.com/apresai/creatorpilot/internal/llm"
	"github.com/apresai/creatorpilot/internal/mcpserver"
)

var flagPort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server (stdio by default, streamable HTTP with --port)",
	Long: `Expose progress tracking and persona messaging as MCP tools.

Without --port the server speaks MCP over stdin/stdout. With --port it serves
streamable HTTP and, when mcp.api_key or MCP_API_KEY is set, requires it as a
bearer token. If the LLM provider is not configured the persona tools answer
with fallback replies.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&flagPort, "port", "", "Serve streamable HTTP on this port (overrides mcp.port)")
}

// Serve runs the serve command with args, for the dedicated MCP binary.
func Serve(ctx context.Context, args []string) error {
	rootCmd.SetArgs(append([]string{"serve"}, args...))
	return rootCmd.ExecuteContext(ctx)
}

func runServe(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if flagPort != "" {
			a.cfg.MCP.Port = flagPort
		}

		asst, err := a.assistant(ctx)
		if err != nil {
			a.log.WarnContext(ctx, "LLM unavailable, serving fallback replies", "error", err)
			asst = assistant.New(llm.Offline(), a.cfg.Persona, a.rec, a.log)
		}

		srv, err := mcpserver.New(mcpserver.Config{
			Name:         "creatorpilot",
			Version:      Version,
			Port:         a.cfg.MCP.Port,
			APIKey:       a.cfg.MCP.APIKey,
			ProgressFile: a.cfg.Progress.File,
			ResetCron:    a.cfg.Progress.ResetCron,
		}, asst, a.rec, a.log)
		if err != nil {
			return err
		}
		return srv.Start(ctx)
	})
}

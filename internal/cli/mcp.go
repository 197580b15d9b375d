package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/emlsave/internal/credential"
	"github.com/vijay-prabhu/emlsave/internal/email"
	"github.com/vijay-prabhu/emlsave/internal/host"
	"github.com/vijay-prabhu/emlsave/internal/mcp"
	"github.com/vijay-prabhu/emlsave/internal/session"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for assistant clients",
	Long: `Start a Model Context Protocol server on stdio.

The assistant client becomes the host: it names the message to save and
the server runs the same sign-in, retrieval and delivery as 'emlsave save'.
Progress and logs go to stderr; stdout carries only protocol messages.

Example client configuration:
  {
    "mcpServers": {
      "emlsave": {
        "command": "emlsave",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// mailbox adapts the app to the MCP server
type mailbox struct {
	app      *app
	terminal *Terminal
}

func (m mailbox) Save(ctx context.Context, req mcp.SaveRequest) (*session.Outcome, error) {
	return m.app.download(ctx, host.TypeAssistant, email.Item{ID: req.ID, Subject: req.Subject}, req.Latest, m.terminal.State)
}

func (m mailbox) Status(ctx context.Context) (*credential.Status, error) {
	return m.app.status(ctx)
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("mcp server starting", "backend", a.backend.Name())
	server := mcp.New(mailbox{app: a, terminal: NewTerminal()}, version, a.logger)
	return server.Serve(cmd.Context(), os.Stdin, os.Stdout)
}

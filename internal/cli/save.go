package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/emlsave/internal/delivery"
	"github.com/vijay-prabhu/emlsave/internal/email"
	"github.com/vijay-prabhu/emlsave/internal/fetch"
	"github.com/vijay-prabhu/emlsave/internal/host"
	"github.com/vijay-prabhu/emlsave/internal/output"
	"github.com/vijay-prabhu/emlsave/internal/session"
)

var (
	saveID        string
	saveSubject   string
	saveLatest    bool
	saveDir       string
	saveFormat    string
	saveOverwrite bool
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a message as an .eml file",
	Long: `Save signs in (silently when a cached session exists), retrieves the
message and writes it to disk.

The message is taken from --id, or with --latest the newest message in
the Inbox is used. --subject names the file; without it the subject
returned by the mail API is used when the message had to be rebuilt.

Examples:
  emlsave save --id AAMkAGI2... --subject "Q3 Report"
  emlsave save --latest
  emlsave save --latest --format mbox`,
	RunE: runSave,
}

func init() {
	rootCmd.AddCommand(saveCmd)
	saveCmd.Flags().StringVar(&saveID, "id", "", "Message identifier from the mail client")
	saveCmd.Flags().StringVar(&saveSubject, "subject", "", "Message subject, used for the filename")
	saveCmd.Flags().BoolVar(&saveLatest, "latest", false, "Save the newest message in the Inbox")
	saveCmd.Flags().StringVar(&saveDir, "dir", "", "Directory to write to (default: [output] dir)")
	saveCmd.Flags().StringVar(&saveFormat, "format", "", "Output format: eml or mbox (default: [output] format)")
	saveCmd.Flags().BoolVar(&saveOverwrite, "overwrite", false, "Replace an existing file instead of numbering the new one")
	saveCmd.MarkFlagsMutuallyExclusive("id", "latest")
}

func runSave(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	terminal := NewTerminal()
	item := email.Item{ID: saveID, Subject: saveSubject}

	out, err := a.download(cmd.Context(), host.TypeCommandLine, item, saveLatest, terminal.State)
	if err != nil {
		terminal.Errorf("Error: %v", err)
		var exhausted *fetch.ExhaustedError
		if errors.As(err, &exhausted) && outputFmt != "json" {
			_ = output.TableTo(terminal.out, exhausted)
		}
		terminal.Hintf("%s", session.Describe(err))
		return err
	}

	return output.Output(outputFmt, out)
}

// download runs one attempt on the app's session for item, or for the
// newest Inbox message when latest is set
func (a *app) download(ctx context.Context, hostType string, item email.Item, latest bool, onState func(session.State)) (*session.Outcome, error) {
	var adapter host.Adapter = host.Static{Item: item, Type: hostType}
	if latest {
		adapter = host.Latest{Finder: a.backend}
	}

	sink, err := a.sink()
	if err != nil {
		return nil, err
	}

	return a.session.Run(ctx, session.Attempt{Host: adapter, Sink: sink, OnState: onState})
}

// sink picks the delivery target from flags and config
func (a *app) sink() (delivery.Sink, error) {
	format := a.cfg.Output.Format
	if saveFormat != "" {
		format = saveFormat
	}

	switch format {
	case "eml":
		dir := a.cfg.Output.Dir
		if saveDir != "" {
			dir = saveDir
		}
		return &delivery.FileSink{Dir: dir, Overwrite: saveOverwrite || a.cfg.Output.Overwrite, Logger: a.logger}, nil
	case "mbox":
		return &delivery.MboxSink{Path: a.cfg.Output.MboxPath, Logger: a.logger}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want eml or mbox)", format)
	}
}

package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/emlsave/internal/eml"
	"github.com/vijay-prabhu/emlsave/internal/locator"
	"github.com/vijay-prabhu/emlsave/internal/output"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show the headers of a saved message file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates ID",
	Short: "List the identifier encodings tried against the mail API",
	Args:  cobra.ExactArgs(1),
	RunE:  runCandidates,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(candidatesCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open message: %w", err)
	}
	defer f.Close()

	summary, err := eml.InspectReader(f)
	if err != nil {
		return err
	}
	return output.Output(outputFmt, summary)
}

func runCandidates(cmd *cobra.Command, args []string) error {
	seq, err := locator.Candidates(args[0])
	if err != nil {
		return err
	}
	return output.Output(outputFmt, slices.Collect(seq))
}

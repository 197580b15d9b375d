package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/vijay-prabhu/emlsave/internal/credential"
	"github.com/vijay-prabhu/emlsave/internal/email"
	"github.com/vijay-prabhu/emlsave/internal/eml"
	"github.com/vijay-prabhu/emlsave/internal/fetch"
	"github.com/vijay-prabhu/emlsave/internal/locator"
	"github.com/vijay-prabhu/emlsave/internal/session"
)

// Table writes data as a formatted table to stdout
func Table(data any) error {
	return TableTo(os.Stdout, data)
}

// TableTo writes data as a formatted table to the given writer
func TableTo(w io.Writer, data any) error {
	switch v := data.(type) {
	case *session.Outcome:
		return outcomeDetail(w, v)
	case *fetch.ExhaustedError:
		return attemptsTable(w, v.Attempts)
	case []locator.Candidate:
		return candidatesTable(w, v)
	case *eml.Summary:
		return summaryDetail(w, v)
	case *credential.Status:
		return statusDetail(w, v)
	default:
		return fmt.Errorf("unsupported data type for table output: %T", data)
	}
}

func outcomeDetail(w io.Writer, o *session.Outcome) error {
	fmt.Fprintf(w, "Saved:       %s\n", o.Location)
	fmt.Fprintf(w, "Subject:     %s\n", orPlaceholder(o.Subject))
	fmt.Fprintf(w, "Size:        %d bytes\n", o.Size)

	how := o.Strategy
	if o.Encoding != "" {
		how += " (" + string(o.Encoding) + ")"
	}
	if o.Reconstructed {
		how += ", rebuilt from message fields"
	}
	fmt.Fprintf(w, "Retrieved:   %s via %s\n", how, o.Backend)
	fmt.Fprintf(w, "Attempt:     %s\n", o.AttemptID)
	return nil
}

func attemptsTable(w io.Writer, attempts []fetch.Attempt) error {
	table := tablewriter.NewWriter(w)
	table.Header("Strategy", "Encoding", "Error")
	for _, a := range attempts {
		enc := string(a.Encoding)
		if enc == "" {
			enc = "-"
		}
		if err := table.Append(a.Strategy, enc, truncate(a.Err.Error(), 70)); err != nil {
			return err
		}
	}
	return table.Render()
}

func candidatesTable(w io.Writer, candidates []locator.Candidate) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Encoding", "Value")
	for i, c := range candidates {
		if err := table.Append(fmt.Sprint(i+1), string(c.Encoding), c.Value); err != nil {
			return err
		}
	}
	return table.Render()
}

func summaryDetail(w io.Writer, s *eml.Summary) error {
	fmt.Fprintf(w, "Subject:     %s\n", orPlaceholder(s.Subject))
	fmt.Fprintf(w, "From:        %s\n", email.JoinAddresses(s.From))
	if len(s.To) > 0 {
		fmt.Fprintf(w, "To:          %s\n", email.JoinAddresses(s.To))
	}
	if len(s.Cc) > 0 {
		fmt.Fprintf(w, "Cc:          %s\n", email.JoinAddresses(s.Cc))
	}
	if len(s.Bcc) > 0 {
		fmt.Fprintf(w, "Bcc:         %s\n", email.JoinAddresses(s.Bcc))
	}
	if !s.Date.IsZero() {
		fmt.Fprintf(w, "Date:        %s\n", s.Date.Format("Jan 02, 2006 15:04 MST"))
	}
	fmt.Fprintf(w, "Type:        %s\n", s.ContentType)
	fmt.Fprintf(w, "Size:        %d bytes\n", s.Size)
	return nil
}

func statusDetail(w io.Writer, s *credential.Status) error {
	if len(s.Accounts) == 0 {
		fmt.Fprintf(w, "Not signed in to %s. Run 'emlsave auth login'.\n", s.Backend)
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Backend", "Account", "ID")
	for _, a := range s.Accounts {
		if err := table.Append(s.Backend, a.Username, truncate(a.ID, 40)); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if !s.Expires.IsZero() {
		fmt.Fprintf(w, "Token expires: %s\n", s.Expires.Local().Format("Jan 02, 2006 15:04 MST"))
	}
	if s.Token != nil && len(s.Token.Scopes) > 0 {
		fmt.Fprintf(w, "Scopes:        %s\n", strings.Join(s.Token.Scopes, " "))
	}
	return nil
}

func orPlaceholder(subject string) string {
	if subject == "" {
		return email.DefaultSubject
	}
	return subject
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

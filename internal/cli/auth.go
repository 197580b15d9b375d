package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/emlsave/internal/credential"
	"github.com/vijay-prabhu/emlsave/internal/output"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the mailbox sign-in",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and cache a token",
	RunE:  runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cached accounts and token details",
	Long: `Status lists the cached accounts and, when a token can be obtained
without prompting, its expiry, user and granted scopes.`,
	RunE: runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove cached accounts and tokens",
	RunE:  runAuthLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tok, err := a.provider.Token(cmd.Context(), a.backend.Scopes())
	if err != nil {
		return err
	}

	who := tok.Account.Username
	if who == "" {
		who = "your account"
	}
	fmt.Printf("Signed in to %s as %s\n", a.backend.Name(), who)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.status(cmd.Context())
	if err != nil {
		return err
	}
	return output.Output(outputFmt, status)
}

// status reports cached accounts and, when one can be had silently, the token
func (a *app) status(ctx context.Context) (*credential.Status, error) {
	accounts, err := a.provider.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	status := &credential.Status{Backend: a.backend.Name(), Accounts: accounts}
	if len(accounts) == 0 {
		return status, nil
	}

	tok, err := a.provider.SilentToken(ctx, a.backend.Scopes())
	if err != nil {
		a.logger.Info("no silent token", "error", err)
		return status, nil
	}
	status.Expires = tok.ExpiresOn
	if info, err := credential.DescribeToken(tok.AccessToken); err == nil {
		status.Token = info
	}
	return status, nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.provider.SignOut(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d cached account(s)\n", n)
	return nil
}

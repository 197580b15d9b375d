package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Dir(configPath)
	dataDir := filepath.Join(home, ".local", "share", "emlsave")

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file already exists at %s\n", configPath)
		fmt.Println("Use 'emlsave config show' to view current configuration")
		return nil
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  Outlook / Microsoft 365:")
	fmt.Println("    1. Register a public client app in Microsoft Entra ID with the Mail.Read permission")
	fmt.Println("    2. Set [graph] client_id to its application id")
	fmt.Println("  Gmail:")
	fmt.Println("    1. Create a desktop OAuth client in Google Cloud and enable the Gmail API")
	fmt.Printf("    2. Save credentials.json to %s/ and set [account] provider = \"gmail\"\n", configDir)
	fmt.Println()
	fmt.Println("Then run 'emlsave auth login' followed by 'emlsave save --latest'")

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No config file found. Run 'emlsave config init' to create one.")
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	fmt.Printf("# Config file: %s\n\n", configPath)
	fmt.Println(string(data))
	return nil
}

const defaultConfig = `# emlsave configuration

[account]
provider = "graph"  # graph or gmail

[graph]
client_id = ""      # application (client) id of your app registration
tenant = "common"   # tenant id, or common / organizations / consumers
scopes = ["Mail.Read"]
base_url = "https://graph.microsoft.com/v1.0/me"
# redirect_uri = "http://localhost"

[gmail]
credentials_path = "~/.config/emlsave/credentials.json"

[cache]
backend = "sqlite"  # sqlite or keyring
path = "~/.local/share/emlsave/tokens.db"

[fetch]
pause_ms = 500        # delay between retrieval strategies
timeout_sec = 60      # per-request HTTP timeout
subject_search = true # last resort: find the message by subject

[output]
dir = "."
format = "eml"        # eml or mbox
mbox_path = "~/.local/share/emlsave/saved.mbox"
overwrite = false

[log]
level = "warn"        # debug, info, warn, error
# dir = "~/.local/share/emlsave/logs"
`

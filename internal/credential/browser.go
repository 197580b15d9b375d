package credential

import (
	"os"

	"github.com/pkg/browser"
)

func init() {
	// stdout carries protocol messages under `emlsave mcp`; this also covers
	// the browser launched by MSAL.
	browser.Stdout = os.Stderr
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	return browser.OpenURL(url)
}

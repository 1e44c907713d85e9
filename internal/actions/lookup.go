package actions

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// LookupBaseURL is the reputation service used for remote addresses.
const LookupBaseURL = "https://www.virustotal.com/gui/ip-address/"

// LookupURL builds the reputation lookup URL for ip.
func LookupURL(ip string) (string, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "", fmt.Errorf("empty address")
	}
	return LookupBaseURL + url.PathEscape(ip), nil
}

// Opener launches a URL in the user's browser.
type Opener func(rawURL string) error

// OpenLookup opens the reputation page for ip with open. The launched
// browser is not waited for.
func OpenLookup(ip string, open Opener) (string, error) {
	u, err := LookupURL(ip)
	if err != nil {
		return "", err
	}
	if open == nil {
		open = OpenBrowser
	}
	if err := open(u); err != nil {
		return u, fmt.Errorf("open browser: %w", err)
	}
	return u, nil
}

// OpenBrowser starts the platform URL handler without waiting for it.
func OpenBrowser(rawURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	case "darwin":
		cmd = exec.Command("open", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}

// CopyToClipboard places text on the system clipboard.
func CopyToClipboard(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard not supported on this system")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

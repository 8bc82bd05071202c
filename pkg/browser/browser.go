// Package browser opens web URLs in the user's default browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Validate checks that a URL is safe to hand to the system browser.
// Only http and https are accepted, which blocks command injection and
// scheme abuse (file:, javascript:, ...).
func Validate(urlString string) error {
	parsed, err := url.Parse(urlString)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https allowed)", parsed.Scheme)
	}
	return nil
}

// launcher returns the platform command that opens a URL, or an error
// on platforms without a known opener.
func launcher(goos, urlString string) (*exec.Cmd, error) {
	switch goos {
	case "linux":
		return exec.Command("xdg-open", urlString), nil // #nosec G204 -- URL validated by caller
	case "darwin":
		return exec.Command("open", urlString), nil // #nosec G204 -- URL validated by caller
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", urlString), nil // #nosec G204 -- URL validated by caller
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// Open opens the URL in the default browser. The URL is validated
// first so untrusted post content can be passed through safely.
func Open(urlString string) error {
	if err := Validate(urlString); err != nil {
		return err
	}
	cmd, err := launcher(runtime.GOOS, urlString)
	if err != nil {
		return err
	}
	return cmd.Start()
}

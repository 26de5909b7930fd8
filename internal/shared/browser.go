package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

var (
	getRuntime = func() string { return runtime.GOOS }
	getenv     = os.Getenv
	startCmd   = func(cmd *exec.Cmd) error { return cmd.Start() }
)

// browserCommand picks the command used to open url. $BROWSER wins when set.
func browserCommand(url string) (*exec.Cmd, error) {
	if browser := getenv("BROWSER"); browser != "" {
		return exec.Command(browser, url), nil
	}

	switch rt := getRuntime(); rt {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", rt)
	}
}

// OpenBrowser opens the default system browser to the Spotify authorization page or any other url.
func OpenBrowser(url string) error {
	cmd, err := browserCommand(url)
	if err != nil {
		return err
	}
	if err := startCmd(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser opens the default system browser at url. The login command
// uses it to send the user to the Google consent page; callers fall back
// to printing the URL when no platform opener exists.
//
// Supports macOS, Linux, and Windows.
func OpenBrowser(url string) error {
	var launch *exec.Cmd
	switch rt := getRuntime(); rt {
	case "darwin":
		launch = exec.Command("open", url)
	case "linux":
		launch = exec.Command("xdg-open", url)
	case "windows":
		launch = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("no browser opener for platform %s", rt)
	}

	if err := launch.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

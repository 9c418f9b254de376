// Package browser opens the preview page in the user's default browser.
// Failures are logged at debug level and never reach the caller.
package browser

import (
	"log/slog"
	"os"
	"os/exec"
	"runtime"
)

// Open launches the default browser at url and returns immediately.
func Open(url string) {
	if !hasDisplay(runtime.GOOS, os.Getenv) {
		slog.Debug("skipping browser open: no display detected")
		return
	}
	name, args := command(runtime.GOOS, url)
	if err := exec.Command(name, args...).Start(); err != nil {
		slog.Debug("could not open browser", "url", url, "error", err)
	}
}

func command(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	}
	return "xdg-open", []string{url}
}

// hasDisplay reports whether a graphical session is likely. Only X11 and
// Wayland sessions announce themselves; other systems are assumed to have one.
func hasDisplay(goos string, getenv func(string) string) bool {
	if goos == "windows" || goos == "darwin" {
		return true
	}
	return getenv("DISPLAY") != "" || getenv("WAYLAND_DISPLAY") != ""
}

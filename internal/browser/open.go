// Package browser opens URLs in the system web browser.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// startCommand starts a command without waiting for it.
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Command returns the program and arguments that open url on goos.
func Command(goos, url string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// Open opens url in the default browser.
func Open(url string) error {
	name, args, err := Command(getRuntime(), url)
	if err != nil {
		return err
	}
	if err := startCommand(name, args...); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

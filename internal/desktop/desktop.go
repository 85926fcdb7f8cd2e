// Package desktop controls a locally installed media player through the
// operating system: process queries, termination and player scripting.
//
// What the host can do is resolved on every call from runtime.GOOS and the
// tools found on PATH. A missing capability is never a hard failure:
// detection and termination become no-ops and scripting reports
// [cerrors.ErrUnsupported].
package desktop

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"regexp"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tessro/cody/internal/core"
	cerrors "github.com/tessro/cody/internal/errors"
	"github.com/tessro/cody/internal/logging"
)

// Operating systems with process or scripting support.
const (
	OSDarwin  = "darwin"
	OSLinux   = "linux"
	OSWindows = "windows"
)

// Scripting bridges.
const (
	ScripterNone      = ""
	ScripterOSA       = "osascript"
	ScripterPlayerctl = "playerctl"
)

// Runner executes a program and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Capabilities is what the host can do for desktop control.
type Capabilities struct {
	OS        string `json:"os"`
	CanDetect bool   `json:"can_detect"`
	CanScript bool   `json:"can_script"`
	Scripter  string `json:"scripter,omitempty"`
}

// Controller runs OS process and scripting commands.
type Controller struct {
	goos     func() string
	run      Runner
	lookPath func(string) (string, error)
	logger   *log.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(c *Controller) {
		if r != nil {
			c.run = r
		}
	}
}

// WithLookPath replaces exec.LookPath when probing for tools.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.lookPath = fn
		}
	}
}

// WithOS pins the operating system instead of runtime.GOOS.
func WithOS(goos string) Option {
	return func(c *Controller) {
		c.goos = func() string { return goos }
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a controller for the current host.
func New(opts ...Option) *Controller {
	c := &Controller{
		goos:     func() string { return runtime.GOOS },
		run:      execRunner,
		lookPath: exec.LookPath,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (c *Controller) has(tool string) bool {
	_, err := c.lookPath(tool)
	return err == nil
}

// Resolve reports the capabilities of the host at call time.
func (c *Controller) Resolve() Capabilities {
	caps := Capabilities{OS: c.goos()}

	switch caps.OS {
	case OSDarwin:
		caps.CanDetect = c.has("pgrep") && c.has("pkill")
		if c.has(ScripterOSA) {
			caps.CanScript, caps.Scripter = true, ScripterOSA
		}
	case OSLinux:
		caps.CanDetect = c.has("pgrep") && c.has("pkill")
		if c.has(ScripterPlayerctl) {
			caps.CanScript, caps.Scripter = true, ScripterPlayerctl
		}
	case OSWindows:
		caps.CanDetect = c.has("tasklist") && c.has("taskkill")
	}
	return caps
}

// exitCode returns the exit status carried by err, or -1.
func exitCode(err error) int {
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return -1
}

func imageName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name
	}
	return name + ".exe"
}

// IsProcessRunning reports whether a process with the given name exists.
// Hosts without process tools report false.
func (c *Controller) IsProcessRunning(ctx context.Context, name string) (bool, error) {
	caps := c.Resolve()
	if !caps.CanDetect {
		c.logger.Debug("process detection unavailable", "os", caps.OS)
		return false, nil
	}

	if caps.OS == OSWindows {
		image := imageName(name)
		out, err := c.run(ctx, "tasklist", "/FI", "IMAGENAME eq "+image, "/FO", "CSV", "/NH")
		if err != nil {
			return false, fmt.Errorf("tasklist: %w", err)
		}
		return strings.Contains(strings.ToLower(string(out)), strings.ToLower(`"`+image+`"`)), nil
	}

	_, err := c.run(ctx, "pgrep", "-x", name)
	switch {
	case err == nil:
		return true, nil
	case exitCode(err) == 1:
		return false, nil
	default:
		return false, fmt.Errorf("pgrep: %w", err)
	}
}

// KillProcess terminates every process with the given name. Killing a
// process that is not running, or on a host without process tools, does
// nothing.
func (c *Controller) KillProcess(ctx context.Context, name string) error {
	caps := c.Resolve()
	if !caps.CanDetect {
		c.logger.Debug("process termination unavailable", "os", caps.OS)
		return nil
	}

	if caps.OS == OSWindows {
		out, err := c.run(ctx, "taskkill", "/IM", imageName(name), "/F")
		if err != nil && exitCode(err) != 128 {
			return fmt.Errorf("taskkill: %s: %w", strings.TrimSpace(string(out)), err)
		}
		return nil
	}

	_, err := c.run(ctx, "pkill", "-x", name)
	if err != nil && exitCode(err) != 1 {
		return fmt.Errorf("pkill: %w", err)
	}
	c.logger.Debug("killed process", "name", name)
	return nil
}

// RunPlayerCommand runs a named command against a desktop player and returns
// its trimmed textual reply. On macOS the command is an AppleScript verb
// phrase sent to the application, with numeric args appended as numbers and
// any other arg as a quoted string literal; on Linux it is a playerctl
// subcommand.
func (c *Controller) RunPlayerCommand(ctx context.Context, player, command string, args ...string) (string, error) {
	caps := c.Resolve()
	if !caps.CanScript {
		return "", fmt.Errorf("%w: player scripting on %s", cerrors.ErrUnsupported, caps.OS)
	}

	var (
		name string
		argv []string
	)
	switch caps.Scripter {
	case ScripterOSA:
		phrase := command
		for _, a := range args {
			phrase += " " + appleScriptValue(a)
		}
		name, argv = ScripterOSA, []string{"-e", "tell application " + appleScriptString(player) + " to " + strings.TrimSpace(phrase)}
	case ScripterPlayerctl:
		name = ScripterPlayerctl
		argv = append([]string{"--player=" + strings.ToLower(player), command}, args...)
	}

	c.logger.Debug("player command", "tool", name, "args", argv)
	out, err := c.run(ctx, name, argv...)
	if err != nil {
		return "", fmt.Errorf("%s %s: %s: %w", name, command, strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

var numberPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

func appleScriptValue(s string) string {
	if numberPattern.MatchString(s) {
		return s
	}
	return appleScriptString(s)
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// Script is RunPlayerCommand as an envelope. Unsupported hosts report 501.
func (c *Controller) Script(ctx context.Context, player, command string, args ...string) core.Response[string] {
	out, err := c.RunPlayerCommand(ctx, player, command, args...)
	return envelope(out, err)
}

func envelope[T any](data T, err error) core.Response[T] {
	switch {
	case err == nil:
		return core.Success(http.StatusOK, data)
	case errors.Is(err, cerrors.ErrUnsupported):
		return core.Failure[T](http.StatusNotImplemented, err)
	case errors.Is(err, cerrors.ErrProcessNotFound):
		return core.Failure[T](http.StatusNotFound, err)
	default:
		return core.Failure[T](http.StatusInternalServerError, err)
	}
}

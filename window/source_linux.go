//go:build linux

package window

import (
	"fmt"
	"os/exec"
	"strings"
)

type linuxSource struct {
	hasXdotool bool
	hasXprop   bool
}

func newPlatformSource() TitleSource {
	return &linuxSource{
		hasXdotool: commandExists("xdotool"),
		hasXprop:   commandExists("xprop"),
	}
}

func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// ActiveTitle queries the X11 focused window title, preferring xdotool and
// falling back to xprop.
func (s *linuxSource) ActiveTitle() (string, error) {
	if s.hasXdotool {
		return s.activeTitleXdotool()
	}
	if s.hasXprop {
		return s.activeTitleXprop()
	}
	return "", fmt.Errorf("no window detection tool available (xdotool or xprop required)")
}

func (s *linuxSource) activeTitleXdotool() (string, error) {
	idOut, err := exec.Command("xdotool", "getactivewindow").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get active window id: %w", err)
	}
	windowID := strings.TrimSpace(string(idOut))

	nameOut, err := exec.Command("xdotool", "getwindowname", windowID).Output()
	if err != nil {
		return "", fmt.Errorf("failed to get window name: %w", err)
	}
	return strings.TrimSpace(string(nameOut)), nil
}

func (s *linuxSource) activeTitleXprop() (string, error) {
	activeOut, err := exec.Command("xprop", "-root", "_NET_ACTIVE_WINDOW").Output()
	if err != nil {
		return "", fmt.Errorf("failed to query active window: %w", err)
	}
	windowID := parseActiveWindowID(string(activeOut))
	if windowID == "" {
		return "", fmt.Errorf("no active window reported")
	}

	nameOut, err := exec.Command("xprop", "-id", windowID, "_NET_WM_NAME", "WM_NAME").Output()
	if err != nil {
		return "", fmt.Errorf("failed to query window name: %w", err)
	}
	return parseWindowName(string(nameOut)), nil
}

// parseActiveWindowID extracts the window id from xprop -root output such as
// "_NET_ACTIVE_WINDOW(WINDOW): window id # 0x3c00007".
func parseActiveWindowID(out string) string {
	idx := strings.LastIndex(out, "0x")
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(out[idx:])
	if id == "0x0" {
		return ""
	}
	return id
}

// parseWindowName extracts the quoted title from xprop name output such as
// `_NET_WM_NAME(UTF8_STRING) = "ELDEN RING"`.
func parseWindowName(out string) string {
	for _, line := range strings.Split(out, "\n") {
		open := strings.Index(line, `= "`)
		if open < 0 {
			continue
		}
		rest := line[open+3:]
		end := strings.LastIndex(rest, `"`)
		if end < 0 {
			continue
		}
		return rest[:end]
	}
	return ""
}

//go:build !windows && !linux

package window

import "fmt"

type stubSource struct{}

func newPlatformSource() TitleSource {
	return stubSource{}
}

func (stubSource) ActiveTitle() (string, error) {
	return "", fmt.Errorf("foreground window detection not supported on this platform")
}

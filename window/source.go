// Package window exposes the narrow OS capabilities the overlay depends on:
// reading the foreground window title and forcing cursor visibility.
package window

// TitleSource reads the title of the currently focused top-level window.
type TitleSource interface {
	ActiveTitle() (string, error)
}

// NewTitleSource returns the title source for the current platform.
func NewTitleSource() TitleSource {
	return newPlatformSource()
}

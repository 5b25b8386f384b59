//go:build !windows

package window

// ShowCursorUntilVisible is a no-op outside Windows; other platforms do not
// hide the cursor with a display counter.
func ShowCursorUntilVisible() {}

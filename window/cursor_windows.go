//go:build windows

package window

var procShowCursor = user32.NewProc("ShowCursor")

// ShowCursorUntilVisible raises the cursor display counter until the cursor
// is visible again. Exclusive-fullscreen games leave the counter negative,
// which would hide the cursor over the reactivated overlay. The loop is
// bounded in case another process keeps decrementing concurrently.
func ShowCursorUntilVisible() {
	for i := 0; i < 64; i++ {
		count, _, _ := procShowCursor.Call(1)
		if int32(count) >= 0 {
			return
		}
	}
}

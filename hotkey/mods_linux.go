//go:build linux

package hotkey

import "golang.design/x/hotkey"

// X11 has no named alt/win modifiers; Mod1 and Mod4 are where stock keymaps
// put them.
var modMap = map[string]hotkey.Modifier{
	"ctrl":  hotkey.ModCtrl,
	"shift": hotkey.ModShift,
	"alt":   hotkey.Mod1,
	"win":   hotkey.Mod4,
}

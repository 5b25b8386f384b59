//go:build darwin

package hotkey

import "golang.design/x/hotkey"

// alt maps to option and win to command, the closest macOS equivalents.
var modMap = map[string]hotkey.Modifier{
	"ctrl":  hotkey.ModCtrl,
	"shift": hotkey.ModShift,
	"alt":   hotkey.ModOption,
	"win":   hotkey.ModCmd,
}

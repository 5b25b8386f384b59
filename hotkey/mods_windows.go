//go:build windows

package hotkey

import "golang.design/x/hotkey"

var modMap = map[string]hotkey.Modifier{
	"ctrl":  hotkey.ModCtrl,
	"shift": hotkey.ModShift,
	"alt":   hotkey.ModAlt,
	"win":   hotkey.ModWin,
}

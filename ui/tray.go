package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
)

// Tray is the system-tray menu: manual activation, settings and quit.
type Tray struct {
	menu    *fyne.Menu
	askItem *fyne.MenuItem
}

// SetupTray installs the tray menu. Returns nil when the platform has no
// system tray; the hotkey still works without one.
func SetupTray(app fyne.App, hotkeyLabel string, onAsk, onSettings, onQuit func()) *Tray {
	desk, ok := app.(desktop.App)
	if !ok {
		return nil
	}

	t := &Tray{}
	t.askItem = fyne.NewMenuItem(askLabel(hotkeyLabel), onAsk)
	t.menu = fyne.NewMenu("GameFloaty",
		t.askItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Settings", onSettings),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", onQuit),
	)
	desk.SetSystemTrayMenu(t.menu)
	desk.SetSystemTrayIcon(theme.SearchIcon())
	return t
}

// UpdateHotkey refreshes the shortcut shown next to the Ask item after a
// rebind.
func (t *Tray) UpdateHotkey(hotkeyLabel string) {
	if t == nil {
		return
	}
	t.askItem.Label = askLabel(hotkeyLabel)
	t.menu.Refresh()
}

func askLabel(hotkeyLabel string) string {
	if hotkeyLabel == "" {
		return "Ask"
	}
	return "Ask (" + hotkeyLabel + ")"
}

package ui

import (
	"fyne.io/fyne/v2"
	"github.com/rs/zerolog"
)

// Notifier shows OS notifications for notices that have no window to live
// in, like unsupported games and hotkey problems.
type Notifier struct {
	app fyne.App
	log zerolog.Logger
}

// NewNotifier wraps the fyne notification API.
func NewNotifier(app fyne.App, log zerolog.Logger) *Notifier {
	return &Notifier{app: app, log: log}
}

// Notify sends a desktop notification.
func (n *Notifier) Notify(title, message string) {
	n.log.Info().Str("title", title).Msg(message)
	n.app.SendNotification(fyne.NewNotification(title, message))
}

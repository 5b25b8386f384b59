package ui

import (
	"context"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/RyanRen-Tamar/GameFloaty/prompt"
)

// PromptWindow opens the transient query prompt. One instance exists; a
// second Ask while the prompt is open refocuses it and reports no input.
type PromptWindow struct {
	app fyne.App
	log zerolog.Logger

	mu   sync.Mutex
	open fyne.Window
}

// NewPromptWindow builds the prompt front-end.
func NewPromptWindow(app fyne.App, log zerolog.Logger) *PromptWindow {
	return &PromptWindow{app: app, log: log}
}

// Ask shows the prompt for the matched game and blocks until it resolves.
// Enter submits, Escape cancels and losing focus cancels after a short
// grace. The repeat-last control only appears when hasLast is true.
func (p *PromptWindow) Ask(ctx context.Context, game string, hasLast bool) prompt.Result {
	p.mu.Lock()
	if p.open != nil {
		win := p.open
		p.mu.Unlock()
		p.log.Debug().Msg("prompt already open, refocusing")
		win.RequestFocus()
		return prompt.Result{Kind: prompt.Cancelled}
	}

	win := p.newPromptShell()
	p.open = win
	p.mu.Unlock()

	pr := prompt.New(0)

	entry := widget.NewEntry()
	entry.SetPlaceHolder(fmt.Sprintf("Search the %s wiki...", game))
	entry.OnSubmitted = func(text string) { pr.Submit(text) }

	title := widget.NewLabelWithStyle(game, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	hint := widget.NewLabelWithStyle("Enter to search, Esc to cancel", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})

	rows := []fyne.CanvasObject{title, entry}
	if hasLast {
		openLast := widget.NewButton("Open Last", func() { pr.SubmitLast() })
		openLast.Importance = widget.LowImportance
		rows = append(rows, openLast)
	}
	rows = append(rows, hint)

	win.SetContent(container.NewVBox(rows...))
	win.Resize(fyne.NewSize(440, 150))
	win.CenterOnScreen()

	win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			pr.Cancel()
		}
	})

	// Window deactivation is only visible app-wide; hook it for the
	// duration of this prompt session.
	lc := p.app.Lifecycle()
	lc.SetOnExitedForeground(func() { pr.FocusLost() })
	lc.SetOnEnteredForeground(func() { pr.FocusGained() })

	var closedByUser bool
	win.SetOnClosed(func() {
		p.mu.Lock()
		closedByUser = p.open != nil
		p.mu.Unlock()
		pr.Cancel()
	})

	win.Show()
	win.RequestFocus()
	win.Canvas().Focus(entry)

	res := pr.Await(ctx)

	lc.SetOnExitedForeground(nil)
	lc.SetOnEnteredForeground(nil)

	p.mu.Lock()
	p.open = nil
	skipClose := closedByUser
	p.mu.Unlock()
	if !skipClose {
		win.Close()
	}

	p.log.Debug().Stringer("result", res.Kind).Msg("prompt resolved")
	return res
}

// newPromptShell prefers a borderless splash surface where the driver
// supports one.
func (p *PromptWindow) newPromptShell() fyne.Window {
	if drv, ok := p.app.Driver().(desktop.Driver); ok {
		return drv.CreateSplashWindow()
	}
	return p.app.NewWindow("GameFloaty")
}

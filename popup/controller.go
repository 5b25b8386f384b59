package popup

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/RyanRen-Tamar/GameFloaty/models"
	"github.com/RyanRen-Tamar/GameFloaty/prompt"
	"github.com/RyanRen-Tamar/GameFloaty/resolver"
	"github.com/RyanRen-Tamar/GameFloaty/window"
	"github.com/rs/zerolog"
)

// Prompter opens the query prompt and blocks until it resolves. hasLast
// enables the repeat-last control.
type Prompter interface {
	Ask(ctx context.Context, game string, hasLast bool) prompt.Result
}

// Notifier surfaces short user-visible notices outside the popup.
type Notifier interface {
	Notify(title, message string)
}

// GeometryStore persists the popup placement across popups and restarts.
type GeometryStore interface {
	PopupGeometry() models.PopupConfig
	SavePopupGeometry(geom models.PopupConfig)
}

// ControllerConfig carries the controller's collaborators.
type ControllerConfig struct {
	// Library returns the current game library. Called fresh per activation
	// so hot reloads take effect immediately.
	Library  func() *models.GameLibrary
	Titles   window.TitleSource
	Resolver *resolver.Resolver
	Factory  Factory
	Warmer   *Warmer
	Prompter Prompter
	Notifier Notifier
	Store    GeometryStore
	Log      zerolog.Logger
}

// Controller serializes hotkey activations and owns the single popup slot.
// One activation runs the full cycle: read the foreground title, match a
// config, prompt, resolve, display. A second activation arriving mid-cycle
// is dropped.
type Controller struct {
	cfg ControllerConfig

	// Unbuffered: a send only succeeds while the run loop is idle, which is
	// exactly the drop-while-busy guard.
	activations chan struct{}

	raiseCursor func()

	mu      sync.Mutex
	current Surface
}

// NewController builds the controller. Run must be started before Activate
// has any effect.
func NewController(cfg ControllerConfig) *Controller {
	return &Controller{
		cfg:         cfg,
		activations: make(chan struct{}),
		raiseCursor: window.ShowCursorUntilVisible,
	}
}

// Activate requests one activation cycle. It never blocks; if a cycle is
// already in flight the request is dropped.
func (c *Controller) Activate() {
	select {
	case c.activations <- struct{}{}:
	default:
		c.cfg.Log.Debug().Msg("activation dropped: cycle already in flight")
	}
}

// Run processes activations until the context is cancelled. Call it on its
// own goroutine.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.activations:
			c.cycle(ctx)
		}
	}
}

// HasOpen reports whether a content popup is currently showing.
func (c *Controller) HasOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// CloseCurrent tears down the open popup, persisting its geometry first.
// Safe to call when none is open.
func (c *Controller) CloseCurrent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.teardownLocked(c.current)
	}
}

// cycle runs one activation from foreground title to displayed outcome.
func (c *Controller) cycle(ctx context.Context) {
	title, err := c.cfg.Titles.ActiveTitle()
	if err != nil {
		c.cfg.Log.Warn().Err(err).Msg("foreground title query failed")
		title = ""
	}
	title = strings.TrimSpace(title)

	name, game, ok := c.cfg.Library().Match(title)
	if !ok {
		if title == "" {
			c.notify("No active window title could be read.")
		} else {
			c.notify(fmt.Sprintf("No wiki is configured for %q.", title))
		}
		return
	}
	c.cfg.Log.Debug().Str("game", name).Str("title", title).Msg("matched game")

	// Exclusive-fullscreen games keep their popup: refocus it instead of
	// rebuilding, and force the OS cursor back.
	if game.PersistentOverlay && c.HasOpen() {
		c.mu.Lock()
		surface := c.current
		c.mu.Unlock()
		if surface != nil {
			surface.Raise()
			c.raiseCursor()
			c.cfg.Log.Debug().Str("game", name).Msg("reactivated persistent popup")
			return
		}
	}

	res := c.cfg.Prompter.Ask(ctx, name, c.cfg.Resolver.HasLast())
	if res.Kind == prompt.Cancelled {
		c.cfg.Log.Debug().Str("game", name).Msg("prompt cancelled")
		return
	}

	out := c.cfg.Resolver.Resolve(ctx, game, resolver.Input{
		Text:       res.Text,
		RepeatLast: res.Kind == prompt.SubmittedLast,
	})
	if ctx.Err() != nil {
		// Shutting down: the outcome is discarded and no surface is built.
		c.cfg.Log.Debug().Msg("discarding outcome: controller stopping")
		return
	}

	c.cfg.Log.Debug().Stringer("outcome", out.Kind).Str("game", name).Msg("resolved")
	switch out.Kind {
	case resolver.KindNoOp:
		c.notify(out.Message)
	case resolver.KindFailure:
		if out.FailKind == resolver.FailMalformedURL {
			c.notify(out.Message)
			return
		}
		c.display(ctx, func(s Surface) { s.ShowFailure(out.Message) })
	case resolver.KindNavigate:
		c.display(ctx, func(s Surface) { s.Navigate(out.URL) })
	case resolver.KindAnswer:
		c.display(ctx, func(s Surface) { s.ShowAnswer(name, out.Answer) })
	}
}

// display replaces any open popup with a fresh surface and hands it the
// outcome. The old popup is closed synchronously before the new one opens.
func (c *Controller) display(ctx context.Context, show func(Surface)) {
	if err := c.cfg.Warmer.Ensure(ctx); err != nil {
		c.cfg.Log.Warn().Err(err).Msg("continuing without finished warm-up")
	}

	c.mu.Lock()
	if c.current != nil {
		c.teardownLocked(c.current)
	}
	geom := c.cfg.Store.PopupGeometry()
	c.mu.Unlock()

	surface, err := c.cfg.Factory.New(geom)
	if err != nil {
		c.cfg.Log.Error().Err(err).Msg("creating popup surface")
		c.notify(fmt.Sprintf("Could not open the popup: %v", err))
		return
	}
	surface.SetOnClosed(c.onSurfaceClosed)

	c.mu.Lock()
	c.current = surface
	c.mu.Unlock()

	show(surface)
}

// onSurfaceClosed handles a user-initiated close: persist the final
// geometry, then clear the slot. Both happen under the lock so the next
// activation never sees a half-torn-down popup.
func (c *Controller) onSurfaceClosed(geom models.PopupConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Store.SavePopupGeometry(geom)
	c.current = nil
}

// teardownLocked closes a surface from the controller side. The close
// callback is detached first so the geometry is persisted exactly once.
func (c *Controller) teardownLocked(s Surface) {
	c.cfg.Store.SavePopupGeometry(s.Geometry())
	s.SetOnClosed(nil)
	s.Close()
	c.current = nil
}

func (c *Controller) notify(message string) {
	if c.cfg.Notifier != nil {
		c.cfg.Notifier.Notify("GameFloaty", message)
	}
	c.cfg.Log.Info().Msg(message)
}

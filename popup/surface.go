// Package popup owns the single content-popup slot: the rendering surface
// contract, the shared-environment warm-up, and the activation controller
// that drives one hotkey press from window title to displayed content.
package popup

import (
	"context"
	"sync"

	"github.com/RyanRen-Tamar/GameFloaty/models"
	"github.com/rs/zerolog"
)

// Surface is one content popup. Implementations render pages, agent answers
// and failure text inside the app's single floating content window.
type Surface interface {
	// Navigate loads a page. The surface shows its loading overlay until the
	// navigation completes.
	Navigate(url string)
	// ShowAnswer renders an agent answer under the given heading.
	ShowAnswer(title, text string)
	// ShowFailure renders an error message with error styling.
	ShowFailure(message string)
	// Geometry reports the current window placement.
	Geometry() models.PopupConfig
	// SetGeometry moves and resizes the window.
	SetGeometry(models.PopupConfig)
	// Raise restores the window from a minimized state and focuses it.
	Raise()
	// Close destroys the window and releases its rendering resources.
	Close()
	// SetOnClosed registers the callback invoked with the final geometry
	// when the window closes. A nil callback detaches it.
	SetOnClosed(func(models.PopupConfig))
}

// Factory creates surfaces on the shared rendering environment.
type Factory interface {
	// Prepare initializes the shared environment. Safe to call more than
	// once; later calls are no-ops.
	Prepare(ctx context.Context) error
	// New creates a hidden surface with the given placement.
	New(geom models.PopupConfig) (Surface, error)
}

// Warmer runs Factory.Prepare exactly once. Start kicks it off in the
// background at process start; Ensure performs or awaits the same
// initialization when a popup is requested first.
type Warmer struct {
	factory Factory
	log     zerolog.Logger

	once  sync.Once
	ready chan struct{}
	err   error
}

// NewWarmer wraps the factory's one-time initialization.
func NewWarmer(factory Factory, log zerolog.Logger) *Warmer {
	return &Warmer{
		factory: factory,
		log:     log,
		ready:   make(chan struct{}),
	}
}

// Start warms the environment asynchronously without blocking the caller.
func (w *Warmer) Start(ctx context.Context) {
	go w.run(ctx)
}

// Ensure performs the warm-up if it has not happened yet, or waits for the
// in-flight one, and reports its result.
func (w *Warmer) Ensure(ctx context.Context) error {
	w.run(ctx)
	select {
	case <-w.ready:
		return w.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready is closed once the warm-up finished, successfully or not.
func (w *Warmer) Ready() <-chan struct{} {
	return w.ready
}

func (w *Warmer) run(ctx context.Context) {
	w.once.Do(func() {
		w.log.Debug().Msg("warming rendering environment")
		w.err = w.factory.Prepare(ctx)
		if w.err != nil {
			w.log.Warn().Err(w.err).Msg("rendering environment warm-up failed")
		}
		close(w.ready)
	})
}

package ui

import (
	"context"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/RyanRen-Tamar/GameFloaty/models"
	"github.com/RyanRen-Tamar/GameFloaty/popup"
	"github.com/RyanRen-Tamar/GameFloaty/wiki"
)

// SurfaceFactory builds ContentWindows on a shared wiki reader.
type SurfaceFactory struct {
	app fyne.App
	log zerolog.Logger

	mu     sync.Mutex
	reader *wiki.Reader
}

// NewSurfaceFactory creates the factory used by the popup controller.
func NewSurfaceFactory(app fyne.App, log zerolog.Logger) *SurfaceFactory {
	return &SurfaceFactory{app: app, log: log}
}

// Prepare sets up the shared fetch environment. Later calls are no-ops.
func (f *SurfaceFactory) Prepare(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reader == nil {
		f.reader = wiki.NewReader(f.log)
	}
	return nil
}

// New creates a content window at the given placement and shows it with the
// loading overlay up.
func (f *SurfaceFactory) New(geom models.PopupConfig) (popup.Surface, error) {
	f.mu.Lock()
	reader := f.reader
	f.mu.Unlock()
	if reader == nil {
		return nil, fmt.Errorf("rendering environment not prepared")
	}
	return newContentWindow(f.app, reader, geom, f.log), nil
}

// ContentWindow is the single content popup: a reader-mode page view with a
// loading overlay, agent-answer rendering and failure banners.
type ContentWindow struct {
	win    fyne.Window
	reader *wiki.Reader
	log    zerolog.Logger

	titleLabel   *widget.Label
	sourceLabel  *widget.Label
	banner       *NoticeBanner
	body         *fyne.Container
	scroll       *container.Scroll
	overlay      *fyne.Container
	overlayLabel *widget.Label

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	geom     models.PopupConfig
	onClosed func(models.PopupConfig)
	closed   bool
	navSeq   int
}

func newContentWindow(app fyne.App, reader *wiki.Reader, geom models.PopupConfig, log zerolog.Logger) *ContentWindow {
	ctx, cancel := context.WithCancel(context.Background())
	cw := &ContentWindow{
		win:    app.NewWindow("GameFloaty"),
		reader: reader,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		geom:   geom,
	}

	cw.titleLabel = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	cw.titleLabel.Wrapping = fyne.TextWrapWord
	cw.sourceLabel = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Italic: true})
	cw.sourceLabel.Wrapping = fyne.TextWrapBreak

	cw.banner = NewNoticeBanner("", errorBannerColor)
	cw.banner.Hide()

	cw.body = container.NewVBox()
	cw.scroll = container.NewVScroll(cw.body)

	cw.overlayLabel = widget.NewLabelWithStyle("Loading...", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	overlayRect := canvas.NewRectangle(infoBannerColor)
	cw.overlay = container.NewStack(overlayRect, container.NewCenter(cw.overlayLabel))

	header := container.NewVBox(cw.titleLabel, cw.sourceLabel, cw.banner)
	content := container.NewBorder(header, nil, nil, nil, cw.scroll)
	cw.win.SetContent(container.NewStack(content, cw.overlay))

	cw.win.Resize(fyne.NewSize(float32(geom.Width), float32(geom.Height)))
	cw.win.SetOnClosed(cw.handleClosed)

	// Shown right away so the user gets feedback before the first page
	// finishes loading.
	cw.win.Show()
	return cw
}

// Navigate fetches a page and renders it. The loading overlay reappears on
// every call and hides again when the fetch finishes. A newer navigation
// supersedes the result of an older one.
func (cw *ContentWindow) Navigate(pageURL string) {
	cw.mu.Lock()
	if cw.closed {
		cw.mu.Unlock()
		return
	}
	cw.navSeq++
	seq := cw.navSeq
	cw.mu.Unlock()

	cw.snapshotGeometry()
	cw.showLoading("Loading " + pageURL)

	go func() {
		page, err := cw.reader.Fetch(cw.ctx, pageURL)

		cw.mu.Lock()
		stale := cw.closed || seq != cw.navSeq
		cw.mu.Unlock()
		if stale {
			return
		}

		if err != nil {
			cw.log.Warn().Err(err).Str("url", pageURL).Msg("navigation failed")
			cw.ShowFailure(fmt.Sprintf("Could not load %s: %v", pageURL, err))
			return
		}
		cw.renderPage(page)
	}()
}

// ShowAnswer renders an agent answer under the given heading.
func (cw *ContentWindow) ShowAnswer(title, text string) {
	answer := widget.NewLabel(text)
	answer.Wrapping = fyne.TextWrapWord

	cw.titleLabel.SetText(title)
	cw.sourceLabel.SetText("")
	cw.banner.Hide()
	cw.body.Objects = []fyne.CanvasObject{answer}
	cw.body.Refresh()
	cw.scroll.ScrollToTop()
	cw.hideLoading()
}

// ShowFailure renders an error message in the banner.
func (cw *ContentWindow) ShowFailure(message string) {
	cw.banner.SetBackground(errorBannerColor)
	cw.banner.SetText(message)
	cw.banner.Show()
	cw.body.Objects = nil
	cw.body.Refresh()
	cw.hideLoading()
}

// Geometry reports the current placement.
func (cw *ContentWindow) Geometry() models.PopupConfig {
	cw.snapshotGeometry()
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.geom
}

// SetGeometry resizes the window. Left and Top are kept in the persisted
// settings; the window manager decides actual placement.
func (cw *ContentWindow) SetGeometry(geom models.PopupConfig) {
	cw.mu.Lock()
	cw.geom = geom
	cw.mu.Unlock()
	cw.win.Resize(fyne.NewSize(float32(geom.Width), float32(geom.Height)))
}

// Raise brings the popup back to front.
func (cw *ContentWindow) Raise() {
	cw.win.Show()
	cw.win.RequestFocus()
}

// Close destroys the window and stops any in-flight fetch.
func (cw *ContentWindow) Close() {
	cw.snapshotGeometry()
	cw.win.Close()
}

// SetOnClosed registers the close callback.
func (cw *ContentWindow) SetOnClosed(fn func(models.PopupConfig)) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.onClosed = fn
}

// renderPage fills the body with readable text and same-site links. Links
// navigate within this window; nothing ever spawns a second one.
func (cw *ContentWindow) renderPage(page *wiki.Page) {
	objects := make([]fyne.CanvasObject, 0, len(page.Paragraphs)+len(page.Links)+1)
	for _, para := range page.Paragraphs {
		label := widget.NewLabel(para)
		label.Wrapping = fyne.TextWrapWord
		objects = append(objects, label)
	}
	if len(page.Links) > 0 {
		objects = append(objects, widget.NewSeparator())
		for _, link := range page.Links {
			target := link.URL
			btn := widget.NewButton(link.Text, func() { cw.Navigate(target) })
			btn.Importance = widget.LowImportance
			btn.Alignment = widget.ButtonAlignLeading
			objects = append(objects, btn)
		}
	}

	cw.titleLabel.SetText(page.Title)
	cw.sourceLabel.SetText(page.URL)
	cw.banner.Hide()
	cw.body.Objects = objects
	cw.body.Refresh()
	cw.scroll.ScrollToTop()
	cw.hideLoading()
}

func (cw *ContentWindow) showLoading(message string) {
	cw.banner.Hide()
	cw.overlayLabel.SetText(message)
	cw.overlay.Show()
	cw.overlay.Refresh()
}

func (cw *ContentWindow) hideLoading() {
	cw.overlay.Hide()
}

// snapshotGeometry folds the live canvas size into the stored geometry.
func (cw *ContentWindow) snapshotGeometry() {
	c := cw.win.Canvas()
	if c == nil {
		return
	}
	size := c.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	cw.mu.Lock()
	cw.geom.Width = float64(size.Width)
	cw.geom.Height = float64(size.Height)
	cw.mu.Unlock()
}

func (cw *ContentWindow) handleClosed() {
	cw.snapshotGeometry()
	cw.cancel()
	cw.mu.Lock()
	if cw.closed {
		cw.mu.Unlock()
		return
	}
	cw.closed = true
	fn := cw.onClosed
	geom := cw.geom
	cw.mu.Unlock()

	if fn != nil {
		fn(geom)
	}
}

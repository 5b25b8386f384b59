package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Banner colors for the content popup notices.
var (
	errorBannerColor = color.NRGBA{R: 0x7f, G: 0x1d, B: 0x1d, A: 0xff}
	infoBannerColor  = color.NRGBA{R: 0x1e, G: 0x3a, B: 0x5f, A: 0xff}
)

// NoticeBanner is a wrapped text strip over a solid background, used for
// failure and status notices inside the content popup.
type NoticeBanner struct {
	widget.BaseWidget
	text    string
	bgColor color.Color
	label   *widget.Label
	bgRect  *canvas.Rectangle
	box     *fyne.Container
}

// NewNoticeBanner creates a banner with the given text and background.
func NewNoticeBanner(text string, bgColor color.Color) *NoticeBanner {
	b := &NoticeBanner{text: text, bgColor: bgColor}
	b.ExtendBaseWidget(b)
	return b
}

// CreateRenderer implements fyne.Widget
func (b *NoticeBanner) CreateRenderer() fyne.WidgetRenderer {
	b.label = widget.NewLabel(b.text)
	b.label.Wrapping = fyne.TextWrapWord

	b.bgRect = canvas.NewRectangle(b.bgColor)

	b.box = container.NewStack(b.bgRect, b.label)

	return &noticeBannerRenderer{
		banner: b,
		box:    b.box,
		bgRect: b.bgRect,
		label:  b.label,
	}
}

// SetText updates the banner text.
func (b *NoticeBanner) SetText(text string) {
	b.text = text
	if b.label != nil {
		b.label.SetText(text)
	}
}

// SetBackground updates the banner background color.
func (b *NoticeBanner) SetBackground(bgColor color.Color) {
	b.bgColor = bgColor
	if b.bgRect != nil {
		b.bgRect.FillColor = bgColor
		b.bgRect.Refresh()
	}
}

// noticeBannerRenderer implements fyne.WidgetRenderer
type noticeBannerRenderer struct {
	banner *NoticeBanner
	box    *fyne.Container
	bgRect *canvas.Rectangle
	label  *widget.Label
}

func (r *noticeBannerRenderer) MinSize() fyne.Size {
	return r.box.MinSize()
}

func (r *noticeBannerRenderer) Layout(size fyne.Size) {
	r.box.Resize(size)
}

func (r *noticeBannerRenderer) Refresh() {
	r.label.SetText(r.banner.text)
	r.bgRect.FillColor = r.banner.bgColor
	r.bgRect.Refresh()
}

func (r *noticeBannerRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.box}
}

func (r *noticeBannerRenderer) Destroy() {
	// Nothing to destroy
}

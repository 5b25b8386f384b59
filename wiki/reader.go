// Package wiki fetches configured sites and distills pages into readable
// text for the content popup. It also probes a site's title and favicon for
// the settings editor.
package wiki

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	// Decoders for the favicon formats wikis actually serve.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const (
	maxParagraphs = 150
	maxLinks      = 60
	maxIconBytes  = 1 << 20
)

// Link is an outgoing same-site link found on a page.
type Link struct {
	Text string
	URL  string
}

// Page is the readable distillation of one fetched page.
type Page struct {
	URL        string
	Title      string
	Paragraphs []string
	Links      []Link
}

// SiteInfo describes a probed wiki site.
type SiteInfo struct {
	Title   string
	IconURL string
	// Icon is nil when the favicon could not be fetched or decoded.
	Icon image.Image
}

// Reader fetches and parses pages over HTTP.
type Reader struct {
	client *http.Client
	log    zerolog.Logger
}

// NewReader builds a reader with a bounded-timeout HTTP client.
func NewReader(log zerolog.Logger) *Reader {
	return &Reader{
		client: &http.Client{Timeout: 20 * time.Second},
		log:    log,
	}
}

// Fetch loads a page and extracts its title, readable text and same-site
// links. The returned URL reflects redirects.
func (r *Reader) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	doc, finalURL, err := r.document(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return extract(doc, finalURL), nil
}

// Probe fetches a site's landing page and favicon. Favicon problems are not
// errors; the returned SiteInfo just carries a nil Icon.
func (r *Reader) Probe(ctx context.Context, baseURL string) (*SiteInfo, error) {
	doc, finalURL, err := r.document(ctx, baseURL)
	if err != nil {
		return nil, err
	}

	info := &SiteInfo{
		Title: normalizeSpace(doc.Find("title").First().Text()),
	}

	iconHref := "/favicon.ico"
	if href, ok := doc.Find(`link[rel="icon"], link[rel="shortcut icon"], link[rel="apple-touch-icon"]`).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		iconHref = strings.TrimSpace(href)
	}
	if iconURL, err := url.Parse(iconHref); err == nil {
		info.IconURL = finalURL.ResolveReference(iconURL).String()
	}

	if info.IconURL != "" {
		icon, err := r.fetchIcon(ctx, info.IconURL)
		if err != nil {
			r.log.Debug().Err(err).Str("url", info.IconURL).Msg("favicon unavailable")
		} else {
			info.Icon = icon
		}
	}
	return info, nil
}

// document GETs a page and parses it, returning the post-redirect URL.
func (r *Reader) document(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing page: %w", err)
	}
	return doc, resp.Request.URL, nil
}

func (r *Reader) fetchIcon(ctx context.Context, iconURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, iconURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching favicon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("favicon returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIconBytes))
	if err != nil {
		return nil, fmt.Errorf("reading favicon: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding favicon: %w", err)
	}
	return img, nil
}

// extract pulls the readable parts out of a parsed document. Navigation,
// script and style subtrees are dropped; text comes from the main content
// container when one exists, the whole body otherwise.
func extract(doc *goquery.Document, base *url.URL) *Page {
	page := &Page{URL: base.String()}

	page.Title = normalizeSpace(doc.Find("title").First().Text())
	if h1 := normalizeSpace(doc.Find("h1").First().Text()); h1 != "" {
		page.Title = h1
	}

	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	root := doc.Find("main, article, #content, #mw-content-text, .mw-parser-output").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	root.Find("h2, h3, p, li, dd").Each(func(_ int, s *goquery.Selection) {
		if len(page.Paragraphs) >= maxParagraphs {
			return
		}
		if text := normalizeSpace(s.Text()); text != "" {
			page.Paragraphs = append(page.Paragraphs, text)
		}
	})

	seen := make(map[string]bool)
	root.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if len(page.Links) >= maxLinks {
			return
		}
		text := normalizeSpace(s.Text())
		if text == "" {
			return
		}
		href, _ := s.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		// Cross-site links would leave the popup's reader surface.
		if abs.Host != base.Host {
			return
		}
		abs.Fragment = ""
		target := abs.String()
		if target == page.URL || seen[target] {
			return
		}
		seen[target] = true
		page.Links = append(page.Links, Link{Text: text, URL: target})
	})

	return page
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

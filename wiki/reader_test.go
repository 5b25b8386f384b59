package wiki_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RyanRen-Tamar/GameFloaty/wiki"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Moonlight Greatsword - Test Wiki</title>
  <link rel="icon" href="/img/favicon.png">
</head>
<body>
  <nav><a href="/random">Random page</a></nav>
  <header><p>Site chrome</p></header>
  <div id="content">
    <h1>Moonlight Greatsword</h1>
    <p>A sword of pale moonlight.</p>
    <h2>Location</h2>
    <p>Found after   defeating
       the boss.</p>
    <ul>
      <li>Scales with Intelligence</li>
      <li>Weighs 10</li>
    </ul>
    <p><a href="/wiki/Boss">the boss</a></p>
    <p><a href="https://elsewhere.example/wiki/External">external page</a></p>
    <p><a href="#notes">jump to notes</a></p>
    <p><a href="mailto:editor@example.com">mail the editor</a></p>
    <p><a href="/wiki/Boss">the boss again</a></p>
  </div>
  <script>var tracker = 1;</script>
  <footer><p>Footer boilerplate</p></footer>
</body>
</html>`

const landingHTML = `<!DOCTYPE html>
<html>
<head><title>Test Wiki</title><link rel="icon" href="/img/favicon.png"></head>
<body><h1>Welcome</h1></body>
</html>`

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func newWikiServer(t *testing.T) *httptest.Server {
	t.Helper()
	icon := pngBytes(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/Moonlight", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articleHTML))
	})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/wiki/Moonlight", http.StatusFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(landingHTML))
	})
	mux.HandleFunc("/img/favicon.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(icon)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestReaderFetchExtractsArticle(t *testing.T) {
	srv := newWikiServer(t)
	r := wiki.NewReader(zerolog.Nop())

	page, err := r.Fetch(context.Background(), srv.URL+"/wiki/Moonlight")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/wiki/Moonlight", page.URL)
	assert.Equal(t, "Moonlight Greatsword", page.Title, "h1 beats the document title")

	assert.Contains(t, page.Paragraphs, "A sword of pale moonlight.")
	assert.Contains(t, page.Paragraphs, "Location")
	assert.Contains(t, page.Paragraphs, "Found after defeating the boss.", "whitespace is normalized")
	assert.Contains(t, page.Paragraphs, "Scales with Intelligence")

	for _, p := range page.Paragraphs {
		assert.NotContains(t, p, "Site chrome")
		assert.NotContains(t, p, "Footer boilerplate")
		assert.NotContains(t, p, "tracker")
	}
}

func TestReaderFetchKeepsSameSiteLinksOnly(t *testing.T) {
	srv := newWikiServer(t)
	r := wiki.NewReader(zerolog.Nop())

	page, err := r.Fetch(context.Background(), srv.URL+"/wiki/Moonlight")
	require.NoError(t, err)

	require.Len(t, page.Links, 1, "external, mailto, fragment and duplicate links are dropped")
	assert.Equal(t, "the boss", page.Links[0].Text)
	assert.Equal(t, srv.URL+"/wiki/Boss", page.Links[0].URL)
}

func TestReaderFetchFollowsRedirects(t *testing.T) {
	srv := newWikiServer(t)
	r := wiki.NewReader(zerolog.Nop())

	page, err := r.Fetch(context.Background(), srv.URL+"/old")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/wiki/Moonlight", page.URL, "URL reflects the redirect target")
}

func TestReaderFetchBadStatus(t *testing.T) {
	srv := newWikiServer(t)
	r := wiki.NewReader(zerolog.Nop())

	_, err := r.Fetch(context.Background(), srv.URL+"/wiki/Missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestProbeReadsTitleAndFavicon(t *testing.T) {
	srv := newWikiServer(t)
	r := wiki.NewReader(zerolog.Nop())

	info, err := r.Probe(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Test Wiki", info.Title)
	assert.Equal(t, srv.URL+"/img/favicon.png", info.IconURL)
	require.NotNil(t, info.Icon)
	assert.Equal(t, 2, info.Icon.Bounds().Dx())
}

func TestProbeSurvivesMissingFavicon(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><head><title>Bare Wiki</title></head><body></body></html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	r := wiki.NewReader(zerolog.Nop())

	info, err := r.Probe(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Bare Wiki", info.Title)
	assert.Equal(t, srv.URL+"/favicon.ico", info.IconURL)
	assert.Nil(t, info.Icon)
}

package popup

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/RyanRen-Tamar/GameFloaty/models"
	"github.com/RyanRen-Tamar/GameFloaty/prompt"
	"github.com/RyanRen-Tamar/GameFloaty/resolver"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct {
	mu        sync.Mutex
	geom      models.PopupConfig
	navigated []string
	answers   []string
	failures  []string
	raised    int
	closed    bool
	onClosed  func(models.PopupConfig)
}

func (s *fakeSurface) Navigate(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigated = append(s.navigated, url)
}

func (s *fakeSurface) ShowAnswer(title, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, title+": "+text)
}

func (s *fakeSurface) ShowFailure(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, message)
}

func (s *fakeSurface) Geometry() models.PopupConfig     { return s.geom }
func (s *fakeSurface) SetGeometry(g models.PopupConfig) { s.geom = g }

func (s *fakeSurface) Raise() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raised++
}

func (s *fakeSurface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSurface) SetOnClosed(fn func(models.PopupConfig)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClosed = fn
}

type fakeFactory struct {
	mu         sync.Mutex
	prepared   int
	made       []*fakeSurface
	newErr     error
	prepareErr error
}

func (f *fakeFactory) Prepare(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepared++
	return f.prepareErr
}

func (f *fakeFactory) New(geom models.PopupConfig) (Surface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.newErr != nil {
		return nil, f.newErr
	}
	s := &fakeSurface{geom: geom}
	f.made = append(f.made, s)
	return s, nil
}

func (f *fakeFactory) surfaces() []*fakeSurface {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeSurface(nil), f.made...)
}

type scriptedPrompter struct {
	mu      sync.Mutex
	results []prompt.Result
	asked   int
	games   []string
	hasLast []bool
	entered chan struct{}
	release chan struct{}
}

func (p *scriptedPrompter) Ask(ctx context.Context, game string, hasLast bool) prompt.Result {
	p.mu.Lock()
	p.asked++
	p.games = append(p.games, game)
	p.hasLast = append(p.hasLast, hasLast)
	var r prompt.Result
	if len(p.results) > 0 {
		r = p.results[0]
		p.results = p.results[1:]
	}
	entered, release := p.entered, p.release
	p.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return r
}

func (p *scriptedPrompter) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.asked
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Notify(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, message)
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

type fakeStore struct {
	mu    sync.Mutex
	geom  models.PopupConfig
	saved []models.PopupConfig
}

func (s *fakeStore) PopupGeometry() models.PopupConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.geom
}

func (s *fakeStore) SavePopupGeometry(g models.PopupConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geom = g
	s.saved = append(s.saved, g)
}

type stubTitles struct {
	title string
	err   error
}

func (s stubTitles) ActiveTitle() (string, error) { return s.title, s.err }

func testLibrary(name string, cfg *models.GameConfig) *models.GameLibrary {
	lib := models.NewGameLibrary()
	lib.Add(name, cfg)
	return lib
}

func newTestController(title string, lib *models.GameLibrary, p Prompter) (*Controller, *fakeFactory, *recordingNotifier, *fakeStore) {
	f := &fakeFactory{}
	n := &recordingNotifier{}
	st := &fakeStore{geom: models.PopupConfig{Width: 640, Height: 480, Left: 10, Top: 20}}
	c := NewController(ControllerConfig{
		Library:  func() *models.GameLibrary { return lib },
		Titles:   stubTitles{title: title},
		Resolver: resolver.New(nil, "", zerolog.Nop()),
		Factory:  f,
		Warmer:   NewWarmer(f, zerolog.Nop()),
		Prompter: p,
		Notifier: n,
		Store:    st,
		Log:      zerolog.Nop(),
	})
	c.raiseCursor = func() {}
	return c, f, n, st
}

func TestCycleUnsupportedGame(t *testing.T) {
	lib := testLibrary("elden ring", &models.GameConfig{BaseURL: "https://wiki.test"})
	p := &scriptedPrompter{}
	c, f, n, _ := newTestController("Solitaire", lib, p)

	c.cycle(context.Background())

	assert.Zero(t, p.calls(), "prompt must not open for an unmatched title")
	assert.Empty(t, f.surfaces())
	require.Len(t, n.messages(), 1)
	assert.Contains(t, n.messages()[0], "Solitaire")
}

func TestCycleEmptyTitle(t *testing.T) {
	lib := testLibrary("elden ring", &models.GameConfig{BaseURL: "https://wiki.test"})
	c, f, n, _ := newTestController("   ", lib, &scriptedPrompter{})

	c.cycle(context.Background())

	assert.Empty(t, f.surfaces())
	require.Len(t, n.messages(), 1)
	assert.Contains(t, n.messages()[0], "No active window title")
}

func TestCycleNavigateOpensSurface(t *testing.T) {
	lib := testLibrary("elden ring", &models.GameConfig{BaseURL: "https://wiki.test"})
	p := &scriptedPrompter{results: []prompt.Result{{Kind: prompt.Submitted, Text: "runes"}}}
	c, f, _, st := newTestController("Elden Ring - 1.0", lib, p)

	c.cycle(context.Background())

	surfaces := f.surfaces()
	require.Len(t, surfaces, 1)
	assert.Equal(t, st.PopupGeometry(), surfaces[0].geom, "surface starts at persisted geometry")
	require.Len(t, surfaces[0].navigated, 1)
	assert.Equal(t, "https://wiki.test/runes", surfaces[0].navigated[0])
	assert.True(t, c.HasOpen())
	assert.Equal(t, 1, f.prepared, "warm-up runs exactly once")
}

func TestCycleReplacesOpenPopup(t *testing.T) {
	lib := testLibrary("elden ring", &models.GameConfig{BaseURL: "https://wiki.test"})
	p := &scriptedPrompter{results: []prompt.Result{
		{Kind: prompt.Submitted, Text: "runes"},
		{Kind: prompt.Submitted, Text: "bosses"},
	}}
	c, f, _, st := newTestController("Elden Ring", lib, p)

	c.cycle(context.Background())
	first := f.surfaces()[0]
	first.SetGeometry(models.PopupConfig{Width: 900, Height: 500, Left: 1, Top: 2})

	c.cycle(context.Background())

	surfaces := f.surfaces()
	require.Len(t, surfaces, 2)
	assert.True(t, first.closed, "old popup is closed before the new one opens")
	assert.Nil(t, first.onClosed, "controller-side close detaches the callback")
	assert.Contains(t, st.saved, first.geom, "old geometry persisted on replace")
	assert.Equal(t, first.geom, surfaces[1].geom, "new surface reuses the persisted geometry")
	assert.Equal(t, []bool{false, true}, p.hasLast, "repeat-last offered once a URL exists")
	assert.True(t, c.HasOpen())
}

func TestPersistentOverlayBypass(t *testing.T) {
	cfg := &models.GameConfig{BaseURL: "https://wiki.test", PersistentOverlay: true}
	lib := testLibrary("counter-strike", cfg)
	p := &scriptedPrompter{results: []prompt.Result{{Kind: prompt.Submitted, Text: "smokes"}}}
	c, f, _, _ := newTestController("Counter-Strike 2", lib, p)
	cursorForced := 0
	c.raiseCursor = func() { cursorForced++ }

	c.cycle(context.Background())
	require.True(t, c.HasOpen())

	c.cycle(context.Background())

	surfaces := f.surfaces()
	require.Len(t, surfaces, 1, "bypass must not build a second surface")
	assert.Equal(t, 1, surfaces[0].raised)
	assert.Equal(t, 1, cursorForced)
	assert.Equal(t, 1, p.calls(), "bypass skips the prompt")
}

func TestPersistentOverlayWithoutOpenPopupRunsPipeline(t *testing.T) {
	cfg := &models.GameConfig{BaseURL: "https://wiki.test", PersistentOverlay: true}
	lib := testLibrary("valorant", cfg)
	p := &scriptedPrompter{results: []prompt.Result{{Kind: prompt.Submitted, Text: "agents"}}}
	c, f, _, _ := newTestController("VALORANT", lib, p)

	c.cycle(context.Background())

	assert.Equal(t, 1, p.calls())
	assert.Len(t, f.surfaces(), 1)
}

func TestUserClosePersistsGeometryAndClearsSlot(t *testing.T) {
	lib := testLibrary("elden ring", &models.GameConfig{BaseURL: "https://wiki.test"})
	p := &scriptedPrompter{results: []prompt.Result{
		{Kind: prompt.Submitted, Text: "runes"},
		{Kind: prompt.Submitted, Text: "bosses"},
	}}
	c, f, _, st := newTestController("Elden Ring", lib, p)

	c.cycle(context.Background())
	first := f.surfaces()[0]
	moved := models.PopupConfig{Width: 1024, Height: 700, Left: 5, Top: 6}
	require.NotNil(t, first.onClosed)
	first.onClosed(moved)

	assert.False(t, c.HasOpen(), "slot cleared after user close")
	require.NotEmpty(t, st.saved)
	assert.Equal(t, moved, st.saved[len(st.saved)-1])

	c.cycle(context.Background())
	surfaces := f.surfaces()
	require.Len(t, surfaces, 2)
	assert.Equal(t, moved, surfaces[1].geom, "next popup opens at the closed geometry")
}

func TestCancelledPromptEndsCycle(t *testing.T) {
	lib := testLibrary("elden ring", &models.GameConfig{BaseURL: "https://wiki.test"})
	p := &scriptedPrompter{results: []prompt.Result{{Kind: prompt.Cancelled}}}
	c, f, n, _ := newTestController("Elden Ring", lib, p)

	c.cycle(context.Background())

	assert.Empty(t, f.surfaces())
	assert.Empty(t, n.messages())
	assert.False(t, c.HasOpen())
}

func TestMalformedDestinationNotifiesWithoutPopup(t *testing.T) {
	needs := false
	lib := testLibrary("broken", &models.GameConfig{BaseURL: "not a url", NeedsSearch: &needs})
	p := &scriptedPrompter{results: []prompt.Result{{Kind: prompt.Submitted, Text: "x"}}}
	c, f, n, _ := newTestController("Broken Game", lib, p)

	c.cycle(context.Background())

	assert.Empty(t, f.surfaces(), "malformed URLs never open a popup")
	require.Len(t, n.messages(), 1)
	assert.Contains(t, n.messages()[0], "absolute URL")
}

func TestAgentFailureRendersInsidePopup(t *testing.T) {
	lib := testLibrary("helper", &models.GameConfig{BaseURL: "local", Mode: models.ModeAgent})
	p := &scriptedPrompter{results: []prompt.Result{{Kind: prompt.Submitted, Text: "how?"}}}
	c, f, _, _ := newTestController("Helper Game", lib, p)

	c.cycle(context.Background())

	surfaces := f.surfaces()
	require.Len(t, surfaces, 1)
	require.Len(t, surfaces[0].failures, 1)
	assert.Contains(t, surfaces[0].failures[0], "no agent backend")
}

func TestRepeatLastWithoutHistoryNotifies(t *testing.T) {
	lib := testLibrary("elden ring", &models.GameConfig{BaseURL: "https://wiki.test"})
	p := &scriptedPrompter{results: []prompt.Result{{Kind: prompt.SubmittedLast}}}
	c, f, n, _ := newTestController("Elden Ring", lib, p)

	c.cycle(context.Background())

	assert.Empty(t, f.surfaces())
	require.Len(t, n.messages(), 1)
	assert.Contains(t, n.messages()[0], "nothing to reopen")
}

func TestFactoryErrorNotifies(t *testing.T) {
	lib := testLibrary("elden ring", &models.GameConfig{BaseURL: "https://wiki.test"})
	p := &scriptedPrompter{results: []prompt.Result{{Kind: prompt.Submitted, Text: "runes"}}}
	c, f, n, _ := newTestController("Elden Ring", lib, p)
	f.newErr = errors.New("environment unavailable")

	c.cycle(context.Background())

	assert.False(t, c.HasOpen())
	require.Len(t, n.messages(), 1)
	assert.Contains(t, n.messages()[0], "environment unavailable")
}

func TestOutcomeDiscardedOnShutdown(t *testing.T) {
	lib := testLibrary("elden ring", &models.GameConfig{BaseURL: "https://wiki.test"})
	p := &scriptedPrompter{results: []prompt.Result{{Kind: prompt.Submitted, Text: "runes"}}}
	c, f, _, _ := newTestController("Elden Ring", lib, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.cycle(ctx)

	assert.Empty(t, f.surfaces(), "no surface is built while shutting down")
}

func TestActivationDroppedWhileBusy(t *testing.T) {
	lib := testLibrary("elden ring", &models.GameConfig{BaseURL: "https://wiki.test"})
	p := &scriptedPrompter{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c, _, _, _ := newTestController("Elden Ring", lib, p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	c.activations <- struct{}{}
	<-p.entered

	// The loop is parked inside the prompt; both of these must be dropped.
	c.Activate()
	c.Activate()
	close(p.release)

	c.activations <- struct{}{}
	<-p.entered

	cancel()
	assert.Equal(t, 2, p.calls(), "dropped activations never ran a cycle")
}

func TestCloseCurrentWithoutPopupIsSafe(t *testing.T) {
	lib := testLibrary("elden ring", &models.GameConfig{BaseURL: "https://wiki.test"})
	c, _, _, st := newTestController("Elden Ring", lib, &scriptedPrompter{})

	c.CloseCurrent()

	assert.Empty(t, st.saved)
}

func TestCloseCurrentTearsDownOpenPopup(t *testing.T) {
	lib := testLibrary("elden ring", &models.GameConfig{BaseURL: "https://wiki.test"})
	p := &scriptedPrompter{results: []prompt.Result{{Kind: prompt.Submitted, Text: "runes"}}}
	c, f, _, st := newTestController("Elden Ring", lib, p)

	c.cycle(context.Background())
	require.True(t, c.HasOpen())

	c.CloseCurrent()

	assert.False(t, c.HasOpen())
	assert.True(t, f.surfaces()[0].closed)
	assert.NotEmpty(t, st.saved)
}

func TestWarmerRunsPrepareOnce(t *testing.T) {
	f := &fakeFactory{}
	w := NewWarmer(f, zerolog.Nop())

	w.Start(context.Background())
	require.NoError(t, w.Ensure(context.Background()))
	require.NoError(t, w.Ensure(context.Background()))

	assert.Equal(t, 1, f.prepared)
}

func TestWarmerEnsureWithoutStart(t *testing.T) {
	f := &fakeFactory{}
	w := NewWarmer(f, zerolog.Nop())

	require.NoError(t, w.Ensure(context.Background()))
	assert.Equal(t, 1, f.prepared)

	select {
	case <-w.Ready():
	default:
		t.Fatal("Ready must be closed after Ensure")
	}
}

func TestWarmerPropagatesPrepareError(t *testing.T) {
	f := &fakeFactory{prepareErr: errors.New("no display")}
	w := NewWarmer(f, zerolog.Nop())

	err := w.Ensure(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no display")
}

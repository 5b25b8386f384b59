// Package app wires storage, hotkey, resolver, popup controller and the
// fyne shell into the running application.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/rs/zerolog"

	"github.com/RyanRen-Tamar/GameFloaty/agent"
	"github.com/RyanRen-Tamar/GameFloaty/hotkey"
	"github.com/RyanRen-Tamar/GameFloaty/models"
	"github.com/RyanRen-Tamar/GameFloaty/popup"
	"github.com/RyanRen-Tamar/GameFloaty/resolver"
	"github.com/RyanRen-Tamar/GameFloaty/storage"
	"github.com/RyanRen-Tamar/GameFloaty/ui"
	"github.com/RyanRen-Tamar/GameFloaty/wiki"
	"github.com/RyanRen-Tamar/GameFloaty/window"
)

// App owns the long-lived pieces and the shutdown order.
type App struct {
	fyneApp fyne.App
	log     zerolog.Logger
	store   *storage.Manager
	reader  *wiki.Reader

	hk         *hotkey.Manager
	resolver   *resolver.Resolver
	controller *popup.Controller
	notifier   *ui.Notifier
	prompter   *ui.PromptWindow
	settingsUI *ui.SettingsWindow
	tray       *ui.Tray

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	settings  *models.Settings
	library   *models.GameLibrary
	stopWatch func()
}

// New builds the application around a fresh fyne instance.
func New(log zerolog.Logger) *App {
	fa := fyneapp.New()
	fa.SetIcon(theme.SearchIcon())

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		fyneApp: fa,
		log:     log,
		store:   storage.NewManager(log),
		reader:  wiki.NewReader(log),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Run starts every component and blocks in the fyne event loop until Quit.
func (a *App) Run() {
	a.settings = a.store.LoadSettings()
	if err := a.store.EnsureDefaultGames(); err != nil {
		a.log.Warn().Err(err).Msg("seeding starter games.json")
	}

	a.notifier = ui.NewNotifier(a.fyneApp, a.log)
	a.reloadLibrary()

	factory := ui.NewSurfaceFactory(a.fyneApp, a.log)
	warmer := popup.NewWarmer(factory, a.log)
	warmer.Start(a.ctx)

	a.resolver = resolver.New(a.agentClient(a.settings), agentUserID(a.settings), a.log)
	a.prompter = ui.NewPromptWindow(a.fyneApp, a.log)

	a.controller = popup.NewController(popup.ControllerConfig{
		Library:  a.Library,
		Titles:   window.NewTitleSource(),
		Resolver: a.resolver,
		Factory:  factory,
		Warmer:   warmer,
		Prompter: a.prompter,
		Notifier: a.notifier,
		Store:    a,
		Log:      a.log,
	})
	go a.controller.Run(a.ctx)

	a.hk = hotkey.NewManager(a.log)
	if err := a.hk.Register(a.settings.Hotkey, a.controller.Activate); err != nil {
		a.log.Error().Err(err).Str("hotkey", a.settings.Hotkey.String()).Msg("hotkey registration failed")
		a.notifier.Notify("GameFloaty",
			fmt.Sprintf("Hotkey %s could not be registered: %v. Use the tray menu instead.",
				a.settings.Hotkey.String(), err))
	}

	if stop, err := a.store.WatchGames(a.reloadLibrary); err != nil {
		a.log.Warn().Err(err).Msg("games.json watcher unavailable")
	} else {
		a.stopWatch = stop
	}

	a.settingsUI = ui.NewSettingsWindow(a.fyneApp, ui.SettingsCallbacks{
		Settings:     a.Settings,
		Library:      a.Library,
		SaveSettings: a.applySettings,
		SaveLibrary:  a.applyLibrary,
		Probe:        a.reader.Probe,
	}, a.log)

	a.tray = ui.SetupTray(a.fyneApp, a.settings.Hotkey.String(),
		a.controller.Activate,
		a.settingsUI.Show,
		a.Quit,
	)

	a.log.Info().
		Str("hotkey", a.settings.Hotkey.String()).
		Int("games", a.Library().Len()).
		Str("data", a.store.DataPath()).
		Msg("gamefloaty running")
	a.fyneApp.Run()
}

// Quit tears everything down: popup geometry is persisted, the hotkey is
// unregistered and the watcher stopped before the event loop exits.
func (a *App) Quit() {
	a.log.Info().Msg("shutting down")
	a.cancel()

	if a.controller != nil {
		a.controller.CloseCurrent()
	}
	if a.hk != nil {
		a.hk.Close()
	}

	a.mu.Lock()
	stop := a.stopWatch
	a.stopWatch = nil
	settings := a.settings.Clone()
	a.mu.Unlock()
	if stop != nil {
		stop()
	}
	if err := a.store.SaveSettings(settings); err != nil {
		a.log.Warn().Err(err).Msg("saving settings on quit")
	}

	a.fyneApp.Quit()
}

// Settings returns the live settings. Editors clone before mutating.
func (a *App) Settings() *models.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// Library returns the current game library.
func (a *App) Library() *models.GameLibrary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.library
}

// PopupGeometry implements popup.GeometryStore.
func (a *App) PopupGeometry() models.PopupConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings.Popup
}

// SavePopupGeometry implements popup.GeometryStore. Geometry changes are
// flushed to settings.json immediately so a crash cannot lose them.
func (a *App) SavePopupGeometry(geom models.PopupConfig) {
	a.mu.Lock()
	a.settings.Popup = geom
	settings := a.settings.Clone()
	a.mu.Unlock()

	if err := a.store.SaveSettings(settings); err != nil {
		a.log.Warn().Err(err).Msg("persisting popup geometry")
	}
}

// applySettings persists new settings and applies them to the running
// components. The hotkey is rebound and the agent client swapped in place.
func (a *App) applySettings(next *models.Settings) error {
	if err := a.store.SaveSettings(next); err != nil {
		return err
	}

	a.mu.Lock()
	a.settings = next
	a.mu.Unlock()

	a.resolver.SetAgent(a.agentClient(next))
	a.tray.UpdateHotkey(next.Hotkey.String())

	if err := a.hk.Register(next.Hotkey, a.controller.Activate); err != nil {
		return fmt.Errorf("settings saved, but the hotkey could not be bound: %w", err)
	}
	a.log.Info().Str("hotkey", next.Hotkey.String()).Msg("settings applied")
	return nil
}

// applyLibrary persists an edited library and makes it the active one.
func (a *App) applyLibrary(lib *models.GameLibrary) error {
	if err := a.store.SaveGameConfigs(lib); err != nil {
		return err
	}

	a.mu.Lock()
	a.library = lib
	a.mu.Unlock()

	a.log.Info().Int("games", lib.Len()).Msg("game library updated")
	return nil
}

// reloadLibrary reads games.json from disk, degrading to an empty library
// with a notice when the file is missing or unparsable.
func (a *App) reloadLibrary() {
	lib, err := a.store.LoadGameConfigs()
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConfigMissing):
			a.notifier.Notify("GameFloaty", "games.json is missing; no games are configured.")
		case errors.Is(err, storage.ErrConfigParse):
			a.notifier.Notify("GameFloaty", "games.json could not be parsed; no games are configured.")
		}
		a.log.Warn().Err(err).Msg("loading game configs")
	}

	a.mu.Lock()
	a.library = lib
	a.mu.Unlock()

	a.log.Debug().Int("games", lib.Len()).Msg("game library loaded")
}

// agentClient builds the collaborator client for the current settings, or
// nil when none is configured.
func (a *App) agentClient(settings *models.Settings) agent.Client {
	if settings.Agent == nil {
		return nil
	}
	client, err := agent.New(settings.Agent)
	if err != nil {
		if !errors.Is(err, agent.ErrNoClient) {
			a.log.Warn().Err(err).Msg("agent backend unavailable")
		}
		return nil
	}
	a.log.Info().Str("backend", client.Name()).Msg("agent backend ready")
	return client
}

func agentUserID(settings *models.Settings) string {
	if settings.Agent == nil {
		return ""
	}
	return settings.Agent.UserID
}

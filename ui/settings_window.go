package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog"

	"github.com/RyanRen-Tamar/GameFloaty/models"
	"github.com/RyanRen-Tamar/GameFloaty/wiki"
)

// SettingsCallbacks connects the settings editor to the running app.
type SettingsCallbacks struct {
	// Settings returns the current settings snapshot.
	Settings func() *models.Settings
	// Library returns the live game library.
	Library func() *models.GameLibrary
	// SaveSettings persists settings and applies them (hotkey rebind,
	// agent client swap).
	SaveSettings func(*models.Settings) error
	// SaveLibrary persists and activates an edited library.
	SaveLibrary func(*models.GameLibrary) error
	// Probe checks a wiki base URL, returning its title and favicon.
	Probe func(ctx context.Context, baseURL string) (*wiki.SiteInfo, error)
}

// SettingsWindow is the tray-opened editor for hotkey, popup, agent and
// game configuration. One instance exists; Show refocuses an open one.
type SettingsWindow struct {
	app fyne.App
	cb  SettingsCallbacks
	log zerolog.Logger

	win      fyne.Window
	lib      *models.GameLibrary
	gameList *widget.List
	selected int
}

// NewSettingsWindow builds the editor shell.
func NewSettingsWindow(app fyne.App, cb SettingsCallbacks, log zerolog.Logger) *SettingsWindow {
	return &SettingsWindow{app: app, cb: cb, log: log, selected: -1}
}

// Show opens the settings window, or refocuses it when already open.
func (s *SettingsWindow) Show() {
	if s.win != nil {
		s.win.Show()
		s.win.RequestFocus()
		return
	}

	s.lib = s.cb.Library().Clone()
	s.selected = -1

	win := s.app.NewWindow("GameFloaty Settings")
	s.win = win

	tabs := container.NewAppTabs(
		container.NewTabItem("General", s.generalTab()),
		container.NewTabItem("Games", s.gamesTab()),
	)
	win.SetContent(tabs)
	win.Resize(fyne.NewSize(680, 520))
	win.SetOnClosed(func() {
		s.win = nil
		s.gameList = nil
	})
	win.Show()
}

// generalTab edits the hotkey, popup geometry and agent settings.
func (s *SettingsWindow) generalTab() fyne.CanvasObject {
	settings := s.cb.Settings().Clone()

	keyEntry := widget.NewEntry()
	keyEntry.SetText(settings.Hotkey.Key)
	keyEntry.SetPlaceHolder("F1")

	has := func(mod string) bool {
		for _, m := range settings.Hotkey.Modifiers {
			if strings.EqualFold(m, mod) {
				return true
			}
		}
		return false
	}
	ctrlCheck := widget.NewCheck(models.ModCtrl, nil)
	ctrlCheck.SetChecked(has(models.ModCtrl))
	shiftCheck := widget.NewCheck(models.ModShift, nil)
	shiftCheck.SetChecked(has(models.ModShift))
	altCheck := widget.NewCheck(models.ModAlt, nil)
	altCheck.SetChecked(has(models.ModAlt))
	winCheck := widget.NewCheck(models.ModWin, nil)
	winCheck.SetChecked(has(models.ModWin))

	widthEntry := newFloatEntry(settings.Popup.Width)
	heightEntry := newFloatEntry(settings.Popup.Height)
	leftEntry := newFloatEntry(settings.Popup.Left)
	topEntry := newFloatEntry(settings.Popup.Top)

	endpointEntry := widget.NewEntry()
	endpointEntry.SetPlaceHolder("http://localhost:8000/ask")
	userEntry := widget.NewEntry()
	providerEntry := widget.NewEntry()
	providerEntry.SetPlaceHolder("openai, anthropic, ollama...")
	modelEntry := widget.NewEntry()

	agentFields := []*widget.Entry{endpointEntry, userEntry, providerEntry, modelEntry}
	agentCheck := widget.NewCheck("Ask an AI collaborator for agent-mode games", func(on bool) {
		for _, e := range agentFields {
			if on {
				e.Enable()
			} else {
				e.Disable()
			}
		}
	})
	if settings.Agent != nil {
		agentCheck.SetChecked(true)
		endpointEntry.SetText(settings.Agent.Endpoint)
		userEntry.SetText(settings.Agent.UserID)
		providerEntry.SetText(settings.Agent.Provider)
		modelEntry.SetText(settings.Agent.Model)
	} else {
		for _, e := range agentFields {
			e.Disable()
		}
	}

	saveBtn := widget.NewButton("Save Settings", func() {
		next := &models.Settings{}

		next.Hotkey.Key = strings.TrimSpace(keyEntry.Text)
		for _, mod := range []struct {
			check *widget.Check
			name  string
		}{
			{ctrlCheck, models.ModCtrl},
			{shiftCheck, models.ModShift},
			{altCheck, models.ModAlt},
			{winCheck, models.ModWin},
		} {
			if mod.check.Checked {
				next.Hotkey.Modifiers = append(next.Hotkey.Modifiers, mod.name)
			}
		}

		var err error
		if next.Popup, err = readGeometry(widthEntry, heightEntry, leftEntry, topEntry); err != nil {
			dialog.ShowError(err, s.win)
			return
		}

		if agentCheck.Checked {
			next.Agent = &models.AgentConfig{
				Endpoint: strings.TrimSpace(endpointEntry.Text),
				UserID:   strings.TrimSpace(userEntry.Text),
				Provider: strings.TrimSpace(providerEntry.Text),
				Model:    strings.TrimSpace(modelEntry.Text),
			}
		}

		if err := next.Validate(); err != nil {
			dialog.ShowError(err, s.win)
			return
		}
		if err := s.cb.SaveSettings(next); err != nil {
			dialog.ShowError(err, s.win)
			return
		}
		dialog.ShowInformation("Settings Saved",
			fmt.Sprintf("Hotkey is now %s.", next.Hotkey.String()), s.win)
	})

	hotkeyForm := widget.NewForm(
		widget.NewFormItem("Key", keyEntry),
		widget.NewFormItem("Modifiers", container.NewHBox(ctrlCheck, shiftCheck, altCheck, winCheck)),
	)
	popupForm := widget.NewForm(
		widget.NewFormItem("Width", widthEntry),
		widget.NewFormItem("Height", heightEntry),
		widget.NewFormItem("Left", leftEntry),
		widget.NewFormItem("Top", topEntry),
	)
	agentForm := widget.NewForm(
		widget.NewFormItem("Endpoint", endpointEntry),
		widget.NewFormItem("User ID", userEntry),
		widget.NewFormItem("Provider", providerEntry),
		widget.NewFormItem("Model", modelEntry),
	)

	return container.NewVScroll(container.NewVBox(
		widget.NewLabelWithStyle("Hotkey", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		hotkeyForm,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Popup", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		popupForm,
		widget.NewSeparator(),
		agentCheck,
		agentForm,
		widget.NewSeparator(),
		saveBtn,
	))
}

// gamesTab lists configured games with add, edit, delete, probe and
// import/export actions.
func (s *SettingsWindow) gamesTab() fyne.CanvasObject {
	s.gameList = widget.NewList(
		func() int { return s.lib.Len() },
		func() fyne.CanvasObject {
			name := widget.NewLabelWithStyle("name", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
			detail := widget.NewLabel("detail")
			return container.NewHBox(name, detail)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			names := s.lib.Names()
			if int(id) >= len(names) {
				return
			}
			cfg, _ := s.lib.Get(names[id])
			row := obj.(*fyne.Container)
			row.Objects[0].(*widget.Label).SetText(names[id])
			row.Objects[1].(*widget.Label).SetText(summarizeConfig(cfg))
		},
	)
	s.gameList.OnSelected = func(id widget.ListItemID) { s.selected = int(id) }

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentAddIcon(), func() {
			s.editGame("", nil)
		}),
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() {
			name, cfg, ok := s.selectedConfig()
			if !ok {
				return
			}
			s.editGame(name, cfg)
		}),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			s.deleteSelected()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.SearchIcon(), func() {
			_, cfg, ok := s.selectedConfig()
			if !ok {
				return
			}
			s.probeSite(cfg.BaseURL)
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.FolderOpenIcon(), func() {
			s.importGames()
		}),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			s.exportGames()
		}),
	)

	return container.NewBorder(toolbar, nil, nil, nil, s.gameList)
}

func (s *SettingsWindow) selectedConfig() (string, *models.GameConfig, bool) {
	names := s.lib.Names()
	if s.selected < 0 || s.selected >= len(names) {
		dialog.ShowInformation("No Selection", "Select a game first.", s.win)
		return "", nil, false
	}
	cfg, _ := s.lib.Get(names[s.selected])
	return names[s.selected], cfg, true
}

// editGame shows the add/edit form. An empty name means a new entry.
func (s *SettingsWindow) editGame(name string, cfg *models.GameConfig) {
	isNew := name == ""
	if cfg == nil {
		cfg = &models.GameConfig{}
	}

	nameEntry := widget.NewEntry()
	nameEntry.SetText(name)
	nameEntry.SetPlaceHolder("Window title substring, e.g. Elden Ring")

	urlEntry := widget.NewEntry()
	urlEntry.SetText(cfg.BaseURL)
	urlEntry.SetPlaceHolder("https://wiki.example.com")

	searchCheck := widget.NewCheck("Prompt for a search keyword", nil)
	searchCheck.SetChecked(cfg.Searching())

	templateEntry := widget.NewEntry()
	templateEntry.SetText(cfg.SearchTemplate)
	templateEntry.SetPlaceHolder(models.DefaultSearchTemplate)

	modeSelect := widget.NewSelect([]string{models.ModeWiki, models.ModeAgent}, nil)
	modeSelect.SetSelected(cfg.ResolverMode())

	persistentCheck := widget.NewCheck("Keep the popup open across activations", nil)
	persistentCheck.SetChecked(cfg.PersistentOverlay)

	keywordEntry := widget.NewMultiLineEntry()
	keywordEntry.SetText(formatKeywordLines(cfg.KeywordMap))
	keywordEntry.SetPlaceHolder("belts = Transport_belt")

	testBtn := widget.NewButton("Test Site", func() {
		s.probeSite(urlEntry.Text)
	})

	formTitle := "Edit Game"
	if isNew {
		formTitle = "Add Game"
	}
	form := dialog.NewForm(formTitle, "Save", "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Name", nameEntry),
			widget.NewFormItem("Wiki URL", container.NewBorder(nil, nil, nil, testBtn, urlEntry)),
			widget.NewFormItem("", searchCheck),
			widget.NewFormItem("Template", templateEntry),
			widget.NewFormItem("Mode", modeSelect),
			widget.NewFormItem("", persistentCheck),
			widget.NewFormItem("Keywords", keywordEntry),
		},
		func(confirm bool) {
			if !confirm {
				return
			}

			newName := strings.TrimSpace(nameEntry.Text)
			if newName == "" {
				dialog.ShowError(fmt.Errorf("a window title substring is required"), s.win)
				return
			}

			next := &models.GameConfig{
				BaseURL:           strings.TrimSpace(urlEntry.Text),
				SearchTemplate:    strings.TrimSpace(templateEntry.Text),
				KeywordMap:        parseKeywordLines(keywordEntry.Text),
				PersistentOverlay: persistentCheck.Checked,
			}
			if !searchCheck.Checked {
				needs := false
				next.NeedsSearch = &needs
			}
			if modeSelect.Selected == models.ModeAgent {
				next.Mode = models.ModeAgent
			}

			if err := next.Validate(); err != nil {
				dialog.ShowError(err, s.win)
				return
			}

			if !isNew && newName != name {
				s.lib.Remove(name)
			}
			s.lib.Add(newName, next)
			s.persistLibrary()
		},
		s.win)
	form.Resize(fyne.NewSize(560, 440))
	form.Show()
}

func (s *SettingsWindow) deleteSelected() {
	name, _, ok := s.selectedConfig()
	if !ok {
		return
	}
	dialog.ShowConfirm("Delete Game",
		fmt.Sprintf("Remove %q from the library?", name),
		func(confirm bool) {
			if !confirm {
				return
			}
			s.lib.Remove(name)
			s.selected = -1
			s.persistLibrary()
		},
		s.win)
}

// probeSite checks a wiki URL off the UI path and shows title plus favicon.
func (s *SettingsWindow) probeSite(baseURL string) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		dialog.ShowInformation("No URL", "Enter a wiki URL first.", s.win)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		info, err := s.cb.Probe(ctx, baseURL)
		if err != nil {
			dialog.ShowError(fmt.Errorf("site check failed: %w", err), s.win)
			return
		}

		content := container.NewVBox(
			widget.NewLabelWithStyle(info.Title, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		)
		if info.Icon != nil {
			icon := canvas.NewImageFromImage(info.Icon)
			icon.FillMode = canvas.ImageFillContain
			icon.SetMinSize(fyne.NewSize(32, 32))
			content.Add(icon)
		}
		content.Add(widget.NewLabel(info.IconURL))
		dialog.ShowCustom("Site Check", "Close", content, s.win)
	}()
}

// importGames replaces the library with the contents of a chosen JSON file.
func (s *SettingsWindow) importGames() {
	go func() {
		path, err := s.pickFile(false)
		if err != nil {
			dialog.ShowError(err, s.win)
			return
		}
		if path == "" {
			return
		}

		data, err := os.ReadFile(path)
		if err != nil {
			dialog.ShowError(fmt.Errorf("reading %s: %w", path, err), s.win)
			return
		}
		lib, issues, err := models.ParseGameLibrary(data)
		if err != nil {
			dialog.ShowError(fmt.Errorf("parsing %s: %w", path, err), s.win)
			return
		}
		for _, issue := range issues {
			s.log.Warn().Str("entry", issue.Name).Err(issue.Err).Msg("import skipped entry")
		}

		s.lib = lib
		s.selected = -1
		s.persistLibrary()

		summary := fmt.Sprintf("Imported %d games.", lib.Len())
		if len(issues) > 0 {
			summary += fmt.Sprintf(" Skipped %d invalid entries.", len(issues))
		}
		dialog.ShowInformation("Import Complete", summary, s.win)
	}()
}

// exportGames writes the current library to a chosen JSON file.
func (s *SettingsWindow) exportGames() {
	go func() {
		path, err := s.pickFile(true)
		if err != nil {
			dialog.ShowError(err, s.win)
			return
		}
		if path == "" {
			return
		}

		data, err := json.MarshalIndent(s.lib, "", "  ")
		if err != nil {
			dialog.ShowError(fmt.Errorf("encoding games: %w", err), s.win)
			return
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			dialog.ShowError(fmt.Errorf("writing %s: %w", path, err), s.win)
			return
		}
		dialog.ShowInformation("Export Complete",
			fmt.Sprintf("Wrote %d games to %s.", s.lib.Len(), path), s.win)
	}()
}

// pickFile opens a native file dialog, preferring zenity and falling back
// to the Fyne dialog when it is unavailable.
func (s *SettingsWindow) pickFile(save bool) (string, error) {
	if zenity.IsAvailable() {
		filters := zenity.FileFilters{
			{Name: "JSON files", Patterns: []string{"*.json"}},
			{Name: "All files", Patterns: []string{"*"}},
		}
		var (
			filename string
			err      error
		)
		if save {
			filename, err = zenity.SelectFileSave(
				zenity.Title("Export Games"),
				zenity.Filename("games.json"),
				zenity.ConfirmOverwrite(),
				filters,
			)
		} else {
			filename, err = zenity.SelectFile(
				zenity.Title("Import Games"),
				filters,
			)
		}
		if err != nil {
			if err == zenity.ErrCanceled {
				return "", nil
			}
			return s.pickFyneFile(save)
		}
		return filename, nil
	}
	return s.pickFyneFile(save)
}

// pickFyneFile is the toolkit fallback. The dialog callback feeds a channel
// so callers keep a synchronous shape; never call this on the event thread.
func (s *SettingsWindow) pickFyneFile(save bool) (string, error) {
	resultChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	if save {
		fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
			if err != nil {
				errorChan <- err
				return
			}
			if writer == nil {
				resultChan <- ""
				return
			}
			defer writer.Close()
			resultChan <- writer.URI().Path()
		}, s.win)
		fileDialog.SetFileName("games.json")
		fileDialog.Show()
	} else {
		fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil {
				errorChan <- err
				return
			}
			if reader == nil {
				resultChan <- ""
				return
			}
			defer reader.Close()
			resultChan <- reader.URI().Path()
		}, s.win)
		fileDialog.Show()
	}

	select {
	case filename := <-resultChan:
		return filename, nil
	case err := <-errorChan:
		return "", err
	}
}

func (s *SettingsWindow) persistLibrary() {
	if err := s.cb.SaveLibrary(s.lib); err != nil {
		dialog.ShowError(err, s.win)
		return
	}
	if s.gameList != nil {
		s.gameList.Refresh()
	}
}

func newFloatEntry(value float64) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(strconv.FormatFloat(value, 'f', -1, 64))
	return e
}

func readGeometry(width, height, left, top *widget.Entry) (models.PopupConfig, error) {
	parse := func(label string, e *widget.Entry) (float64, error) {
		v, err := strconv.ParseFloat(strings.TrimSpace(e.Text), 64)
		if err != nil {
			return 0, fmt.Errorf("popup %s must be a number", label)
		}
		return v, nil
	}

	var (
		geom models.PopupConfig
		err  error
	)
	if geom.Width, err = parse("width", width); err != nil {
		return geom, err
	}
	if geom.Height, err = parse("height", height); err != nil {
		return geom, err
	}
	if geom.Left, err = parse("left", left); err != nil {
		return geom, err
	}
	if geom.Top, err = parse("top", top); err != nil {
		return geom, err
	}
	return geom, nil
}

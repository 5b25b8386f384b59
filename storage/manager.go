package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RyanRen-Tamar/GameFloaty/models"
	"github.com/rs/zerolog"
)

// Classified load failures. Callers show a notice and keep running; the
// returned library is always usable.
var (
	ErrConfigMissing = errors.New("games config file missing")
	ErrConfigParse   = errors.New("games config file malformed")
)

//go:embed settings.default.json
var defaultSettingsJSON []byte

//go:embed games.default.json
var defaultGamesJSON []byte

// Manager handles persistence of settings and game configs under the user
// data directory.
type Manager struct {
	dataPath string
	log      zerolog.Logger
}

// NewManager creates a storage manager rooted at ~/.gamefloaty.
func NewManager(log zerolog.Logger) *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	dataPath := filepath.Join(homeDir, ".gamefloaty")
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		// Fallback to current directory
		dataPath = "."
	}

	return &Manager{dataPath: dataPath, log: log}
}

// NewManagerAt creates a storage manager rooted at an explicit directory.
func NewManagerAt(dataPath string, log zerolog.Logger) *Manager {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		dataPath = "."
	}
	return &Manager{dataPath: dataPath, log: log}
}

// DataPath returns the directory settings and configs are stored in.
func (m *Manager) DataPath() string {
	return m.dataPath
}

// SettingsPath returns the path of the user settings file.
func (m *Manager) SettingsPath() string {
	return filepath.Join(m.dataPath, "settings.json")
}

// GamesPath returns the path of the user game-config file.
func (m *Manager) GamesPath() string {
	return filepath.Join(m.dataPath, "games.json")
}

// LoadSettings loads user settings. It never fails: a corrupt file is
// overwritten with defaults, a missing file is seeded from the bundled
// template, and every fallback is persisted immediately so the next start
// finds a valid file.
func (m *Manager) LoadSettings() *models.Settings {
	path := m.SettingsPath()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		settings := &models.Settings{}
		loadErr := json.Unmarshal(data, settings)
		if loadErr == nil {
			loadErr = settings.Validate()
		}
		if loadErr == nil {
			return settings
		}
		m.log.Warn().Err(loadErr).Str("path", path).Msg("settings file corrupt, restoring defaults")

	case os.IsNotExist(err):
		if settings, ok := m.seedSettingsTemplate(path); ok {
			return settings
		}

	default:
		m.log.Warn().Err(err).Str("path", path).Msg("settings file unreadable, using defaults")
	}

	settings := models.DefaultSettings()
	if saveErr := m.SaveSettings(settings); saveErr != nil {
		m.log.Warn().Err(saveErr).Msg("could not persist default settings")
	}
	return settings
}

// seedSettingsTemplate copies the bundled template to the user path and
// loads it. Returns ok=false when the template itself cannot be used.
func (m *Manager) seedSettingsTemplate(path string) (*models.Settings, bool) {
	settings := &models.Settings{}
	if err := json.Unmarshal(defaultSettingsJSON, settings); err != nil {
		m.log.Warn().Err(err).Msg("bundled settings template unusable")
		return nil, false
	}
	if err := settings.Validate(); err != nil {
		m.log.Warn().Err(err).Msg("bundled settings template invalid")
		return nil, false
	}
	if err := os.WriteFile(path, defaultSettingsJSON, 0644); err != nil {
		m.log.Warn().Err(err).Str("path", path).Msg("could not seed settings from template")
		// The parsed template is still good; run with it.
	}
	m.log.Info().Str("path", path).Msg("settings seeded from bundled template")
	return settings, true
}

// SaveSettings serializes settings to the user path. Optional sections are
// omitted when unset. Failures are returned for the caller to report; they
// are never fatal.
func (m *Manager) SaveSettings(settings *models.Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(m.SettingsPath(), data, 0644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// EnsureDefaultGames writes the bundled starter games.json on first run so
// users have a file to edit. Existing files are never touched.
func (m *Manager) EnsureDefaultGames() error {
	path := m.GamesPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := os.WriteFile(path, defaultGamesJSON, 0644); err != nil {
		return fmt.Errorf("seeding starter games config: %w", err)
	}
	m.log.Info().Str("path", path).Msg("starter games config written")
	return nil
}

// LoadGameConfigs loads the game library. The returned library is always
// non-nil; a missing file yields an empty library with ErrConfigMissing and
// a malformed file yields an empty library with ErrConfigParse, so the app
// can show a notice and keep running. Entries that fail validation are
// skipped individually.
func (m *Manager) LoadGameConfigs() (*models.GameLibrary, error) {
	path := m.GamesPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			m.log.Warn().Str("path", path).Msg("games config not found")
			return models.NewGameLibrary(), fmt.Errorf("%w: %s", ErrConfigMissing, path)
		}
		m.log.Warn().Err(err).Str("path", path).Msg("games config unreadable")
		return models.NewGameLibrary(), fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	lib, issues, err := models.ParseGameLibrary(data)
	if err != nil {
		m.log.Warn().Err(err).Str("path", path).Msg("games config malformed")
		return models.NewGameLibrary(), fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	for _, issue := range issues {
		m.log.Warn().Err(issue.Err).Str("game", issue.Name).Msg("skipping invalid game config entry")
	}

	m.log.Debug().Int("games", lib.Len()).Str("path", path).Msg("game configs loaded")
	return lib, nil
}

// SaveGameConfigs writes the library back in insertion order, preserving
// bare-string shorthand entries.
func (m *Manager) SaveGameConfigs(lib *models.GameLibrary) error {
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding games config: %w", err)
	}
	if err := os.WriteFile(m.GamesPath(), data, 0644); err != nil {
		return fmt.Errorf("writing games config: %w", err)
	}
	return nil
}

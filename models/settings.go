package models

import (
	"fmt"
	"strings"
)

// Modifier names accepted in HotkeyConfig.Modifiers.
const (
	ModCtrl  = "Ctrl"
	ModShift = "Shift"
	ModAlt   = "Alt"
	ModWin   = "Win"
)

// HotkeyConfig is the persisted global-hotkey binding.
type HotkeyConfig struct {
	Key       string   `json:"Key"`
	Modifiers []string `json:"Modifiers"`
}

// String renders the binding in the usual Ctrl+F1 form.
func (h HotkeyConfig) String() string {
	if len(h.Modifiers) == 0 {
		return h.Key
	}
	return strings.Join(h.Modifiers, "+") + "+" + h.Key
}

// PopupConfig is the last-known content-window geometry. It is written on
// every popup close and read on every popup open.
type PopupConfig struct {
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
	Left   float64 `json:"Left"`
	Top    float64 `json:"Top"`
}

// AgentConfig selects the AI collaborator. When Endpoint is set the HTTP
// client is used; otherwise Provider/Model select a local LLM client.
type AgentConfig struct {
	Endpoint string `json:"Endpoint,omitempty"`
	UserID   string `json:"UserId,omitempty"`
	Provider string `json:"Provider,omitempty"`
	Model    string `json:"Model,omitempty"`
}

// Settings represents the persisted application settings.
type Settings struct {
	Hotkey HotkeyConfig `json:"Hotkey"`
	Popup  PopupConfig  `json:"Popup"`
	Agent  *AgentConfig `json:"Agent,omitempty"`
}

// DefaultSettings returns the hardcoded fallback settings.
func DefaultSettings() *Settings {
	return &Settings{
		Hotkey: HotkeyConfig{
			Key:       "F1",
			Modifiers: []string{ModCtrl},
		},
		Popup: PopupConfig{
			Width:  800,
			Height: 600,
			Left:   100,
			Top:    100,
		},
	}
}

// Validate checks the basic shape of loaded settings. A file that decodes
// but fails here is treated the same as a corrupt file.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Hotkey.Key) == "" {
		return fmt.Errorf("Hotkey.Key is required")
	}
	for _, m := range s.Hotkey.Modifiers {
		switch strings.ToLower(strings.TrimSpace(m)) {
		case "ctrl", "shift", "alt", "win":
		default:
			return fmt.Errorf("unknown hotkey modifier %q", m)
		}
	}
	if s.Popup.Width <= 0 || s.Popup.Height <= 0 {
		return fmt.Errorf("popup size must be positive, got %.0fx%.0f", s.Popup.Width, s.Popup.Height)
	}
	return nil
}

// Clone returns a deep copy so callers can mutate drafts without touching
// the live settings.
func (s *Settings) Clone() *Settings {
	out := &Settings{
		Hotkey: HotkeyConfig{Key: s.Hotkey.Key},
		Popup:  s.Popup,
	}
	if len(s.Hotkey.Modifiers) > 0 {
		out.Hotkey.Modifiers = append([]string(nil), s.Hotkey.Modifiers...)
	}
	if s.Agent != nil {
		agent := *s.Agent
		out.Agent = &agent
	}
	return out
}

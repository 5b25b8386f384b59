// Package hotkey owns the process-wide global hotkey registration and
// rebinding used to summon the overlay.
package hotkey

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/RyanRen-Tamar/GameFloaty/models"
	"github.com/rs/zerolog"
	"golang.design/x/hotkey"
)

// Returned by Parse for bindings that cannot be registered.
var (
	ErrUnknownKey      = errors.New("unknown hotkey key")
	ErrUnknownModifier = errors.New("unknown hotkey modifier")
)

var keyMap = map[string]hotkey.Key{
	"F1": hotkey.KeyF1, "F2": hotkey.KeyF2, "F3": hotkey.KeyF3, "F4": hotkey.KeyF4,
	"F5": hotkey.KeyF5, "F6": hotkey.KeyF6, "F7": hotkey.KeyF7, "F8": hotkey.KeyF8,
	"F9": hotkey.KeyF9, "F10": hotkey.KeyF10, "F11": hotkey.KeyF11, "F12": hotkey.KeyF12,
	"A": hotkey.KeyA, "B": hotkey.KeyB, "C": hotkey.KeyC, "D": hotkey.KeyD,
	"E": hotkey.KeyE, "F": hotkey.KeyF, "G": hotkey.KeyG, "H": hotkey.KeyH,
	"I": hotkey.KeyI, "J": hotkey.KeyJ, "K": hotkey.KeyK, "L": hotkey.KeyL,
	"M": hotkey.KeyM, "N": hotkey.KeyN, "O": hotkey.KeyO, "P": hotkey.KeyP,
	"Q": hotkey.KeyQ, "R": hotkey.KeyR, "S": hotkey.KeyS, "T": hotkey.KeyT,
	"U": hotkey.KeyU, "V": hotkey.KeyV, "W": hotkey.KeyW, "X": hotkey.KeyX,
	"Y": hotkey.KeyY, "Z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
}

// Parse converts a persisted binding into registration values. Modifier
// names are the portable ctrl/shift/alt/win set; the per-platform modMap
// translates them to what the OS actually exposes.
func Parse(cfg models.HotkeyConfig) ([]hotkey.Modifier, hotkey.Key, error) {
	var mods []hotkey.Modifier
	for _, mod := range cfg.Modifiers {
		m, ok := modMap[strings.ToLower(strings.TrimSpace(mod))]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %q", ErrUnknownModifier, mod)
		}
		mods = append(mods, m)
	}

	key, ok := keyMap[strings.ToUpper(strings.TrimSpace(cfg.Key))]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownKey, cfg.Key)
	}
	return mods, key, nil
}

// Manager registers one global hotkey and pumps its keydown events into a
// callback. Registering again replaces the binding in place.
type Manager struct {
	mu   sync.Mutex
	hk   *hotkey.Hotkey
	done chan struct{}
	log  zerolog.Logger
}

// NewManager creates an idle hotkey manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{log: log}
}

// Register binds the hotkey and starts delivering keydown events to fire.
// Any previous registration is released first.
func (m *Manager) Register(cfg models.HotkeyConfig, fire func()) error {
	mods, key, err := Parse(cfg)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.unregisterLocked()

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("registering %s: %w", cfg, err)
	}

	done := make(chan struct{})
	m.hk = hk
	m.done = done

	go func() {
		for {
			select {
			case <-done:
				return
			case _, ok := <-hk.Keydown():
				if !ok {
					return
				}
				fire()
			}
		}
	}()

	m.log.Info().Str("hotkey", cfg.String()).Msg("global hotkey registered")
	return nil
}

// Close releases the registration.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unregisterLocked()
}

func (m *Manager) unregisterLocked() {
	if m.hk == nil {
		return
	}
	close(m.done)
	if err := m.hk.Unregister(); err != nil {
		m.log.Warn().Err(err).Msg("hotkey unregister failed")
	}
	m.hk = nil
	m.done = nil
}

package ui

import (
	"sort"
	"strings"

	"github.com/RyanRen-Tamar/GameFloaty/models"
)

// parseKeywordLines reads "keyword = id" lines from the editor field.
// Blank lines and lines without a separator are ignored.
func parseKeywordLines(text string) map[string]string {
	var out map[string]string
	for _, line := range strings.Split(text, "\n") {
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[key] = value
	}
	return out
}

// formatKeywordLines renders a keyword map as sorted "keyword = id" lines.
func formatKeywordLines(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+" = "+m[k])
	}
	return strings.Join(lines, "\n")
}

// summarizeConfig builds the one-line description shown in the game list.
func summarizeConfig(cfg *models.GameConfig) string {
	if cfg == nil {
		return ""
	}
	if cfg.ResolverMode() == models.ModeAgent {
		return "agent mode"
	}
	parts := []string{cfg.BaseURL}
	if !cfg.Searching() {
		parts = append(parts, "direct")
	}
	if cfg.PersistentOverlay {
		parts = append(parts, "persistent")
	}
	return strings.Join(parts, " | ")
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Resolver modes selectable per game config.
const (
	ModeWiki  = "wiki"
	ModeAgent = "agent"
)

// DefaultSearchTemplate is applied when a searching config leaves its
// template blank.
const DefaultSearchTemplate = "{baseUrl}/{keyword}"

// GameConfig describes how queries for one recognized game are answered.
// In games.json an entry is either a full object or a bare string, which is
// shorthand for {BaseUrl: <string>} with searching enabled.
type GameConfig struct {
	BaseURL           string            `json:"BaseUrl"`
	NeedsSearch       *bool             `json:"NeedsSearch,omitempty"`
	SearchTemplate    string            `json:"SearchTemplate,omitempty"`
	KeywordMap        map[string]string `json:"KeywordMap,omitempty"`
	Mode              string            `json:"Mode,omitempty"`
	PersistentOverlay bool              `json:"PersistentOverlay,omitempty"`

	shorthand bool
}

// Searching reports whether queries should be gathered and substituted into
// the search template. Defaults to true when the field is absent.
func (c *GameConfig) Searching() bool {
	return c.NeedsSearch == nil || *c.NeedsSearch
}

// EffectiveTemplate returns the search template, falling back to
// DefaultSearchTemplate when none is set.
func (c *GameConfig) EffectiveTemplate() string {
	if strings.TrimSpace(c.SearchTemplate) == "" {
		return DefaultSearchTemplate
	}
	return c.SearchTemplate
}

// ResolverMode returns the configured mode, defaulting to ModeWiki.
func (c *GameConfig) ResolverMode() string {
	if c.Mode == "" {
		return ModeWiki
	}
	return c.Mode
}

// Validate checks that the config is usable. Wiki-mode configs need an
// absolute base URL; agent-mode configs only need a non-blank identifier.
func (c *GameConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("BaseUrl is required")
	}
	switch c.ResolverMode() {
	case ModeWiki:
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("BaseUrl is not a valid URL: %w", err)
		}
		if !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("BaseUrl must be an absolute URL, got %q", c.BaseURL)
		}
	case ModeAgent:
	default:
		return fmt.Errorf("unknown Mode %q", c.Mode)
	}
	return nil
}

// UnmarshalJSON accepts both the object form and the bare-string shorthand.
func (c *GameConfig) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var base string
		if err := json.Unmarshal(trimmed, &base); err != nil {
			return err
		}
		*c = GameConfig{BaseURL: base, shorthand: true}
		return nil
	}
	type plain GameConfig
	var full plain
	if err := json.Unmarshal(trimmed, &full); err != nil {
		return err
	}
	*c = GameConfig(full)
	return nil
}

// MarshalJSON writes shorthand entries back as bare strings so that editing
// the library does not rewrite entries the user authored compactly.
func (c *GameConfig) MarshalJSON() ([]byte, error) {
	if c.shorthand && c.NeedsSearch == nil && c.SearchTemplate == "" &&
		len(c.KeywordMap) == 0 && c.Mode == "" && !c.PersistentOverlay {
		return json.Marshal(c.BaseURL)
	}
	type plain GameConfig
	p := plain(*c)
	return json.Marshal(&p)
}

// EntryIssue reports a games.json entry that was skipped during parsing.
type EntryIssue struct {
	Name string
	Err  error
}

// GameLibrary holds game configs in the order they appear in games.json.
// Matching walks entries in insertion order, so earlier entries win when
// several keys occur in the same window title.
type GameLibrary struct {
	names   []string
	configs map[string]*GameConfig
}

// NewGameLibrary returns an empty library.
func NewGameLibrary() *GameLibrary {
	return &GameLibrary{configs: make(map[string]*GameConfig)}
}

// ParseGameLibrary decodes a games.json object preserving entry order.
// Entries that fail to decode or validate are skipped and reported as
// issues; a syntax error in the document itself is returned as err.
func ParseGameLibrary(data []byte) (*GameLibrary, []EntryIssue, error) {
	lib := NewGameLibrary()
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return lib, nil, fmt.Errorf("reading config object: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return lib, nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	var issues []EntryIssue
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return lib, issues, fmt.Errorf("reading config key: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return lib, issues, fmt.Errorf("expected a string key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return lib, issues, fmt.Errorf("reading entry %q: %w", name, err)
		}

		var cfg GameConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			issues = append(issues, EntryIssue{Name: name, Err: err})
			continue
		}
		if err := cfg.Validate(); err != nil {
			issues = append(issues, EntryIssue{Name: name, Err: err})
			continue
		}
		lib.Add(name, &cfg)
	}

	if _, err := dec.Token(); err != nil {
		return lib, issues, fmt.Errorf("reading config object end: %w", err)
	}
	return lib, issues, nil
}

// Add inserts or replaces a config. New names keep their insertion position
// at the end; replacing an existing name keeps its original position.
func (l *GameLibrary) Add(name string, cfg *GameConfig) {
	if l.configs == nil {
		l.configs = make(map[string]*GameConfig)
	}
	if _, exists := l.configs[name]; !exists {
		l.names = append(l.names, name)
	}
	l.configs[name] = cfg
}

// Remove deletes a config by name.
func (l *GameLibrary) Remove(name string) {
	if _, exists := l.configs[name]; !exists {
		return
	}
	delete(l.configs, name)
	for i, n := range l.names {
		if n == name {
			l.names = append(l.names[:i], l.names[i+1:]...)
			break
		}
	}
}

// Get returns the config stored under an exact name.
func (l *GameLibrary) Get(name string) (*GameConfig, bool) {
	cfg, ok := l.configs[name]
	return cfg, ok
}

// Names returns the entry names in insertion order.
func (l *GameLibrary) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Len returns the number of entries.
func (l *GameLibrary) Len() int {
	return len(l.names)
}

// Clone returns a deep copy that editors can mutate freely.
func (l *GameLibrary) Clone() *GameLibrary {
	out := NewGameLibrary()
	for _, name := range l.names {
		cfg := *l.configs[name]
		if cfg.KeywordMap != nil {
			km := make(map[string]string, len(cfg.KeywordMap))
			for k, v := range cfg.KeywordMap {
				km[k] = v
			}
			cfg.KeywordMap = km
		}
		out.Add(name, &cfg)
	}
	return out
}

// Match finds the first config whose name is contained in the window title,
// compared case-insensitively. An empty title never matches.
func (l *GameLibrary) Match(title string) (string, *GameConfig, bool) {
	if strings.TrimSpace(title) == "" {
		return "", nil, false
	}
	lowered := strings.ToLower(title)
	for _, name := range l.names {
		if strings.Contains(lowered, strings.ToLower(name)) {
			return name, l.configs[name], true
		}
	}
	return "", nil, false
}

// UnmarshalJSON decodes the library leniently, dropping any per-entry issues.
func (l *GameLibrary) UnmarshalJSON(data []byte) error {
	parsed, _, err := ParseGameLibrary(data)
	if err != nil {
		return err
	}
	*l = *parsed
	return nil
}

// MarshalJSON writes the library as a JSON object in insertion order.
func (l *GameLibrary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range l.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(l.configs[name])
		if err != nil {
			return nil, fmt.Errorf("encoding entry %q: %w", name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

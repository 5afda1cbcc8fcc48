package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrUnknownTheme is returned when a theme name is not in the catalog.
var ErrUnknownTheme = errors.New("unknown theme")

// Catalog holds the static theme definitions with a precomputed name index,
// so theme lookup never scans the full list per call.
type Catalog struct {
	themes []Theme
	byName map[string]*Theme
}

// Load reads and validates the theme catalog from a JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw JSON, enforcing the level-id invariant:
// ids within a theme are dense and contiguous starting at 0, in order.
func Parse(data []byte) (*Catalog, error) {
	var themes []Theme
	if err := json.Unmarshal(data, &themes); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(themes) == 0 {
		return nil, fmt.Errorf("catalog has no themes")
	}

	c := &Catalog{
		themes: themes,
		byName: make(map[string]*Theme, len(themes)),
	}
	for i := range themes {
		theme := &c.themes[i]
		if theme.Name == "" {
			return nil, fmt.Errorf("theme %d has no name", i)
		}
		if _, dup := c.byName[theme.Name]; dup {
			return nil, fmt.Errorf("duplicate theme %q", theme.Name)
		}
		if len(theme.Levels) == 0 {
			return nil, fmt.Errorf("theme %q has no levels", theme.Name)
		}
		for j, level := range theme.Levels {
			if level.ID != j {
				return nil, fmt.Errorf("theme %q: level at position %d has id %d, want %d", theme.Name, j, level.ID, j)
			}
			switch level.GameType {
			case GameTypeMCQ, GameTypeFIB:
			default:
				return nil, fmt.Errorf("theme %q level %d: unknown game type %q", theme.Name, level.ID, level.GameType)
			}
			if level.QuestionSetURL == "" {
				return nil, fmt.Errorf("theme %q level %d: missing question set URL", theme.Name, level.ID)
			}
		}
		c.byName[theme.Name] = theme
	}
	return c, nil
}

// Themes returns all themes in catalog order.
func (c *Catalog) Themes() []Theme {
	return c.themes
}

// Theme returns the theme by name.
func (c *Catalog) Theme(name string) (*Theme, bool) {
	theme, ok := c.byName[name]
	return theme, ok
}

// Level returns a theme's level by id.
func (c *Catalog) Level(themeName string, levelID int) (*Level, bool) {
	theme, ok := c.byName[themeName]
	if !ok {
		return nil, false
	}
	if levelID < 0 || levelID >= len(theme.Levels) {
		return nil, false
	}
	return &theme.Levels[levelID], true
}

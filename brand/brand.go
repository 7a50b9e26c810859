// Package brand describes the application's brand identity: a six-role
// color palette for each theme mode and four font roles.
//
// The base and background colors invert between the light and dark palettes
// (dark text on a light page, light text on a dark page). Base must reach a
// 4.5:1 contrast ratio against both background and neutral. These are
// authoring rules. Audit reports on them; nothing enforces them at runtime.
package brand

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Palette is the set of color roles for one theme mode. Values are CSS hex
// colors.
type Palette struct {
	// Base is the foreground for text, icons and borders.
	Base string `json:"base" yaml:"base"`
	// Accent is the primary brand color for buttons, links and active states.
	Accent string `json:"accent" yaml:"accent"`
	// Contrast is reserved for the few highest-priority calls to action.
	Contrast string `json:"contrast" yaml:"contrast"`
	// Secondary supports accent on tags, badges and secondary actions.
	Secondary string `json:"secondary" yaml:"secondary"`
	// Neutral is the surface color for cards, modals and menus.
	Neutral string `json:"neutral" yaml:"neutral"`
	// Background is the page canvas.
	Background string `json:"background" yaml:"background"`
}

// Typography assigns a font family to each text role.
type Typography struct {
	Logo      string `json:"logo" yaml:"logo"`
	Headers   string `json:"headers" yaml:"headers"`
	Primary   string `json:"primary" yaml:"primary"`
	Secondary string `json:"secondary" yaml:"secondary"`
}

// Config is the complete brand record.
type Config struct {
	Name       string     `json:"name" yaml:"name"`
	Tagline    string     `json:"tagline" yaml:"tagline"`
	Light      Palette    `json:"light" yaml:"light"`
	Dark       Palette    `json:"dark" yaml:"dark"`
	Typography Typography `json:"typography" yaml:"typography"`
}

var builtin = Config{
	Name:    "Vue Template",
	Tagline: "Modern Vue 3 Development",
	Light: Palette{
		Base:       "#1a1a2e",
		Accent:     "#6366f1",
		Contrast:   "#22d3ee",
		Secondary:  "#a855f7",
		Neutral:    "#f8fafc",
		Background: "#ffffff",
	},
	Dark: Palette{
		Base:       "#f1f5f9",
		Accent:     "#818cf8",
		Contrast:   "#22d3ee",
		Secondary:  "#c084fc",
		Neutral:    "#1e293b",
		Background: "#0f172a",
	},
	Typography: Typography{
		Logo:      "Bungee",
		Headers:   "Playfair Display SC",
		Primary:   "Source Sans Pro",
		Secondary: "Source Code Pro",
	},
}

// Default returns a copy of the built-in brand.
func Default() Config {
	return builtin
}

// PaletteFor returns the dark palette when dark is set, the light one
// otherwise.
func (c Config) PaletteFor(dark bool) Palette {
	if dark {
		return c.Dark
	}
	return c.Light
}

// Load reads a YAML brand file over the built-in brand; fields the file does
// not set keep their defaults. An empty path or a missing file yields
// Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read brand file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse brand file: %w", err)
	}
	return cfg, nil
}

package brand

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// MinTextContrast is the WCAG AA ratio for normal text.
const MinTextContrast = 4.5

// Finding is the outcome of one advisory check.
type Finding struct {
	Check  string  `json:"check"`
	Mode   string  `json:"mode,omitempty"`
	Ratio  float64 `json:"ratio,omitempty"`
	Min    float64 `json:"min,omitempty"`
	OK     bool    `json:"ok"`
	Detail string  `json:"detail,omitempty"`
}

// Audit runs the contrast and inversion checks over cfg. It never mutates
// cfg and is meant for design-time tooling.
func Audit(cfg Config) []Finding {
	var out []Finding
	for _, m := range []struct {
		name string
		p    Palette
	}{{"light", cfg.Light}, {"dark", cfg.Dark}} {
		out = append(out,
			contrastFinding("base-on-background", m.name, m.p.Base, m.p.Background),
			contrastFinding("base-on-neutral", m.name, m.p.Base, m.p.Neutral),
		)
	}
	out = append(out, inversionFinding(cfg))
	return out
}

// Passed reports whether every finding is OK.
func Passed(findings []Finding) bool {
	for _, f := range findings {
		if !f.OK {
			return false
		}
	}
	return true
}

// Luminance is the WCAG relative luminance of a hex color.
func Luminance(hex string) (float64, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0, fmt.Errorf("parse color %q: %w", hex, err)
	}
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b, nil
}

// ContrastRatio is the WCAG contrast ratio between two hex colors, from 1
// to 21.
func ContrastRatio(a, b string) (float64, error) {
	la, err := Luminance(a)
	if err != nil {
		return 0, err
	}
	lb, err := Luminance(b)
	if err != nil {
		return 0, err
	}
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05), nil
}

func contrastFinding(check, mode, fg, bg string) Finding {
	f := Finding{Check: check, Mode: mode, Min: MinTextContrast}
	ratio, err := ContrastRatio(fg, bg)
	if err != nil {
		f.Detail = err.Error()
		return f
	}
	f.Ratio = ratio
	f.OK = ratio >= MinTextContrast
	if !f.OK {
		f.Detail = fmt.Sprintf("%s on %s is %.2f:1", fg, bg, ratio)
	}
	return f
}

func inversionFinding(cfg Config) Finding {
	f := Finding{Check: "base-background-inversion"}

	lightBase, err1 := Luminance(cfg.Light.Base)
	lightBg, err2 := Luminance(cfg.Light.Background)
	darkBase, err3 := Luminance(cfg.Dark.Base)
	darkBg, err4 := Luminance(cfg.Dark.Background)
	for _, err := range []error{err1, err2, err3, err4} {
		if err != nil {
			f.Detail = err.Error()
			return f
		}
	}

	switch {
	case lightBase >= lightBg:
		f.Detail = "light base must be darker than light background"
	case darkBase <= darkBg:
		f.Detail = "dark base must be lighter than dark background"
	default:
		f.OK = true
	}
	return f
}

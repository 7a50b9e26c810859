package brand

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Width(12)
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// swatch prints hex on a block of its own color, lettered in the palette's
// base (or background, for the base swatch itself).
func swatch(p Palette, hex string) string {
	ink := p.Base
	if hex == p.Base {
		ink = p.Background
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ink)).
		Background(lipgloss.Color(hex)).
		Padding(0, 1).
		Render(hex)
}

func renderPalette(name string, p Palette) string {
	rows := []struct{ role, hex string }{
		{"base", p.Base},
		{"accent", p.Accent},
		{"contrast", p.Contrast},
		{"secondary", p.Secondary},
		{"neutral", p.Neutral},
		{"background", p.Background},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(name))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r.role))
		b.WriteString(swatch(p, r.hex))
		b.WriteString("\n")
	}
	return b.String()
}

// Render draws both palettes and the font roles for a terminal.
func Render(cfg Config) string {
	header := titleStyle.Render(cfg.Name)
	if cfg.Tagline != "" {
		header += " - " + cfg.Tagline
	}

	fonts := strings.Join([]string{
		labelStyle.Render("logo") + cfg.Typography.Logo,
		labelStyle.Render("headers") + cfg.Typography.Headers,
		labelStyle.Render("primary") + cfg.Typography.Primary,
		labelStyle.Render("secondary") + cfg.Typography.Secondary,
	}, "\n")

	palettes := lipgloss.JoinHorizontal(lipgloss.Top,
		renderPalette("light", cfg.Light),
		"    ",
		renderPalette("dark", cfg.Dark),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, "", palettes, titleStyle.Render("typography"), fonts) + "\n"
}

// RenderFindings formats audit results, one per line.
func RenderFindings(findings []Finding) string {
	var b strings.Builder
	for _, f := range findings {
		status := passStyle.Render("ok  ")
		if !f.OK {
			status = failStyle.Render("FAIL")
		}
		name := f.Check
		if f.Mode != "" {
			name = f.Mode + "/" + f.Check
		}
		line := fmt.Sprintf("%s %s", status, name)
		if f.Ratio > 0 {
			line += fmt.Sprintf(" %.2f:1 (min %.1f)", f.Ratio, f.Min)
		}
		if f.Detail != "" {
			line += " " + f.Detail
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

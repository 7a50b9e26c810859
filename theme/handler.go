package theme

import (
	"encoding/json"
	"net/http"
	"strings"

	"brandkit/brand"
	"brandkit/model"
)

// maxRequestBody caps the size of a mode change request.
const maxRequestBody = 4 << 10

// Handler handles theme-related HTTP requests.
type Handler struct {
	ctrl  *Controller
	brand brand.Config
}

// NewHandler creates a new theme handler.
func NewHandler(ctrl *Controller, cfg brand.Config) *Handler {
	return &Handler{
		ctrl:  ctrl,
		brand: cfg,
	}
}

// Register mounts the theme endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/theme", h.HandleTheme)
	mux.HandleFunc("/api/theme/toggle", h.HandleToggle)
	mux.HandleFunc("/api/theme.css", h.HandleCSS)
	mux.HandleFunc("/api/palette", h.HandlePalette)
	mux.HandleFunc("/api/brand", h.HandleBrand)
}

type setModeRequest struct {
	Mode string `json:"mode"`
}

// HandleTheme reports the active mode on GET and changes it on PUT or POST.
func (h *Handler) HandleTheme(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		model.WriteData(w, http.StatusOK, h.ctrl.State())

	case http.MethodPut, http.MethodPost:
		var req setModeRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			model.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}
		m, err := ParseMode(req.Mode)
		if err != nil {
			model.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.ctrl.SetMode(m); err != nil {
			model.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		model.WriteData(w, http.StatusOK, h.ctrl.State())

	default:
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodPut+", "+http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// HandleToggle flips the mode.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.ctrl.Toggle()
	model.WriteData(w, http.StatusOK, h.ctrl.State())
}

// HandleCSS serves the brand as CSS custom properties. The light palette and
// fonts sit on :root and the dark palette overrides colors under .dark.
func (h *Handler) HandleCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(BrandCSS(h.brand)))
}

// HandlePalette returns one palette. The mode query parameter picks it; when
// absent the active mode is used.
func (h *Handler) HandlePalette(w http.ResponseWriter, r *http.Request) {
	dark := h.ctrl.IsDark()
	if q := r.URL.Query().Get("mode"); q != "" {
		m, err := ParseMode(q)
		if err != nil {
			model.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		dark = m == Dark
	}
	model.WriteData(w, http.StatusOK, h.brand.PaletteFor(dark))
}

// HandleBrand returns the whole brand record.
func (h *Handler) HandleBrand(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	model.WriteData(w, http.StatusOK, h.brand)
}

// BrandCSS renders cfg as a stylesheet of --brand-* color and --font-*
// family variables.
func BrandCSS(cfg brand.Config) string {
	var b strings.Builder

	b.WriteString(":root{")
	writePaletteVars(&b, cfg.Light)
	writeVar(&b, "--font-logo", quoteFont(cfg.Typography.Logo))
	writeVar(&b, "--font-headers", quoteFont(cfg.Typography.Headers))
	writeVar(&b, "--font-primary", quoteFont(cfg.Typography.Primary))
	writeVar(&b, "--font-secondary", quoteFont(cfg.Typography.Secondary))
	b.WriteString("}\n")

	b.WriteString(".")
	b.WriteString(DarkClass)
	b.WriteString("{")
	writePaletteVars(&b, cfg.Dark)
	b.WriteString("}\n")

	return b.String()
}

func writePaletteVars(b *strings.Builder, p brand.Palette) {
	writeVar(b, "--brand-base", p.Base)
	writeVar(b, "--brand-accent", p.Accent)
	writeVar(b, "--brand-contrast", p.Contrast)
	writeVar(b, "--brand-secondary", p.Secondary)
	writeVar(b, "--brand-neutral", p.Neutral)
	writeVar(b, "--brand-background", p.Background)
}

func writeVar(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(name)
	b.WriteString(":")
	b.WriteString(value)
	b.WriteString(";")
}

func quoteFont(family string) string {
	if family == "" {
		return ""
	}
	return `"` + strings.ReplaceAll(family, `"`, ``) + `"`
}

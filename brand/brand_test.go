package brand

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultImmutability(t *testing.T) {
	t.Parallel()

	first := Default()
	first.Light.Base = "#000000"
	first.Typography.Logo = "Comic Sans"

	second := Default()
	if second.Light.Base != "#1a1a2e" {
		t.Fatalf("expected immutable brand, got light base %q", second.Light.Base)
	}
	if second.Typography.Logo != "Bungee" {
		t.Fatalf("expected immutable brand, got logo font %q", second.Typography.Logo)
	}
}

func TestPaletteFor(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if got := cfg.PaletteFor(true); got != cfg.Dark {
		t.Fatalf("PaletteFor(true) = %+v, want dark palette", got)
	}
	if got := cfg.PaletteFor(false); got != cfg.Light {
		t.Fatalf("PaletteFor(false) = %+v, want light palette", got)
	}
}

func TestContrastRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "black on white", a: "#000000", b: "#ffffff", want: 21},
		{name: "white on black", a: "#ffffff", b: "#000000", want: 21},
		{name: "same color", a: "#6366f1", b: "#6366f1", want: 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ContrastRatio(tt.a, tt.b)
			if err != nil {
				t.Fatalf("ContrastRatio() error: %v", err)
			}
			if math.Abs(got-tt.want) > 0.01 {
				t.Fatalf("ContrastRatio(%s, %s) = %.3f, want %.3f", tt.a, tt.b, got, tt.want)
			}
		})
	}

	if _, err := ContrastRatio("not-a-color", "#ffffff"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestAuditDefaultBrandPasses(t *testing.T) {
	t.Parallel()

	findings := Audit(Default())
	if len(findings) != 5 {
		t.Fatalf("findings = %d, want 5", len(findings))
	}
	if !Passed(findings) {
		t.Fatalf("default brand failed audit:\n%s", RenderFindings(findings))
	}
}

func TestAuditFlagsViolations(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Dark.Base = cfg.Light.Base
	cfg.Dark.Background = cfg.Light.Background
	cfg.Light.Neutral = "#2a2a3e"

	failed := map[string]bool{}
	for _, f := range Audit(cfg) {
		if !f.OK {
			failed[f.Mode+"/"+f.Check] = true
		}
	}

	for _, want := range []string{"light/base-on-neutral", "/base-background-inversion"} {
		if !failed[want] {
			t.Fatalf("expected %s to fail, failures: %v", want, failed)
		}
	}
	if Passed(Audit(cfg)) {
		t.Fatalf("Passed() = true for violating brand")
	}
}

func TestAuditReportsBadHex(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Light.Background = "white"
	findings := Audit(cfg)
	if Passed(findings) {
		t.Fatalf("expected failures for unparseable color")
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "brand.yaml")
	doc := "name: Acme\nlight:\n  accent: \"#10b981\"\ntypography:\n  logo: Orbitron\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	def := Default()
	if cfg.Name != "Acme" || cfg.Light.Accent != "#10b981" || cfg.Typography.Logo != "Orbitron" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Tagline != def.Tagline || cfg.Light.Base != def.Light.Base || cfg.Dark != def.Dark {
		t.Fatalf("unset fields lost their defaults: %+v", cfg)
	}
}

func TestLoadMissingFileIsDefault(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("Load(missing) = %+v, want default", cfg)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "brand.yaml")
	if err := os.WriteFile(path, []byte("light: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestRenderMentionsEveryRole(t *testing.T) {
	t.Parallel()

	out := Render(Default())
	for _, want := range []string{"Vue Template", "base", "background", "Bungee", "Source Code Pro"} {
		if !strings.Contains(out, want) {
			t.Fatalf("Render() output missing %q", want)
		}
	}
}

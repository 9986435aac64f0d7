package theme

import (
	"image"
	"image/color"
	"testing"
)

func TestNamedPalettesComplete(t *testing.T) {
	for _, name := range []string{Classic, Light, Midnight, Sepia} {
		p := Named(name)
		if p.Name != name {
			t.Errorf("Named(%q).Name = %q", name, p.Name)
		}
		for field, value := range map[string]string{
			"Primary": p.Primary, "Secondary": p.Secondary,
			"Accent": p.Accent, "Dim": p.Dim,
		} {
			if value == "" {
				t.Errorf("palette %q missing %s", name, field)
			}
		}
		if len(p.Gradient) != gradientSteps {
			t.Errorf("palette %q gradient has %d steps, want %d", name, len(p.Gradient), gradientSteps)
		}
	}
}

func TestNamedUnknownFallsBackToClassic(t *testing.T) {
	if got := Named("neon"); got.Name != Classic {
		t.Errorf("unknown theme resolved to %q, want classic", got.Name)
	}
}

func TestHexToRGB(t *testing.T) {
	cases := []struct {
		in      string
		r, g, b uint8
	}{
		{"#FF0000", 255, 0, 0},
		{"00FF00", 0, 255, 0},
		{"#1A2B3C", 0x1A, 0x2B, 0x3C},
		{"bogus", 255, 255, 255},
		{"", 255, 255, 255},
	}

	for _, c := range cases {
		r, g, b := HexToRGB(c.in)
		if r != c.r || g != c.g || b != c.b {
			t.Errorf("HexToRGB(%q) = %d,%d,%d, want %d,%d,%d", c.in, r, g, b, c.r, c.g, c.b)
		}
	}
}

func TestGradientEndpoints(t *testing.T) {
	grad := GradientBetween("#000000", "#FFFFFF", 8)
	if len(grad) != 8 {
		t.Fatalf("gradient length = %d, want 8", len(grad))
	}
	if grad[0] != "#000000" {
		t.Errorf("gradient starts at %s, want #000000", grad[0])
	}
	if grad[7] != "#FFFFFF" {
		t.Errorf("gradient ends at %s, want #FFFFFF", grad[7])
	}

	// luminance must be monotonic for a black→white ramp
	for i := 1; i < len(grad); i++ {
		if Luminance(grad[i]) < Luminance(grad[i-1]) {
			t.Errorf("gradient not monotonic at step %d: %v", i, grad)
		}
	}
}

func TestFromArtworkNilFallsBack(t *testing.T) {
	if got := FromArtwork(nil); got.Name != Classic {
		t.Errorf("nil artwork resolved to %q, want classic", got.Name)
	}
}

func TestFromArtworkFlatImageFallsBack(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	grey := color.RGBA{R: 120, G: 120, B: 120, A: 255}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, grey)
		}
	}

	if got := FromArtwork(img); got.Name != Classic {
		t.Errorf("flat artwork resolved to %q, want classic fallback", got.Name)
	}
}

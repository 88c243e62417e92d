package certificate

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemplate(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	bg := color.RGBA{R: 0xf5, G: 0xe9, B: 0xd0, A: 0xff}
	for y := 0; y < 600; y++ {
		for x := 0; x < 800; x++ {
			img.Set(x, y, bg)
		}
	}
	path := filepath.Join(t.TempDir(), "certificate.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode template: %v", err)
	}
	return path
}

func TestRender(t *testing.T) {
	template := writeTemplate(t)
	msk := time.FixedZone("MSK", 3*60*60)
	issuedAt := time.Date(2026, 3, 1, 19, 30, 0, 0, msk)

	t.Run("produces a decodable PNG of template size", func(t *testing.T) {
		g := NewGenerator(template, nil, msk)
		data, err := g.Render("@winner", issuedAt)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("output is not a PNG: %v", err)
		}
		if got := img.Bounds(); got.Dx() != 800 || got.Dy() != 600 {
			t.Errorf("bounds = %v, want 800x600", got)
		}
	})

	t.Run("identical inputs reproduce identical bytes", func(t *testing.T) {
		g := NewGenerator(template, nil, msk)
		first, err := g.Render("@winner", issuedAt)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		second, err := g.Render("@winner", issuedAt)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if !bytes.Equal(first, second) {
			t.Error("renders of identical inputs differ")
		}
	})

	t.Run("text changes the output", func(t *testing.T) {
		g := NewGenerator(template, nil, msk)
		a, err := g.Render("@winner", issuedAt)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		b, err := g.Render("@someone", issuedAt)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if bytes.Equal(a, b) {
			t.Error("different names rendered identical bytes")
		}
	})

	t.Run("missing template", func(t *testing.T) {
		g := NewGenerator(filepath.Join(t.TempDir(), "nope.png"), nil, msk)
		if _, err := g.Render("@winner", issuedAt); !errors.Is(err, ErrTemplateMissing) {
			t.Errorf("err = %v, want ErrTemplateMissing", err)
		}
	})

	t.Run("unreadable font paths fall back to the embedded face", func(t *testing.T) {
		g := NewGenerator(template, []string{filepath.Join(t.TempDir(), "missing.ttf")}, msk)
		if _, err := g.Render("@winner", issuedAt); err != nil {
			t.Fatalf("Render with fallback font: %v", err)
		}
	})
}

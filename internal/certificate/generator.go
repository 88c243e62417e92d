package certificate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/odjakh/giveaway-bot/core/logger"
)

// ErrTemplateMissing indicates the background template asset is absent.
// The draw reports this to the administrator; it is never retried.
var ErrTemplateMissing = errors.New("certificate: template asset missing")

const (
	// Text anchor coordinates on the template, in pixels.
	nameX, nameY     = 120, 300
	issuedX, issuedY = 120, 420
	expiryX, expiryY = 120, 480

	nameFontSize = 48.0
	dateFontSize = 28.0

	certDPI      = 72
	validityDays = 90

	dateLayout = "02.01.2006"
)

var textColor = color.RGBA{R: 0x2b, G: 0x1d, B: 0x0e, A: 0xff}

// Generator composites winner details onto a fixed PNG template.
// Rendering is a pure function of (template, name, issue time): the font is
// resolved once, deterministically, so identical inputs reproduce identical
// bytes.
type Generator struct {
	templatePath string
	fontPaths    []string
	loc          *time.Location

	fontOnce sync.Once
	font     *truetype.Font
}

// NewGenerator builds a certificate generator. fontPaths is an ordered list
// of TTF files; when none resolve the embedded Go Regular face is used, so
// font resolution never fails the render.
func NewGenerator(templatePath string, fontPaths []string, loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{
		templatePath: templatePath,
		fontPaths:    fontPaths,
		loc:          loc,
	}
}

// Render produces the lossless certificate image for the winner, carrying
// the issue date and the expiry date (issue + 90 days).
func (g *Generator) Render(winnerName string, issuedAt time.Time) ([]byte, error) {
	template, err := g.loadTemplate()
	if err != nil {
		return nil, err
	}

	fnt := g.resolveFont()

	bounds := template.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, template, bounds.Min, draw.Src)

	fc := freetype.NewContext()
	fc.SetDPI(certDPI)
	fc.SetFont(fnt)
	fc.SetClip(bounds)
	fc.SetDst(canvas)
	fc.SetSrc(image.NewUniform(textColor))

	issued := issuedAt.In(g.loc)
	expiry := issued.AddDate(0, 0, validityDays)

	lines := []struct {
		text string
		size float64
		x, y int
	}{
		{winnerName, nameFontSize, nameX, nameY},
		{"Выдан: " + issued.Format(dateLayout), dateFontSize, issuedX, issuedY},
		{"Действителен до: " + expiry.Format(dateLayout), dateFontSize, expiryX, expiryY},
	}
	for _, line := range lines {
		fc.SetFontSize(line.size)
		if _, err := fc.DrawString(line.text, freetype.Pt(line.x, line.y)); err != nil {
			return nil, fmt.Errorf("certificate: draw text: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("certificate: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) loadTemplate() (image.Image, error) {
	f, err := os.Open(g.templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, g.templatePath)
		}
		return nil, fmt.Errorf("certificate: open template: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("certificate: decode template: %w", err)
	}
	return img, nil
}

// resolveFont walks the configured paths in order and caches the first
// parseable face; the embedded fallback keeps resolution infallible and
// deterministic.
func (g *Generator) resolveFont() *truetype.Font {
	g.fontOnce.Do(func() {
		for _, path := range g.fontPaths {
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			fnt, err := truetype.Parse(data)
			if err != nil {
				logger.Warn(context.Background(), "service.certificate", "certificate.font_skip",
					slog.String("path", path),
					slog.String("err", err.Error()),
				)
				continue
			}
			g.font = fnt
			return
		}
		fnt, err := truetype.Parse(goregular.TTF)
		if err == nil {
			g.font = fnt
		}
	})
	if g.font == nil {
		// goregular always parses; this branch guards a corrupted build only.
		fnt, _ := truetype.Parse(goregular.TTF)
		return fnt
	}
	return g.font
}

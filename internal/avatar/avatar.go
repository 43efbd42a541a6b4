// Package avatar renders square placeholder photos showing a person's initials.
package avatar

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	Size        = 200
	FontSize    = 60
	JPEGQuality = 75
)

type Renderer struct {
	face font.Face
}

// New renders with Go Bold at FontSize.
func New(logger *slog.Logger) *Renderer {
	return NewFromFont(gobold.TTF, logger)
}

// NewFromFont falls back to the built-in bitmap face when ttf cannot be
// loaded.
func NewFromFont(ttf []byte, logger *slog.Logger) *Renderer {
	face, err := LoadFace(ttf, FontSize)
	if err != nil {
		logger.Warn("preferred font unavailable, using default face", "error", err)
		face = basicfont.Face7x13
	}
	return NewWithFace(face)
}

func NewWithFace(face font.Face) *Renderer {
	return &Renderer{face: face}
}

// LoadFace parses a TrueType/OpenType font at the given point size (72 DPI).
func LoadFace(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	return face, nil
}

// Initials returns the first rune of every whitespace separated word.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(r)
	}
	return b.String()
}

// Render fills a Size x Size square with bg and draws text in white, centred
// on its measured bounding box.
func (r *Renderer) Render(text string, bg color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	if text == "" {
		return img
	}

	bounds, _ := font.BoundString(r.face, text)
	width := (bounds.Max.X - bounds.Min.X).Ceil()
	height := (bounds.Max.Y - bounds.Min.Y).Ceil()

	x := (Size - width) / 2
	y := (Size - height) / 2

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: r.face,
		// bounds are relative to the dot, shift so the box starts at (x, y)
		Dot: fixed.Point26_6{
			X: fixed.I(x) - bounds.Min.X,
			Y: fixed.I(y) - bounds.Min.Y,
		},
	}
	d.DrawString(text)
	return img
}

func EncodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
}

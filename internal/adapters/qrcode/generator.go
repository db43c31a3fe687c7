// Package qrcode renders credential images: a QR code for a URL with an optional logo
// centered over it.
package qrcode

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
)

const (
	defaultSize = 512
	// The logo covers at most this fraction of the side; high error correction tolerates it.
	logoFraction = 5
	logoPadding  = 4
)

type Config struct {
	Size     int
	LogoPath string
}

type Generator struct {
	size     int
	logoPath string
}

func NewGenerator(cfg Config) *Generator {
	size := cfg.Size
	if size <= 0 {
		size = defaultSize
	}
	return &Generator{size: size, logoPath: cfg.LogoPath}
}

// Generate is deterministic: the same content and logo produce identical bytes.
func (g *Generator) Generate(ctx context.Context, content string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	level := qrcode.Medium
	if g.logoPath != "" {
		level = qrcode.Highest
	}
	q, err := qrcode.New(content, level)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	code := q.Image(g.size)
	canvas := image.NewRGBA(code.Bounds())
	draw.Draw(canvas, canvas.Bounds(), code, code.Bounds().Min, draw.Src)

	if g.logoPath != "" {
		logo, err := loadLogo(g.logoPath)
		if err != nil {
			return nil, err
		}
		overlayLogo(canvas, logo)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func loadLogo(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open logo: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	return img, nil
}

func overlayLogo(canvas *image.RGBA, logo image.Image) {
	b := canvas.Bounds()
	side := b.Dx() / logoFraction
	lb := logo.Bounds()
	if side <= 0 || lb.Dx() == 0 || lb.Dy() == 0 {
		return
	}

	w, h := side, side
	if lb.Dx() > lb.Dy() {
		h = side * lb.Dy() / lb.Dx()
	} else {
		w = side * lb.Dx() / lb.Dy()
	}
	x0 := b.Min.X + (b.Dx()-w)/2
	y0 := b.Min.Y + (b.Dy()-h)/2
	target := image.Rect(x0, y0, x0+w, y0+h)

	pad := target.Inset(-logoPadding)
	draw.Draw(canvas, pad, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(canvas, target, logo, lb, draw.Over, nil)
}
